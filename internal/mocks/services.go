package mocks

import (
	"context"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// MockLanguageModel is a mock implementation of LanguageModel
type MockLanguageModel struct {
	CompleteFunc func(ctx context.Context, req ports.CompletionRequest) (string, error)
}

func (m *MockLanguageModel) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// MockIntentResolver is a mock implementation of IntentResolver
type MockIntentResolver struct {
	ResolveFunc func(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent
}

func (m *MockIntentResolver) Resolve(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, transcript, ws, history)
	}
	return domain.NewResolvedIntent(domain.IntentGeneralQuery, "", false, nil)
}

// MockPropertyService is a mock implementation of PropertyService
type MockPropertyService struct {
	UpdatePropertyFieldsFunc func(ctx context.Context, id string, update domain.PropertyUpdate) (*domain.Property, error)
	UpdateNoteFunc           func(ctx context.Context, id, text string) (*domain.Property, error)
	RegisterExpenseFunc      func(ctx context.Context, e *domain.Expense) error
	ListPropertiesFunc       func(ctx context.Context) ([]domain.Property, error)
	GetPropertyFunc          func(ctx context.Context, id string) (*domain.Property, error)
	CreatePropertyFunc       func(ctx context.Context, p *domain.Property) error
	ListProfessionalsFunc    func(ctx context.Context) ([]domain.Professional, error)
	CreateProfessionalFunc   func(ctx context.Context, p *domain.Professional) error
	ListExpensesFunc         func(ctx context.Context, limit, offset int) ([]domain.Expense, error)
	WorkspaceFunc            func(ctx context.Context) (domain.Workspace, error)
}

func (m *MockPropertyService) UpdatePropertyFields(ctx context.Context, id string, update domain.PropertyUpdate) (*domain.Property, error) {
	if m.UpdatePropertyFieldsFunc != nil {
		return m.UpdatePropertyFieldsFunc(ctx, id, update)
	}
	p := update.Apply(domain.Property{ID: id})
	return &p, nil
}

func (m *MockPropertyService) UpdateNote(ctx context.Context, id, text string) (*domain.Property, error) {
	if m.UpdateNoteFunc != nil {
		return m.UpdateNoteFunc(ctx, id, text)
	}
	return &domain.Property{ID: id, Notes: text}, nil
}

func (m *MockPropertyService) RegisterExpense(ctx context.Context, e *domain.Expense) error {
	if m.RegisterExpenseFunc != nil {
		return m.RegisterExpenseFunc(ctx, e)
	}
	return nil
}

func (m *MockPropertyService) ListProperties(ctx context.Context) ([]domain.Property, error) {
	if m.ListPropertiesFunc != nil {
		return m.ListPropertiesFunc(ctx)
	}
	return nil, nil
}

func (m *MockPropertyService) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	if m.GetPropertyFunc != nil {
		return m.GetPropertyFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPropertyService) CreateProperty(ctx context.Context, p *domain.Property) error {
	if m.CreatePropertyFunc != nil {
		return m.CreatePropertyFunc(ctx, p)
	}
	return nil
}

func (m *MockPropertyService) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	if m.ListProfessionalsFunc != nil {
		return m.ListProfessionalsFunc(ctx)
	}
	return nil, nil
}

func (m *MockPropertyService) CreateProfessional(ctx context.Context, p *domain.Professional) error {
	if m.CreateProfessionalFunc != nil {
		return m.CreateProfessionalFunc(ctx, p)
	}
	return nil
}

func (m *MockPropertyService) ListExpenses(ctx context.Context, limit, offset int) ([]domain.Expense, error) {
	if m.ListExpensesFunc != nil {
		return m.ListExpensesFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockPropertyService) Workspace(ctx context.Context) (domain.Workspace, error) {
	if m.WorkspaceFunc != nil {
		return m.WorkspaceFunc(ctx)
	}
	return domain.Workspace{}, nil
}
