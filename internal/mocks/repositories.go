package mocks

import (
	"context"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// MockPropertyRepository is a mock implementation of PropertyRepository
type MockPropertyRepository struct {
	SaveFunc         func(ctx context.Context, p *domain.Property) error
	FindByIDFunc     func(ctx context.Context, id string) (*domain.Property, error)
	FindAllFunc      func(ctx context.Context) ([]domain.Property, error)
	UpdateFieldsFunc func(ctx context.Context, id string, update domain.PropertyUpdate) error
}

func (m *MockPropertyRepository) Save(ctx context.Context, p *domain.Property) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	return nil
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPropertyRepository) FindAll(ctx context.Context) ([]domain.Property, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockPropertyRepository) UpdateFields(ctx context.Context, id string, update domain.PropertyUpdate) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, update)
	}
	return nil
}

// MockProfessionalRepository is a mock implementation of ProfessionalRepository
type MockProfessionalRepository struct {
	SaveFunc     func(ctx context.Context, p *domain.Professional) error
	FindByIDFunc func(ctx context.Context, id string) (*domain.Professional, error)
	FindAllFunc  func(ctx context.Context) ([]domain.Professional, error)
}

func (m *MockProfessionalRepository) Save(ctx context.Context, p *domain.Professional) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	return nil
}

func (m *MockProfessionalRepository) FindByID(ctx context.Context, id string) (*domain.Professional, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProfessionalRepository) FindAll(ctx context.Context) ([]domain.Professional, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

// MockExpenseRepository is a mock implementation of ExpenseRepository
type MockExpenseRepository struct {
	SaveFunc           func(ctx context.Context, e *domain.Expense) error
	FindAllFunc        func(ctx context.Context, limit, offset int) ([]domain.Expense, error)
	FindByPropertyFunc func(ctx context.Context, propertyID string) ([]domain.Expense, error)
}

func (m *MockExpenseRepository) Save(ctx context.Context, e *domain.Expense) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, e)
	}
	return nil
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Expense, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockExpenseRepository) FindByProperty(ctx context.Context, propertyID string) ([]domain.Expense, error) {
	if m.FindByPropertyFunc != nil {
		return m.FindByPropertyFunc(ctx, propertyID)
	}
	return nil, nil
}
