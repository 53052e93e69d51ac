package ports

import (
	"context"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// CompletionRequest is a single structured-output call to a language model.
type CompletionRequest struct {
	SystemInstruction string
	History           []domain.ConversationTurn
	Prompt            string
	Temperature       float32
	// JSONOutput asks the provider to constrain output to the intent schema.
	JSONOutput bool
}

// LanguageModel returns the raw text of the model's answer.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// IntentResolver never fails: errors become a fallback intent.
type IntentResolver interface {
	Resolve(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent
}

// Recognizer is the platform speech recognizer. Results come back
// asynchronously through the capture component.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context, locale string) error
	Abort()
}

// Speaker is the platform speech synthesizer. done runs once playback ends.
type Speaker interface {
	Speak(ctx context.Context, text, locale string, done func()) error
	CancelSpeech()
}

// Navigator receives UI effects produced by the dispatcher and the gate.
type Navigator interface {
	SwitchView(ctx context.Context, view domain.View)
	OpenModal(ctx context.Context, modal domain.Modal, prefill string)
	SearchMap(ctx context.Context, query string)
	SelectProperty(ctx context.Context, p domain.Property)
	SelectProfessional(ctx context.Context, p domain.Professional)
	OpenAssignment(ctx context.Context, p domain.Property, pro domain.Professional)
	OpenMaintenanceCompletion(ctx context.Context, p domain.Property)
	// PromptCall asks the user to accept before dialing.
	PromptCall(ctx context.Context, name, phone string)
	PresentConfirmation(ctx context.Context, c domain.Confirmation)
	CloseConfirmation(ctx context.Context, kind domain.ConfirmationKind)
}

// WorkspaceSource returns a fresh snapshot for each resolution call.
type WorkspaceSource interface {
	Workspace(ctx context.Context) (domain.Workspace, error)
}

type PropertyMutator interface {
	UpdatePropertyFields(ctx context.Context, id string, update domain.PropertyUpdate) (*domain.Property, error)
	UpdateNote(ctx context.Context, id, text string) (*domain.Property, error)
}

type ExpenseRecorder interface {
	RegisterExpense(ctx context.Context, e *domain.Expense) error
}

// PropertyService is the data-store collaborator used by the REST API.
type PropertyService interface {
	PropertyMutator
	ExpenseRecorder
	ListProperties(ctx context.Context) ([]domain.Property, error)
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
	CreateProperty(ctx context.Context, p *domain.Property) error
	ListProfessionals(ctx context.Context) ([]domain.Professional, error)
	CreateProfessional(ctx context.Context, p *domain.Professional) error
	ListExpenses(ctx context.Context, limit, offset int) ([]domain.Expense, error)
	Workspace(ctx context.Context) (domain.Workspace, error)
}
