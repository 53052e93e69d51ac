package voice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	unidentifiedProfessional = "No identificado"
	generalProperty          = "General"
)

// Gate holds at most one pending expense and one pending update. Staging a
// new action of the same kind replaces the previous one.
type Gate struct {
	mutator  ports.PropertyMutator
	recorder ports.ExpenseRecorder
	nav      ports.Navigator
	log      *zap.Logger

	mu      sync.Mutex
	expense *domain.PendingExpense
	update  *domain.PendingUpdate
}

func NewGate(mutator ports.PropertyMutator, recorder ports.ExpenseRecorder, nav ports.Navigator, log *zap.Logger) *Gate {
	return &Gate{
		mutator:  mutator,
		recorder: recorder,
		nav:      nav,
		log:      log,
	}
}

func (g *Gate) StageExpense(ctx context.Context, pe domain.PendingExpense) {
	g.mu.Lock()
	replaced := g.expense != nil
	g.expense = &pe
	g.mu.Unlock()

	if replaced {
		telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationExpense), "replaced").Inc()
		g.log.Info("Pending expense replaced by a newer one")
	}
	g.nav.PresentConfirmation(ctx, ExpenseConfirmation(pe))
}

func (g *Gate) StageUpdate(ctx context.Context, pu domain.PendingUpdate) {
	g.mu.Lock()
	replaced := g.update != nil
	g.update = &pu
	g.mu.Unlock()

	if replaced {
		telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationUpdate), "replaced").Inc()
		g.log.Info("Pending update replaced by a newer one", zap.String("property_id", pu.Property.ID))
	}
	g.nav.PresentConfirmation(ctx, UpdateConfirmation(pu))
}

func (g *Gate) PendingExpense() (domain.PendingExpense, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expense == nil {
		return domain.PendingExpense{}, false
	}
	return *g.expense, true
}

func (g *Gate) PendingUpdate() (domain.PendingUpdate, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.update == nil {
		return domain.PendingUpdate{}, false
	}
	return *g.update, true
}

func (g *Gate) HasPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expense != nil || g.update != nil
}

// ConfirmUpdate commits the staged update. With nothing staged it returns
// nil, nil. On failure the action stays pending so it can be retried.
func (g *Gate) ConfirmUpdate(ctx context.Context) (*domain.Property, error) {
	g.mu.Lock()
	pu := g.update
	g.update = nil
	g.mu.Unlock()
	if pu == nil {
		return nil, nil
	}

	var (
		updated *domain.Property
		err     error
	)
	if pu.Updates.NotesOnly() {
		updated, err = g.mutator.UpdateNote(ctx, pu.Property.ID, *pu.Updates.Notes)
	} else {
		updated, err = g.mutator.UpdatePropertyFields(ctx, pu.Property.ID, pu.Updates)
	}
	if err != nil {
		g.restoreUpdate(pu)
		g.log.Error("Failed to commit property update",
			zap.String("property_id", pu.Property.ID),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationUpdate), "confirmed").Inc()
	g.nav.CloseConfirmation(ctx, domain.ConfirmationUpdate)
	return updated, nil
}

// ConfirmExpense records the staged expense. With nothing staged it returns nil, nil.
func (g *Gate) ConfirmExpense(ctx context.Context) (*domain.Expense, error) {
	g.mu.Lock()
	pe := g.expense
	g.expense = nil
	g.mu.Unlock()
	if pe == nil {
		return nil, nil
	}

	expense := &domain.Expense{
		ID:          uuid.New().String(),
		Amount:      pe.Amount,
		Description: pe.Description,
		Source:      domain.ExpenseSourceVoice,
		CreatedAt:   time.Now().UTC(),
	}
	if pe.Property != nil {
		id := pe.Property.ID
		expense.PropertyID = &id
	}
	if pe.Professional != nil {
		id := pe.Professional.ID
		expense.ProfessionalID = &id
	}

	if err := g.recorder.RegisterExpense(ctx, expense); err != nil {
		g.restoreExpense(pe)
		g.log.Error("Failed to register expense", zap.Error(err))
		return nil, err
	}

	telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationExpense), "confirmed").Inc()
	g.nav.CloseConfirmation(ctx, domain.ConfirmationExpense)
	return expense, nil
}

func (g *Gate) CancelUpdate(ctx context.Context) {
	g.mu.Lock()
	had := g.update != nil
	g.update = nil
	g.mu.Unlock()
	if !had {
		return
	}
	telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationUpdate), "declined").Inc()
	g.nav.CloseConfirmation(ctx, domain.ConfirmationUpdate)
}

func (g *Gate) CancelExpense(ctx context.Context) {
	g.mu.Lock()
	had := g.expense != nil
	g.expense = nil
	g.mu.Unlock()
	if !had {
		return
	}
	telemetry.ConfirmationsTotal.WithLabelValues(string(domain.ConfirmationExpense), "declined").Inc()
	g.nav.CloseConfirmation(ctx, domain.ConfirmationExpense)
}

// restore* put a failed action back unless a newer one was staged meanwhile.
func (g *Gate) restoreUpdate(pu *domain.PendingUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.update == nil {
		g.update = pu
	}
}

func (g *Gate) restoreExpense(pe *domain.PendingExpense) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expense == nil {
		g.expense = pe
	}
}

func ExpenseConfirmation(pe domain.PendingExpense) domain.Confirmation {
	c := domain.Confirmation{
		Kind:             domain.ConfirmationExpense,
		ProfessionalName: unidentifiedProfessional,
		PropertyAddress:  generalProperty,
		Amount:           pe.Amount,
		Description:      pe.Description,
	}
	if pe.Professional != nil && pe.Professional.Name != "" {
		c.ProfessionalName = pe.Professional.Name
	}
	if pe.Property != nil && pe.Property.Address != "" {
		c.PropertyAddress = pe.Property.Address
	}
	return c
}

func UpdateConfirmation(pu domain.PendingUpdate) domain.Confirmation {
	return domain.Confirmation{
		Kind:            domain.ConfirmationUpdate,
		PropertyAddress: pu.Property.Address,
		Description:     pu.Description,
	}
}
