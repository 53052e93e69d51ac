package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

var _ voice.Transport = (*console)(nil)

// console stands in for the browser: typed lines are transcripts, speech and
// UI effects are printed.
type console struct {
	source ports.WorkspaceSource

	mu           sync.Mutex
	out          io.Writer
	listening    bool
	view         domain.View
	property     *domain.Property
	professional *domain.Professional
}

func newConsole(out io.Writer, source ports.WorkspaceSource) *console {
	return &console{out: out, source: source, view: domain.ViewMap}
}

func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) Supported() bool { return true }

func (c *console) Start(ctx context.Context, locale string) error {
	c.mu.Lock()
	c.listening = true
	c.mu.Unlock()
	c.printf("[escuchando]")
	return nil
}

func (c *console) Abort() {
	c.mu.Lock()
	c.listening = false
	c.mu.Unlock()
}

func (c *console) Speak(ctx context.Context, text, locale string, done func()) error {
	c.printf("asistente> %s", text)
	done()
	return nil
}

func (c *console) CancelSpeech() {}

func (c *console) SwitchView(ctx context.Context, view domain.View) {
	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
	c.printf("[panel] vista %s", view)
}

func (c *console) OpenModal(ctx context.Context, modal domain.Modal, prefill string) {
	c.printf("[panel] abre %s %q", modal, prefill)
}

func (c *console) SearchMap(ctx context.Context, query string) {
	c.printf("[mapa] busca %q", query)
}

func (c *console) SelectProperty(ctx context.Context, p domain.Property) {
	c.mu.Lock()
	c.property = &p
	c.mu.Unlock()
	c.printf("[panel] propiedad %s (%s)", p.Address, p.ID)
}

func (c *console) SelectProfessional(ctx context.Context, p domain.Professional) {
	c.mu.Lock()
	c.professional = &p
	c.mu.Unlock()
	c.printf("[panel] profesional %s (%s)", p.Name, p.Profession)
}

func (c *console) OpenAssignment(ctx context.Context, p domain.Property, pro domain.Professional) {
	c.printf("[panel] asignar %s a %s", pro.Name, p.Address)
}

func (c *console) OpenMaintenanceCompletion(ctx context.Context, p domain.Property) {
	c.printf("[panel] finalizar mantenimiento en %s", p.Address)
}

func (c *console) PromptCall(ctx context.Context, name, phone string) {
	c.printf("[panel] ¿llamar a %s al %s?", name, phone)
}

func (c *console) PresentConfirmation(ctx context.Context, conf domain.Confirmation) {
	switch conf.Kind {
	case domain.ConfirmationExpense:
		c.printf("[confirmar] gasto de $%.2f: %s (%s, %s). ¿Confirmás? (si/no)",
			conf.Amount, conf.Description, conf.PropertyAddress, conf.ProfessionalName)
	default:
		c.printf("[confirmar] %s en %s. ¿Confirmás? (si/no)", conf.Description, conf.PropertyAddress)
	}
}

func (c *console) CloseConfirmation(ctx context.Context, kind domain.ConfirmationKind) {
	c.printf("[confirmar] cerrado (%s)", kind)
}

func (c *console) Workspace(ctx context.Context) (domain.Workspace, error) {
	ws, err := c.source.Workspace(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ws.View = c.view
	if c.property != nil {
		if p, ok := ws.PropertyByID(c.property.ID); ok {
			ws.SelectedProperty = p
		}
	}
	if c.professional != nil {
		if p, ok := ws.ProfessionalByID(c.professional.ID); ok {
			ws.SelectedProfessional = p
		}
	}
	return ws, nil
}
