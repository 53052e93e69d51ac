package voice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// Outcome reports what Dispatch did with an intent.
type Outcome struct {
	// Applied is false when the intent was dropped or had no effect to run.
	Applied bool
	Staged  domain.ConfirmationKind
	// FollowUp is a question to ask when the input could not be resolved
	// without guessing.
	FollowUp string
}

// Dispatcher maps resolved intents to navigator effects or staged actions.
type Dispatcher struct {
	nav    ports.Navigator
	gate   *Gate
	tracer trace.Tracer
	log    *zap.Logger
}

func NewDispatcher(nav ports.Navigator, gate *Gate, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		nav:    nav,
		gate:   gate,
		tracer: telemetry.Tracer("dispatcher"),
		log:    log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, in domain.ResolvedIntent, ws domain.Workspace) Outcome {
	ctx, span := d.tracer.Start(ctx, "voice.Dispatch", trace.WithAttributes(
		attribute.String("intent", string(in.Intent)),
	))
	defer span.End()

	var out Outcome
	switch in.Intent {
	case domain.IntentNavigate:
		out = d.navigate(ctx, in.Payload)
	case domain.IntentSearchMap:
		if p, ok := in.Payload.(domain.SearchMapPayload); ok {
			d.nav.SearchMap(ctx, p.Query)
			out.Applied = true
		}
	case domain.IntentSelectItem:
		out = d.selectItem(ctx, in.Payload, ws)
	case domain.IntentUpdateProperty:
		out = d.updateProperty(ctx, in.Payload, ws)
	case domain.IntentRegisterExpense:
		out = d.registerExpense(ctx, in.Payload, ws)
	case domain.IntentCallContact:
		out = d.callContact(ctx, in.Payload, ws)
	case domain.IntentStopListening:
		out.Applied = true
	default:
		// GENERAL_QUERY, EXPLAIN_SCREEN, UNKNOWN: the spoken reply is the whole effect.
		telemetry.VoiceCommandsTotal.WithLabelValues(string(in.Intent), "spoken").Inc()
		return out
	}

	status := "dropped"
	switch {
	case out.FollowUp != "":
		status = "follow_up"
	case out.Staged != "":
		status = "staged"
	case out.Applied:
		status = "applied"
	}
	telemetry.VoiceCommandsTotal.WithLabelValues(string(in.Intent), status).Inc()
	span.SetAttributes(attribute.String("outcome", status))
	if status == "dropped" {
		d.log.Debug("Intent dropped", zap.String("intent", string(in.Intent)))
	}
	return out
}

func (d *Dispatcher) navigate(ctx context.Context, payload domain.Payload) Outcome {
	p, ok := payload.(domain.NavigatePayload)
	if !ok {
		return Outcome{}
	}
	if p.Modal != "" {
		d.nav.OpenModal(ctx, p.Modal, p.Address)
	} else {
		d.nav.SwitchView(ctx, p.View)
	}
	if p.Address != "" {
		d.nav.SearchMap(ctx, p.Address)
	}
	return Outcome{Applied: true}
}

func (d *Dispatcher) selectItem(ctx context.Context, payload domain.Payload, ws domain.Workspace) Outcome {
	p, ok := payload.(domain.SelectItemPayload)
	if !ok {
		return Outcome{}
	}
	switch p.ItemType {
	case domain.ItemProperty:
		prop, found := ws.PropertyByID(p.ItemID)
		if !found {
			return Outcome{}
		}
		d.nav.SelectProperty(ctx, *prop)
		if ws.View != domain.ViewMap {
			d.nav.SwitchView(ctx, domain.ViewMap)
		}
	case domain.ItemProfessional:
		pro, found := ws.ProfessionalByID(p.ItemID)
		if !found {
			return Outcome{}
		}
		d.nav.SelectProfessional(ctx, *pro)
	default:
		return Outcome{}
	}
	return Outcome{Applied: true}
}

func (d *Dispatcher) updateProperty(ctx context.Context, payload domain.Payload, ws domain.Workspace) Outcome {
	action, ok := payload.(domain.PropertyAction)
	if !ok {
		return Outcome{}
	}

	if create, ok := action.(domain.CreatePropertyPayload); ok {
		d.nav.OpenModal(ctx, domain.ModalAddProperty, create.Address)
		if create.Address != "" {
			d.nav.SearchMap(ctx, create.Address)
		}
		return Outcome{Applied: true}
	}

	target, found := ws.PropertyByID(action.TargetPropertyID())
	if !found {
		target = ws.SelectedProperty
	}
	if target == nil {
		return Outcome{}
	}

	var (
		update      domain.PropertyUpdate
		description string
	)
	switch a := action.(type) {
	case domain.ChangeRentPayload:
		rent := a.NewRent
		update.MonthlyRent = &rent
		description = "Actualizar el alquiler mensual a " + strconv.FormatFloat(rent, 'f', -1, 64)
	case domain.ChangeTenantPayload:
		name := a.TenantName
		status := domain.PropertyStatusCurrent
		update.TenantName = &name
		update.Status = &status
		description = "Cambiar el inquilino a " + name
	case domain.AssignProfessionalPayload:
		pro, ambiguous := d.resolveProfessional(a.ProfessionalID, a.ProfessionalName, ws)
		if len(ambiguous) > 0 {
			return Outcome{FollowUp: disambiguationQuestion(professionalNames(ambiguous))}
		}
		if pro == nil {
			return Outcome{}
		}
		id := pro.ID
		status := domain.PropertyStatusMaintenance
		update.AssignedProfessionalID = &id
		update.Status = &status
		description = fmt.Sprintf("Asignar a %s (%s)", pro.Name, pro.Profession)
		if a.Task != "" {
			task := a.Task
			update.MaintenanceTask = &task
			description += " para: " + task
		}
		d.gate.StageUpdate(ctx, domain.PendingUpdate{Property: *target, Updates: update, Description: description})
		d.nav.OpenAssignment(ctx, *target, *pro)
		return Outcome{Applied: true, Staged: domain.ConfirmationUpdate}
	case domain.CreateNotePayload:
		notes := AppendNote(target.Notes, a.Note)
		update.Notes = &notes
		description = "Agregar la nota: " + a.Note
	case domain.FinishMaintenancePayload:
		d.nav.OpenMaintenanceCompletion(ctx, *target)
		return Outcome{Applied: true}
	default:
		return Outcome{}
	}

	d.gate.StageUpdate(ctx, domain.PendingUpdate{Property: *target, Updates: update, Description: description})
	return Outcome{Applied: true, Staged: domain.ConfirmationUpdate}
}

func (d *Dispatcher) registerExpense(ctx context.Context, payload domain.Payload, ws domain.Workspace) Outcome {
	p, ok := payload.(domain.RegisterExpensePayload)
	if !ok {
		return Outcome{}
	}
	pe := domain.PendingExpense{
		Amount:      p.Amount,
		Description: p.Description,
	}
	if prop, found := ws.PropertyByID(p.PropertyID); found {
		pe.Property = prop
	}
	// Association is optional: an ambiguous name leaves the expense unassigned.
	if pro, _ := d.resolveProfessional(p.ProfessionalID, p.ProfessionalName, ws); pro != nil {
		pe.Professional = pro
	}
	d.gate.StageExpense(ctx, pe)
	return Outcome{Applied: true, Staged: domain.ConfirmationExpense}
}

func (d *Dispatcher) callContact(ctx context.Context, payload domain.Payload, ws domain.Workspace) Outcome {
	p, ok := payload.(domain.CallContactPayload)
	if !ok {
		return Outcome{}
	}

	name, phone := p.ContactName, p.PhoneNumber
	pro, ambiguous := d.resolveProfessional(p.ProfessionalID, p.ContactName, ws)
	switch {
	case pro != nil:
		name = pro.Name
		if pro.Phone != "" {
			phone = pro.Phone
		}
	case len(ambiguous) > 0:
		return Outcome{FollowUp: disambiguationQuestion(professionalNames(ambiguous))}
	case p.ContactName != "":
		prop, tied := matchTenant(p.ContactName, ws.Properties)
		if len(tied) > 0 {
			names := make([]string, len(tied))
			for i, t := range tied {
				names[i] = t.TenantName
			}
			return Outcome{FollowUp: disambiguationQuestion(names)}
		}
		if prop != nil {
			name = prop.TenantName
			if prop.TenantPhone != "" {
				phone = prop.TenantPhone
			}
		}
	}

	if phone == "" {
		return Outcome{}
	}
	d.nav.PromptCall(ctx, name, phone)
	return Outcome{Applied: true}
}

func (d *Dispatcher) resolveProfessional(id, name string, ws domain.Workspace) (*domain.Professional, []domain.Professional) {
	if pro, ok := ws.ProfessionalByID(id); ok {
		return pro, nil
	}
	if name == "" {
		return nil, nil
	}
	return MatchProfessional(name, ws.Professionals)
}

// AppendNote adds note as a new dash-prefixed line after the existing notes.
func AppendNote(existing, note string) string {
	line := "- " + strings.TrimSpace(note)
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return strings.TrimRight(existing, "\n") + "\n" + line
}

func professionalNames(pros []domain.Professional) []string {
	names := make([]string, len(pros))
	for i, p := range pros {
		names[i] = p.Name
	}
	return names
}

func disambiguationQuestion(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("¿Te referís a %s?", names[0])
	}
	return fmt.Sprintf("Encontré a %s y %s. ¿A quién te referís?",
		strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}
