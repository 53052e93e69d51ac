package domain

import (
	"strings"
)

// Payload is the intent-specific part of a ResolvedIntent. The set of
// implementations is closed; switch on the concrete type.
type Payload interface {
	Intent() Intent
}

// PropertyAction is implemented by every UPDATE_PROPERTY variant.
type PropertyAction interface {
	Payload
	Action() ActionType
	TargetPropertyID() string
}

type NavigatePayload struct {
	View    View
	Modal   Modal
	Address string
}

type SearchMapPayload struct {
	Query string
}

type SelectItemPayload struct {
	ItemType ItemType
	ItemID   string
}

type ChangeRentPayload struct {
	PropertyID string
	NewRent    float64
}

type ChangeTenantPayload struct {
	PropertyID string
	TenantName string
}

type AssignProfessionalPayload struct {
	PropertyID       string
	ProfessionalID   string
	ProfessionalName string
	Task             string
}

type CreateNotePayload struct {
	PropertyID string
	Note       string
}

type FinishMaintenancePayload struct {
	PropertyID string
}

type CreatePropertyPayload struct {
	Address string
}

type RegisterExpensePayload struct {
	Amount           float64
	Description      string
	PropertyID       string
	ProfessionalID   string
	ProfessionalName string
}

type CallContactPayload struct {
	ContactName    string
	PhoneNumber    string
	ProfessionalID string
}

func (NavigatePayload) Intent() Intent           { return IntentNavigate }
func (SearchMapPayload) Intent() Intent          { return IntentSearchMap }
func (SelectItemPayload) Intent() Intent         { return IntentSelectItem }
func (ChangeRentPayload) Intent() Intent         { return IntentUpdateProperty }
func (ChangeTenantPayload) Intent() Intent       { return IntentUpdateProperty }
func (AssignProfessionalPayload) Intent() Intent { return IntentUpdateProperty }
func (CreateNotePayload) Intent() Intent         { return IntentUpdateProperty }
func (FinishMaintenancePayload) Intent() Intent  { return IntentUpdateProperty }
func (CreatePropertyPayload) Intent() Intent     { return IntentUpdateProperty }
func (RegisterExpensePayload) Intent() Intent    { return IntentRegisterExpense }
func (CallContactPayload) Intent() Intent        { return IntentCallContact }

func (ChangeRentPayload) Action() ActionType         { return ActionChangeRent }
func (ChangeTenantPayload) Action() ActionType       { return ActionChangeTenant }
func (AssignProfessionalPayload) Action() ActionType { return ActionAssignProfessional }
func (CreateNotePayload) Action() ActionType         { return ActionCreateNote }
func (FinishMaintenancePayload) Action() ActionType  { return ActionFinishMaintenance }
func (CreatePropertyPayload) Action() ActionType     { return ActionCreateNew }

func (p ChangeRentPayload) TargetPropertyID() string         { return p.PropertyID }
func (p ChangeTenantPayload) TargetPropertyID() string       { return p.PropertyID }
func (p AssignProfessionalPayload) TargetPropertyID() string { return p.PropertyID }
func (p CreateNotePayload) TargetPropertyID() string         { return p.PropertyID }
func (p FinishMaintenancePayload) TargetPropertyID() string  { return p.PropertyID }
func (CreatePropertyPayload) TargetPropertyID() string       { return "" }

// DecodePayload builds the variant for intent from the loose wire payload.
// It returns nil when the intent has no payload, a required field is missing
// or an amount could never be confirmed (a non-positive expense, a negative
// rent).
func DecodePayload(intent Intent, raw *RawPayload) Payload {
	if raw == nil {
		return nil
	}
	switch intent {
	case IntentNavigate:
		return decodeNavigate(raw)
	case IntentSearchMap:
		q := firstNonEmpty(raw.Query, raw.Address)
		if q == "" {
			return nil
		}
		return SearchMapPayload{Query: q}
	case IntentSelectItem:
		id := strings.TrimSpace(raw.ItemID)
		if id == "" {
			return nil
		}
		switch ItemType(strings.ToUpper(strings.TrimSpace(raw.ItemType))) {
		case ItemProperty:
			return SelectItemPayload{ItemType: ItemProperty, ItemID: id}
		case ItemProfessional:
			return SelectItemPayload{ItemType: ItemProfessional, ItemID: id}
		}
		return nil
	case IntentUpdateProperty:
		return decodePropertyAction(raw)
	case IntentRegisterExpense:
		desc := strings.TrimSpace(raw.Description)
		if raw.Amount == nil || *raw.Amount <= 0 || desc == "" {
			return nil
		}
		return RegisterExpensePayload{
			Amount:           float64(*raw.Amount),
			Description:      desc,
			PropertyID:       strings.TrimSpace(raw.PropertyID),
			ProfessionalID:   strings.TrimSpace(raw.ProfessionalID),
			ProfessionalName: strings.TrimSpace(raw.ProfessionalName),
		}
	case IntentCallContact:
		p := CallContactPayload{
			ContactName:    firstNonEmpty(raw.ContactName, raw.ProfessionalName),
			PhoneNumber:    strings.TrimSpace(raw.PhoneNumber),
			ProfessionalID: strings.TrimSpace(raw.ProfessionalID),
		}
		if p.ContactName == "" && p.PhoneNumber == "" && p.ProfessionalID == "" {
			return nil
		}
		return p
	}
	return nil
}

func decodeNavigate(raw *RawPayload) Payload {
	target := strings.ToUpper(strings.TrimSpace(raw.TargetView))
	address := strings.TrimSpace(raw.Address)
	switch Modal(target) {
	case ModalAddProperty, ModalAddProfessional:
		return NavigatePayload{Modal: Modal(target), Address: address}
	}
	view, ok := ParseView(target)
	if !ok {
		return nil
	}
	return NavigatePayload{View: view, Address: address}
}

func decodePropertyAction(raw *RawPayload) Payload {
	propertyID := strings.TrimSpace(raw.PropertyID)
	switch ActionType(strings.ToUpper(strings.TrimSpace(raw.ActionType))) {
	case ActionChangeRent:
		if raw.NewRent == nil || *raw.NewRent < 0 {
			return nil
		}
		return ChangeRentPayload{PropertyID: propertyID, NewRent: float64(*raw.NewRent)}
	case ActionChangeTenant:
		name := strings.TrimSpace(raw.NewTenant)
		if name == "" {
			return nil
		}
		return ChangeTenantPayload{PropertyID: propertyID, TenantName: name}
	case ActionAssignProfessional:
		p := AssignProfessionalPayload{
			PropertyID:       propertyID,
			ProfessionalID:   strings.TrimSpace(raw.ProfessionalID),
			ProfessionalName: strings.TrimSpace(raw.ProfessionalName),
			Task:             firstNonEmpty(raw.TaskDescription, raw.Description),
		}
		if p.ProfessionalID == "" && p.ProfessionalName == "" {
			return nil
		}
		return p
	case ActionCreateNote:
		note := firstNonEmpty(raw.NoteContent, raw.Description)
		if note == "" {
			return nil
		}
		return CreateNotePayload{PropertyID: propertyID, Note: note}
	case ActionFinishMaintenance:
		return FinishMaintenancePayload{PropertyID: propertyID}
	case ActionCreateNew:
		return CreatePropertyPayload{Address: firstNonEmpty(raw.Address, raw.Query)}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
