package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Intent string

const (
	IntentNavigate        Intent = "NAVIGATE"
	IntentUpdateProperty  Intent = "UPDATE_PROPERTY"
	IntentSearchMap       Intent = "SEARCH_MAP"
	IntentSelectItem      Intent = "SELECT_ITEM"
	IntentExplainScreen   Intent = "EXPLAIN_SCREEN"
	IntentRegisterExpense Intent = "REGISTER_EXPENSE"
	IntentGeneralQuery    Intent = "GENERAL_QUERY"
	IntentCallContact     Intent = "CALL_CONTACT"
	IntentStopListening   Intent = "STOP_LISTENING"
	IntentUnknown         Intent = "UNKNOWN"
)

// Intents lists the closed intent taxonomy in prompt order.
var Intents = []Intent{
	IntentNavigate,
	IntentUpdateProperty,
	IntentSearchMap,
	IntentSelectItem,
	IntentExplainScreen,
	IntentRegisterExpense,
	IntentGeneralQuery,
	IntentCallContact,
	IntentStopListening,
	IntentUnknown,
}

// ParseIntent maps anything outside the taxonomy to IntentUnknown.
func ParseIntent(s string) Intent {
	candidate := Intent(strings.ToUpper(strings.TrimSpace(s)))
	for _, in := range Intents {
		if in == candidate {
			return in
		}
	}
	return IntentUnknown
}

// IsTerminal reports whether completing the intent starts a fresh conversation.
func (i Intent) IsTerminal() bool {
	switch i {
	case IntentNavigate, IntentSearchMap, IntentSelectItem,
		IntentRegisterExpense, IntentUpdateProperty, IntentStopListening:
		return true
	}
	return false
}

type ActionType string

const (
	ActionChangeRent         ActionType = "CHANGE_RENT"
	ActionAssignProfessional ActionType = "ASSIGN_PROFESSIONAL"
	ActionChangeTenant       ActionType = "CHANGE_TENANT"
	ActionCreateNote         ActionType = "CREATE_NOTE"
	ActionFinishMaintenance  ActionType = "FINISH_MAINTENANCE"
	ActionCreateNew          ActionType = "CREATE_NEW"
)

var ActionTypes = []ActionType{
	ActionChangeRent,
	ActionAssignProfessional,
	ActionChangeTenant,
	ActionCreateNote,
	ActionFinishMaintenance,
	ActionCreateNew,
}

type View string

const (
	ViewMap           View = "MAP"
	ViewProperties    View = "PROPERTIES"
	ViewTenants       View = "TENANTS"
	ViewFinance       View = "FINANCE"
	ViewProfessionals View = "PROFESSIONALS"
	ViewMaintenance   View = "MAINTENANCE"
)

var Views = []View{ViewMap, ViewProperties, ViewTenants, ViewFinance, ViewProfessionals, ViewMaintenance}

func ParseView(s string) (View, bool) {
	candidate := View(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range Views {
		if v == candidate {
			return v, true
		}
	}
	return "", false
}

type Modal string

const (
	ModalAddProperty     Modal = "ADD_PROPERTY_MODAL"
	ModalAddProfessional Modal = "ADD_PRO_MODAL"
)

type ItemType string

const (
	ItemProperty     ItemType = "PROPERTY"
	ItemProfessional ItemType = "PROFESSIONAL"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResolvedIntent is produced once per turn by the resolver and never mutated.
type ResolvedIntent struct {
	Intent           Intent      `json:"intent"`
	ResponseText     string      `json:"responseText"`
	RequiresFollowUp bool        `json:"requiresFollowUp"`
	Data             *RawPayload `json:"data,omitempty"`

	// Payload is Data decoded into its intent-specific variant, nil when the
	// intent carries none or required fields are missing.
	Payload Payload `json:"-"`
}

// NewResolvedIntent normalizes the intent and decodes the payload.
func NewResolvedIntent(intent Intent, responseText string, followUp bool, data *RawPayload) ResolvedIntent {
	intent = ParseIntent(string(intent))
	return ResolvedIntent{
		Intent:           intent,
		ResponseText:     strings.TrimSpace(responseText),
		RequiresFollowUp: followUp,
		Data:             data,
		Payload:          DecodePayload(intent, data),
	}
}

// LooseNumber accepts JSON numbers as well as es-AR numeric strings like
// "$ 5.000" or "5.000,50", where "." groups thousands and "," is the decimal
// separator.
type LooseNumber float64

var thousandsGrouped = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// parseLocaleNumber reads a number the way an es-AR speaker writes it. A lone
// "." followed by other than three digits stays a decimal point.
func parseLocaleNumber(raw string) (float64, error) {
	s := strings.NewReplacer("$", "", " ", "", "\u00a0", "").Replace(raw)
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return f, nil
}

func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.Trim(s, "$ ") == "" {
			return nil
		}
		f, err := parseLocaleNumber(s)
		if err != nil {
			return err
		}
		*n = LooseNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = LooseNumber(f)
	return nil
}

// RawPayload is the wire form of the model's "data" object.
type RawPayload struct {
	TargetView       string       `json:"targetView,omitempty"`
	Address          string       `json:"address,omitempty"`
	Query            string       `json:"query,omitempty"`
	ItemType         string       `json:"itemType,omitempty"`
	ItemID           string       `json:"itemId,omitempty"`
	PropertyID       string       `json:"propertyId,omitempty"`
	ActionType       string       `json:"actionType,omitempty"`
	NewRent          *LooseNumber `json:"newRent,omitempty"`
	NewTenant        string       `json:"newTenant,omitempty"`
	ProfessionalID   string       `json:"professionalId,omitempty"`
	ProfessionalName string       `json:"professionalName,omitempty"`
	TaskDescription  string       `json:"taskDescription,omitempty"`
	NoteContent      string       `json:"noteContent,omitempty"`
	Amount           *LooseNumber `json:"amount,omitempty"`
	Description      string       `json:"description,omitempty"`
	ContactName      string       `json:"contactName,omitempty"`
	PhoneNumber      string       `json:"phoneNumber,omitempty"`
}
