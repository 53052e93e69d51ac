package websocket

import (
	"encoding/json"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// Envelope is the JSON frame exchanged with the browser.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client to server.
const (
	MsgCapabilities = "capabilities"
	MsgToggle       = "toggle"
	MsgCancel       = "cancel"
	MsgTranscript   = "transcript"
	MsgCaptureError = "capture_error"
	MsgSpeechDone   = "speech_done"
	MsgContext      = "context"
	MsgConfirm      = "confirm"
	MsgDecline      = "decline"
)

// Server to client.
const (
	MsgSession            = "session"
	MsgState              = "state"
	MsgListen             = "listen"
	MsgAbortListen        = "abort_listen"
	MsgSpeak              = "speak"
	MsgCancelSpeech       = "cancel_speech"
	MsgNavigate           = "navigate"
	MsgOpenModal          = "open_modal"
	MsgSearchMap          = "search_map"
	MsgSelect             = "select"
	MsgOpenMaintenance    = "open_maintenance"
	MsgOpenAssignment     = "open_assignment"
	MsgConfirmCall        = "confirm_call"
	MsgConfirmation       = "confirmation"
	MsgConfirmationClosed = "confirmation_closed"
	MsgPropertyUpdated    = "property_updated"
	MsgExpenseRegistered  = "expense_registered"
	MsgDataChanged        = "data_changed"
	MsgError              = "error"
)

type capabilitiesData struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}

type transcriptData struct {
	Text string `json:"text"`
}

type captureErrorData struct {
	Error string `json:"error"`
}

type speechData struct {
	ID     uint64 `json:"id"`
	Text   string `json:"text,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// contextData mirrors what the dashboard currently shows.
type contextData struct {
	View                   domain.View `json:"view"`
	SelectedPropertyID     string      `json:"selected_property_id,omitempty"`
	SelectedProfessionalID string      `json:"selected_professional_id,omitempty"`
}

type kindData struct {
	Kind domain.ConfirmationKind `json:"kind"`
}

type listenData struct {
	Locale string `json:"locale"`
}

type navigateData struct {
	View domain.View `json:"view"`
}

type modalData struct {
	Modal   domain.Modal `json:"modal"`
	Prefill string       `json:"prefill,omitempty"`
}

type searchData struct {
	Query string `json:"query"`
}

type selectData struct {
	ItemType domain.ItemType `json:"item_type"`
	ID       string          `json:"id"`
}

type assignmentData struct {
	PropertyID     string `json:"property_id"`
	ProfessionalID string `json:"professional_id"`
}

type callData struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type sessionData struct {
	ID string `json:"id"`
}

type errorData struct {
	Message string `json:"message"`
}

type eventData struct {
	Subject string          `json:"subject"`
	Event   json.RawMessage `json:"event"`
}
