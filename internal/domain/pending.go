package domain

// PendingExpense is an expense staged for explicit confirmation.
type PendingExpense struct {
	Amount       float64       `json:"amount"`
	Description  string        `json:"description"`
	Property     *Property     `json:"property,omitempty"`
	Professional *Professional `json:"professional,omitempty"`
}

// PendingUpdate is a property mutation staged for explicit confirmation.
// Description is built when staging and shown as-is.
type PendingUpdate struct {
	Property    Property       `json:"property"`
	Updates     PropertyUpdate `json:"updates"`
	Description string         `json:"description"`
}

type ConfirmationKind string

const (
	ConfirmationExpense ConfirmationKind = "expense"
	ConfirmationUpdate  ConfirmationKind = "update"
)

// Confirmation is what the UI shows before a pending action is committed.
type Confirmation struct {
	Kind             ConfirmationKind `json:"kind"`
	ProfessionalName string           `json:"professional_name,omitempty"`
	PropertyAddress  string           `json:"property_address"`
	Amount           float64          `json:"amount,omitempty"`
	Description      string           `json:"description"`
}
