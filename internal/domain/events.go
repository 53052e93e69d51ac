package domain

import "time"

const (
	SubjectPropertyUpdated   = "rentmap.property.updated"
	SubjectExpenseRegistered = "rentmap.expense.registered"
)

type PropertyUpdatedEvent struct {
	PropertyID string         `json:"property_id"`
	Fields     []string       `json:"fields"`
	Status     PropertyStatus `json:"status"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type ExpenseRegisteredEvent struct {
	ExpenseID  string        `json:"expense_id"`
	Amount     float64       `json:"amount"`
	PropertyID *string       `json:"property_id,omitempty"`
	Source     ExpenseSource `json:"source"`
	OccurredAt time.Time     `json:"occurred_at"`
}
