package domain

import (
	"time"
)

type ExpenseSource string

const (
	ExpenseSourceVoice  ExpenseSource = "voice"
	ExpenseSourceManual ExpenseSource = "manual"
)

type Expense struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	Amount         float64       `json:"amount"`
	Description    string        `json:"description"`
	PropertyID     *string       `json:"property_id,omitempty" gorm:"index"`
	ProfessionalID *string       `json:"professional_id,omitempty" gorm:"index"`
	Source         ExpenseSource `json:"source" gorm:"default:manual"`
	CreatedAt      time.Time     `json:"created_at"`
}
