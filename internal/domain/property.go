package domain

import (
	"time"
)

type PropertyStatus string

const (
	PropertyStatusCurrent     PropertyStatus = "current"
	PropertyStatusLate        PropertyStatus = "late"
	PropertyStatusVacant      PropertyStatus = "vacant"
	PropertyStatusMaintenance PropertyStatus = "maintenance"
)

type Property struct {
	ID                     string         `json:"id" gorm:"primaryKey"`
	Address                string         `json:"address" gorm:"index"`
	Lat                    float64        `json:"lat"`
	Lng                    float64        `json:"lng"`
	TenantName             string         `json:"tenant_name"`
	TenantPhone            string         `json:"tenant_phone,omitempty"`
	MonthlyRent            float64        `json:"monthly_rent"`
	Status                 PropertyStatus `json:"status" gorm:"default:vacant"`
	AssignedProfessionalID *string        `json:"assigned_professional_id,omitempty" gorm:"index"`
	MaintenanceTask        string         `json:"maintenance_task,omitempty"`
	Notes                  string         `json:"notes,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// PropertyUpdate is a partial update; nil fields are left untouched.
type PropertyUpdate struct {
	Address                *string         `json:"address,omitempty"`
	TenantName             *string         `json:"tenant_name,omitempty"`
	TenantPhone            *string         `json:"tenant_phone,omitempty"`
	MonthlyRent            *float64        `json:"monthly_rent,omitempty"`
	Status                 *PropertyStatus `json:"status,omitempty"`
	AssignedProfessionalID *string         `json:"assigned_professional_id,omitempty"`
	MaintenanceTask        *string         `json:"maintenance_task,omitempty"`
	Notes                  *string         `json:"notes,omitempty"`
}

func (u PropertyUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}

// NotesOnly reports whether the update touches nothing but the notes field.
func (u PropertyUpdate) NotesOnly() bool {
	cols := u.Columns()
	_, ok := cols["notes"]
	return ok && len(cols) == 1
}

// Columns maps the set fields to their column names.
func (u PropertyUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Address != nil {
		cols["address"] = *u.Address
	}
	if u.TenantName != nil {
		cols["tenant_name"] = *u.TenantName
	}
	if u.TenantPhone != nil {
		cols["tenant_phone"] = *u.TenantPhone
	}
	if u.MonthlyRent != nil {
		cols["monthly_rent"] = *u.MonthlyRent
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.AssignedProfessionalID != nil {
		cols["assigned_professional_id"] = *u.AssignedProfessionalID
	}
	if u.MaintenanceTask != nil {
		cols["maintenance_task"] = *u.MaintenanceTask
	}
	if u.Notes != nil {
		cols["notes"] = *u.Notes
	}
	return cols
}

// Apply returns a copy of p with the update applied.
func (u PropertyUpdate) Apply(p Property) Property {
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.TenantName != nil {
		p.TenantName = *u.TenantName
	}
	if u.TenantPhone != nil {
		p.TenantPhone = *u.TenantPhone
	}
	if u.MonthlyRent != nil {
		p.MonthlyRent = *u.MonthlyRent
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.AssignedProfessionalID != nil {
		id := *u.AssignedProfessionalID
		p.AssignedProfessionalID = &id
	}
	if u.MaintenanceTask != nil {
		p.MaintenanceTask = *u.MaintenanceTask
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	return p
}
