package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// Fixture is the YAML layout accepted by LoadFixture.
type Fixture struct {
	Properties []struct {
		ID                     string  `yaml:"id"`
		Address                string  `yaml:"address"`
		Lat                    float64 `yaml:"lat"`
		Lng                    float64 `yaml:"lng"`
		TenantName             string  `yaml:"tenant_name"`
		TenantPhone            string  `yaml:"tenant_phone"`
		MonthlyRent            float64 `yaml:"monthly_rent"`
		Status                 string  `yaml:"status"`
		AssignedProfessionalID string  `yaml:"assigned_professional_id"`
		MaintenanceTask        string  `yaml:"maintenance_task"`
		Notes                  string  `yaml:"notes"`
	} `yaml:"properties"`
	Professionals []struct {
		ID         string `yaml:"id"`
		Name       string `yaml:"name"`
		Profession string `yaml:"profession"`
		Phone      string `yaml:"phone"`
		Email      string `yaml:"email"`
	} `yaml:"professionals"`
}

// LoadFixture reads a YAML file into a fresh Store.
func LoadFixture(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

func ParseFixture(raw []byte) (*Store, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	s := NewStore()
	for i, p := range f.Properties {
		if p.ID == "" {
			return nil, fmt.Errorf("fixture property %d: missing id", i)
		}
		prop := domain.Property{
			ID:              p.ID,
			Address:         p.Address,
			Lat:             p.Lat,
			Lng:             p.Lng,
			TenantName:      p.TenantName,
			TenantPhone:     p.TenantPhone,
			MonthlyRent:     p.MonthlyRent,
			Status:          domain.PropertyStatus(p.Status),
			MaintenanceTask: p.MaintenanceTask,
			Notes:           p.Notes,
		}
		if prop.Status == "" {
			prop.Status = domain.PropertyStatusVacant
		}
		if p.AssignedProfessionalID != "" {
			id := p.AssignedProfessionalID
			prop.AssignedProfessionalID = &id
		}
		s.properties[prop.ID] = prop
	}
	for i, p := range f.Professionals {
		if p.ID == "" {
			return nil, fmt.Errorf("fixture professional %d: missing id", i)
		}
		s.professionals[p.ID] = domain.Professional{
			ID:         p.ID,
			Name:       p.Name,
			Profession: p.Profession,
			Phone:      p.Phone,
			Email:      p.Email,
		}
	}
	return s, nil
}
