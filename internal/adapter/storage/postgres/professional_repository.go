package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type ProfessionalRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProfessionalRepository(db *gorm.DB, log *zap.Logger) ports.ProfessionalRepository {
	return &ProfessionalRepository{
		db:  db,
		log: log,
	}
}

func (r *ProfessionalRepository) Save(ctx context.Context, p *domain.Professional) error {
	defer observe("professional_save", time.Now())
	result := r.db.WithContext(ctx).Save(p)
	if result.Error != nil {
		r.log.Error("Failed to save professional", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *ProfessionalRepository) FindByID(ctx context.Context, id string) (*domain.Professional, error) {
	var p domain.Professional
	result := r.db.WithContext(ctx).First(&p, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

func (r *ProfessionalRepository) FindAll(ctx context.Context) ([]domain.Professional, error) {
	defer observe("professional_list", time.Now())
	var pros []domain.Professional
	result := r.db.WithContext(ctx).Order("name").Find(&pros)
	if result.Error != nil {
		return nil, result.Error
	}
	return pros, nil
}
