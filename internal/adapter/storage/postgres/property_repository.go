package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = domain.ErrNotFound

type PropertyRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPropertyRepository(db *gorm.DB, log *zap.Logger) ports.PropertyRepository {
	return &PropertyRepository{
		db:  db,
		log: log,
	}
}

func (r *PropertyRepository) Save(ctx context.Context, p *domain.Property) error {
	defer observe("property_save", time.Now())
	result := r.db.WithContext(ctx).Save(p)
	if result.Error != nil {
		r.log.Error("Failed to save property", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	defer observe("property_find", time.Now())
	var p domain.Property
	result := r.db.WithContext(ctx).First(&p, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

func (r *PropertyRepository) FindAll(ctx context.Context) ([]domain.Property, error) {
	defer observe("property_list", time.Now())
	var props []domain.Property
	result := r.db.WithContext(ctx).Order("address").Find(&props)
	if result.Error != nil {
		return nil, result.Error
	}
	return props, nil
}

// UpdateFields writes only the columns present in the update.
func (r *PropertyRepository) UpdateFields(ctx context.Context, id string, update domain.PropertyUpdate) error {
	defer observe("property_update", time.Now())
	cols := update.Columns()
	if len(cols) == 0 {
		return nil
	}
	cols["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&domain.Property{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		r.log.Error("Failed to update property", zap.String("property_id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func observe(operation string, start time.Time) {
	telemetry.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
