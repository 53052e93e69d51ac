package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type ExpenseRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewExpenseRepository(db *gorm.DB, log *zap.Logger) ports.ExpenseRepository {
	return &ExpenseRepository{
		db:  db,
		log: log,
	}
}

func (r *ExpenseRepository) Save(ctx context.Context, e *domain.Expense) error {
	defer observe("expense_save", time.Now())
	result := r.db.WithContext(ctx).Create(e)
	if result.Error != nil {
		r.log.Error("Failed to save expense", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *ExpenseRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Expense, error) {
	defer observe("expense_list", time.Now())
	var expenses []domain.Expense
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *ExpenseRepository) FindByProperty(ctx context.Context, propertyID string) ([]domain.Expense, error) {
	var expenses []domain.Expense
	result := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&expenses)
	if result.Error != nil {
		return nil, result.Error
	}
	return expenses, nil
}
