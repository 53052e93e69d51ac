package property

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	workspaceCacheKey = "workspace:lists"
	workspaceCacheTTL = 30 * time.Second
)

type Service struct {
	properties    ports.PropertyRepository
	professionals ports.ProfessionalRepository
	expenses      ports.ExpenseRepository
	cache         ports.Cache
	mq            ports.EventPublisher
	log           *zap.Logger
}

func NewService(
	properties ports.PropertyRepository,
	professionals ports.ProfessionalRepository,
	expenses ports.ExpenseRepository,
	cache ports.Cache,
	mq ports.EventPublisher,
	log *zap.Logger,
) *Service {
	return &Service{
		properties:    properties,
		professionals: professionals,
		expenses:      expenses,
		cache:         cache,
		mq:            mq,
		log:           log,
	}
}

var _ ports.PropertyService = (*Service)(nil)

func (s *Service) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return s.properties.FindAll(ctx)
}

func (s *Service) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("property %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (s *Service) CreateProperty(ctx context.Context, p *domain.Property) error {
	p.Address = strings.TrimSpace(p.Address)
	if p.Address == "" {
		return fmt.Errorf("address is required: %w", domain.ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.PropertyStatusVacant
	}
	if err := s.properties.Save(ctx, p); err != nil {
		return err
	}
	s.invalidateWorkspace(ctx)
	return nil
}

// UpdatePropertyFields applies a partial update and returns the new state.
func (s *Service) UpdatePropertyFields(ctx context.Context, id string, update domain.PropertyUpdate) (*domain.Property, error) {
	cols := update.Columns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("empty update: %w", domain.ErrInvalidInput)
	}
	if update.MonthlyRent != nil && *update.MonthlyRent < 0 {
		return nil, fmt.Errorf("negative rent: %w", domain.ErrInvalidInput)
	}

	current, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.properties.UpdateFields(ctx, id, update); err != nil {
		return nil, err
	}
	updated := update.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()

	s.invalidateWorkspace(ctx)

	fields := make([]string, 0, len(cols))
	for col := range cols {
		fields = append(fields, col)
	}
	sort.Strings(fields)
	s.publish(domain.SubjectPropertyUpdated, domain.PropertyUpdatedEvent{
		PropertyID: id,
		Fields:     fields,
		Status:     updated.Status,
		OccurredAt: updated.UpdatedAt,
	})

	s.log.Info("Property updated",
		zap.String("property_id", id),
		zap.Strings("fields", fields),
	)
	return &updated, nil
}

// UpdateNote replaces the notes text of a property.
func (s *Service) UpdateNote(ctx context.Context, id, text string) (*domain.Property, error) {
	return s.UpdatePropertyFields(ctx, id, domain.PropertyUpdate{Notes: &text})
}

func (s *Service) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	return s.professionals.FindAll(ctx)
}

func (s *Service) CreateProfessional(ctx context.Context, p *domain.Professional) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.professionals.Save(ctx, p); err != nil {
		return err
	}
	s.invalidateWorkspace(ctx)
	return nil
}

func (s *Service) RegisterExpense(ctx context.Context, e *domain.Expense) error {
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", domain.ErrInvalidInput)
	}
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return fmt.Errorf("description is required: %w", domain.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Source == "" {
		e.Source = domain.ExpenseSourceManual
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := s.expenses.Save(ctx, e); err != nil {
		return err
	}

	s.publish(domain.SubjectExpenseRegistered, domain.ExpenseRegisteredEvent{
		ExpenseID:  e.ID,
		Amount:     e.Amount,
		PropertyID: e.PropertyID,
		Source:     e.Source,
		OccurredAt: e.CreatedAt,
	})
	s.log.Info("Expense registered",
		zap.String("expense_id", e.ID),
		zap.Float64("amount", e.Amount),
		zap.String("source", string(e.Source)),
	)
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, limit, offset int) ([]domain.Expense, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.expenses.FindAll(ctx, limit, offset)
}

type workspaceLists struct {
	Properties    []domain.Property     `json:"properties"`
	Professionals []domain.Professional `json:"professionals"`
}

// Workspace returns the property and professional lists. View and selection
// are owned by the client and left empty.
func (s *Service) Workspace(ctx context.Context) (domain.Workspace, error) {
	if lists, ok := s.cachedWorkspace(ctx); ok {
		return domain.Workspace{Properties: lists.Properties, Professionals: lists.Professionals}, nil
	}

	props, err := s.properties.FindAll(ctx)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("list properties: %w", err)
	}
	pros, err := s.professionals.FindAll(ctx)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("list professionals: %w", err)
	}

	if s.cache != nil {
		data, err := json.Marshal(workspaceLists{Properties: props, Professionals: pros})
		if err == nil {
			if err := s.cache.Set(ctx, workspaceCacheKey, data, workspaceCacheTTL); err != nil {
				s.log.Warn("Failed to cache workspace", zap.Error(err))
			}
		}
	}
	return domain.Workspace{Properties: props, Professionals: pros}, nil
}

func (s *Service) cachedWorkspace(ctx context.Context) (workspaceLists, bool) {
	var lists workspaceLists
	if s.cache == nil {
		return lists, false
	}
	raw, err := s.cache.Get(ctx, workspaceCacheKey)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.log.Warn("Workspace cache unavailable", zap.Error(err))
		}
		return lists, false
	}
	if err := json.Unmarshal([]byte(raw), &lists); err != nil {
		return lists, false
	}
	return lists, true
}

func (s *Service) invalidateWorkspace(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, workspaceCacheKey); err != nil {
		s.log.Warn("Failed to invalidate workspace cache", zap.Error(err))
	}
}

func (s *Service) publish(subject string, event interface{}) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("Failed to encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := s.mq.Publish(subject, data); err != nil {
		s.log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
