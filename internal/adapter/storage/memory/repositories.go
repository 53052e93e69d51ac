// Package memory keeps properties, professionals and expenses in process.
// The console assistant uses it with a YAML fixture instead of PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// Store holds the three collections behind one lock.
type Store struct {
	mu            sync.RWMutex
	properties    map[string]domain.Property
	professionals map[string]domain.Professional
	expenses      []domain.Expense
}

func NewStore() *Store {
	return &Store{
		properties:    make(map[string]domain.Property),
		professionals: make(map[string]domain.Professional),
	}
}

func (s *Store) Properties() ports.PropertyRepository       { return propertyRepo{s} }
func (s *Store) Professionals() ports.ProfessionalRepository { return professionalRepo{s} }
func (s *Store) Expenses() ports.ExpenseRepository           { return expenseRepo{s} }

type propertyRepo struct{ s *Store }

func (r propertyRepo) Save(_ context.Context, p *domain.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	r.s.properties[p.ID] = *p
	return nil
}

func (r propertyRepo) FindByID(_ context.Context, id string) (*domain.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r propertyRepo) FindAll(_ context.Context) ([]domain.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Property, 0, len(r.s.properties))
	for _, p := range r.s.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (r propertyRepo) UpdateFields(_ context.Context, id string, update domain.PropertyUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return domain.ErrNotFound
	}
	p = update.Apply(p)
	p.UpdatedAt = time.Now()
	r.s.properties[id] = p
	return nil
}

type professionalRepo struct{ s *Store }

func (r professionalRepo) Save(_ context.Context, p *domain.Professional) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	r.s.professionals[p.ID] = *p
	return nil
}

func (r professionalRepo) FindByID(_ context.Context, id string) (*domain.Professional, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.professionals[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r professionalRepo) FindAll(_ context.Context) ([]domain.Professional, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Professional, 0, len(r.s.professionals))
	for _, p := range r.s.professionals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type expenseRepo struct{ s *Store }

func (r expenseRepo) Save(_ context.Context, e *domain.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.s.expenses = append(r.s.expenses, *e)
	return nil
}

// FindAll returns newest first.
func (r expenseRepo) FindAll(_ context.Context, limit, offset int) ([]domain.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if limit < 0 {
		limit = 0
	}
	n := len(r.s.expenses)
	out := make([]domain.Expense, 0, limit)
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.s.expenses[i])
	}
	return out, nil
}

func (r expenseRepo) FindByProperty(_ context.Context, propertyID string) ([]domain.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Expense
	for i := len(r.s.expenses) - 1; i >= 0; i-- {
		e := r.s.expenses[i]
		if e.PropertyID != nil && *e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out, nil
}
