//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// setupDatabase returns a migrated gorm handle plus a raw lib/pq handle for
// assertions. DATABASE_URL points at an external server in CI.
func setupDatabase(t *testing.T) (*gorm.DB, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("rentmap_test"),
			tcpostgres.WithUsername("rentmap"),
			tcpostgres.WithPassword("rentmap_test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("Postgres container not available: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("Failed to terminate postgres container: %v", err)
			}
		})

		url, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("Failed to get connection string: %v", err)
		}
	}

	db, err := NewConnection(url, PoolConfig{MaxOpenConns: 4, LogLevel: "silent"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { Close(db) })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	raw, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("Failed to open lib/pq handle: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	for _, table := range []string{"expenses", "properties", "professionals"} {
		if _, err := raw.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
	return db, raw
}

func TestPropertyRepository_Integration(t *testing.T) {
	db, raw := setupDatabase(t)
	repo := NewPropertyRepository(db, zap.NewNop())
	ctx := context.Background()

	id := uuid.New().String()
	p := &domain.Property{
		ID:          id,
		Address:     "Av. Corrientes 1234",
		TenantName:  "Laura Gómez",
		MonthlyRent: 250000,
		Status:      domain.PropertyStatusCurrent,
	}

	t.Run("Save", func(t *testing.T) {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	})

	t.Run("FindByID", func(t *testing.T) {
		got, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got == nil || got.Address != p.Address {
			t.Fatalf("Expected address %q, got %+v", p.Address, got)
		}
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		got, err := repo.FindByID(ctx, uuid.New().String())
		if err != nil || got != nil {
			t.Fatalf("Expected nil, nil for missing row, got %+v, %v", got, err)
		}
	})

	t.Run("UpdateFields", func(t *testing.T) {
		rent := 300000.0
		status := domain.PropertyStatusLate
		if err := repo.UpdateFields(ctx, id, domain.PropertyUpdate{MonthlyRent: &rent, Status: &status}); err != nil {
			t.Fatalf("UpdateFields failed: %v", err)
		}

		var gotRent float64
		var gotStatus, gotTenant string
		err := raw.QueryRowContext(ctx,
			`SELECT monthly_rent, status, tenant_name FROM properties WHERE id = $1`, id,
		).Scan(&gotRent, &gotStatus, &gotTenant)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if gotRent != rent || gotStatus != string(status) {
			t.Errorf("Expected rent %v status %s, got %v %s", rent, status, gotRent, gotStatus)
		}
		if gotTenant != p.TenantName {
			t.Errorf("Untouched column changed: tenant %q", gotTenant)
		}
	})

	t.Run("UpdateFieldsMissing", func(t *testing.T) {
		note := "x"
		err := repo.UpdateFields(ctx, uuid.New().String(), domain.PropertyUpdate{Notes: &note})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestExpenseRepository_Integration(t *testing.T) {
	db, _ := setupDatabase(t)
	properties := NewPropertyRepository(db, zap.NewNop())
	repo := NewExpenseRepository(db, zap.NewNop())
	ctx := context.Background()

	propID := uuid.New().String()
	if err := properties.Save(ctx, &domain.Property{ID: propID, Address: "Belgrano 55"}); err != nil {
		t.Fatalf("Save property failed: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	for i, amount := range []float64{1000, 2000, 3000} {
		e := &domain.Expense{
			ID:          uuid.New().String(),
			Amount:      amount,
			Description: "plomería",
			Source:      domain.ExpenseSourceVoice,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if i == 2 {
			e.PropertyID = &propID
		}
		if err := repo.Save(ctx, e); err != nil {
			t.Fatalf("Save expense failed: %v", err)
		}
	}

	all, err := repo.FindAll(ctx, 2, 0)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 2 || all[0].Amount != 3000 {
		t.Errorf("Expected newest first with limit 2, got %+v", all)
	}

	byProp, err := repo.FindByProperty(ctx, propID)
	if err != nil {
		t.Fatalf("FindByProperty failed: %v", err)
	}
	if len(byProp) != 1 || byProp[0].Amount != 3000 {
		t.Errorf("Expected one expense for property, got %+v", byProp)
	}
}
