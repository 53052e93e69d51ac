package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/mocks"
)

func TestConsole_WorkspaceOverlaysSelection(t *testing.T) {
	// Arrange
	source := &mocks.MockWorkspace{WS: domain.Workspace{
		View: domain.ViewMap,
		Properties: []domain.Property{
			{ID: "p1", Address: "Av. Corrientes 1234", MonthlyRent: 300000},
		},
		Professionals: []domain.Professional{
			{ID: "pro1", Name: "Roberto Díaz", Profession: "Plomero"},
		},
	}}
	var out bytes.Buffer
	term := newConsole(&out, source)
	ctx := context.Background()

	// Act
	term.SwitchView(ctx, domain.ViewFinance)
	term.SelectProperty(ctx, domain.Property{ID: "p1", Address: "stale"})
	term.SelectProfessional(ctx, domain.Professional{ID: "pro1"})
	ws, err := term.Workspace(ctx)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ws.View != domain.ViewFinance {
		t.Errorf("Expected view %s, got %s", domain.ViewFinance, ws.View)
	}
	if ws.SelectedProperty == nil || ws.SelectedProperty.Address != "Av. Corrientes 1234" {
		t.Errorf("Expected selected property from the source, got %+v", ws.SelectedProperty)
	}
	if ws.SelectedProfessional == nil || ws.SelectedProfessional.Name != "Roberto Díaz" {
		t.Errorf("Expected selected professional from the source, got %+v", ws.SelectedProfessional)
	}
	if !strings.Contains(out.String(), "[panel] vista FINANCE") {
		t.Errorf("Expected view switch to be printed, got %q", out.String())
	}
}

func TestConsole_SelectionDroppedWhenMissing(t *testing.T) {
	// Arrange
	source := &mocks.MockWorkspace{WS: domain.Workspace{View: domain.ViewMap}}
	term := newConsole(&bytes.Buffer{}, source)
	ctx := context.Background()
	term.SelectProperty(ctx, domain.Property{ID: "gone"})

	// Act
	ws, err := term.Workspace(ctx)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ws.SelectedProperty != nil {
		t.Errorf("Expected no selection for a removed property, got %+v", ws.SelectedProperty)
	}
	if ws.View != domain.ViewMap {
		t.Errorf("Expected default view MAP, got %s", ws.View)
	}
}

func TestConsole_SpeakCompletesImmediately(t *testing.T) {
	// Arrange
	var out bytes.Buffer
	term := newConsole(&out, &mocks.MockWorkspace{})
	done := 0

	// Act
	err := term.Speak(context.Background(), "Listo", "es-AR", func() { done++ })

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if done != 1 {
		t.Errorf("Expected done to run once, got %d", done)
	}
	if !strings.Contains(out.String(), "asistente> Listo") {
		t.Errorf("Expected speech to be printed, got %q", out.String())
	}
}

func TestConsole_ExpenseConfirmationNamesProfessional(t *testing.T) {
	var out bytes.Buffer
	term := newConsole(&out, &mocks.MockWorkspace{})

	term.PresentConfirmation(context.Background(), domain.Confirmation{
		Kind:             domain.ConfirmationExpense,
		Amount:           5000,
		Description:      "Materiales",
		PropertyAddress:  "Av. Corrientes 1234",
		ProfessionalName: "Roberto Díaz",
	})

	got := out.String()
	for _, want := range []string{"$5000.00", "Materiales", "Av. Corrientes 1234", "Roberto Díaz"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in prompt, got %q", want, got)
		}
	}
}
