package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

// SessionLookup reports the state of live voice sessions.
type SessionLookup interface {
	Status(id string) (voice.Status, bool)
}

type VoiceHandler struct {
	resolver  ports.IntentResolver
	workspace ports.WorkspaceSource
	sessions  SessionLookup
	log       *zap.Logger
}

func NewVoiceHandler(resolver ports.IntentResolver, workspace ports.WorkspaceSource, sessions SessionLookup, log *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		resolver:  resolver,
		workspace: workspace,
		sessions:  sessions,
		log:       log,
	}
}

type ResolveRequest struct {
	Transcript             string                    `json:"transcript"`
	View                   string                    `json:"view"`
	SelectedPropertyID     string                    `json:"selected_property_id"`
	SelectedProfessionalID string                    `json:"selected_professional_id"`
	History                []domain.ConversationTurn `json:"history"`
}

// Resolve interprets one transcript without side effects.
func (h *VoiceHandler) Resolve(c *fiber.Ctx) error {
	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Transcript is required"})
	}

	ws, err := h.workspace.Workspace(c.UserContext())
	if err != nil {
		h.log.Warn("Workspace unavailable, resolving without context", zap.Error(err))
		ws = domain.Workspace{}
	}
	if view, ok := domain.ParseView(req.View); ok {
		ws.View = view
	} else {
		ws.View = domain.ViewMap
	}
	if p, ok := ws.PropertyByID(req.SelectedPropertyID); ok {
		ws.SelectedProperty = p
	}
	if p, ok := ws.ProfessionalByID(req.SelectedProfessionalID); ok {
		ws.SelectedProfessional = p
	}

	return c.JSON(h.resolver.Resolve(c.UserContext(), req.Transcript, ws, req.History))
}

func (h *VoiceHandler) SessionStatus(c *fiber.Ctx) error {
	if h.sessions == nil {
		return fiber.ErrNotFound
	}
	st, ok := h.sessions.Status(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	return c.JSON(st)
}
