package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type ProfessionalHandler struct {
	service ports.PropertyService
	log     *zap.Logger
}

func NewProfessionalHandler(service ports.PropertyService, log *zap.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{
		service: service,
		log:     log,
	}
}

func (h *ProfessionalHandler) List(c *fiber.Ctx) error {
	pros, err := h.service.ListProfessionals(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(pros)
}

func (h *ProfessionalHandler) Create(c *fiber.Ctx) error {
	var p domain.Professional
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	p.ID = ""
	if err := h.service.CreateProfessional(c.UserContext(), &p); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}
