package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type PropertyHandler struct {
	service ports.PropertyService
	log     *zap.Logger
}

func NewPropertyHandler(service ports.PropertyService, log *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		log:     log,
	}
}

func (h *PropertyHandler) List(c *fiber.Ctx) error {
	props, err := h.service.ListProperties(c.UserContext())
	if err != nil {
		return err
	}
	if status := c.Query("status"); status != "" {
		filtered := props[:0]
		for _, p := range props {
			if string(p.Status) == status {
				filtered = append(filtered, p)
			}
		}
		props = filtered
	}
	return c.JSON(props)
}

func (h *PropertyHandler) Get(c *fiber.Ctx) error {
	p, err := h.service.GetProperty(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

type createPropertyRequest struct {
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	TenantName  string  `json:"tenant_name"`
	TenantPhone string  `json:"tenant_phone"`
	MonthlyRent float64 `json:"monthly_rent"`
}

func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	var req createPropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	p := &domain.Property{
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		TenantName:  req.TenantName,
		TenantPhone: req.TenantPhone,
		MonthlyRent: req.MonthlyRent,
	}
	if req.TenantName != "" {
		p.Status = domain.PropertyStatusCurrent
	}
	if err := h.service.CreateProperty(c.UserContext(), p); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update applies a partial update, e.g. from the manual edit form.
func (h *PropertyHandler) Update(c *fiber.Ctx) error {
	var update domain.PropertyUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	p, err := h.service.UpdatePropertyFields(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
