package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type ExpenseHandler struct {
	service ports.PropertyService
	log     *zap.Logger
}

func NewExpenseHandler(service ports.PropertyService, log *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		service: service,
		log:     log,
	}
}

func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	expenses, err := h.service.ListExpenses(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(expenses)
}

type createExpenseRequest struct {
	Amount         float64 `json:"amount"`
	Description    string  `json:"description"`
	PropertyID     *string `json:"property_id"`
	ProfessionalID *string `json:"professional_id"`
}

func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	var req createExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	e := &domain.Expense{
		Amount:         req.Amount,
		Description:    req.Description,
		PropertyID:     req.PropertyID,
		ProfessionalID: req.ProfessionalID,
		Source:         domain.ExpenseSourceManual,
	}
	if err := h.service.RegisterExpense(c.UserContext(), e); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}
