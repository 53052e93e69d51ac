package handlers

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Properties    *PropertyHandler
	Professionals *ProfessionalHandler
	Expenses      *ExpenseHandler
	Voice         *VoiceHandler
}

// Register mounts the REST API on r, typically /api/v1.
func (h Handlers) Register(r fiber.Router) {
	props := r.Group("/properties")
	props.Get("/", h.Properties.List)
	props.Post("/", h.Properties.Create)
	props.Get("/:id", h.Properties.Get)
	props.Patch("/:id", h.Properties.Update)

	pros := r.Group("/professionals")
	pros.Get("/", h.Professionals.List)
	pros.Post("/", h.Professionals.Create)

	expenses := r.Group("/expenses")
	expenses.Get("/", h.Expenses.List)
	expenses.Post("/", h.Expenses.Create)

	v := r.Group("/voice")
	v.Post("/resolve", h.Voice.Resolve)
	v.Get("/sessions/:id", h.Voice.SessionStatus)
}
