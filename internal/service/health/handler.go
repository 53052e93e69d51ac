package health

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// readinessTimeout bounds one readiness request; probes run concurrently
// under it.
const readinessTimeout = 3 * time.Second

// FiberHandler serves the probe endpoints.
type FiberHandler struct {
	service    *Service
	retryAfter time.Duration
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service, retryAfter: 5 * time.Second}
}

// RegisterRoutes mounts /health and /ready, plus the z-suffixed probe paths.
func (h *FiberHandler) RegisterRoutes(r fiber.Router) {
	for _, path := range []string{"/health", "/healthz"} {
		r.Get(path, h.Health)
	}
	for _, path := range []string{"/ready", "/readyz"} {
		r.Get(path, h.Ready)
	}
}

func (h *FiberHandler) Health(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(h.service.Health(c.UserContext()))
}

// Ready answers 503 with Retry-After while a dependency is down.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	c.Set(fiber.HeaderCacheControl, "no-store")
	resp := h.service.Ready(ctx)
	if !resp.Ready {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(h.retryAfter.Seconds())))
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
