package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/rentmap-voice/pkg/config"
)

// Defaults cover what the dashboard sends: JSON bodies, bearer tokens and
// PATCH for field edits.
var (
	dashboardMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodOptions}
	dashboardHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization}
)

// NewCORS lets the dashboard origin call the API. Credentials are never
// allowed together with a wildcard origin.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := joinOr(cfg.AllowedOrigins, []string{"*"})
	credentials := cfg.Credentials && origins != "*"

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 600
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     origins,
		AllowMethods:     joinOr(cfg.AllowedMethods, dashboardMethods),
		AllowHeaders:     joinOr(cfg.AllowedHeaders, dashboardHeaders),
		ExposeHeaders:    strings.Join(cfg.ExposeHeaders, ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func joinOr(values, fallback []string) string {
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ",")
}
