package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/seu-repo/rentmap-voice/pkg/config"
)

// AuthRequired validates bearer tokens issued by the hosted auth provider.
// Browsers cannot set headers on WebSocket upgrades, so a token query
// parameter is accepted too.
func AuthRequired(cfg config.JWTConfig) fiber.Handler {
	secret := []byte(cfg.Secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		claims := jwt.RegisteredClaims{}
		_, err = parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", claims.Subject)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errors.New("Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization header format")
	}
	return parts[1], nil
}
