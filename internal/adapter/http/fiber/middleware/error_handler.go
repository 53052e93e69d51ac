package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case errors.Is(err, domain.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, domain.ErrInvalidInput):
			code = fiber.StatusBadRequest
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
			message = "Internal server error"
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput)
}
