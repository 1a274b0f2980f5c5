package handlers

import (
	"recipebox/internal/apperror"
	"recipebox/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// respondError renders err as {"error": message} with the status of its kind.
func respondError(c *fiber.Ctx, err error) error {
	status := apperror.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"error": apperror.Message(err, "Internal server error"),
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	logging.Debug().Err(err).Str("path", c.Path()).Msg("error parsing request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
