package server

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"skillswap/internal/models"
)

// respondError writes err with the status its AppError code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// parseBody decodes the JSON body into v. A malformed body is a validation
// error.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// param returns the unescaped, trimmed route parameter or a validation error
// when it is empty.
func param(c *fiber.Ctx, name string) (string, error) {
	raw, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", models.NewValidationError("Invalid " + name)
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", models.NewValidationError("Missing " + name)
	}
	return v, nil
}
