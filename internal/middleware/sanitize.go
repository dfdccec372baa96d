package middleware

import (
	"bytes"
	"encoding/json"

	"marketplace/internal/models"
	"marketplace/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SanitizeJSONBody strips markup from every string in a JSON request body
// before handlers decode it. Non-JSON and bodiless requests pass through.
func SanitizeJSONBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		default:
			return c.Next()
		}
		body := c.Body()
		if len(bytes.TrimSpace(body)) == 0 || !bytes.HasPrefix(c.Request().Header.ContentType(), []byte(fiber.MIMEApplicationJSON)) {
			return c.Next()
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("malformed JSON body"))
		}

		clean, err := json.Marshal(validation.SanitizeValue(decoded))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("malformed JSON body"))
		}
		c.Request().SetBody(clean)
		return c.Next()
	}
}
