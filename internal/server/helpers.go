package server

import (
	"strings"
	"unicode"

	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns false.
// The message is derived from the parameter name ("id" -> "Invalid ID").
func parseID(c *fiber.Ctx, param string) (uint, bool) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, false
	}
	return uint(id), true
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "notificationId" -> "notification ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// queryBool reads a boolean query flag, accepting "true" and "1".
func queryBool(c *fiber.Ctx, key string) bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(key)))
	return v == "true" || v == "1"
}
