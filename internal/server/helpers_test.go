package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"notificationId", "notification ID"},
		{"websiteId", "website ID"},
		{"powerListEntryId", "power list entry ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=0&offset=-5", 25, 0},
		{"?limit=abc", 25, 0},
		{"?limit=1000", maxPaginationLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body struct {
				Limit  int `json:"limit"`
				Offset int `json:"offset"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantLimit, body.Limit)
			assert.Equal(t, tt.wantOffset, body.Offset)
		})
	}
}

func TestParseID(t *testing.T) {
	app := fiber.New()
	app.Get("/notifications/:notificationId", func(c *fiber.Ctx) error {
		id, ok := parseID(c, "notificationId")
		if !ok {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path       string
		wantStatus int
		wantError  string
	}{
		{"/notifications/7", http.StatusOK, ""},
		{"/notifications/0", http.StatusBadRequest, "Invalid notification ID"},
		{"/notifications/-3", http.StatusBadRequest, "Invalid notification ID"},
		{"/notifications/seven", http.StatusBadRequest, "Invalid notification ID"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestQueryBool(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"on": queryBool(c, "show_deleted")})
	})

	for query, want := range map[string]bool{
		"":                   false,
		"?show_deleted=true": true,
		"?show_deleted=1":    true,
		"?show_deleted=TRUE": true,
		"?show_deleted=no":   false,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil))
		require.NoError(t, err)
		var body struct {
			On bool `json:"on"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, want, body.On, query)
	}
}
