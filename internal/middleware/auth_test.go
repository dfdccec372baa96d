package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123456"

func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind TokenKind
		id   uint
	}{
		{"user token", TokenKindUser, 42},
		{"admin token", TokenKindAdmin, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			signed, jti, err := IssueToken(testSecret, tt.kind, tt.id, time.Hour)
			require.NoError(t, err)
			require.NotEmpty(t, jti)

			claims, err := ParseToken(testSecret, signed)
			require.NoError(t, err)
			assert.Equal(t, tt.id, claims.SubjectID)
			assert.Equal(t, tt.kind, claims.Kind)
			assert.Equal(t, jti, claims.JTI)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestParseToken_Rejects(t *testing.T) {
	t.Parallel()

	sign := func(claims jwt.MapClaims, method jwt.SigningMethod) string {
		token := jwt.NewWithClaims(method, claims)
		s, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(1),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	wrongIssuer := base()
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := base()
	wrongAudience["aud"] = "other-client"
	expired := base()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noSubject := base()
	delete(noSubject, "sub")
	zeroSubject := base()
	zeroSubject["sub"] = "0"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256)},
		{"wrong audience", sign(wrongAudience, jwt.SigningMethodHS256)},
		{"expired", sign(expired, jwt.SigningMethodHS256)},
		{"missing subject", sign(noSubject, jwt.SigningMethodHS256)},
		{"zero subject", sign(zeroSubject, jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseToken(testSecret, tt.token)
			assert.Error(t, err)
		})
	}

	signed, _, err := IssueToken("another-secret-entirely-different-000", TokenKindUser, 1, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_UnknownKindIsUser(t *testing.T) {
	t.Parallel()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "3",
		"kind": "superuser",
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, TokenKindUser, claims.Kind)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 16)
		n, _ := resp.Body.Read(buf)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, string(buf[:n]), tt.header)
	}
}
