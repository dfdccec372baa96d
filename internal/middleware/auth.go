package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuer and audience for every access token this service mints.
const (
	TokenIssuer   = "marketplace-api"
	TokenAudience = "marketplace-client"
)

// TokenKind separates marketplace users from back-office admins.
type TokenKind string

const (
	TokenKindUser  TokenKind = "user"
	TokenKindAdmin TokenKind = "admin"
)

var (
	ErrMissingToken = errors.New("authorization required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	SubjectID uint
	Kind      TokenKind
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an HS256 access token for the subject and returns it with its jti.
func IssueToken(secret string, kind TokenKind, subjectID uint, ttl time.Duration) (string, string, error) {
	if secret == "" {
		return "", "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	jti := fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(subjectID), 10),
		"kind": string(kind),
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ParseToken validates signature, issuer, audience and subject of an access token.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	subjectID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || subjectID == 0 {
		return nil, ErrInvalidToken
	}

	kind := TokenKindUser
	if k, ok := claims["kind"].(string); ok && k == string(TokenKindAdmin) {
		kind = TokenKindAdmin
	}

	out := &TokenClaims{SubjectID: uint(subjectID), Kind: kind}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// RevocationKey is the Redis key marking a jti as revoked.
func RevocationKey(jti string) string {
	return "blacklist:" + jti
}
