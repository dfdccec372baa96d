package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace/internal/authz"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Session is returned after a successful signup or login.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *models.User  `json:"user,omitempty"`
	Admin     *models.Admin `json:"admin,omitempty"`
}

// AuthService issues and revokes tokens for users and admins.
type AuthService struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	rdb    *redis.Client
	secret string
	ttl    time.Duration
}

// NewAuthService returns an AuthService. rdb may be nil, in which case logout
// cannot revoke tokens.
func NewAuthService(users repository.UserRepository, admins repository.AdminRepository, rdb *redis.Client, secret string) *AuthService {
	return &AuthService{users: users, admins: admins, rdb: rdb, secret: secret, ttl: DefaultTokenTTL}
}

// Signup registers a marketplace user.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name = validation.SanitizeText(name)
	email = validation.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, models.NewValidationError("name, email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Name: name, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.session(middleware.TokenKindUser, user.ID, func(sess *Session) { sess.User = user })
}

// Login authenticates a user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials()
	}
	return s.session(middleware.TokenKindUser, user.ID, func(sess *Session) { sess.User = user })
}

// AdminLogin authenticates a back-office admin. Deactivated admins cannot log in.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials()
	}
	if !admin.IsActive {
		return nil, models.NewForbiddenError("admin account is disabled")
	}
	return s.session(middleware.TokenKindAdmin, admin.ID, func(sess *Session) { sess.Admin = admin })
}

// CreateAdmin stores a new admin with a known role.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password, role string) (*models.Admin, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !authz.IsKnownRole(role) {
		return nil, models.NewValidationError("unknown admin role " + role)
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	admin := &models.Admin{Name: validation.SanitizeText(name), Email: email, Password: string(hash), Role: role, IsActive: true}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil || claims.JTI == "" {
		return nil
	}
	if s.rdb == nil {
		return models.NewUpstreamError("token revocation unavailable", errors.New("redis not configured"))
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, middleware.RevocationKey(claims.JTI), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) session(kind middleware.TokenKind, id uint, fill func(*Session)) (*Session, error) {
	token, _, err := middleware.IssueToken(s.secret, kind, id, s.ttl)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	sess := &Session{Token: token, ExpiresAt: time.Now().Add(s.ttl)}
	fill(sess)
	return sess, nil
}

func errInvalidCredentials() error {
	return models.NewUnauthorizedError("invalid credentials")
}
