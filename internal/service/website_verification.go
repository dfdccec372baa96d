package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"marketplace/internal/email"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
	"marketplace/internal/otp"
	"marketplace/internal/validation"
)

// WebsiteVerification proves that a website submitter controls the contact email.
type WebsiteVerification struct {
	store  *otp.Store
	mailer email.Sender
	now    func() time.Time
}

// NewWebsiteVerification returns a verifier backed by store that mails codes with mailer.
func NewWebsiteVerification(store *otp.Store, mailer email.Sender) *WebsiteVerification {
	return &WebsiteVerification{
		store:  store,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CodeTTL is how long an emailed code stays valid.
func (v *WebsiteVerification) CodeTTL() time.Duration { return v.store.TTL() }

// SendCode issues a code for address and emails it.
func (v *WebsiteVerification) SendCode(ctx context.Context, address string) error {
	address = validation.NormalizeEmail(address)
	if err := validation.ValidateEmail(address); err != nil {
		return models.NewValidationError(err.Error())
	}
	if v.mailer == nil {
		return models.NewUpstreamError("email verification unavailable", email.ErrNotConfigured)
	}

	code, err := v.store.Issue(ctx, address)
	if err != nil {
		if errors.Is(err, otp.ErrNoStore) {
			return models.NewUpstreamError("email verification unavailable", err)
		}
		return models.NewInternalError(err)
	}

	subject, body, err := email.RenderVerificationCode(code, int(v.store.TTL().Minutes()))
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := v.mailer.Send(ctx, address, subject, body); err != nil {
		slog.WarnContext(ctx, "verification email failed", "error", err)
		return models.NewUpstreamError("could not send verification email", err)
	}
	return nil
}

// Verify consumes the code sent to the website's contact email and stamps the row.
func (v *WebsiteVerification) Verify(ctx context.Context, w *models.Website, in CreateInput) error {
	w.ContactEmail = validation.NormalizeEmail(w.ContactEmail)
	if err := v.store.Verify(ctx, w.ContactEmail, in.OTPCode); err != nil {
		if errors.Is(err, otp.ErrNoStore) {
			return models.NewUpstreamError("email verification unavailable", err)
		}
		return err
	}
	now := v.now()
	w.EmailVerifiedAt = &now
	return nil
}

// GuardUpdate keeps the verification stamp out of client control and stops
// owners from swapping the verified contact email.
func (v *WebsiteVerification) GuardUpdate(actor moderation.Actor, before, after *models.Website) error {
	after.EmailVerifiedAt = before.EmailVerifiedAt
	if actor.IsAdmin() {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(before.ContactEmail), strings.TrimSpace(after.ContactEmail)) {
		return models.NewValidationError("contact_email cannot be changed after verification")
	}
	return nil
}
