package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"marketplace/internal/email"
	"marketplace/internal/models"
	"marketplace/internal/observability"
)

// Delivery channels used in logs and metrics.
const (
	ChannelInApp    = "in_app"
	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
	ChannelFallback = "fallback"
)

// EmailDeliveryIssueTitle is the title of the fallback notification created when email fails.
const EmailDeliveryIssueTitle = "Email Delivery Issue"

// Decision is a committed moderation outcome to report to the submitter.
type Decision struct {
	Entity      string
	EntityLabel string
	ItemID      uint
	ItemName    string
	SubmitterID uint
	Approved    bool
	Reason      string
	Comments    string
}

// Type returns the notification type, e.g. "publication_approved".
func (d Decision) Type() string {
	if d.Approved {
		return d.Entity + "_approved"
	}
	return d.Entity + "_rejected"
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// UserLookup resolves the submitter's contact details.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Publisher pushes realtime events to connected clients.
type Publisher interface {
	PublishUserEvent(ctx context.Context, userID uint, ev Event) error
}

// Dispatcher fans a decision out to the in-app, realtime and email channels.
// Every channel failure is logged and counted; none is returned to the caller.
type Dispatcher struct {
	store        NotificationStore
	users        UserLookup
	mailer       email.Sender
	publisher    Publisher
	dashboardURL string
}

// NewDispatcher wires the delivery channels. publisher may be nil.
func NewDispatcher(store NotificationStore, users UserLookup, mailer email.Sender, publisher Publisher, dashboardURL string) *Dispatcher {
	return &Dispatcher{
		store:        store,
		users:        users,
		mailer:       mailer,
		publisher:    publisher,
		dashboardURL: dashboardURL,
	}
}

// Dispatch delivers d. It runs after the transition has committed and never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, dec Decision) {
	if dec.SubmitterID == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := slog.With(
		slog.String("entity", dec.Entity),
		slog.Uint64("item_id", uint64(dec.ItemID)),
		slog.Uint64("submitter_id", uint64(dec.SubmitterID)),
	)

	n := &models.Notification{
		UserID:    dec.SubmitterID,
		Type:      dec.Type(),
		Title:     inAppTitle(dec),
		Message:   inAppMessage(dec),
		RelatedID: &dec.ItemID,
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.failed(ctx, log, ChannelInApp, err)
	} else {
		d.sent(ChannelInApp)
		d.push(ctx, log, n)
	}

	if err := d.sendEmail(ctx, dec); err != nil {
		d.failed(ctx, log, ChannelEmail, err)
		d.fallback(ctx, log, dec)
		return
	}
	d.sent(ChannelEmail)
}

func (d *Dispatcher) push(ctx context.Context, log *slog.Logger, n *models.Notification) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishUserEvent(ctx, n.UserID, Event{Type: "notification", Payload: n}); err != nil {
		d.failed(ctx, log, ChannelRealtime, err)
		return
	}
	d.sent(ChannelRealtime)
}

func (d *Dispatcher) sendEmail(ctx context.Context, dec Decision) error {
	if d.mailer == nil {
		return email.ErrNotConfigured
	}
	user, err := d.users.GetByID(ctx, dec.SubmitterID)
	if err != nil {
		return fmt.Errorf("lookup submitter: %w", err)
	}
	subject, body, err := email.RenderDecision(email.Decision{
		RecipientName: user.Name,
		EntityLabel:   dec.EntityLabel,
		ItemName:      dec.ItemName,
		Approved:      dec.Approved,
		Reason:        dec.Reason,
		Comments:      dec.Comments,
		DashboardURL:  d.dashboardURL,
	})
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, user.Email, subject, body)
}

func (d *Dispatcher) fallback(ctx context.Context, log *slog.Logger, dec Decision) {
	n := &models.Notification{
		UserID:    dec.SubmitterID,
		Type:      models.NotificationTypeSystem,
		Title:     EmailDeliveryIssueTitle,
		Message:   fmt.Sprintf("We could not email you about your %s \"%s\". Its current status is shown in your submissions.", dec.EntityLabel, dec.ItemName),
		RelatedID: &dec.ItemID,
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.failed(ctx, log, ChannelFallback, err)
		return
	}
	d.sent(ChannelFallback)
	d.push(ctx, log, n)
}

func (d *Dispatcher) failed(ctx context.Context, log *slog.Logger, channel string, err error) {
	observability.NotificationFailures.WithLabelValues(channel).Inc()
	log.WarnContext(ctx, "notification delivery failed", slog.String("channel", channel), slog.String("error", err.Error()))
}

func (d *Dispatcher) sent(channel string) {
	observability.NotificationsSent.WithLabelValues(channel).Inc()
}

func inAppTitle(dec Decision) string {
	if dec.Approved {
		return fmt.Sprintf("%s approved", dec.EntityLabel)
	}
	return fmt.Sprintf("%s rejected", dec.EntityLabel)
}

func inAppMessage(dec Decision) string {
	if dec.Approved {
		return fmt.Sprintf("Your %s \"%s\" has been approved.", dec.EntityLabel, dec.ItemName)
	}
	return fmt.Sprintf("Your %s \"%s\" was rejected: %s", dec.EntityLabel, dec.ItemName, dec.Reason)
}
