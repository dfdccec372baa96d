// Package email sends transactional HTML mail over SMTP.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"marketplace/internal/config"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by Send when no SMTP relay is configured.
var ErrNotConfigured = errors.New("smtp relay not configured")

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service sends mail through the configured SMTP relay.
type Service struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewService creates an SMTP-backed sender from the application config.
func NewService(cfg *config.Config) *Service {
	return &Service{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		timeout:  10 * time.Second,
	}
}

// Send delivers htmlBody to a single recipient.
func (s *Service) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.host == "" {
		return ErrNotConfigured
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	message := buildMessage(s.from, to, subject, htmlBody)

	addr := net.JoinHostPort(s.host, s.port)
	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Debug("Failed to close SMTP client", "error", err)
		}
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if s.username != "" && s.password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if err := writeAndClose(wc, message); err != nil {
		return err
	}
	if err := client.Quit(); err != nil {
		slog.DebugContext(ctx, "SMTP quit failed", "error", err)
	}

	slog.InfoContext(ctx, "Email sent", "to", to, "subject", subject)
	return nil
}

func writeAndClose(wc io.WriteCloser, message []byte) error {
	if _, err := wc.Write(message); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	domain := "marketplace.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "> ")
	}

	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"Date", time.Now().UTC().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], h[1])
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)
	return message.Bytes()
}
