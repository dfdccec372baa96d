// Package captcha verifies reCAPTCHA v3 tokens on the submission create path.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/observability"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// DefaultMinScore is the lowest score accepted as human.
const DefaultMinScore = 0.5

// Verifier checks a client token. A nil score means the provider rejected the token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*float64, error)
}

// Client talks to the reCAPTCHA siteverify API.
type Client struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewClient returns a client for secret. An empty verifyURL uses DefaultVerifyURL.
func NewClient(secret, verifyURL string) *Client {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Client{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the provider and returns its score.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (*float64, error) {
	form := url.Values{"secret": {c.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captcha provider unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close captcha response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captcha provider returned status %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode captcha response: %w", err)
	}
	if !body.Success {
		slog.DebugContext(ctx, "captcha token rejected", "error_codes", body.ErrorCodes)
		return nil, nil
	}
	return body.Score, nil
}

// Gate enforces a minimum score on a Verifier.
type Gate struct {
	verifier Verifier
	minScore float64
}

// NewGate returns a gate. A nil verifier disables the check.
func NewGate(verifier Verifier, minScore float64) *Gate {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Gate{verifier: verifier, minScore: minScore}
}

// Enabled reports whether tokens are actually verified.
func (g *Gate) Enabled() bool {
	return g != nil && g.verifier != nil
}

// Check returns nil when token passes. A missing token, a rejected token and a
// low score are validation failures; a provider outage is an upstream failure.
func (g *Gate) Check(ctx context.Context, token, remoteIP string) error {
	if !g.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		observability.CaptchaVerifications.WithLabelValues(observability.OutcomeRejected).Inc()
		return models.NewValidationError("captcha token is required")
	}

	score, err := g.verifier.Verify(ctx, token, remoteIP)
	if err != nil {
		observability.CaptchaVerifications.WithLabelValues(observability.OutcomeError).Inc()
		slog.WarnContext(ctx, "captcha verification failed", "error", err)
		return models.NewUpstreamError("captcha verification unavailable", err)
	}
	if score == nil || *score < g.minScore {
		observability.CaptchaVerifications.WithLabelValues(observability.OutcomeRejected).Inc()
		return models.NewValidationError("captcha verification failed")
	}

	observability.CaptchaVerifications.WithLabelValues(observability.OutcomeSuccess).Inc()
	return nil
}
