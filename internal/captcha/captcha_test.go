package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Verify(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantScore *float64
		wantErr   bool
	}{
		{"human", http.StatusOK, `{"success":true,"score":0.9}`, ptr(0.9), false},
		{"rejected token", http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, nil, false},
		{"no score", http.StatusOK, `{"success":true}`, nil, false},
		{"provider error", http.StatusInternalServerError, `oops`, nil, true},
		{"garbage", http.StatusOK, `not json`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
				assert.Equal(t, "tok", r.PostForm.Get("response"))
				assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			score, err := NewClient("s3cret", srv.URL).Verify(context.Background(), "tok", "10.0.0.1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

type stubVerifier struct {
	score *float64
	err   error
}

func (s stubVerifier) Verify(context.Context, string, string) (*float64, error) {
	return s.score, s.err
}

func TestGate_Check(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		verifier Verifier
		token    string
		wantCode string
	}{
		{"disabled gate passes", nil, "", ""},
		{"missing token", stubVerifier{score: ptr(0.9)}, " ", models.CodeValidation},
		{"high score", stubVerifier{score: ptr(0.9)}, "tok", ""},
		{"threshold score", stubVerifier{score: ptr(0.5)}, "tok", ""},
		{"low score", stubVerifier{score: ptr(0.49)}, "tok", models.CodeValidation},
		{"null score", stubVerifier{}, "tok", models.CodeValidation},
		{"provider outage", stubVerifier{err: errors.New("timeout")}, "tok", models.CodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewGate(tt.verifier, 0.5).Check(ctx, tt.token, "")
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, models.ErrorCode(err))
		})
	}
}

func TestGate_DefaultsMinScore(t *testing.T) {
	t.Parallel()
	g := NewGate(stubVerifier{score: ptr(0.4)}, 0)
	assert.True(t, models.IsCode(g.Check(context.Background(), "tok", ""), models.CodeValidation))
	assert.False(t, (*Gate)(nil).Enabled())
}

func ptr(f float64) *float64 { return &f }
