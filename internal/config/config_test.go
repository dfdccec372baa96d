package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:               "production",
		DBSSLMode:         "require",
		JWTSecret:         "secure-secret-at-least-32-chars-long",
		DBPassword:        "secure-password",
		Port:              "8080",
		RecaptchaSecret:   "captcha-secret",
		RecaptchaMinScore: 0.5,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validProductionConfig()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.RecaptchaSecret = ""
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateRanges(t *testing.T) {
	c := validProductionConfig()
	c.RecaptchaMinScore = 1.5
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.SubmissionRateLimit = -1
	assert.Error(t, c.Validate())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "8375", c.Port)
	assert.Equal(t, 5, c.SubmissionRateLimit)
	assert.Equal(t, 10, c.OTPTTLMinutes)
	assert.InDelta(t, 0.5, c.RecaptchaMinScore, 0.0001)
	assert.False(t, c.SMTPConfigured())
}
