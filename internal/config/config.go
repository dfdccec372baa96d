// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom    string `mapstructure:"EMAIL_FROM"`

	RecaptchaSecret   string  `mapstructure:"RECAPTCHA_SECRET"`
	RecaptchaMinScore float64 `mapstructure:"RECAPTCHA_MIN_SCORE"`

	SubmissionRateLimit         int `mapstructure:"SUBMISSION_RATE_LIMIT"`
	SubmissionRateWindowMinutes int `mapstructure:"SUBMISSION_RATE_WINDOW_MINUTES"`
	OTPTTLMinutes               int `mapstructure:"OTP_TTL_MINUTES"`
	OTPMaxAttempts              int `mapstructure:"OTP_MAX_ATTEMPTS"`
	PublicListCacheSeconds      int `mapstructure:"PUBLIC_LIST_CACHE_SECONDS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSampleRatio  float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	DevBootstrapAdmin bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminEmail     string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword  string `mapstructure:"DEV_ADMIN_PASSWORD"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "marketplace")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("EMAIL_FROM", "no-reply@marketplace.local")
	viper.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)
	viper.SetDefault("SUBMISSION_RATE_LIMIT", 5)
	viper.SetDefault("SUBMISSION_RATE_WINDOW_MINUTES", 60)
	viper.SetDefault("OTP_TTL_MINUTES", 10)
	viper.SetDefault("OTP_MAX_ATTEMPTS", 5)
	viper.SetDefault("PUBLIC_LIST_CACHE_SECONDS", 30)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// IsProduction reports whether strict production checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SMTPConfigured reports whether outbound email has a relay to talk to.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RecaptchaMinScore < 0 || c.RecaptchaMinScore > 1 {
		return errors.New("RECAPTCHA_MIN_SCORE must be between 0 and 1")
	}
	if c.SubmissionRateLimit < 0 || c.SubmissionRateWindowMinutes < 0 {
		return errors.New("submission rate limit settings must not be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.RecaptchaSecret == "" {
			return errors.New("RECAPTCHA_SECRET is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
