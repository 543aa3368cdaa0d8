package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/onboarding?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")
	for _, key := range []string{"PORT", "JWT_EXPIRY", "OFFER_TOKEN_TTL", "TEMP_PASSWORD_SUFFIX", "ALLOW_REREVIEW",
		"UPLOAD_MAX_FILE_BYTES", "MAIL_MODE", "NOTIFY_WORKERS", "OFFER_SWEEP_SCHEDULE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.Onboarding.OfferTokenTTL)
	assert.Equal(t, "@WW2025", cfg.Onboarding.TempPasswordSuffix)
	assert.False(t, cfg.Onboarding.AllowReReview)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileBytes)
	assert.Equal(t, "dev", cfg.Mail.Mode)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.Equal(t, "0 0 * * * *", cfg.Cron.OfferSweepSchedule)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/onboarding")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OFFER_TOKEN_TTL", "48h")
	t.Setenv("ALLOW_REREVIEW", "true")
	t.Setenv("NOTIFY_WORKERS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://hr.example.com, https://admin.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Onboarding.OfferTokenTTL)
	assert.True(t, cfg.Onboarding.AllowReReview)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:   DatabaseConfig{URL: "postgres://localhost/db"},
			JWT:        JWTConfig{Secret: "s"},
			Onboarding: OnboardingConfig{OfferTokenTTL: time.Hour},
			Uploads:    UploadConfig{MaxFileBytes: 1024},
			Mail:       MailConfig{Mode: "dev"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Valid", func(c *Config) {}, ""},
		{"Missing database", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL is required"},
		{"Missing secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET is required"},
		{"Zero TTL", func(c *Config) { c.Onboarding.OfferTokenTTL = 0 }, "OFFER_TOKEN_TTL"},
		{"SMTP without host", func(c *Config) { c.Mail.Mode = "smtp"; c.Mail.From = "hr@example.com" }, "EMAIL_HOST is required"},
		{"SMTP without from", func(c *Config) { c.Mail.Mode = "smtp"; c.Mail.Host = "smtp.example.com" }, "EMAIL_FROM is required"},
		{"Unknown mode", func(c *Config) { c.Mail.Mode = "pigeon" }, "invalid MAIL_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
