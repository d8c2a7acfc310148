package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEDDING_SECURITY_TOKENS_SECRET", "s3cret")
	t.Setenv("WEDDING_EMAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("WEDDING_EMAIL_SMTP_SECURE", "true")
	t.Setenv("WEDDING_CHAPA_SECRET_KEY", "CHASECK_TEST")
	t.Setenv("WEDDING_SECURITY_TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.1")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Security.Tokens.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Security.Tokens.AccessTokenTTL)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	assert.True(t, cfg.Email.SMTP.Secure)
	assert.Equal(t, `"Wedding Planner" <noreply@weddingplanner.com>`, cfg.Email.From)
	assert.Equal(t, "CHASECK_TEST", cfg.Chapa.SecretKey)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.Security.TrustedProxies)
	assert.Equal(t, "ETB", cfg.Chapa.Currency)
	assert.Equal(t, 15*time.Second, cfg.Chapa.Timeout)
	assert.Equal(t, "http://localhost:5000/api/v1/payments/callback", cfg.CallbackURL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing token secret",
			mutate:  func(c *Config) { c.Security.Tokens.Secret = "" },
			wantErr: "security.tokens.secret",
		},
		{
			name:    "smtp without host",
			mutate:  func(c *Config) { c.Email.SMTP.Host = "" },
			wantErr: "email.smtp.host",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Email.Provider = "carrier-pigeon" },
			wantErr: "unknown email provider",
		},
		{
			name:    "bad trusted proxy",
			mutate:  func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.0/8", "not-an-ip"} },
			wantErr: "security.trusted_proxies",
		},
		{
			name:   "log provider needs no host",
			mutate: func(c *Config) { c.Email.Provider = "log"; c.Email.SMTP.Host = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Security.Tokens.Secret = "x"
			cfg.Email.Provider = "smtp"
			cfg.Email.SMTP.Host = "localhost"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecurityConfig_ProxyPrefixes(t *testing.T) {
	c := SecurityConfig{TrustedProxies: []string{"10.1.2.3/8", " 192.168.0.7 ", "", "::1"}}
	prefixes, err := c.ProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.168.0.7/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())

	none, err := SecurityConfig{}.ProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEmailConfig_IsProduction(t *testing.T) {
	assert.True(t, EmailConfig{Environment: "Production"}.IsProduction())
	assert.False(t, EmailConfig{Environment: "development"}.IsProduction())
}
