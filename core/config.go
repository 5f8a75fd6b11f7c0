package core

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL       = "https://api.talo.com.ar"
	DefaultRefreshWindow = 5 * time.Minute
	DefaultTokenTTL      = time.Hour
	DefaultTimeout       = 30 * time.Second
)

type Config struct {
	BaseURL       string            `koanf:"base_url" mapstructure:"base_url"`
	AccessToken   string            `koanf:"access_token" mapstructure:"access_token"`
	APIKey        string            `koanf:"api_key" mapstructure:"api_key"`
	ClientID      string            `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret  string            `koanf:"client_secret" mapstructure:"client_secret"`
	UserID        string            `koanf:"user_id" mapstructure:"user_id"`
	Headers       map[string]string `koanf:"headers" mapstructure:"headers"`
	RefreshWindow time.Duration     `koanf:"refresh_window" mapstructure:"refresh_window"`
	TokenTTL      time.Duration     `koanf:"token_ttl" mapstructure:"token_ttl"`
	Timeout       time.Duration     `koanf:"timeout" mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Headers:       map[string]string{},
		RefreshWindow: DefaultRefreshWindow,
		TokenTTL:      DefaultTokenTTL,
		Timeout:       DefaultTimeout,
	}
}

// StaticToken returns the pre-issued bearer token, preferring access_token
// over api_key.
func (c Config) StaticToken() string {
	if token := strings.TrimSpace(c.AccessToken); token != "" {
		return token
	}
	return strings.TrimSpace(c.APIKey)
}

// UsesClientCredentials reports whether tokens are minted from the
// client_id/client_secret/user_id triple.
func (c Config) UsesClientCredentials() bool {
	return c.StaticToken() == "" &&
		strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != "" &&
		strings.TrimSpace(c.UserID) != ""
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.RefreshWindow == 0 {
		c.RefreshWindow = defaults.RefreshWindow
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = defaults.TokenTTL
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

func (c Config) Validate() error {
	if err := c.ValidateEndpoint(); err != nil {
		return err
	}
	if c.StaticToken() != "" {
		return nil
	}
	partial := strings.TrimSpace(c.ClientID) != "" ||
		strings.TrimSpace(c.ClientSecret) != "" ||
		strings.TrimSpace(c.UserID) != ""
	if partial && !c.UsesClientCredentials() {
		return NewConfigError("core: client_id, client_secret and user_id are all required for managed tokens")
	}
	if !partial {
		return NewConfigError("core: either access_token/api_key or client credentials must be provided")
	}
	return nil
}

// ValidateEndpoint checks everything except credentials.
func (c Config) ValidateEndpoint() error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return NewConfigError("core: base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return NewConfigError("core: base_url must be an absolute http(s) url")
	}
	if c.RefreshWindow < 0 || c.TokenTTL < 0 || c.Timeout < 0 {
		return NewConfigError("core: durations must not be negative")
	}
	return nil
}
