package config

import (
	"time"

	"oauthrelay/internal/callback"
)

const (
	// DefaultCallbackPath is the default path of the provider redirect bridge.
	DefaultCallbackPath = "/oauth/callback"

	// DefaultUserID is the user the ADK web UI runs conversations as.
	DefaultUserID = "user"

	// DefaultPort is the default listen port of the HTTP front.
	DefaultPort = 8090
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         DefaultPort,
			ChatPaths:    []string{"/"},
			Cleanup:      CleanupReplaceState,
			CallbackPath: DefaultCallbackPath,
		},
		ADK: ADKConfig{
			UserID:     DefaultUserID,
			MaxRetries: 3,
		},
		Delivery: DeliveryConfig{
			PollInterval:    100 * time.Millisecond,
			Timeout:         10 * time.Second,
			SettleDelay:     500 * time.Millisecond,
			GuardTTL:        10 * time.Minute,
			MessageTemplate: callback.DefaultMessageTemplate,
		},
		OAuth: OAuthConfig{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
			Scopes:   []string{"https://www.googleapis.com/auth/calendar.readonly"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// AgentBaseURL returns the agent API URL, falling back to the upstream URL since the
// agent server usually serves both the chat UI and its API.
func (c Config) AgentBaseURL() string {
	if c.ADK.BaseURL != "" {
		return c.ADK.BaseURL
	}
	return c.Upstream.URL
}
