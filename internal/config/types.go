package config

import "time"

// Config is the top-level configuration structure for oauthrelay.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	ADK      ADKConfig      `yaml:"adk"`
	Delivery DeliveryConfig `yaml:"delivery"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CleanupMode selects how the browser address is cleaned after a callback.
type CleanupMode string

const (
	// CleanupReplaceState injects a history.replaceState call into the proxied chat page.
	CleanupReplaceState CleanupMode = "replaceState"
	// CleanupRedirect answers with 303 See Other to the bare path.
	CleanupRedirect CleanupMode = "redirect"
)

// ServerConfig defines the HTTP front.
type ServerConfig struct {
	Host         string      `yaml:"host,omitempty"`         // Host to bind to (default: localhost)
	Port         int         `yaml:"port,omitempty"`         // Port to listen on (default: 8090)
	ChatPaths    []string    `yaml:"chatPaths,omitempty"`    // Paths inspected for callbacks (default: ["/"])
	Cleanup      CleanupMode `yaml:"cleanup,omitempty"`      // replaceState or redirect (default: replaceState)
	CallbackPath string      `yaml:"callbackPath,omitempty"` // Provider redirect bridge (default: /oauth/callback)
}

// UpstreamConfig points at the chat web UI being fronted.
type UpstreamConfig struct {
	URL string `yaml:"url,omitempty"`
}

// ADKConfig defines the agent server the message is delivered to.
type ADKConfig struct {
	BaseURL       string `yaml:"baseUrl,omitempty"`       // Agent API (default: upstream URL)
	AppName       string `yaml:"appName,omitempty"`       // Agent app name
	UserID        string `yaml:"userId,omitempty"`        // Chat user the UI runs as (default: user)
	CreateSession bool   `yaml:"createSession,omitempty"` // Create a session when the user has none
	MaxRetries    int    `yaml:"maxRetries,omitempty"`    // Retries for agent API calls (default: 3)
}

// DeliveryConfig tunes the readiness wait and injection.
type DeliveryConfig struct {
	PollInterval    time.Duration `yaml:"pollInterval,omitempty"`    // default: 100ms
	Timeout         time.Duration `yaml:"timeout,omitempty"`         // default: 10s
	SettleDelay     time.Duration `yaml:"settleDelay,omitempty"`     // default: 500ms
	GuardTTL        time.Duration `yaml:"guardTtl,omitempty"`        // default: 10m
	MessageTemplate string        `yaml:"messageTemplate,omitempty"` // text/template, sprig functions available
}

// OAuthConfig describes the provider used to start the flow (authurl command).
type OAuthConfig struct {
	ClientID    string   `yaml:"clientId,omitempty"`
	AuthURL     string   `yaml:"authUrl,omitempty"`
	TokenURL    string   `yaml:"tokenUrl,omitempty"`
	RedirectURL string   `yaml:"redirectUrl,omitempty"`
	Scopes      []string `yaml:"scopes,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}
