package config

import (
	"fmt"
	"net/url"
	"strings"

	"oauthrelay/internal/callback"
	"oauthrelay/pkg/logging"
)

// Validate checks cfg and returns every problem found. filePath is used for reporting.
func Validate(cfg Config, filePath string) *ConfigurationErrorCollection {
	errs := &ConfigurationErrorCollection{}
	add := func(field, message string, suggestions ...string) {
		errs.Add(NewConfigurationErrorWithDetails(filePath, field, "validation", message, "", suggestions))
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		add("server.port", fmt.Sprintf("must be between 0 and 65535, got %d", cfg.Server.Port))
	}
	switch cfg.Server.Cleanup {
	case CleanupReplaceState, CleanupRedirect:
	default:
		add("server.cleanup", fmt.Sprintf("unsupported mode %q", cfg.Server.Cleanup),
			"Use replaceState or redirect")
	}
	for i, p := range cfg.Server.ChatPaths {
		if !strings.HasPrefix(p, "/") {
			add(fmt.Sprintf("server.chatPaths[%d]", i), fmt.Sprintf("must start with '/', got %q", p))
		}
	}
	if cfg.Server.CallbackPath != "" && !strings.HasPrefix(cfg.Server.CallbackPath, "/") {
		add("server.callbackPath", fmt.Sprintf("must start with '/', got %q", cfg.Server.CallbackPath))
	}

	for field, raw := range map[string]string{
		"upstream.url":      cfg.Upstream.URL,
		"adk.baseUrl":       cfg.ADK.BaseURL,
		"oauth.authUrl":     cfg.OAuth.AuthURL,
		"oauth.tokenUrl":    cfg.OAuth.TokenURL,
		"oauth.redirectUrl": cfg.OAuth.RedirectURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field, fmt.Sprintf("must be an absolute http(s) URL, got %q", raw))
		}
	}

	if cfg.ADK.MaxRetries < 0 {
		add("adk.maxRetries", "must not be negative")
	}

	d := cfg.Delivery
	if d.PollInterval < 0 || d.Timeout < 0 || d.SettleDelay < 0 || d.GuardTTL < 0 {
		add("delivery", "durations must not be negative")
	}
	if d.PollInterval > 0 && d.Timeout > 0 && d.PollInterval > d.Timeout {
		add("delivery.pollInterval", "must not exceed delivery.timeout")
	}
	if _, err := callback.NewMessageTemplate(d.MessageTemplate); err != nil {
		add("delivery.messageTemplate", err.Error())
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		add("logging.level", err.Error(), "Use debug, info, warn or error")
	}
	switch logging.Format(cfg.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		add("logging.format", fmt.Sprintf("unsupported format %q", cfg.Logging.Format), "Use text or json")
	}

	return errs
}
