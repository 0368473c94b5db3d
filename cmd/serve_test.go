package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oauthrelay/internal/callback"
	"oauthrelay/internal/config"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/relay"
)

func TestServeFlags_Apply(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9999",
		"--upstream", "http://ui:8000",
		"--cleanup", "redirect",
		"--app", "tool_agent",
		"--create-session",
	}))

	cfg := config.GetDefaultConfig()
	f := &serveFlags{port: 9999, upstream: "http://ui:8000", cleanup: "redirect", app: "tool_agent", createSession: true}
	f.apply(cmd, &cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset flags keep configured values")
	assert.Equal(t, "http://ui:8000", cfg.Upstream.URL)
	assert.Equal(t, config.CleanupRedirect, cfg.Server.Cleanup)
	assert.Equal(t, "tool_agent", cfg.ADK.AppName)
	assert.True(t, cfg.ADK.CreateSession)
	assert.Equal(t, config.DefaultUserID, cfg.ADK.UserID)
}

func TestServe_RequiresAppName(t *testing.T) {
	useConfig(t, "upstream:\n  url: http://localhost:8000\n")

	_, _, err := execute(newServeCmd(), "--no-watch")
	assert.ErrorIs(t, err, errAppNameRequired)
}

func TestServe_RejectsInvalidFlags(t *testing.T) {
	useConfig(t, "")

	_, _, err := execute(newServeCmd(), "--cleanup", "reload", "--app", "a", "--upstream", "http://ui")
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, getExitCode(err))
}

func TestApplyReload(t *testing.T) {
	d := deliver.New(deliver.Options{})
	g := relay.NewGuard(time.Minute)

	cfg := config.GetDefaultConfig()
	cfg.Delivery.Timeout = 3 * time.Second
	cfg.Delivery.MessageTemplate = "relay {{ .Code }}"
	applyReload(d, g, cfg)

	assert.Equal(t, 3*time.Second, d.Options().Timeout)
	msg, err := d.Options().Message.Render(callback.MessageData{Code: "AC"})
	require.NoError(t, err)
	assert.Equal(t, "relay AC", msg)
}
