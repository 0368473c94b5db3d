package cmd

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	useConfig(t, `
oauth:
  clientId: client-123
  authUrl: https://provider.example.com/auth
  scopes: ["calendar"]
`)

	out, errOut, err := execute(newAuthURLCmd(), "alice@example.com")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "provider.example.com", u.Host)

	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8090/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "calendar", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "alice@example.com", q.Get("login_hint"))
	assert.True(t, strings.HasSuffix(q.Get("state"), "|alice@example.com"))
	assert.Contains(t, errOut, "state: "+q.Get("state"))
}

func TestAuthURL_FlagsOverride(t *testing.T) {
	useConfig(t, "")

	out, _, err := execute(newAuthURLCmd(), "bob@example.com",
		"--client-id", "flag-client",
		"--redirect-url", "https://relay.example.com/oauth/callback",
		"--scope", "openid", "--scope", "email")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "flag-client", q.Get("client_id"))
	assert.Equal(t, "https://relay.example.com/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email", q.Get("scope"))
}

func TestAuthURL_RequiresClientID(t *testing.T) {
	useConfig(t, "")

	_, _, err := execute(newAuthURLCmd(), "bob@example.com")
	assert.ErrorContains(t, err, "client ID")
}
