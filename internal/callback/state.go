package callback

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// nonceBytes is the entropy of the opaque part of a composite state.
const nonceBytes = 32

// NewState builds a composite state "<nonce>|<identity>".
// The nonce is URL-safe and never contains the delimiter.
func NewState(identity string) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(nonce) + IdentityDelimiter + identity, nil
}

// AuthCodeURL returns the provider authorization URL for identity together with the
// composite state it carries. Offline access is requested so the agent can refresh.
func AuthCodeURL(cfg *oauth2.Config, identity string) (string, string, error) {
	if cfg == nil || cfg.Endpoint.AuthURL == "" {
		return "", "", fmt.Errorf("authorization endpoint is not configured")
	}
	if cfg.ClientID == "" {
		return "", "", fmt.Errorf("client ID is not configured")
	}
	state, err := NewState(identity)
	if err != nil {
		return "", "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if identity != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", identity))
	}
	return cfg.AuthCodeURL(state, opts...), state, nil
}

// BridgeQuery converts a provider redirect (code, state) into the parameters the chat
// page expects. The email parameter is the identity carried by the composite state.
// It returns false when code or state is missing or the state carries no identity.
func BridgeQuery(code, state string) (url.Values, bool) {
	if code == "" || state == "" {
		return nil, false
	}
	_, identity, found := strings.Cut(state, IdentityDelimiter)
	if !found || identity == "" {
		return nil, false
	}
	return url.Values{
		ParamCode:  {code},
		ParamState: {state},
		ParamEmail: {identity},
	}, true
}
