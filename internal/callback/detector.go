package callback

import (
	"net/url"
	"sync"

	"oauthrelay/pkg/logging"
)

// Query parameter names set by the redirect that lands on the chat page.
const (
	ParamCode  = "oauth_code"
	ParamState = "oauth_state"
	ParamEmail = "email"
)

// Params are the authorization artifacts carried by a callback redirect.
type Params struct {
	Code  string
	State string
	Email string
}

// Identity returns the identity the callback should be delivered for.
func (p Params) Identity() string {
	return ResolveIdentity(p.Email, p.State)
}

// Location is the mutable address of the page being inspected.
type Location interface {
	// URL returns the current address. Callers must not modify it.
	URL() *url.URL
	// ReplaceState rewrites the visible address to path without navigating.
	ReplaceState(path string)
}

// Detector finds callback parameters on a Location and clears them.
// Detection is serialized so that the read and the cleanup are observed as one step.
type Detector struct {
	mu sync.Mutex
}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect reports the callback parameters present on loc, if all of them are.
// On success the address is rewritten to its bare path before Detect returns.
func (d *Detector) Detect(loc Location) (Params, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := loc.URL()
	if u == nil {
		return Params{}, false
	}

	params, ok := ParseQuery(u.RawQuery)
	if !ok {
		return Params{}, false
	}

	logging.Info("Detector", "OAuth2 parameters detected for %s", params.Email)
	loc.ReplaceState(CleanPath(u))
	return params, true
}

// ParseQuery extracts Params from a raw query string.
// Malformed pairs are skipped; the result is only valid when all three values are non-empty.
func ParseQuery(rawQuery string) (Params, bool) {
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(rawQuery)

	p := Params{
		Code:  values.Get(ParamCode),
		State: values.Get(ParamState),
		Email: values.Get(ParamEmail),
	}
	if p.Code == "" || p.State == "" || p.Email == "" {
		return Params{}, false
	}
	return p, true
}

// CleanPath returns the address of u without query string or fragment.
func CleanPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}
