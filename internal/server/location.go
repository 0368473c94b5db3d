package server

import (
	"net/http"
	"net/url"
	"sync"
)

// requestLocation exposes an incoming request as a callback.Location. ReplaceState
// only records the cleaned path; the handler turns it into a response.
type requestLocation struct {
	u *url.URL

	mu       sync.Mutex
	replaced string
	done     bool
}

func newRequestLocation(r *http.Request) *requestLocation {
	u := *r.URL
	return &requestLocation{u: &u}
}

func (l *requestLocation) URL() *url.URL {
	u := *l.u
	return &u
}

func (l *requestLocation) ReplaceState(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replaced = path
	l.done = true
}

// Replaced returns the cleaned path when a callback was detected.
func (l *requestLocation) Replaced() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaced, l.done
}
