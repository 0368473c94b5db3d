package page

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Location is the address of a Page.
type Location struct {
	mu          sync.RWMutex
	u           *url.URL
	history     []string
	navigations int
}

// NewLocation parses rawURL into a Location.
func NewLocation(rawURL string) (*Location, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page address %q: %w", rawURL, err)
	}
	return &Location{u: u, history: []string{u.String()}, navigations: 1}, nil
}

// URL returns a copy of the current address.
func (l *Location) URL() *url.URL {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u := *l.u
	return &u
}

// Href returns the current address as a string.
func (l *Location) Href() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.u.String()
}

// ReplaceState replaces the current history entry with path without navigating.
// An absolute path replaces the path of the current address and drops its query
// and fragment; scheme and host never change, even for paths starting with "//".
// A relative path is resolved against the current address.
func (l *Location) ReplaceState(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.HasPrefix(path, "/") {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return
		}
		u := *l.u
		u.Path = unescaped
		u.RawPath = path
		u.RawQuery = ""
		u.ForceQuery = false
		u.Fragment = ""
		u.RawFragment = ""
		l.u = &u
	} else {
		ref, err := url.Parse(path)
		if err != nil {
			return
		}
		l.u = l.u.ResolveReference(ref)
	}
	l.history[len(l.history)-1] = l.u.String()
}

// Navigate loads a new address, pushing a history entry.
func (l *Location) Navigate(rawURL string) error {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid page address %q: %w", rawURL, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.u = l.u.ResolveReference(ref)
	l.history = append(l.history, l.u.String())
	l.navigations++
	return nil
}

// History returns the history entries, oldest first.
func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.history...)
}

// Navigations counts page loads, including the initial one.
func (l *Location) Navigations() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.navigations
}
