package relay

import (
	"sync"
	"time"

	"oauthrelay/internal/callback"
	"oauthrelay/pkg/logging"
)

// DefaultGuardTTL is how long a dispatched callback is remembered.
const DefaultGuardTTL = 10 * time.Minute

// Guard suppresses repeated dispatches of the same callback.
type Guard struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[guardKey]time.Time
	now  func() time.Time
}

type guardKey struct {
	code  string
	state string
}

// NewGuard creates a guard remembering callbacks for ttl. A zero ttl selects DefaultGuardTTL.
func NewGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &Guard{
		ttl:  ttl,
		seen: make(map[guardKey]time.Time),
		now:  time.Now,
	}
}

// Claim records p and reports whether it was not already claimed within the TTL.
func (g *Guard) Claim(p callback.Params) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.evictLocked(now)

	key := guardKey{code: p.Code, state: p.State}
	if _, dup := g.seen[key]; dup {
		logging.Warn("Relay", "Ignoring duplicate OAuth2 callback for %s", p.Identity())
		return false
	}
	g.seen[key] = now
	return true
}

// SetTTL changes the retention for claims made afterwards and for eviction.
func (g *Guard) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	g.mu.Lock()
	g.ttl = ttl
	g.mu.Unlock()
}

// Reset forgets every claim.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.seen = make(map[guardKey]time.Time)
	g.mu.Unlock()
}

// Len returns the number of remembered callbacks.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func (g *Guard) evictLocked(now time.Time) {
	for k, at := range g.seen {
		if now.Sub(at) > g.ttl {
			delete(g.seen, k)
		}
	}
}
