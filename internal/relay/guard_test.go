package relay

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"oauthrelay/internal/callback"
)

func TestGuard_Claim(t *testing.T) {
	g := NewGuard(time.Minute)
	p := callback.Params{Code: "c", State: "s", Email: "e"}

	assert.True(t, g.Claim(p))
	assert.False(t, g.Claim(p))
	assert.True(t, g.Claim(callback.Params{Code: "c2", State: "s", Email: "e"}))
	assert.Equal(t, 2, g.Len())
}

func TestGuard_Expiry(t *testing.T) {
	g := NewGuard(time.Minute)
	now := time.Now()
	g.now = func() time.Time { return now }
	p := callback.Params{Code: "c", State: "s", Email: "e"}

	assert.True(t, g.Claim(p))
	now = now.Add(2 * time.Minute)
	assert.True(t, g.Claim(p))
}

func TestGuard_ResetAndTTL(t *testing.T) {
	g := NewGuard(0)
	assert.Equal(t, DefaultGuardTTL, g.ttl)

	p := callback.Params{Code: "c", State: "s", Email: "e"}
	g.Claim(p)
	g.Reset()
	assert.Equal(t, 0, g.Len())
	assert.True(t, g.Claim(p))

	g.SetTTL(time.Second)
	assert.Equal(t, time.Second, g.ttl)
}

func TestGuard_ConcurrentClaims(t *testing.T) {
	g := NewGuard(time.Minute)
	p := callback.Params{Code: "c", State: "s", Email: "e"}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Claim(p) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
