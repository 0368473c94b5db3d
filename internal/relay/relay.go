package relay

import (
	"context"

	"oauthrelay/internal/callback"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/page"
)

// Relay hands detected callbacks to a Deliverer.
type Relay struct {
	detector  *callback.Detector
	deliverer *deliver.Deliverer
	guard     *Guard

	// OnDispatch, when set, receives the result channel of every dispatched delivery.
	OnDispatch func(callback.Params, <-chan deliver.Result)
}

// New creates a Relay. A nil guard disables explicit duplicate suppression.
func New(deliverer *deliver.Deliverer, guard *Guard) *Relay {
	return &Relay{
		detector:  callback.NewDetector(),
		deliverer: deliverer,
		guard:     guard,
	}
}

// Guard returns the relay's guard, which may be nil.
func (r *Relay) Guard() *Guard {
	return r.guard
}

// Check detects a callback on loc and dispatches its delivery into s. It reports
// whether a delivery was dispatched; a duplicate rejected by the guard returns the
// detected params and false. The address is cleaned before Check returns and the
// delivery is not awaited.
func (r *Relay) Check(ctx context.Context, loc callback.Location, s deliver.Surface) (callback.Params, bool) {
	p, ok := r.detector.Detect(loc)
	if !ok {
		return callback.Params{}, false
	}
	if r.guard != nil && !r.guard.Claim(p) {
		return p, false
	}

	done := r.deliverer.Dispatch(ctx, s, p)
	if r.OnDispatch != nil {
		r.OnDispatch(p, done)
	}
	return p, true
}

// Attach runs Check on p when its document becomes ready (or now, if it already is)
// and on every load.
func (r *Relay) Attach(ctx context.Context, p *page.Page) {
	check := func() {
		r.Check(ctx, p.Location(), PageSurface(p))
	}
	p.OnReady(check)
	p.OnLoad(check)
}
