package deliver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"oauthrelay/internal/callback"
	"oauthrelay/pkg/logging"
)

const (
	// DefaultPollInterval is how often the surface is checked during the readiness wait.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultTimeout bounds the readiness wait.
	DefaultTimeout = 10 * time.Second
	// DefaultSettleDelay separates the input notification from the submission.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Options tune a Deliverer. Zero durations select the defaults.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
	SettleDelay  time.Duration
	// Message renders the synthetic instruction. Nil selects callback.DefaultMessage.
	Message *callback.MessageTemplate
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.Message == nil {
		o.Message = callback.DefaultMessage()
	}
	return o
}

// Deliverer waits for a chat surface and submits callback messages into it.
type Deliverer struct {
	mu   sync.RWMutex
	opts Options
}

// New creates a Deliverer.
func New(opts Options) *Deliverer {
	return &Deliverer{opts: opts.withDefaults()}
}

// Options returns the options in effect.
func (d *Deliverer) Options() Options {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.opts
}

// SetOptions replaces the options for deliveries started afterwards.
func (d *Deliverer) SetOptions(opts Options) {
	d.mu.Lock()
	d.opts = opts.withDefaults()
	d.mu.Unlock()
}

// WaitReady polls s until both targets exist or the timeout elapses.
// It returns false on timeout or when ctx is done; it never fails otherwise.
func (d *Deliverer) WaitReady(ctx context.Context, s Surface) (Targets, bool) {
	opts := d.Options()
	start := time.Now()
	defer func() { readinessWait.Observe(time.Since(start).Seconds()) }()

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		targets := lookup(ctx, s)
		if targets.Ready() {
			return targets, true
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			logging.Debug("Deliverer", "Chat surface not ready after %s", opts.Timeout)
			return lookup(ctx, s), false
		case <-ctx.Done():
			return targets, false
		}
	}
}

func lookup(ctx context.Context, s Surface) Targets {
	var t Targets

	entry, err := s.TextEntry(ctx)
	if err != nil {
		logging.Debug("Deliverer", "Text entry lookup failed: %v", err)
	} else if entry != nil {
		t.Entry = entry
	}

	submit, err := s.SubmitControl(ctx)
	if err != nil {
		logging.Debug("Deliverer", "Submit control lookup failed: %v", err)
	} else if submit != nil {
		t.Submit = submit
	}
	return t
}

// Deliver waits for s, writes the callback message for identity into its text entry and
// activates its submission control after the settle delay.
func (d *Deliverer) Deliver(ctx context.Context, s Surface, identity, code, state string) (Outcome, error) {
	opts := d.Options()

	message, err := opts.Message.Render(callback.MessageData{Identity: identity, Code: code, State: state})
	if err != nil {
		return OutcomeTargetNotFound, err
	}

	targets, _ := d.WaitReady(ctx, s)

	if !targets.Ready() {
		logging.Error("Deliverer", nil, "Could not find chat input or send button")
		return OutcomeTargetNotFound, nil
	}

	targets.Entry.SetText(message)
	targets.Entry.DispatchInput()

	settle := time.NewTimer(opts.SettleDelay)
	defer settle.Stop()
	select {
	case <-settle.C:
	case <-ctx.Done():
		return OutcomeTargetNotFound, fmt.Errorf("delivery interrupted before submission: %w", ctx.Err())
	}

	if err := targets.Submit.Activate(ctx); err != nil {
		return OutcomeTargetNotFound, fmt.Errorf("failed to activate submit control: %w", err)
	}

	logging.Info("Deliverer", "OAuth2 callback message sent to agent for %s", identity)
	return OutcomeSent, nil
}

// Dispatch starts a delivery for p and returns without waiting for it.
// The delivery ignores cancellation of ctx. The returned channel receives exactly one
// Result and may be ignored.
func (d *Deliverer) Dispatch(ctx context.Context, s Surface, p callback.Params) <-chan Result {
	done := make(chan Result, 1)
	res := Result{
		ID:       uuid.NewString(),
		Identity: p.Identity(),
	}
	callbacksDispatched.Inc()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				res.Outcome = OutcomeTargetNotFound
				res.Err = fmt.Errorf("delivery panicked: %v", r)
				logging.Error("Deliverer", res.Err, "Error processing OAuth2 callback %s", res.ID)
			}
			observeOutcome(res)
			done <- res
		}()

		logging.Info("Deliverer", "Processing OAuth2 callback %s for %s", res.ID, res.Identity)
		res.Outcome, res.Err = d.Deliver(ctx, s, res.Identity, p.Code, p.State)
		if res.Err != nil {
			logging.Error("Deliverer", res.Err, "Error processing OAuth2 callback %s", res.ID)
		}
	}()

	return done
}
