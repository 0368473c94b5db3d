package deliver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oauthrelay/internal/callback"
)

// fakeSurface becomes ready at readyAt and records what was done to its targets.
type fakeSurface struct {
	mu        sync.Mutex
	readyAt   time.Time
	never     bool
	lookupErr error
	panicOn   bool
	activate  error

	text        string
	inputs      int
	inputAt     time.Time
	activatedAt time.Time
	activations int
	lookups     int
}

func (f *fakeSurface) ready() bool {
	return !f.never && !time.Now().Before(f.readyAt)
}

func (f *fakeSurface) TextEntry(ctx context.Context) (TextEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if !f.ready() {
		return nil, nil
	}
	return fakeEntry{f}, nil
}

func (f *fakeSurface) SubmitControl(ctx context.Context) (SubmitControl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready() {
		return nil, nil
	}
	return fakeSubmit{f}, nil
}

type fakeEntry struct{ f *fakeSurface }

func (e fakeEntry) SetText(text string) {
	e.f.mu.Lock()
	defer e.f.mu.Unlock()
	if e.f.panicOn {
		panic("entry detached")
	}
	e.f.text = text
}

func (e fakeEntry) DispatchInput() {
	e.f.mu.Lock()
	defer e.f.mu.Unlock()
	e.f.inputs++
	e.f.inputAt = time.Now()
}

type fakeSubmit struct{ f *fakeSurface }

func (s fakeSubmit) Activate(ctx context.Context) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.activations++
	s.f.activatedAt = time.Now()
	return s.f.activate
}

func fastOptions() Options {
	return Options{
		PollInterval: 10 * time.Millisecond,
		Timeout:      200 * time.Millisecond,
		SettleDelay:  50 * time.Millisecond,
	}
}

func TestNew_Defaults(t *testing.T) {
	opts := New(Options{}).Options()

	assert.Equal(t, 100*time.Millisecond, opts.PollInterval)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, 500*time.Millisecond, opts.SettleDelay)
	assert.NotNil(t, opts.Message)
}

func TestDeliver_Sent(t *testing.T) {
	s := &fakeSurface{}
	d := New(fastOptions())

	outcome, err := d.Deliver(context.Background(), s, "user@example.com", "AC123", "xyz|user@example.com")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Equal(t, "Handle OAuth2 callback for user user@example.com. Authorization code: AC123. State: xyz|user@example.com. Please exchange this code for access tokens and store them for this user.", s.text)
	assert.Equal(t, 1, s.inputs)
	assert.Equal(t, 1, s.activations)
	assert.GreaterOrEqual(t, s.activatedAt.Sub(s.inputAt), 50*time.Millisecond)
}

func TestDeliver_WaitsForLateSurface(t *testing.T) {
	readyAfter := 80 * time.Millisecond
	s := &fakeSurface{readyAt: time.Now().Add(readyAfter)}
	opts := fastOptions()
	d := New(opts)

	start := time.Now()
	outcome, err := d.Deliver(context.Background(), s, "u", "c", "s")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	// Injection happens within one poll interval of the surface appearing.
	injectedAfter := s.inputAt.Sub(start)
	assert.GreaterOrEqual(t, injectedAfter, readyAfter)
	assert.Less(t, injectedAfter, readyAfter+opts.PollInterval+40*time.Millisecond)
	assert.GreaterOrEqual(t, s.activatedAt.Sub(s.inputAt), opts.SettleDelay)
}

func TestDeliver_TargetNotFoundAfterTimeout(t *testing.T) {
	s := &fakeSurface{never: true}
	opts := fastOptions()
	d := New(opts)

	start := time.Now()
	outcome, err := d.Deliver(context.Background(), s, "u", "c", "s")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTargetNotFound, outcome)
	assert.GreaterOrEqual(t, elapsed, opts.Timeout)
	assert.Less(t, elapsed, opts.Timeout+150*time.Millisecond)
	assert.Empty(t, s.text)
	assert.Zero(t, s.inputs)
	assert.Zero(t, s.activations)
	assert.Greater(t, s.lookups, 5)
}

func TestDeliver_LookupErrorsCountAsMissing(t *testing.T) {
	s := &fakeSurface{lookupErr: errors.New("agent unreachable")}
	d := New(fastOptions())

	outcome, err := d.Deliver(context.Background(), s, "u", "c", "s")

	require.NoError(t, err)
	assert.Equal(t, OutcomeTargetNotFound, outcome)
}

func TestDeliver_ActivateError(t *testing.T) {
	s := &fakeSurface{activate: errors.New("run failed")}
	d := New(fastOptions())

	_, err := d.Deliver(context.Background(), s, "u", "c", "s")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run failed")
}

func TestDeliver_CustomTemplate(t *testing.T) {
	tmpl, err := callback.NewMessageTemplate("{{ .Identity }}:{{ .Code }}")
	require.NoError(t, err)
	opts := fastOptions()
	opts.Message = tmpl
	s := &fakeSurface{}

	_, err = New(opts).Deliver(context.Background(), s, "u", "c", "s")

	require.NoError(t, err)
	assert.Equal(t, "u:c", s.text)
}

func TestDeliver_RenderErrorFailsBeforeWaiting(t *testing.T) {
	tmpl, err := callback.NewMessageTemplate(`{{ fail "message disabled" }}`)
	require.NoError(t, err)
	opts := fastOptions()
	opts.Timeout = 5 * time.Second
	opts.Message = tmpl
	s := &fakeSurface{never: true}

	start := time.Now()
	outcome, err := New(opts).Deliver(context.Background(), s, "u", "c", "s")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "message disabled")
	assert.Equal(t, OutcomeTargetNotFound, outcome)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, s.lookups)
	assert.Empty(t, s.text)
}

func TestDispatch_DoesNotBlockAndReportsResult(t *testing.T) {
	s := &fakeSurface{readyAt: time.Now().Add(50 * time.Millisecond)}
	d := New(fastOptions())
	p := callback.Params{Code: "AC123", State: "xyz|user@example.com", Email: "ignored@example.com"}

	start := time.Now()
	done := d.Dispatch(context.Background(), s, p)
	assert.Less(t, time.Since(start), 20*time.Millisecond)

	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Equal(t, OutcomeSent, res.Outcome)
		assert.Equal(t, "user@example.com", res.Identity)
		assert.NotEmpty(t, res.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Contains(t, s.text, "for user user@example.com.")
}

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	s := &fakeSurface{readyAt: time.Now().Add(30 * time.Millisecond)}
	d := New(fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := d.Dispatch(ctx, s, callback.Params{Code: "c", State: "s", Email: "e"})
	cancel()

	res := <-done
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeSent, res.Outcome)
}

func TestDispatch_ContainsPanics(t *testing.T) {
	s := &fakeSurface{panicOn: true}
	d := New(fastOptions())

	res := <-d.Dispatch(context.Background(), s, callback.Params{Code: "c", State: "s", Email: "e"})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "panicked")
}

func TestSetOptions(t *testing.T) {
	d := New(Options{})
	d.SetOptions(Options{Timeout: time.Second})

	opts := d.Options()
	assert.Equal(t, time.Second, opts.Timeout)
	assert.Equal(t, DefaultPollInterval, opts.PollInterval)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "sent", OutcomeSent.String())
	assert.Equal(t, "target_not_found", OutcomeTargetNotFound.String())
	assert.Equal(t, "unknown", Outcome(7).String())
}
