package relay

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oauthrelay/internal/callback"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/page"
)

const callbackURL = "https://chat.example.com/chat?oauth_code=AC123&oauth_state=xyz%7Cuser%40example.com&email=ignored%40example.com"

const wantMessage = "Handle OAuth2 callback for user user@example.com. Authorization code: AC123. State: xyz|user@example.com. Please exchange this code for access tokens and store them for this user."

func fastDeliverer() *deliver.Deliverer {
	return deliver.New(deliver.Options{
		PollInterval: 10 * time.Millisecond,
		Timeout:      300 * time.Millisecond,
		SettleDelay:  50 * time.Millisecond,
	})
}

type recorder struct {
	mu      sync.Mutex
	results []<-chan deliver.Result
}

func (r *recorder) record(_ callback.Params, done <-chan deliver.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, done)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *recorder) wait(t *testing.T, i int) deliver.Result {
	t.Helper()
	r.mu.Lock()
	done := r.results[i]
	r.mu.Unlock()
	select {
	case res := <-done:
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("delivery did not finish")
		return deliver.Result{}
	}
}

func newPage(t *testing.T, rawURL, body string) *page.Page {
	t.Helper()
	loc, err := page.NewLocation(rawURL)
	require.NoError(t, err)
	doc, err := page.ParseString("<html><head><title>Chat</title></head><body>" + body + "</body></html>")
	require.NoError(t, err)
	return page.New(loc, doc)
}

func TestAttach_EndToEnd(t *testing.T) {
	p := newPage(t, callbackURL, `<div id="app"><input type="text" id="msg"><button id="send">Send</button></div>`)
	doc := p.Document()

	var inputs int
	var inputAt, clickAt time.Time
	var submitted string
	doc.GetElementByID("msg").AddEventListener(page.EventInput, func(page.Event, *page.Element) {
		inputs++
		inputAt = time.Now()
	})
	doc.GetElementByID("send").AddEventListener(page.EventClick, func(page.Event, *page.Element) {
		clickAt = time.Now()
		submitted = doc.GetElementByID("msg").Value()
	})

	rec := &recorder{}
	r := New(fastDeliverer(), NewGuard(time.Minute))
	r.OnDispatch = rec.record
	r.Attach(context.Background(), p)

	p.FireReady()
	// Cleanup is synchronous with detection.
	assert.Equal(t, "https://chat.example.com/chat", p.Location().Href())
	p.FireLoad()

	require.Equal(t, 1, rec.count())
	res := rec.wait(t, 0)
	require.NoError(t, res.Err)
	assert.Equal(t, deliver.OutcomeSent, res.Outcome)
	assert.Equal(t, "user@example.com", res.Identity)
	assert.Equal(t, wantMessage, submitted)
	assert.Equal(t, 1, inputs)
	assert.GreaterOrEqual(t, clickAt.Sub(inputAt), 50*time.Millisecond)
	assert.Equal(t, 1, p.Location().Navigations())
}

func TestAttach_AfterReadyRunsImmediately(t *testing.T) {
	p := newPage(t, callbackURL, `<textarea></textarea><button type="submit">Go</button>`)
	p.FireReady()

	rec := &recorder{}
	r := New(fastDeliverer(), nil)
	r.OnDispatch = rec.record
	r.Attach(context.Background(), p)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "https://chat.example.com/chat", p.Location().Href())

	res := rec.wait(t, 0)
	require.NoError(t, res.Err)
	assert.Equal(t, wantMessage, p.Document().TextEntry().Value())
}

func TestAttach_LateUIAndEditableRegion(t *testing.T) {
	p := newPage(t, callbackURL, `<div id="root"></div>`)

	rec := &recorder{}
	r := New(fastDeliverer(), nil)
	r.OnDispatch = rec.record
	r.Attach(context.Background(), p)
	p.FireReady()

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, p.Document().Mount("root", `<div id="editor" contenteditable="true"></div><button>Submit</button>`))

	res := rec.wait(t, 0)
	require.NoError(t, res.Err)
	assert.Equal(t, deliver.OutcomeSent, res.Outcome)
	assert.Equal(t, wantMessage, p.Document().GetElementByID("editor").TextContent())
}

func TestAttach_TargetNotFound(t *testing.T) {
	p := newPage(t, callbackURL, `<input type="text">`)

	rec := &recorder{}
	r := New(fastDeliverer(), nil)
	r.OnDispatch = rec.record
	r.Attach(context.Background(), p)
	p.FireReady()

	res := rec.wait(t, 0)
	assert.NoError(t, res.Err)
	assert.Equal(t, deliver.OutcomeTargetNotFound, res.Outcome)
	assert.Equal(t, "", p.Document().TextEntry().Value())
	assert.Equal(t, "https://chat.example.com/chat", p.Location().Href())
}

func TestAttach_NoCallback(t *testing.T) {
	p := newPage(t, "https://chat.example.com/chat?oauth_code=AC123", `<input type="text"><button>Send</button>`)

	rec := &recorder{}
	r := New(fastDeliverer(), nil)
	r.OnDispatch = rec.record
	r.Attach(context.Background(), p)
	p.FireReady()
	p.FireLoad()

	assert.Equal(t, 0, rec.count())
	assert.Equal(t, "https://chat.example.com/chat?oauth_code=AC123", p.Location().Href())
}

// requestLocation mimics a server reading its own copy of the address per request.
type requestLocation struct{ u *url.URL }

func (l *requestLocation) URL() *url.URL      { return l.u }
func (l *requestLocation) ReplaceState(string) {}

func TestCheck_GuardSuppressesIndependentCopies(t *testing.T) {
	u, err := url.Parse(callbackURL)
	require.NoError(t, err)
	p := newPage(t, "https://chat.example.com/", `<input type="text"><button>Send</button>`)

	rec := &recorder{}
	r := New(fastDeliverer(), NewGuard(time.Minute))
	r.OnDispatch = rec.record

	_, first := r.Check(context.Background(), &requestLocation{u: u}, PageSurface(p))
	params, second := r.Check(context.Background(), &requestLocation{u: u}, PageSurface(p))

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, "AC123", params.Code)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, r.Guard().Len())
}
