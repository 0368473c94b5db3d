package page

import (
	"sync"
)

// ReadyState mirrors document.readyState.
type ReadyState string

const (
	StateLoading     ReadyState = "loading"
	StateInteractive ReadyState = "interactive"
	StateComplete    ReadyState = "complete"
)

// Page is a loaded document at a location, with lifecycle notifications.
type Page struct {
	mu       sync.Mutex
	location *Location
	doc      *Document
	state    ReadyState

	readyListeners []func()
	loadListeners  []func()
}

// New creates a page that is still loading doc.
func New(loc *Location, doc *Document) *Page {
	return &Page{location: loc, doc: doc, state: StateLoading}
}

// Location returns the page address.
func (p *Page) Location() *Location {
	return p.location
}

// Document returns the current document.
func (p *Page) Document() *Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// Title returns the document title.
func (p *Page) Title() string {
	return p.Document().Title()
}

// ReadyState returns the document lifecycle state.
func (p *Page) ReadyState() ReadyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OnReady runs fn when the document structure is ready. If the page is no longer
// loading, fn runs immediately on the calling goroutine.
func (p *Page) OnReady(fn func()) {
	p.mu.Lock()
	if p.state == StateLoading {
		p.readyListeners = append(p.readyListeners, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn()
}

// OnLoad runs fn every time the page finishes loading.
func (p *Page) OnLoad(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadListeners = append(p.loadListeners, fn)
}

// FireReady marks the document interactive and runs the ready listeners.
func (p *Page) FireReady() {
	p.mu.Lock()
	p.state = StateInteractive
	listeners := p.readyListeners
	p.readyListeners = nil
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// FireLoad marks the page complete and runs the load listeners.
func (p *Page) FireLoad() {
	p.mu.Lock()
	p.state = StateComplete
	listeners := append([]func(){}, p.loadListeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Reload replaces the document and returns the page to the loading state.
// Load listeners stay registered.
func (p *Page) Reload(doc *Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
	p.state = StateLoading
}
