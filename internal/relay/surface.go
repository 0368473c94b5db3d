package relay

import (
	"context"

	"oauthrelay/internal/deliver"
	"oauthrelay/internal/page"
)

// pageSurface finds the chat targets in the page's current document.
type pageSurface struct {
	p *page.Page
}

// PageSurface adapts a headless page to deliver.Surface. Lookups always use the page's
// current document, so a reload between polls is picked up.
func PageSurface(p *page.Page) deliver.Surface {
	return pageSurface{p: p}
}

func (s pageSurface) TextEntry(ctx context.Context) (deliver.TextEntry, error) {
	el := s.p.Document().TextEntry()
	if el == nil {
		return nil, nil
	}
	return elementEntry{el: el}, nil
}

func (s pageSurface) SubmitControl(ctx context.Context) (deliver.SubmitControl, error) {
	el := s.p.Document().SubmitControl()
	if el == nil {
		return nil, nil
	}
	return elementControl{el: el}, nil
}

type elementEntry struct {
	el *page.Element
}

// SetText assigns the value of inputs and textareas and the text of editable regions.
func (e elementEntry) SetText(text string) {
	if e.el.IsFormControl() {
		e.el.SetValue(text)
		return
	}
	e.el.SetTextContent(text)
}

func (e elementEntry) DispatchInput() {
	e.el.DispatchEvent(page.Event{Type: page.EventInput, Bubbles: true})
}

type elementControl struct {
	el *page.Element
}

func (c elementControl) Activate(ctx context.Context) error {
	c.el.Click()
	return nil
}
