package page

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle to an element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// TagName returns the upper-case tag name, e.g. "INPUT".
func (e *Element) TagName() string {
	return strings.ToUpper(e.node.Data)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, name)
}

// SetAttr sets the named attribute.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
}

// IsFormControl reports whether the element holds a value (input or textarea).
func (e *Element) IsFormControl() bool {
	return e.node.DataAtom == atom.Input || e.node.DataAtom == atom.Textarea
}

// Value returns the current value of an input or textarea.
func (e *Element) Value() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if v, ok := e.doc.values[e.node]; ok {
		return v
	}
	if e.node.DataAtom == atom.Textarea {
		return textContent(e.node)
	}
	v, _ := attr(e.node, "value")
	return v
}

// SetValue sets the value of an input or textarea. No event is fired.
func (e *Element) SetValue(v string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.values[e.node] = v
}

// TextContent returns the concatenated text of the element's descendants.
func (e *Element) TextContent() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return textContent(e.node)
}

// SetTextContent replaces the element's children with a single text node.
func (e *Element) SetTextContent(s string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// AddEventListener registers fn for events of the given type on the element.
func (e *Element) AddEventListener(eventType string, fn Listener) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	byType, ok := e.doc.listeners[e.node]
	if !ok {
		byType = make(map[string][]Listener)
		e.doc.listeners[e.node] = byType
	}
	byType[eventType] = append(byType[eventType], fn)
}

// DispatchEvent runs the listeners for ev on the element and, when ev bubbles, on each
// of its ancestors.
func (e *Element) DispatchEvent(ev Event) {
	ev.Target = e

	type call struct {
		fn      Listener
		current *Element
	}

	e.doc.mu.RLock()
	var calls []call
	for n := e.node; n != nil; n = n.Parent {
		for _, fn := range e.doc.listeners[n][ev.Type] {
			calls = append(calls, call{fn: fn, current: e.doc.element(n)})
		}
		if !ev.Bubbles {
			break
		}
	}
	e.doc.mu.RUnlock()

	// Listeners run without the document lock so they can read and modify the DOM.
	for _, c := range calls {
		c.fn(ev, c.current)
	}
}

// Form returns the nearest enclosing form element, or nil.
func (e *Element) Form() *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for n := e.node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			return e.doc.element(n)
		}
	}
	return nil
}

// Click fires a bubbling click event. A submit button inside a form then submits it.
func (e *Element) Click() {
	e.DispatchEvent(Event{Type: EventClick, Bubbles: true})

	if e.node.DataAtom != atom.Button {
		return
	}
	// A button without a type attribute is a submit button.
	if t, ok := e.Attr("type"); ok && t != "submit" {
		return
	}
	if form := e.Form(); form != nil {
		form.DispatchEvent(Event{Type: EventSubmit, Bubbles: true})
	}
}
