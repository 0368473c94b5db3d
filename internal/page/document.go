package page

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document with element state and event listeners.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	values    map[*html.Node]string
	listeners map[*html.Node]map[string][]Listener
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{
		root:      root,
		values:    make(map[*html.Node]string),
		listeners: make(map[*html.Node]map[string][]Listener),
	}, nil
}

// ParseString parses an HTML document held in s.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) element(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

// find returns the first element in document order for which match is true.
// Callers must hold d.mu.
func (d *Document) find(match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return found
}

// GetElementByID returns the element with the given id attribute, or nil.
func (d *Document) GetElementByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.element(d.find(func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	}))
}

// Body returns the body element.
func (d *Document) Body() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.element(d.find(func(n *html.Node) bool { return n.DataAtom == atom.Body }))
}

// Title returns the trimmed text of the title element.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := d.find(func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if n == nil {
		return ""
	}
	return strings.TrimSpace(textContent(n))
}

// TextEntry returns the first text input, textarea or editable region, or nil.
func (d *Document) TextEntry() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.element(d.find(isTextEntry))
}

// SubmitControl returns the first submit button or button labelled Send or Submit, or nil.
func (d *Document) SubmitControl() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.element(d.find(isSubmitControl))
}

func isTextEntry(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input:
		v, ok := attr(n, "type")
		return ok && v == "text"
	case atom.Textarea:
		return true
	}
	v, ok := attr(n, "contenteditable")
	return ok && v == "true"
}

func isSubmitControl(n *html.Node) bool {
	if n.DataAtom != atom.Button {
		return false
	}
	if v, ok := attr(n, "type"); ok && v == "submit" {
		return true
	}
	switch strings.TrimSpace(textContent(n)) {
	case "Send", "Submit":
		return true
	}
	return false
}

// Mount parses fragment and appends it to the element with id parentID, or to the
// body when parentID is empty.
func (d *Document) Mount(parentID, fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var parent *html.Node
	if parentID == "" {
		parent = d.find(func(n *html.Node) bool { return n.DataAtom == atom.Body })
	} else {
		parent = d.find(func(n *html.Node) bool {
			v, ok := attr(n, "id")
			return ok && v == parentID
		})
	}
	if parent == nil {
		return fmt.Errorf("mount point %q not found", parentID)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// Render serializes the document.
func (d *Document) Render() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
