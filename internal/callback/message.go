package callback

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultMessageTemplate produces the instruction the downstream agent expects.
const DefaultMessageTemplate = "Handle OAuth2 callback for user {{ .Identity }}. " +
	"Authorization code: {{ .Code }}. " +
	"State: {{ .State }}. " +
	"Please exchange this code for access tokens and store them for this user."

// MessageData is the data a message template is executed with.
type MessageData struct {
	Identity string
	Code     string
	State    string
}

// MessageTemplate renders the synthetic chat message.
// Values are embedded verbatim; text/template performs no escaping.
type MessageTemplate struct {
	tmpl *template.Template
}

// NewMessageTemplate parses text as a text/template with the sprig function map.
// An empty text selects DefaultMessageTemplate.
func NewMessageTemplate(text string) (*MessageTemplate, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultMessageTemplate
	}
	tmpl, err := template.New("message").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message template: %w", err)
	}
	return &MessageTemplate{tmpl: tmpl}, nil
}

// DefaultMessage returns the template for DefaultMessageTemplate.
func DefaultMessage() *MessageTemplate {
	m, err := NewMessageTemplate(DefaultMessageTemplate)
	if err != nil {
		panic(err)
	}
	return m
}

// Render executes the template.
func (m *MessageTemplate) Render(data MessageData) (string, error) {
	var sb strings.Builder
	if err := m.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	return sb.String(), nil
}
