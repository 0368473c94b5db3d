package deliver

import "context"

// TextEntry is the element the synthetic message is written into.
type TextEntry interface {
	// SetText replaces the entry's content.
	SetText(text string)
	// DispatchInput notifies observers bound to the entry that its content changed.
	DispatchInput()
}

// SubmitControl sends whatever the text entry currently holds.
type SubmitControl interface {
	Activate(ctx context.Context) error
}

// Surface locates the chat UI targets. A nil target with a nil error means the target
// does not exist (yet).
type Surface interface {
	TextEntry(ctx context.Context) (TextEntry, error)
	SubmitControl(ctx context.Context) (SubmitControl, error)
}

// Targets are the chat UI elements found by a readiness wait.
type Targets struct {
	Entry  TextEntry
	Submit SubmitControl
}

// Ready reports whether both targets were found.
func (t Targets) Ready() bool {
	return t.Entry != nil && t.Submit != nil
}
