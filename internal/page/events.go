package page

// Event types fired by the model.
const (
	EventInput  = "input"
	EventClick  = "click"
	EventSubmit = "submit"
)

// Event is a DOM event.
type Event struct {
	Type    string
	Bubbles bool
	// Target is the element the event was dispatched on.
	Target *Element
}

// Listener handles an event. CurrentTarget is the element the listener is attached to.
type Listener func(ev Event, currentTarget *Element)
