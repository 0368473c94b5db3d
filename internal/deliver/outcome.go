package deliver

// Outcome is how a delivery ended.
type Outcome int

const (
	// OutcomeTargetNotFound means the text entry or the submission control was missing
	// after the readiness wait. Nothing was sent.
	OutcomeTargetNotFound Outcome = iota
	// OutcomeSent means the message was written and the submission control activated.
	OutcomeSent
)

// String makes Outcome satisfy the fmt.Stringer interface.
func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeTargetNotFound:
		return "target_not_found"
	default:
		return "unknown"
	}
}

// Result reports a dispatched delivery.
type Result struct {
	// ID correlates log lines of one delivery.
	ID       string
	Identity string
	Outcome  Outcome
	// Err is set when the delivery failed after the targets were found, or panicked.
	Err error
}
