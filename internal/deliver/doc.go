// Package deliver writes a callback into the chat surface as if the user had typed it.
//
// A delivery runs in three steps:
//
//  1. Readiness wait: poll the Surface every PollInterval until both the text entry and
//     the submission control exist, or give up after Timeout. Giving up is not an
//     error; the caller proceeds and reports the missing target.
//  2. Message synthesis from the resolved identity, the code and the state.
//  3. Injection: set the text, fire one input notification, wait SettleDelay so the
//     surface's bound state catches up, then activate the submission control.
//
// Dispatch runs a delivery on its own goroutine and returns immediately. Deliveries are
// not cancellable by the caller; failures and panics are contained and logged.
package deliver
