// Package logging provides subsystem-tagged structured logging for oauthrelay.
//
// The package wraps Go's standard slog package behind a small set of helpers so
// every component logs the same way:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Server", "Listening on %s", addr)
//	logging.Debug("Deliverer", "Chat surface not ready yet")
//	logging.Error("Deliverer", err, "Delivery %s failed", id)
//
// Each entry carries a "subsystem" attribute. The subsystems in use are:
//
//   - Config: configuration loading, validation and reload
//   - Detector: callback parameter detection and address cleanup
//   - Deliverer: readiness wait, message injection and submission
//   - Relay: duplicate suppression and hand-off between detector and deliverer
//   - ADK: calls to the agent server API
//   - Server: the HTTP front and the upstream proxy
//
// Init selects between a text and a JSON handler. Logger returns a plain
// *slog.Logger for libraries that want one (for example the retrying HTTP client).
package logging
