// Package adk talks to an ADK-style agent server and exposes a user's chat session as
// a delivery surface.
//
// Only the endpoints the relay needs are covered:
//
//	GET  /apps/{app}/users/{user}/sessions        list sessions
//	POST /apps/{app}/users/{user}/sessions/{id}   create a session
//	POST /run                                     send a user message
//
// The client retries connection errors and 5xx responses with
// hashicorp/go-retryablehttp.
package adk
