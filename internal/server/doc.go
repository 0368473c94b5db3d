// Package server is the HTTP front that oauthrelay places in front of a chat web UI.
//
// The server reverse proxies the chat UI and watches its landing paths for OAuth
// callback parameters. When a request carries all of them:
//
//  1. the address is cleaned up in the browser, either with an injected
//     history.replaceState call (the proxied page is not navigated) or with a
//     303 redirect to the bare path;
//  2. the synthesized message is dispatched into the user's agent session; the
//     response does not wait for it.
//
// # Routes
//
//	/health           liveness, {"status":"ok"}
//	/metrics          Prometheus metrics
//	/oauth/callback   provider redirect; forwards code and state to the chat path
//	<chat paths>      callback detection, then proxy
//	everything else   proxied to the upstream chat UI
//
// Run notifies systemd (READY=1, STOPPING=1) when started under a unit with
// Type=notify; outside systemd the notifications are no-ops.
package server
