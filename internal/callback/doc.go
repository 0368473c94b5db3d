// Package callback recognizes an OAuth2 redirect that landed on the chat page and
// turns it into the values the deliverer needs.
//
// A callback is the triple of query parameters oauth_code, oauth_state and email.
// Detect only reports a callback when all three are present and non-empty, and it
// strips the query from the page address in the same step so a reload, a
// back/forward navigation or a second trigger sees nothing to do.
//
// The state value may carry a more authoritative identity after a '|' delimiter
// ("<nonce>|<user>"). ResolveIdentity applies that override; NewState and
// AuthCodeURL build such states when starting the flow.
//
// Nothing in this package validates the code or the state. The agent that receives
// the synthesized message owns the token exchange.
package callback
