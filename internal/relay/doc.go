// Package relay connects callback detection to delivery.
//
// Check is the single entry point for every trigger (page ready, page load, an HTTP
// request for a chat page). It detects and clears the callback synchronously, then
// dispatches the delivery without waiting for it. Two mechanisms keep a callback from
// being delivered twice:
//
//   - the address is cleaned before any asynchronous work starts, so a later trigger on
//     the same location finds no parameters;
//   - a Guard remembers recently dispatched (code, state) pairs, which covers triggers
//     that read their own copy of the address concurrently, such as two HTTP requests
//     for the same redirect.
package relay
