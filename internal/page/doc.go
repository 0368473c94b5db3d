// Package page is a headless model of the chat page a callback lands on.
//
// A Page couples a Location (the address bar, with in-place history replacement),
// a Document (an HTML DOM parsed with golang.org/x/net/html, with event listeners,
// element values and clicks) and the two lifecycle notifications a script can hook:
// ready (DOMContentLoaded) and load.
//
// The model covers what the callback relay touches and nothing more: locating the
// chat input and the send button, writing a value, firing input/click/submit events
// and rendering late UI fragments with Mount. There is no layout, no styling and no
// script execution.
//
// All types are safe for concurrent use.
package page
