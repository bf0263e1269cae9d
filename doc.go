// Package fetch reproduces the WHATWG Fetch behavioral contract outside a
// browser: the Request/Response/Headers object model, single-consumption
// bodies with clone support, abort-signal cancellation, redirect policy and
// the standard's error taxonomy, all independent of the network stack behind
// the transport.Sender boundary.
//
// Reference:
//
// - https://fetch.spec.whatwg.org
//
// - https://datatracker.ietf.org/doc/html/rfc9110
package fetch
