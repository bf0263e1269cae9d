// Package rule implements the HTTP field grammar used by fetch.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2
//
// - https://fetch.spec.whatwg.org/#terminology-headers
package rule
