// Package transport defines the boundary between the fetch semantics layer
// and whatever performs actual network I/O. The fetch client only ever
// talks to a Sender; connection management, TLS and HTTP framing live
// behind it.
package transport

import (
	"context"
	"io"
	"net/url"
)

// Field is one header line, order-preserving.
type Field struct {
	Name  string
	Value string
}

// Request is the wire-level request handed to a Sender. Header fields are
// already validated and ordered by the caller.
type Request struct {
	Method string
	URL    *url.URL
	Fields []Field

	// Body is nil for bodiless requests. The Sender drains it at most once.
	Body io.Reader
}

// Response is the wire-level reply. Body is never nil; bodiless replies
// carry an empty reader. The caller owns closing it.
type Response struct {
	StatusCode int
	// Reason is the received reason phrase. May be empty; the caller fills
	// in a default.
	Reason string
	Fields []Field

	Body io.ReadCloser
}

// Sender performs one request-response exchange. Implementations must
// honor ctx cancellation at connect, header read and body read boundaries,
// and must not follow redirects themselves.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}
