package fetch

import (
	"net/url"
	"strings"

	"fetch/status"
	"fetch/transport"
)

// ResponseType tags how a response relates to the request that produced
// it.
// Reference: https://fetch.spec.whatwg.org/#concept-response-type
type ResponseType string

const (
	TypeBasic          ResponseType = "basic"
	TypeCORS           ResponseType = "cors"
	TypeOpaque         ResponseType = "opaque"
	TypeOpaqueRedirect ResponseType = "opaqueredirect"
	TypeError          ResponseType = "error"
)

// ResponseInit configures NewResponse. The zero value means status 200
// with its default reason phrase and empty headers.
type ResponseInit struct {
	Status     int
	StatusText string
	Headers    *Headers
}

// Response is a response descriptor, produced either from a network reply
// or synthetically.
type Response struct {
	respType   ResponseType
	url        string
	redirected bool

	statusCode int
	statusText string

	headers *Headers
	body    *Body
}

// NewResponse builds a synthetic response. Status must be in 200–599 and
// the status text free of CR/LF.
func NewResponse(body *Body, init *ResponseInit) (*Response, error) {
	if init == nil {
		init = &ResponseInit{}
	}

	code := init.Status
	if code == 0 {
		code = 200
	}
	if code < 200 || code > 599 {
		return nil, newValidationError("invalid status code %d", code)
	}

	text := init.StatusText
	if text == "" {
		text = status.Text(code)
	}
	if strings.ContainsAny(text, "\r\n") {
		return nil, newValidationError("invalid status text")
	}

	headers, err := guardedResponseHeaders(init.Headers)
	if err != nil {
		return nil, err
	}

	return &Response{
		respType:   TypeBasic,
		statusCode: code,
		statusText: text,
		headers:    headers,
		body:       body,
	}, nil
}

// NewErrorResponse builds the network-error response: status 0, type
// error, immutable headers.
func NewErrorResponse() *Response {
	h := NewHeaders()
	h.setGuard(GuardImmutable)
	return &Response{
		respType: TypeError,
		headers:  h,
	}
}

// NewRedirectResponse builds a synthetic redirect to location. code must
// be one of the redirect statuses; 0 means 302.
func NewRedirectResponse(location string, code int) (*Response, error) {
	if code == 0 {
		code = 302
	}
	if !status.IsRedirect(code) {
		return nil, newValidationError("invalid redirect status %d", code)
	}
	if _, err := url.Parse(location); err != nil {
		return nil, newValidationError("invalid redirect location %q: %s", location, err)
	}

	headers := NewHeaders()
	headers.setGuard(GuardResponse)
	if err := headers.Set("Location", location); err != nil {
		return nil, err
	}

	return &Response{
		respType:   TypeBasic,
		statusCode: code,
		statusText: status.Text(code),
		headers:    headers,
	}, nil
}

// responseFromWire maps a transport reply onto a Response. The body stays
// stream-backed; it is not drained here.
func responseFromWire(wire *transport.Response, finalURL *url.URL, respType ResponseType, redirected bool) *Response {
	reason := wire.Reason
	if reason == "" {
		reason = status.Text(wire.StatusCode)
	}

	return &Response{
		respType:   respType,
		url:        finalURL.String(),
		redirected: redirected,
		statusCode: wire.StatusCode,
		statusText: reason,
		headers:    headersFromWire(wire.Fields, GuardResponse),
		body:       newStreamBody(wire.Body),
	}
}

// opaqueRedirectResponse is what a manual-redirect fetch resolves to:
// status 0, no body, immutable headers.
func opaqueRedirectResponse(finalURL *url.URL) *Response {
	h := NewHeaders()
	h.setGuard(GuardImmutable)
	return &Response{
		respType: TypeOpaqueRedirect,
		url:      finalURL.String(),
		headers:  h,
	}
}

func (r *Response) Status() int        { return r.statusCode }
func (r *Response) StatusText() string { return r.statusText }
func (r *Response) Headers() *Headers  { return r.headers }
func (r *Response) Type() ResponseType { return r.respType }
func (r *Response) URL() string        { return r.url }
func (r *Response) Redirected() bool   { return r.redirected }
func (r *Response) Body() *Body        { return r.body }
func (r *Response) BodyUsed() bool     { return r.body.Used() }

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.statusCode >= 200 && r.statusCode <= 299
}

// Bytes drains the response body.
func (r *Response) Bytes() ([]byte, error) { return r.body.Bytes() }

// Text drains the response body as UTF-8 text.
func (r *Response) Text() (string, error) { return r.body.Text() }

// JSON drains the response body and decodes it through the codec.
func (r *Response) JSON(v any) error { return r.body.JSON(v) }

// Clone deep-copies the response; the body is teed. Cloning after the
// body is used fails.
func (r *Response) Clone() (*Response, error) {
	body, err := r.body.Clone()
	if err != nil {
		return nil, err
	}

	clone := *r
	clone.headers = r.headers.clone(r.headers.guard)
	clone.body = body
	return &clone, nil
}

// guardedResponseHeaders re-validates caller headers under the response
// guard, mirroring guardedHeaders on the request side.
func guardedResponseHeaders(src *Headers) (*Headers, error) {
	h := NewHeaders()
	h.setGuard(GuardResponse)
	if src == nil {
		return h, nil
	}
	for name, value := range src.Entries() {
		if err := h.Append(name, value); err != nil {
			return nil, err
		}
	}
	return h, nil
}
