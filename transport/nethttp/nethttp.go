// Package nethttp implements transport.Sender over net/http.
//
// Only the framing half of net/http is used: requests go through an
// *http.Transport directly, so redirects, cookies and response rewriting
// all stay with the fetch layer.
package nethttp

import (
	"context"
	"io"
	"net/http"
	"time"

	"fetch/transport"

	"github.com/pkg/errors"
)

type Sender struct {
	rt http.RoundTripper
}

type Option func(*Sender)

// WithRoundTripper swaps the underlying round tripper.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(s *Sender) { s.rt = rt }
}

func New(opts ...Option) *Sender {
	s := &Sender{
		rt: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ transport.Sender = (*Sender)(nil)

func (s *Sender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "building http request")
	}

	for _, f := range req.Fields {
		if f.Name == "Host" {
			httpReq.Host = f.Value
			continue
		}
		httpReq.Header.Add(f.Name, f.Value)
	}

	httpRes, err := s.rt.RoundTrip(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "roundtrip")
	}

	fields := make([]transport.Field, 0, len(httpRes.Header))
	for name, values := range httpRes.Header {
		for _, value := range values {
			fields = append(fields, transport.Field{Name: name, Value: value})
		}
	}

	return &transport.Response{
		StatusCode: httpRes.StatusCode,
		// net/http discards the received reason phrase. Leave it empty and
		// let the fetch layer fill in the default for the code.
		Fields: fields,
		Body:   httpRes.Body,
	}, nil
}
