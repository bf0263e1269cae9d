package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"fetch/status"
	"fetch/transport"
	"fetch/transport/nethttp"
	"fetch/util/rule"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Client executes fetches against a transport.Sender. Every call is an
// independent operation; the only state shared between calls lives behind
// the Sender.
type Client struct {
	sender transport.Sender

	opts Options

	logger *slog.Logger
	clock  clock.Clock
}

func New(sender transport.Sender, logger *slog.Logger, clk clock.Clock, opts Options) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Client{
		sender: sender,
		opts:   opts.withDefaults(),
		logger: logger,
		clock:  clk,
	}
}

var (
	defaultClient     *Client
	defaultClientOnce sync.Once
)

// Fetch runs one fetch on a lazily-built shared client over net/http.
func Fetch(ctx context.Context, rawURL string, init *RequestInit) (*Response, error) {
	defaultClientOnce.Do(func() {
		defaultClient = New(nethttp.New(), nil, nil, Options{})
	})
	return defaultClient.Fetch(ctx, rawURL, init)
}

// Fetch builds a Request from rawURL and init and executes it.
func (c *Client) Fetch(ctx context.Context, rawURL string, init *RequestInit) (*Response, error) {
	req, err := NewRequest(rawURL, init)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

var errFetchTimeout = errors.New("fetch timeout exceeded")

// Do executes req. The caller's request is never consumed: each hop sends
// a clone, so the original stays reusable even across redirect retries.
//
// An already-aborted signal fails before any transport call. Mid-flight,
// an abort cancels the pending transport operation at its next suspension
// point and surfaces as an abort error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	signal := req.Signal()
	if signal != nil && signal.Aborted() {
		return nil, newAbortError(signal.Reason())
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if signal != nil {
		remove := signal.OnAbort(func(reason error) {
			cancel(newAbortError(reason))
		})
		defer remove()
	}

	if c.opts.Timeout.Fetch > 0 {
		timer := c.clock.AfterFunc(c.opts.Timeout.Fetch, func() {
			cancel(errFetchTimeout)
		})
		defer timer.Stop()
	}

	return c.run(ctx, req)
}

func (c *Client) run(ctx context.Context, req *Request) (*Response, error) {
	current := req
	hops := uint(0)

	for {
		// Re-check cancellation at the hop boundary.
		if err := ctx.Err(); err != nil {
			return nil, c.cancelError(ctx, err)
		}

		hopReq, err := current.Clone()
		if err != nil {
			return nil, err
		}

		wireReq, err := wireRequest(hopReq)
		if err != nil {
			return nil, err
		}

		wireRes, err := c.sender.Send(ctx, wireReq)
		if err != nil {
			return nil, c.cancelError(ctx, err)
		}

		if !status.IsRedirect(wireRes.StatusCode) {
			return responseFromWire(
				wireRes, current.url, c.responseType(req, current.url), hops > 0,
			), nil
		}

		// Error and manual fire on the redirect status alone; only follow
		// cares whether a Location is actually present.
		switch current.redirect {
		case RedirectError:
			discardWireBody(wireRes)
			return nil, newNetworkError(nil,
				"redirect received with redirect mode %q", RedirectError)

		case RedirectManual:
			discardWireBody(wireRes)
			return opaqueRedirectResponse(current.url), nil
		}

		location, hasLocation := wireLocation(wireRes.Fields)
		if !hasLocation {
			return responseFromWire(
				wireRes, current.url, c.responseType(req, current.url), hops > 0,
			), nil
		}

		if hops >= c.opts.Redirect.MaxHops {
			discardWireBody(wireRes)
			return nil, newNetworkError(nil, "too many redirects")
		}
		hops++

		next, err := redirectedRequest(current, wireRes.StatusCode, location)
		discardWireBody(wireRes)
		if err != nil {
			return nil, err
		}

		c.logger.DebugContext(ctx, "following redirect",
			slog.Int("status", wireRes.StatusCode),
			slog.String("location", next.url.String()),
			slog.Uint64("hop", uint64(hops)),
		)

		current = next
	}
}

// cancelError maps a failed or cancelled hop onto the error taxonomy: a
// signal abort wins over everything, a fetch timeout is a network error,
// anything else is a transport failure.
func (c *Client) cancelError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && ctx.Err() != nil {
		var fetchErr *Error
		if errors.As(cause, &fetchErr) && fetchErr.Kind() == KindAbort {
			return fetchErr
		}
		if errors.Is(cause, errFetchTimeout) {
			return newNetworkError(cause, "fetch timed out")
		}
		return newNetworkError(cause, "fetch cancelled")
	}
	return newNetworkError(err, "sending request")
}

// responseType derives the type tag from the request mode and an origin
// comparison between the request URL and the final URL.
func (c *Client) responseType(req *Request, finalURL *url.URL) ResponseType {
	if sameOrigin(req.url, finalURL) {
		return TypeBasic
	}
	if req.mode == ModeNoCORS {
		return TypeOpaque
	}
	return TypeCORS
}

// wireRequest materializes the hop request for the transport, consuming
// the clone's body.
func wireRequest(req *Request) (*transport.Request, error) {
	var body io.Reader
	if !req.body.isEmpty() {
		data, err := req.body.Bytes()
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	fields := req.headers.wireFields()
	if !req.headers.Has("Accept") {
		fields = append(fields, transport.Field{Name: "Accept", Value: "*/*"})
	}

	return &transport.Request{
		Method: req.method,
		URL:    cloneURL(req.url),
		Fields: fields,
		Body:   body,
	}, nil
}

// redirectedRequest builds the next hop: resolved URL, method rewritten
// per the status code, body and content headers dropped where the rewrite
// demands it, credentials stripped when the hop leaves the origin.
func redirectedRequest(current *Request, code int, location string) (*Request, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return nil, newNetworkError(err, "invalid Location header %q", location)
	}
	nextURL := current.url.ResolveReference(ref)
	if nextURL.Scheme != "http" && nextURL.Scheme != "https" {
		return nil, newNetworkError(nil, "redirect to unsupported scheme %q", nextURL.Scheme)
	}

	method := current.method
	body := current.body
	dropBody := false
	switch {
	case code == 303 && method != "GET" && method != "HEAD":
		// 303 means "see other": re-request with GET, body gone.
		method = "GET"
		dropBody = true
	case (code == 301 || code == 302) && method == "POST":
		// Historical POST downgrade.
		method = "GET"
		dropBody = true
	}
	// 307/308 preserve method and body.

	headers := current.headers.clone(current.headers.guard)
	if dropBody {
		body = nil
		for _, name := range []string{
			"Content-Type", "Content-Encoding", "Content-Language", "Content-Location",
		} {
			headers.deleteRaw(name)
		}
	}

	if !sameOrigin(current.url, nextURL) {
		for _, name := range []string{"Authorization", "Cookie", "Proxy-Authorization"} {
			headers.deleteRaw(name)
		}
	}

	next := *current
	next.url = nextURL
	next.method = method
	next.headers = headers
	next.body = body
	return &next, nil
}

func wireLocation(fields []transport.Field) (string, bool) {
	for _, f := range fields {
		if rule.CanonicalFieldName(f.Name) == "Location" {
			return f.Value, true
		}
	}
	return "", false
}

func discardWireBody(res *transport.Response) {
	if res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme &&
		a.Hostname() == b.Hostname() &&
		portOrDefault(a) == portOrDefault(b)
}

func portOrDefault(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}
