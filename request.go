package fetch

import (
	"net/url"
	"strings"

	"fetch/util/rule"
)

// RequestMode mirrors the fetch mode enum. It is carried and used to pick
// the header guard; no CORS preflight logic is implemented.
type RequestMode string

const (
	ModeCORS       RequestMode = "cors"
	ModeNoCORS     RequestMode = "no-cors"
	ModeSameOrigin RequestMode = "same-origin"
	ModeNavigate   RequestMode = "navigate"
)

func (m RequestMode) valid() bool {
	switch m {
	case ModeCORS, ModeNoCORS, ModeSameOrigin, ModeNavigate:
		return true
	}
	return false
}

type RequestCredentials string

const (
	CredentialsOmit       RequestCredentials = "omit"
	CredentialsSameOrigin RequestCredentials = "same-origin"
	CredentialsInclude    RequestCredentials = "include"
)

func (c RequestCredentials) valid() bool {
	switch c {
	case CredentialsOmit, CredentialsSameOrigin, CredentialsInclude:
		return true
	}
	return false
}

// RequestCache is accepted and threaded through as metadata; no cache is
// implemented.
type RequestCache string

const (
	CacheDefault      RequestCache = "default"
	CacheNoStore      RequestCache = "no-store"
	CacheReload       RequestCache = "reload"
	CacheNoCache      RequestCache = "no-cache"
	CacheForceCache   RequestCache = "force-cache"
	CacheOnlyIfCached RequestCache = "only-if-cached"
)

func (c RequestCache) valid() bool {
	switch c {
	case CacheDefault, CacheNoStore, CacheReload, CacheNoCache,
		CacheForceCache, CacheOnlyIfCached:
		return true
	}
	return false
}

type RequestRedirect string

const (
	RedirectFollow RequestRedirect = "follow"
	RedirectError  RequestRedirect = "error"
	RedirectManual RequestRedirect = "manual"
)

func (r RequestRedirect) valid() bool {
	switch r {
	case RedirectFollow, RedirectError, RedirectManual:
		return true
	}
	return false
}

// RequestInit configures NewRequest. The zero value means defaults.
type RequestInit struct {
	Method  string
	Headers *Headers
	Body    *Body

	Mode        RequestMode
	Credentials RequestCredentials
	Cache       RequestCache
	Redirect    RequestRedirect

	Referrer       string
	ReferrerPolicy string
	Integrity      string
	Keepalive      bool

	Signal *AbortSignal
}

// Request is an immutable request descriptor.
type Request struct {
	url     *url.URL
	method  string
	headers *Headers
	body    *Body

	mode        RequestMode
	credentials RequestCredentials
	cache       RequestCache
	redirect    RequestRedirect

	referrer       string
	referrerPolicy string
	integrity      string
	keepalive      bool

	// signal is shared with the caller, never owned.
	signal *AbortSignal
}

// NewRequest validates rawURL and init and builds an immutable Request.
// All violations surface as validation errors before any I/O happens.
func NewRequest(rawURL string, init *RequestInit) (*Request, error) {
	if init == nil {
		init = &RequestInit{}
	}

	u, err := parseRequestURL(rawURL)
	if err != nil {
		return nil, err
	}

	method, err := normalizeMethod(init.Method)
	if err != nil {
		return nil, err
	}

	if (method == "GET" || method == "HEAD") && !init.Body.isEmpty() {
		return nil, newValidationError("request with GET/HEAD method cannot have a body")
	}

	r := &Request{
		url:            u,
		method:         method,
		body:           init.Body,
		mode:           init.Mode,
		credentials:    init.Credentials,
		cache:          init.Cache,
		redirect:       init.Redirect,
		referrer:       init.Referrer,
		referrerPolicy: init.ReferrerPolicy,
		integrity:      init.Integrity,
		keepalive:      init.Keepalive,
		signal:         init.Signal,
	}

	if r.mode == "" {
		r.mode = ModeCORS
	}
	if r.credentials == "" {
		r.credentials = CredentialsSameOrigin
	}
	if r.cache == "" {
		r.cache = CacheDefault
	}
	if r.redirect == "" {
		r.redirect = RedirectFollow
	}
	if r.referrer == "" {
		r.referrer = "about:client"
	}

	switch {
	case !r.mode.valid():
		return nil, newValidationError("invalid request mode %q", r.mode)
	case !r.credentials.valid():
		return nil, newValidationError("invalid request credentials %q", r.credentials)
	case !r.cache.valid():
		return nil, newValidationError("invalid request cache %q", r.cache)
	case !r.redirect.valid():
		return nil, newValidationError("invalid request redirect %q", r.redirect)
	}

	guard := GuardRequest
	if r.mode == ModeNoCORS {
		guard = GuardRequestNoCORS
	}

	r.headers, err = guardedHeaders(init.Headers, guard)
	if err != nil {
		return nil, err
	}

	// A body variant with an implied media type advertises it unless the
	// caller already set one.
	if r.body != nil && r.body.contentType != "" && !r.headers.Has("Content-Type") {
		if err := r.headers.Set("Content-Type", r.body.contentType); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Request) URL() string                     { return r.url.String() }
func (r *Request) Method() string                  { return r.method }
func (r *Request) Headers() *Headers               { return r.headers }
func (r *Request) Body() *Body                     { return r.body }
func (r *Request) BodyUsed() bool                  { return r.body.Used() }
func (r *Request) Mode() RequestMode               { return r.mode }
func (r *Request) Credentials() RequestCredentials { return r.credentials }
func (r *Request) Cache() RequestCache             { return r.cache }
func (r *Request) Redirect() RequestRedirect       { return r.redirect }
func (r *Request) Referrer() string                { return r.referrer }
func (r *Request) ReferrerPolicy() string          { return r.referrerPolicy }
func (r *Request) Integrity() string               { return r.integrity }
func (r *Request) Keepalive() bool                 { return r.keepalive }
func (r *Request) Signal() *AbortSignal            { return r.signal }

// Clone deep-copies the request: headers are copied, the body is teed so
// consuming one copy leaves the other intact, the signal stays shared.
// Cloning a request whose body is already used fails.
func (r *Request) Clone() (*Request, error) {
	body, err := r.body.Clone()
	if err != nil {
		return nil, err
	}

	clone := *r
	clone.url = cloneURL(r.url)
	clone.headers = r.headers.clone(r.headers.guard)
	clone.body = body
	return &clone, nil
}

func parseRequestURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newValidationError("invalid url %q: %s", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newValidationError("unsupported scheme %q; only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return nil, newValidationError("url %q has no host", rawURL)
	}
	return u, nil
}

// Forbidden methods per the fetch spec.
var forbiddenMethods = map[string]struct{}{
	"CONNECT": {},
	"TRACE":   {},
	"TRACK":   {},
}

func normalizeMethod(method string) (string, error) {
	if method == "" {
		return "GET", nil
	}
	if !rule.IsValidToken(method) {
		return "", newValidationError("invalid method %q", method)
	}

	upper := strings.ToUpper(method)
	if _, ok := forbiddenMethods[upper]; ok {
		return "", newValidationError("method %q is forbidden", method)
	}
	return upper, nil
}

// guardedHeaders re-validates every provided entry under the target guard
// so a forbidden name cannot smuggle itself in through a pre-built
// unguarded Headers.
func guardedHeaders(src *Headers, guard Guard) (*Headers, error) {
	h := NewHeaders()
	h.setGuard(guard)
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

func cloneURL(u *url.URL) *url.URL {
	clone := *u
	if u.User != nil {
		user := *u.User
		clone.User = &user
	}
	return &clone
}
