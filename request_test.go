package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestDefaults(t *testing.T) {
	req, err := NewRequest("https://example.com/a?b=1", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/a?b=1", req.URL())
	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, ModeCORS, req.Mode())
	assert.Equal(t, CredentialsSameOrigin, req.Credentials())
	assert.Equal(t, CacheDefault, req.Cache())
	assert.Equal(t, RedirectFollow, req.Redirect())
	assert.Equal(t, "about:client", req.Referrer())
	assert.False(t, req.Keepalive())
	assert.Nil(t, req.Signal())
	assert.Equal(t, GuardRequest, req.Headers().Guard())
}

func TestNewRequestURLValidation(t *testing.T) {
	testcases := []struct {
		desc string
		url  string
	}{
		{desc: "no scheme", url: "example.com/path"},
		{desc: "ftp scheme", url: "ftp://example.com"},
		{desc: "file scheme", url: "file:///etc/passwd"},
		{desc: "garbage", url: "://nope"},
		{desc: "no host", url: "http://"},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := NewRequest(tc.url, nil)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewRequestMethod(t *testing.T) {
	testcases := []struct {
		desc     string
		method   string
		expected string
		wantErr  bool
	}{
		{desc: "default", method: "", expected: "GET"},
		{desc: "lowercase normalized", method: "post", expected: "POST"},
		{desc: "custom token", method: "purge", expected: "PURGE"},
		{desc: "invalid token", method: "GE T", wantErr: true},
		{desc: "forbidden connect", method: "CONNECT", wantErr: true},
		{desc: "forbidden trace", method: "trace", wantErr: true},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := NewRequest("http://example.com", &RequestInit{Method: tc.method})
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req.Method())
		})
	}
}

func TestNewRequestBodyMethodCombination(t *testing.T) {
	for _, method := range []string{"GET", "HEAD"} {
		_, err := NewRequest("http://example.com", &RequestInit{
			Method: method,
			Body:   NewTextBody("data"),
		})
		assert.ErrorIs(t, err, ErrValidation, method)
	}

	req, err := NewRequest("http://example.com", &RequestInit{
		Method: "POST",
		Body:   NewTextBody("data"),
	})
	require.NoError(t, err)
	assert.NotNil(t, req.Body())

	// An empty body does not count against GET.
	_, err = NewRequest("http://example.com", &RequestInit{
		Method: "GET",
		Body:   NewEmptyBody(),
	})
	assert.NoError(t, err)
}

func TestNewRequestEnumValidation(t *testing.T) {
	testcases := []struct {
		desc string
		init RequestInit
	}{
		{desc: "bad mode", init: RequestInit{Mode: "nope"}},
		{desc: "bad credentials", init: RequestInit{Credentials: "nope"}},
		{desc: "bad cache", init: RequestInit{Cache: "nope"}},
		{desc: "bad redirect", init: RequestInit{Redirect: "nope"}},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := NewRequest("http://example.com", &tc.init)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewRequestHeaderGuard(t *testing.T) {
	headers := NewHeaders()
	require.NoError(t, headers.Set("Host", "evil.example"))

	// An unguarded Headers can hold Host, but attaching it to a request
	// re-validates under the request guard.
	_, err := NewRequest("http://example.com", &RequestInit{Headers: headers})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewRequestNoCORSGuard(t *testing.T) {
	headers := NewHeaders()
	require.NoError(t, headers.Set("X-Custom", "1"))

	_, err := NewRequest("http://example.com", &RequestInit{
		Mode:    ModeNoCORS,
		Headers: headers,
	})
	assert.ErrorIs(t, err, ErrValidation)

	req, err := NewRequest("http://example.com", &RequestInit{Mode: ModeNoCORS})
	require.NoError(t, err)
	assert.Equal(t, GuardRequestNoCORS, req.Headers().Guard())
}

func TestNewRequestAutoContentType(t *testing.T) {
	body, err := NewJSONBody(map[string]int{"a": 1})
	require.NoError(t, err)

	req, err := NewRequest("http://example.com", &RequestInit{Method: "POST", Body: body})
	require.NoError(t, err)

	ct, _ := req.Headers().Get("Content-Type")
	assert.Equal(t, "application/json", ct)

	// Caller-supplied Content-Type wins.
	headers := NewHeaders()
	require.NoError(t, headers.Set("Content-Type", "application/vnd.custom+json"))
	body2, err := NewJSONBody(map[string]int{"a": 1})
	require.NoError(t, err)

	req, err = NewRequest("http://example.com", &RequestInit{
		Method: "POST", Body: body2, Headers: headers,
	})
	require.NoError(t, err)
	ct, _ = req.Headers().Get("Content-Type")
	assert.Equal(t, "application/vnd.custom+json", ct)
}

func TestRequestClone(t *testing.T) {
	ctrl := NewAbortController()
	req, err := NewRequest("http://example.com", &RequestInit{
		Method: "POST",
		Body:   NewTextBody("payload"),
		Signal: ctrl.Signal(),
	})
	require.NoError(t, err)

	clone, err := req.Clone()
	require.NoError(t, err)

	// Headers are deep-copied, the signal is shared.
	require.NoError(t, clone.Headers().Set("X-Only-Clone", "1"))
	assert.False(t, req.Headers().Has("X-Only-Clone"))
	assert.Same(t, req.Signal(), clone.Signal())

	// Consuming the clone's body leaves the original readable.
	data, err := clone.Body().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	data, err = req.Body().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestRequestCloneAfterBodyUse(t *testing.T) {
	req, err := NewRequest("http://example.com", &RequestInit{
		Method: "POST",
		Body:   NewTextBody("payload"),
	})
	require.NoError(t, err)

	_, err = req.Body().Bytes()
	require.NoError(t, err)
	assert.True(t, req.BodyUsed())

	_, err = req.Clone()
	assert.ErrorIs(t, err, ErrBodyUsed)
}
