package nethttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fetch/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var (
		gotMethod string
		gotBody   []byte
		gotHeader http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("X-Served-By", "test")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer server.Close()

	u, err := url.Parse(server.URL + "/things")
	require.NoError(t, err)

	sender := New()
	res, err := sender.Send(context.Background(), &transport.Request{
		Method: "POST",
		URL:    u,
		Fields: []transport.Field{
			{Name: "Content-Type", Value: "text/plain"},
		},
		Body: strings.NewReader("payload"),
	})
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "payload", string(gotBody))
	assert.Equal(t, "text/plain", gotHeader.Get("Content-Type"))

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Contains(t, res.Fields, transport.Field{Name: "X-Served-By", Value: "test"})

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "created", string(body))
}

// The sender must hand redirects back untouched; following them is the
// caller's policy decision.
func TestSendDoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	sender := New()
	res, err := sender.Send(context.Background(), &transport.Request{
		Method: "GET",
		URL:    u,
	})
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusFound, res.StatusCode)

	var location string
	for _, f := range res.Fields {
		if f.Name == "Location" {
			location = f.Value
		}
	}
	assert.Equal(t, "/elsewhere", location)
}

func TestSendHostField(t *testing.T) {
	var gotHost string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	sender := New()
	res, err := sender.Send(context.Background(), &transport.Request{
		Method: "GET",
		URL:    u,
		Fields: []transport.Field{
			{Name: "Host", Value: "virtual.example"},
		},
	})
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "virtual.example", gotHost)
}

func TestSendContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u, err := url.Parse("http://127.0.0.1:0")
	require.NoError(t, err)

	sender := New()
	_, err = sender.Send(ctx, &transport.Request{Method: "GET", URL: u})
	assert.ErrorIs(t, err, context.Canceled)
}
