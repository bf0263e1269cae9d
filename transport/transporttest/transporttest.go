// Package transporttest provides a deterministic transport.Sender for
// tests. It never touches the network: responses are scripted per
// "METHOD URL" key or queued in order, and every observed request is
// recorded.
package transporttest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"fetch/transport"

	"github.com/pkg/errors"
)

// Response describes one scripted reply.
type Response struct {
	StatusCode int
	Reason     string
	Fields     []transport.Field
	Body       []byte

	// Err, when set, is returned instead of the response.
	Err error
}

// Call records a single request observed by the sender.
type Call struct {
	Method string
	URL    string
	Fields []transport.Field
	// Body is the fully drained request body, nil if there was none.
	Body []byte
}

// Sender is a scripted transport.Sender.
//
// Responses are resolved in order: the Queue first, then the per-key
// Responses map, then Default. Running out of all three is an error.
type Sender struct {
	mu sync.Mutex

	queue     []Response
	responses map[string]Response
	def       *Response

	// Calls holds every request seen so far, in order.
	Calls []Call
}

func New() *Sender {
	return &Sender{responses: make(map[string]Response)}
}

// Enqueue appends scripted responses consumed in FIFO order, ahead of any
// keyed or default response.
func (s *Sender) Enqueue(responses ...Response) *Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, responses...)
	return s
}

// Respond scripts the reply for a "METHOD URL" pair.
func (s *Sender) Respond(method, url string, res Response) *Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method+" "+url] = res
	return s
}

// RespondDefault scripts the fallback reply.
func (s *Sender) RespondDefault(res Response) *Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = &res
	return s
}

// CallCount returns the number of requests observed.
func (s *Sender) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

var _ transport.Sender = (*Sender)(nil)

func (s *Sender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Fields: append([]transport.Field(nil), req.Fields...),
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "draining scripted request body")
		}
		call.Body = body
	}

	s.mu.Lock()
	s.Calls = append(s.Calls, call)

	var res Response
	switch {
	case len(s.queue) > 0:
		res = s.queue[0]
		s.queue = s.queue[1:]
	default:
		keyed, ok := s.responses[req.Method+" "+req.URL.String()]
		switch {
		case ok:
			res = keyed
		case s.def != nil:
			res = *s.def
		default:
			s.mu.Unlock()
			return nil, errors.Errorf("no scripted response for %s %s", req.Method, req.URL)
		}
	}
	s.mu.Unlock()

	if res.Err != nil {
		return nil, res.Err
	}

	return &transport.Response{
		StatusCode: res.StatusCode,
		Reason:     res.Reason,
		Fields:     append([]transport.Field(nil), res.Fields...),
		Body:       io.NopCloser(bytes.NewReader(res.Body)),
	}, nil
}
