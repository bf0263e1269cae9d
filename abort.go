package fetch

import "sync"

// AbortSignal is a cancellation token shared between its owning
// AbortController and any number of concurrent fetch calls.
//
// The transition NotAborted → Aborted happens at most once. Listeners run
// exactly once each, in registration order, synchronously with the
// transition; a listener registered after the transition runs immediately
// so a racing fetch cannot miss the cancellation.
type AbortSignal struct {
	mu        sync.Mutex
	aborted   bool
	reason    error
	listeners []*abortListener
	nextID    int
}

type abortListener struct {
	id int
	fn func(reason error)
}

// Aborted reports whether the signal has been aborted. Once true it never
// reverts.
func (s *AbortSignal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Reason returns the abort reason, nil while the signal is not aborted.
func (s *AbortSignal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// OnAbort registers fn and returns a function that deregisters it. The
// signal holds no reference to the caller beyond fn itself; callers
// deregister on completion to keep a long-lived shared signal from
// accumulating dead listeners.
func (s *AbortSignal) OnAbort(fn func(reason error)) (remove func()) {
	s.mu.Lock()

	if s.aborted {
		reason := s.reason
		s.mu.Unlock()
		fn(reason)
		return func() {}
	}

	l := &abortListener{id: s.nextID, fn: fn}
	s.nextID++
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, cur := range s.listeners {
			if cur.id == l.id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *AbortSignal) abort(reason error) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	s.aborted = true
	if reason == nil {
		reason = ErrAbort
	}
	s.reason = reason

	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	// Fired outside the lock: a listener may call back into the signal.
	for _, l := range listeners {
		l.fn(reason)
	}
}

// AbortController exclusively owns one AbortSignal.
type AbortController struct {
	signal AbortSignal
}

func NewAbortController() *AbortController {
	return &AbortController{}
}

// Signal returns the controller's signal. The same instance is returned
// every time; it may be shared across many fetch calls.
func (c *AbortController) Signal() *AbortSignal {
	return &c.signal
}

// Abort transitions the signal. A nil reason becomes ErrAbort. Calling
// Abort again is a no-op.
func (c *AbortController) Abort(reason error) {
	c.signal.abort(reason)
}
