package fetch

import (
	"io"
	"sync"

	"fetch/codec"
)

type bodyState int

const (
	bodyUnused bodyState = iota
	bodyLocked
	bodyDisturbed
)

// Body is a lazy, single-consumption byte source.
//
// A body moves Unused → Locked when a read starts and Locked → Disturbed
// when it completes; any read on a non-Unused body fails with ErrBodyUsed.
// Clone is only legal on an Unused body.
type Body struct {
	mu    sync.Mutex
	state bodyState

	// Materialized bodies carry buf; stream-backed bodies carry stream.
	// An empty body carries neither.
	buf    []byte
	stream io.Reader

	// contentType is the media type implied by the construction variant,
	// "" when the variant carries none.
	contentType string

	codec codec.Codec
}

// NewEmptyBody returns a body that drains to zero bytes.
func NewEmptyBody() *Body {
	return &Body{codec: codec.JSON}
}

// NewBytesBody returns a body over an owned byte buffer.
func NewBytesBody(data []byte) *Body {
	return &Body{buf: data, codec: codec.JSON}
}

// NewTextBody returns a UTF-8 text body.
func NewTextBody(text string) *Body {
	return &Body{
		buf:         []byte(text),
		contentType: "text/plain;charset=UTF-8",
		codec:       codec.JSON,
	}
}

// NewJSONBody encodes v eagerly through the codec. Encoding failure is a
// validation error.
func NewJSONBody(v any) (*Body, error) {
	return newJSONBody(v, codec.JSON)
}

func newJSONBody(v any, c codec.Codec) (*Body, error) {
	data, err := c.Encode(v)
	if err != nil {
		return nil, newValidationError("encoding body: %s", err)
	}
	return &Body{buf: data, contentType: c.ContentType(), codec: c}, nil
}

// newStreamBody wraps a live source, typically a network response body.
func newStreamBody(r io.Reader) *Body {
	return &Body{stream: r, codec: codec.JSON}
}

// Used reports whether the body has been locked or disturbed.
func (b *Body) Used() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != bodyUnused
}

func (b *Body) isEmpty() bool {
	return b == nil || (b.stream == nil && len(b.buf) == 0)
}

// Bytes drains the body and returns its content.
func (b *Body) Bytes() ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	if err := b.lock(); err != nil {
		return nil, err
	}
	return b.drain()
}

// Text drains the body and decodes it as UTF-8 text.
func (b *Body) Text() (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON drains the body and decodes it into v through the codec. A decode
// failure is a validation error and the body stays disturbed.
func (b *Body) JSON(v any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	c := codec.JSON
	if b != nil && b.codec != nil {
		c = b.codec
	}
	if err := c.Decode(data, v); err != nil {
		return newValidationError("decoding body: %s", err)
	}
	return nil
}

// Cancel discards the body without reading it, moving it straight to
// Disturbed. Cancelling a tee branch releases its sibling from the
// window backpressure. Cancelling mid-read fails like any other access
// to a non-Unused body.
func (b *Body) Cancel() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != bodyUnused {
		return newBodyUsedError()
	}
	b.state = bodyDisturbed

	if closer, ok := b.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Clone splits an Unused body into two independently consumable bodies
// with byte-identical content. Materialized bodies share their buffer.
// Stream bodies are teed with a bounded window: a reader more than
// teeWindow bytes ahead of its sibling blocks until the sibling catches
// up, so large stream clones must be consumed concurrently.
func (b *Body) Clone() (*Body, error) {
	if b == nil {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != bodyUnused {
		return nil, newBodyUsedError()
	}

	if b.stream == nil {
		return &Body{buf: b.buf, contentType: b.contentType, codec: b.codec}, nil
	}

	mine, theirs := teeReader(b.stream, teeWindow)
	b.stream = mine
	return &Body{stream: theirs, contentType: b.contentType, codec: b.codec}, nil
}

func (b *Body) lock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != bodyUnused {
		return newBodyUsedError()
	}
	b.state = bodyLocked
	return nil
}

// drain assumes the caller holds the Locked state.
func (b *Body) drain() ([]byte, error) {
	if b.stream == nil {
		b.setState(bodyDisturbed)
		// Clones share the backing buffer, so hand out a copy.
		return append([]byte(nil), b.buf...), nil
	}

	data, err := io.ReadAll(b.stream)
	if closer, ok := b.stream.(io.Closer); ok {
		_ = closer.Close()
	}
	b.setState(bodyDisturbed)
	if err != nil {
		return nil, newNetworkError(err, "reading body")
	}
	return data, nil
}

func (b *Body) setState(s bodyState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// teeWindow bounds how far ahead one tee branch may run before the source
// stops being read, applying backpressure.
const teeWindow = 32 << 10

// tee fans a single source out to two readers over one shared window
// buffer. buf always spans from the slower cursor to the furthest byte
// fetched from src; it is trimmed as the slower side advances.
type tee struct {
	mu   sync.Mutex
	cond sync.Cond

	src     io.Reader
	window  int
	reading bool

	buf    []byte
	start  int64 // absolute offset of buf[0]
	pos    [2]int64
	closed [2]bool
	srcErr error // sticky, io.EOF once the source is exhausted
}

func teeReader(src io.Reader, window int) (a, b io.ReadCloser) {
	t := &tee{src: src, window: window}
	t.cond.L = &t.mu
	return &teeBranch{t: t, id: 0}, &teeBranch{t: t, id: 1}
}

type teeBranch struct {
	t  *tee
	id int
}

func (br *teeBranch) Read(p []byte) (int, error) {
	t := br.t
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.closed[br.id] {
			return 0, io.ErrClosedPipe
		}

		// Serve from the shared buffer first.
		if off := t.pos[br.id] - t.start; off < int64(len(t.buf)) {
			n := copy(p, t.buf[off:])
			t.pos[br.id] += int64(n)
			t.trim()
			t.cond.Broadcast()
			return n, nil
		}

		if t.srcErr != nil {
			return 0, t.srcErr
		}

		if t.reading || len(t.buf) >= t.window {
			// Either another branch is at the source already, or reading
			// further would exceed the sibling's allowed lag.
			t.cond.Wait()
			continue
		}

		t.fetch()
	}
}

// fetch reads one chunk from the source. The lock is dropped during the
// read so the sibling can keep consuming buffered bytes.
func (t *tee) fetch() {
	t.reading = true
	t.mu.Unlock()

	chunk := make([]byte, 4096)
	n, err := t.src.Read(chunk)

	t.mu.Lock()
	t.reading = false
	t.buf = append(t.buf, chunk[:n]...)
	if err != nil {
		t.srcErr = err
	}
	t.cond.Broadcast()
}

// trim drops buffered bytes both branches have passed. A closed branch no
// longer holds the buffer back.
func (t *tee) trim() {
	low := int64(-1)
	for id, pos := range t.pos {
		if t.closed[id] {
			continue
		}
		if low < 0 || pos < low {
			low = pos
		}
	}
	if low <= t.start {
		return
	}
	t.buf = t.buf[low-t.start:]
	t.start = low
}

// Close abandons the branch. Once both branches are closed or drained the
// source is closed if it supports it.
func (br *teeBranch) Close() error {
	t := br.t
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed[br.id] {
		return nil
	}
	t.closed[br.id] = true
	t.trim()
	t.cond.Broadcast()

	if t.closed[0] && t.closed[1] {
		if closer, ok := t.src.(io.Closer); ok {
			return closer.Close()
		}
	}
	return nil
}
