package fetch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortControllerAbort(t *testing.T) {
	ctrl := NewAbortController()
	signal := ctrl.Signal()

	assert.False(t, signal.Aborted())
	assert.NoError(t, signal.Reason())

	reason := errors.New("user cancelled")
	ctrl.Abort(reason)

	assert.True(t, signal.Aborted())
	assert.Equal(t, reason, signal.Reason())
}

func TestAbortDefaultReason(t *testing.T) {
	ctrl := NewAbortController()
	ctrl.Abort(nil)

	assert.ErrorIs(t, ctrl.Signal().Reason(), ErrAbort)
}

func TestAbortIsIdempotent(t *testing.T) {
	ctrl := NewAbortController()

	first := errors.New("first")
	ctrl.Abort(first)
	ctrl.Abort(errors.New("second"))

	assert.Equal(t, first, ctrl.Signal().Reason())
}

func TestAbortListenersFireInOrderOnce(t *testing.T) {
	ctrl := NewAbortController()
	signal := ctrl.Signal()

	var order []int
	signal.OnAbort(func(error) { order = append(order, 1) })
	signal.OnAbort(func(error) { order = append(order, 2) })
	signal.OnAbort(func(error) { order = append(order, 3) })

	ctrl.Abort(nil)
	ctrl.Abort(nil)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestAbortListenerAfterAbortFiresImmediately(t *testing.T) {
	ctrl := NewAbortController()
	reason := errors.New("already gone")
	ctrl.Abort(reason)

	var got error
	fired := false
	ctrl.Signal().OnAbort(func(r error) {
		fired = true
		got = r
	})

	require.True(t, fired)
	assert.Equal(t, reason, got)
}

func TestAbortListenerRemoval(t *testing.T) {
	ctrl := NewAbortController()
	signal := ctrl.Signal()

	fired := false
	remove := signal.OnAbort(func(error) { fired = true })
	kept := 0
	signal.OnAbort(func(error) { kept++ })

	remove()
	remove() // removing twice is harmless

	ctrl.Abort(nil)
	assert.False(t, fired)
	assert.Equal(t, 1, kept)
}

func TestAbortSignalSharedAcrossListeners(t *testing.T) {
	ctrl := NewAbortController()

	// Signal returns the same instance every time.
	assert.Same(t, ctrl.Signal(), ctrl.Signal())
}
