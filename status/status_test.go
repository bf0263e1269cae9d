package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCode(t *testing.T) {
	s, ok := FromCode(404)
	assert.True(t, ok)
	assert.Equal(t, NotFound, s)

	s, ok = FromCode(999)
	assert.False(t, ok)
	assert.Equal(t, Status{Code: 999}, s)
}

func TestText(t *testing.T) {
	assert.Equal(t, "OK", Text(200))
	assert.Equal(t, "", Text(299))
}

func TestIsRedirect(t *testing.T) {
	for _, code := range []int{301, 302, 303, 307, 308} {
		assert.True(t, IsRedirect(code), code)
	}
	for _, code := range []int{200, 300, 304, 305, 400} {
		assert.False(t, IsRedirect(code), code)
	}
}
