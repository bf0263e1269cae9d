package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundtrip(t *testing.T) {
	data, err := JSON.Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	var out map[string]int
	require.NoError(t, JSON.Decode(data, &out))
	assert.Equal(t, map[string]int{"a": 1}, out)
}

func TestJSONDecodeError(t *testing.T) {
	var out map[string]int
	err := JSON.Decode([]byte(`{"a":`), &out)
	assert.Error(t, err)
}

func TestJSONContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSON.ContentType())
}

func TestJSONEncodeError(t *testing.T) {
	_, err := JSON.Encode(make(chan int))
	assert.Error(t, err)
}
