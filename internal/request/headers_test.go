package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersPreserveInsertionOrder(t *testing.T) {
	h := NewHeaders()
	h.Set("B-Second", "2")
	h.Set("A-First", "1")
	h.Set("C-Third", "3")

	assert.Equal(t, []string{"B-Second", "A-First", "C-Third"}, h.Names())

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `{"B-Second":"2","A-First":"1","C-Third":"3"}`, string(data))
}

func TestHeadersCaseInsensitiveReplace(t *testing.T) {
	h := NewHeaders()
	h.Set("Content-Type", "text/plain")
	h.Set("content-type", "application/json")

	require.Equal(t, 1, h.Len())
	v, ok := h.Get("CONTENT-TYPE")
	require.True(t, ok)
	assert.Equal(t, "application/json", v)
	// First-seen display casing sticks.
	assert.Equal(t, []string{"Content-Type"}, h.Names())
}

func TestHeadersClone(t *testing.T) {
	h := NewHeaders()
	h.Set("X-One", "1")
	c := h.Clone()
	c.Set("X-Two", "2")

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, c.Len())
}
