package request

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Headers is an insertion-ordered header map with case-insensitive lookup.
// Setting an existing name replaces the value but keeps the original position
// and display casing.
type Headers struct {
	names []string          // display casing, insertion order
	index map[string]int    // lower-cased name -> position in names
	value map[string]string // lower-cased name -> value
}

func NewHeaders() *Headers {
	return &Headers{
		index: map[string]int{},
		value: map[string]string{},
	}
}

func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if _, ok := h.index[key]; !ok {
		h.index[key] = len(h.names)
		h.names = append(h.names, name)
	}
	h.value[key] = value
}

func (h *Headers) Get(name string) (string, bool) {
	v, ok := h.value[strings.ToLower(name)]
	return v, ok
}

func (h *Headers) Has(name string) bool {
	_, ok := h.value[strings.ToLower(name)]
	return ok
}

func (h *Headers) Len() int { return len(h.names) }

// Names returns the header names in insertion order.
func (h *Headers) Names() []string {
	return append([]string(nil), h.names...)
}

// Each visits every header in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, name := range h.names {
		fn(name, h.value[strings.ToLower(name)])
	}
}

func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	h.Each(out.Set)
	return out
}

// MarshalJSON emits the headers as an object in insertion order.
func (h *Headers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range h.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(h.value[strings.ToLower(name)])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
