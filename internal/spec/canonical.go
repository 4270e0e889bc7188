package spec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

const circularSentinel = `{"__circular":true}`

// CanonicalJSON serializes v deterministically: object keys sorted ascending,
// array order preserved, and any node that re-enters itself on the current
// path replaced by the {"__circular":true} sentinel. Shared (non-cyclic)
// subtrees serialize fully at every site.
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v, map[uintptr]bool{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint is the hex SHA-256 of the canonical serialization.
func Fingerprint(v any) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func writeCanonical(buf *bytes.Buffer, v any, onPath map[uintptr]bool) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil

	case map[string]any:
		id := reflect.ValueOf(t).Pointer()
		if onPath[id] {
			buf.WriteString(circularSentinel)
			return nil
		}
		onPath[id] = true
		defer delete(onPath, id)

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k], onPath); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e, onPath); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("canonical serialization: %w", err)
		}
		buf.Write(b)
		return nil
	}
}
