// Package naming derives CLI-facing names from OpenAPI operations: kebab-case
// conversion, pluralization, and the resource/action planner that turns a flat
// operation list into a deterministic two-level command tree.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kebab lowercases s and joins its words with dashes. Word boundaries are
// camelCase transitions and any run of non-alphanumeric runes.
func Kebab(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	prevDash := false
	var prevCat runeCategory

	for _, r := range s {
		cat := categorize(r)
		switch cat {
		case catLower, catUpper, catDigit:
			if b.Len() > 0 && !prevDash {
				// Insert a dash on lower->upper boundaries (camelCase).
				if cat == catUpper && (prevCat == catLower || prevCat == catDigit) {
					b.WriteByte('-')
				}
			}
			if cat == catUpper {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			prevDash = false
		default:
			if b.Len() > 0 && !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
		prevCat = cat
	}

	out := b.String()
	out = strings.Trim(out, "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}

// Camel converts a kebab-cased flag name to the camelCase key convention used
// for flag lookups: "x-request-id" -> "xRequestId". Keys containing dots are
// body-flag paths and are returned unchanged.
func Camel(s string) string {
	if s == "" || strings.Contains(s, ".") {
		return s
	}
	parts := strings.Split(s, "-")
	var b strings.Builder
	b.Grow(len(s))
	wrote := false
	for _, p := range parts {
		if p == "" {
			continue
		}
		if !wrote {
			b.WriteString(p)
			wrote = true
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

type runeCategory int

const (
	catOther runeCategory = iota
	catLower
	catUpper
	catDigit
)

func categorize(r rune) runeCategory {
	switch {
	case r >= 'a' && r <= 'z':
		return catLower
	case r >= 'A' && r <= 'Z':
		return catUpper
	case r >= '0' && r <= '9':
		return catDigit
	default:
		// Treat non-ASCII letters as separators to keep flags predictable ASCII.
		return catOther
	}
}
