package naming

import "strings"

// Pluralize applies basic English pluralization to the last dash-separated
// token of a kebab-cased word. Words already ending in "s" pass through.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	i := strings.LastIndexByte(s, '-')
	head, last := "", s
	if i >= 0 {
		head, last = s[:i+1], s[i+1:]
	}
	return head + pluralizeWord(last)
}

func pluralizeWord(w string) string {
	if w == "" {
		return w
	}
	switch {
	case strings.HasSuffix(w, "s"):
		return w
	case strings.HasSuffix(w, "y") && len(w) > 1 && !isVowel(w[len(w)-2]):
		return w[:len(w)-1] + "ies"
	case strings.HasSuffix(w, "x"), strings.HasSuffix(w, "z"),
		strings.HasSuffix(w, "ch"), strings.HasSuffix(w, "sh"):
		return w + "es"
	default:
		return w + "s"
	}
}

// Singularize is the best-effort inverse of Pluralize, used when stripping
// resource tokens out of collision disambiguators.
func Singularize(s string) string {
	if s == "" {
		return s
	}
	i := strings.LastIndexByte(s, '-')
	head, last := "", s
	if i >= 0 {
		head, last = s[:i+1], s[i+1:]
	}
	return head + singularizeWord(last)
}

func singularizeWord(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 3:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "zes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 1:
		return w[:len(w)-1]
	default:
		return w
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
