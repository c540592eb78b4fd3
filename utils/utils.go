// Package utils holds small shared helpers used across the pipelines.
package utils

import (
	"strings"
	"unicode"
)

// SanitizeFilename reduces a document name to a string safe to use as a file
// name segment. Letters, digits, spaces, apostrophes, hyphens and underscores
// are kept; every other rune is dropped. The result is trimmed, so a name
// like " / " collapses to the empty string, which callers treat as "no
// usable name".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '\'' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// DeepCopyMap returns an owned copy of a raw document map. Nested maps and
// sequences are copied recursively; scalar values are shared, which is safe
// because the pipelines never mutate scalars in place.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return DeepCopyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, element := range typed {
			out[i] = deepCopyValue(element)
		}
		return out
	default:
		return v
	}
}
