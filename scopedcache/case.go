package scopedcache

import (
	"reflect"
	"strings"
	"unicode"
)

// resourceName derives the default resource name from the record type,
// dereferencing pointers and snake-casing the type name. "TaskItem" becomes
// "task_item".
func resourceName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return toSnake(name)
}

// toSnake converts a Go type name to snake_case. Characters that are not
// letters or digits collapse to underscores; leaving them in would produce
// key and tag namespaces the cache backends reject.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (nextLower && unicode.IsUpper(prev)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))

		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)

		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}
