package validator

import (
	"sort"
	"strings"
)

// Errors maps JSON field names to messages. Services return it for input
// that is well-formed but rejected, such as duplicates.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewError(field, msg string) Errors {
	return Errors{field: msg}
}
