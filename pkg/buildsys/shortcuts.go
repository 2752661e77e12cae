package buildsys

import (
	"sort"
	"strings"
)

// Shortcuts maps shortcut names to their replacement text
type Shortcuts map[string]string

// Marker returns the text that's replaced by the given shortcut, i.e. $(KEY)
func Marker(key string) string {
	return "$(" + key + ")"
}

// Expand replaces every $(KEY) in action with the value of KEY. The string is scanned once from left to
// right and inserted values are never expanded again. Markers for unknown keys are kept as they are.
func (s Shortcuts) Expand(action string) string {
	if len(s) == 0 || !strings.Contains(action, "$(") {
		return action
	}

	return s.replacer().Replace(action)
}

func (s Shortcuts) replacer() *strings.Replacer {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}

	// strings.Replacer prefers earlier pairs when several match at the same position so we put longer
	// markers first to make the result independent of map order.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, Marker(key), s[key])
	}

	return strings.NewReplacer(pairs...)
}
