package tools

import "fmt"

// pageArg resolves an optional positive integer argument. A zero limit means
// unbounded.
func pageArg(name string, v *int, def, limit int) (int, string, bool) {
	if v == nil {
		return def, "", true
	}
	if *v < 1 {
		return 0, fmt.Sprintf("%s must be a positive integer", name), false
	}
	if limit > 0 && *v > limit {
		return 0, fmt.Sprintf("%s must not exceed %d", name, limit), false
	}
	return *v, "", true
}
