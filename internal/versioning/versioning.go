// Package versioning orders kit version strings.
package versioning

import (
	"strconv"
	"strings"
)

// Compare orders two version strings, returning -1, 0, or 1.
//
// When both strings parse as dot-separated integer tuples of the same arity
// they compare numerically element by element. Anything else (non-numeric
// segments, differing arity) falls back to plain string comparison, so
// malformed versions degrade to a lexical order instead of erroring.
func Compare(a, b string) int {
	at, aok := parseTuple(a)
	bt, bok := parseTuple(b)
	if aok && bok && len(at) == len(bt) {
		for i := range at {
			switch {
			case at[i] < bt[i]:
				return -1
			case at[i] > bt[i]:
				return 1
			}
		}
		return 0
	}
	return strings.Compare(a, b)
}

func parseTuple(version string) ([]int, bool) {
	parts := strings.Split(version, ".")
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
