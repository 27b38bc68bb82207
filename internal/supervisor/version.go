package supervisor

// file: internal/supervisor/version.go

import (
	"strconv"
	"strings"
)

// DefaultMinimumVersion is the floor applied when a RunProfile doesn't name
// one explicitly.
const DefaultMinimumVersion = "0.104.0"

// compareVersions orders two dotted-numeric version strings field by field
// (major, minor, patch, ...), returning -1/0/1. Missing trailing fields
// compare as 0, and a non-numeric field compares as 0 against its
// counterpart — deliberately permissive, since the gate only needs to catch
// genuinely older releases, not police version string shape. A naive
// lexicographic compare (e.g. "0.9.0" < "0.104.0" would read false) is
// exactly the failure mode this exists to avoid.
func compareVersions(a, b string) int {
	af := strings.Split(a, ".")
	bf := strings.Split(b, ".")
	n := len(af)
	if len(bf) > n {
		n = len(bf)
	}
	for i := 0; i < n; i++ {
		av := fieldAt(af, i)
		bv := fieldAt(bf, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func fieldAt(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0
	}
	return n
}
