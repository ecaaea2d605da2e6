// Package aggregate collapses per-row prediction results.
package aggregate

import (
	"math"
	"strconv"
	"strings"

	"spectraweb/internal/predict"
)

// ParseProgress reads a degradation percentage such as "40.5%". The
// second return is false when the string holds no number.
func ParseProgress(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ByPlastic groups results by plastic type in first-seen order. Each group
// keeps the record with the strictly highest progress and counts every
// contributing row. The input slice is left untouched.
func ByPlastic(results []predict.Result) []predict.Result {
	index := make(map[string]int, len(results))
	var out []predict.Result
	for _, r := range results {
		i, seen := index[r.PlasticType]
		if !seen {
			r.Count = 1
			index[r.PlasticType] = len(out)
			out = append(out, r)
			continue
		}

		count := out[i].Count + 1
		if higherProgress(r, out[i]) {
			out[i] = r
		}
		out[i].Count = count
	}
	return out
}

// higherProgress reports whether a beats b. An unparseable value never
// wins a comparison.
func higherProgress(a, b predict.Result) bool {
	pa, ok := ParseProgress(a.DegradationProgress)
	if !ok {
		return false
	}
	pb, ok := ParseProgress(b.DegradationProgress)
	if !ok {
		return false
	}
	return pa > pb
}
