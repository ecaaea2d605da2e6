package aggregate

import (
	"github.com/montanaflynn/stats"

	"spectraweb/internal/predict"
)

// Summary describes a result list for the report footer.
type Summary struct {
	Samples      int
	Groups       int
	MeanProgress float64
	MaxProgress  float64
}

// Summarize counts samples (honoring aggregated counts) and plastic types,
// and averages the parseable progress values.
func Summarize(results []predict.Result) Summary {
	var s Summary
	groups := make(map[string]struct{})
	var progress stats.Float64Data
	for _, r := range results {
		if r.Count > 0 {
			s.Samples += r.Count
		} else {
			s.Samples++
		}
		groups[r.PlasticType] = struct{}{}
		if p, ok := ParseProgress(r.DegradationProgress); ok {
			progress = append(progress, p)
		}
	}
	s.Groups = len(groups)

	if len(progress) == 0 {
		return s
	}
	if mean, err := progress.Mean(); err == nil {
		s.MeanProgress = mean
	}
	if max, err := progress.Max(); err == nil {
		s.MaxProgress = max
	}
	return s
}
