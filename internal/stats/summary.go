package stats

import (
	"sigcompare/domain/significance"

	mstats "github.com/montanaflynn/stats"
)

// Summarize computes descriptive statistics for one method's scores.
// An empty sample yields a zero summary carrying only the method name.
func Summarize(method string, scores []float64) significance.MethodSummary {
	summary := significance.MethodSummary{Method: method, N: len(scores)}
	if len(scores) == 0 {
		return summary
	}

	data := mstats.Float64Data(scores)
	summary.Mean, _ = data.Mean()
	summary.Median, _ = data.Median()
	summary.Min, _ = data.Min()
	summary.Max, _ = data.Max()
	if len(scores) > 1 {
		summary.StdDev, _ = mstats.StandardDeviationSample(data)
	}
	return summary
}

// SummarizeGroups summarizes every method in first-appearance order
func SummarizeGroups(groups *significance.MethodGroups) []significance.MethodSummary {
	out := make([]significance.MethodSummary, 0, groups.Count())
	for _, m := range groups.Methods() {
		out = append(out, Summarize(m, groups.Scores(m)))
	}
	return out
}
