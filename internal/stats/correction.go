package stats

import (
	"fmt"
	"math"
	"sort"

	"sigcompare/internal/errors"
)

// CorrectionMethod names a multiple-comparison adjustment
type CorrectionMethod string

const (
	Bonferroni CorrectionMethod = "bonferroni"
	Holm       CorrectionMethod = "holm"
	FDRBH      CorrectionMethod = "fdr_bh"
)

// ParseCorrectionMethod validates a correction name; empty means Bonferroni
func ParseCorrectionMethod(s string) (CorrectionMethod, error) {
	switch m := CorrectionMethod(s); m {
	case Bonferroni, Holm, FDRBH:
		return m, nil
	case "":
		return Bonferroni, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown correction method %q (want bonferroni, holm or fdr_bh)", s))
}

// Correction is the joint adjustment of a family of p-values
type Correction struct {
	Method    CorrectionMethod
	Alpha     float64
	Corrected []float64
	Reject    []bool
}

// Correct adjusts the whole family of raw p-values at once. Output order matches
// input order. A p-value is rejected when its corrected value is below alpha.
// An empty family is valid and yields empty slices.
func Correct(pValues []float64, alpha float64, method CorrectionMethod) (Correction, error) {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) {
		return Correction{}, errors.InvalidInput(fmt.Sprintf("alpha must be in (0, 1), got %v", alpha))
	}
	for i, p := range pValues {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Correction{}, errors.InvalidInput(fmt.Sprintf("p-value %d out of range: %v", i, p))
		}
	}

	var corrected []float64
	switch method {
	case Bonferroni, "":
		method = Bonferroni
		corrected = bonferroni(pValues)
	case Holm:
		corrected = holm(pValues)
	case FDRBH:
		corrected = benjaminiHochberg(pValues)
	default:
		return Correction{}, errors.InvalidInput(fmt.Sprintf("unknown correction method %q", method))
	}

	reject := make([]bool, len(corrected))
	for i, q := range corrected {
		reject[i] = q < alpha
	}
	return Correction{Method: method, Alpha: alpha, Corrected: corrected, Reject: reject}, nil
}

// bonferroni multiplies every p-value by the family size, capped at 1
func bonferroni(p []float64) []float64 {
	m := float64(len(p))
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = math.Min(v*m, 1.0)
	}
	return out
}

// holm applies the step-down procedure with running maximum
func holm(p []float64) []float64 {
	m := len(p)
	order := ascendingOrder(p)
	out := make([]float64, m)
	running := 0.0
	for rank, idx := range order {
		adj := math.Min(float64(m-rank)*p[idx], 1.0)
		running = math.Max(running, adj)
		out[idx] = running
	}
	return out
}

// benjaminiHochberg applies the step-up FDR procedure with running minimum from the top
func benjaminiHochberg(p []float64) []float64 {
	m := len(p)
	order := ascendingOrder(p)
	out := make([]float64, m)
	running := 1.0
	for rank := m - 1; rank >= 0; rank-- {
		idx := order[rank]
		adj := p[idx] * float64(m) / float64(rank+1)
		running = math.Min(running, adj)
		out[idx] = math.Min(running, 1.0)
	}
	return out
}

// ascendingOrder returns indexes of p sorted by value, ties kept in input order
func ascendingOrder(p []float64) []int {
	order := make([]int, len(p))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p[order[a]] < p[order[b]]
	})
	return order
}
