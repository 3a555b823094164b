package stats

import (
	"fmt"
	"math"

	"sigcompare/domain/core"
	"sigcompare/domain/significance"
	"sigcompare/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// WilcoxonMode selects how the null distribution is evaluated
type WilcoxonMode string

const (
	// WilcoxonAuto uses the exact distribution for small samples without ties
	// or zero differences, and the normal approximation otherwise.
	WilcoxonAuto   WilcoxonMode = "auto"
	WilcoxonExact  WilcoxonMode = "exact"
	WilcoxonNormal WilcoxonMode = "normal"
)

const (
	// exactAutoLimit is the largest n for which auto mode enumerates the exact distribution
	exactAutoLimit = 50
	// exactHardLimit keeps 2^n representable in a uint64
	exactHardLimit = 63
)

// ParseWilcoxonMode validates a mode name
func ParseWilcoxonMode(s string) (WilcoxonMode, error) {
	switch m := WilcoxonMode(s); m {
	case WilcoxonAuto, WilcoxonExact, WilcoxonNormal:
		return m, nil
	case "":
		return WilcoxonAuto, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown wilcoxon mode %q (want auto, exact or normal)", s))
}

// WilcoxonResult is the outcome of a two-sided signed-rank test
type WilcoxonResult struct {
	N         int     // differences used after dropping zeros
	Zeros     int     // zero differences dropped
	Ties      bool    // whether any |difference| values tied
	WPlus     float64 // rank sum of positive differences
	WMinus    float64 // rank sum of negative differences
	Statistic float64 // min(WPlus, WMinus)
	Z         float64 // only set for the normal approximation
	PValue    float64
	Method    significance.TestMethod
}

// WilcoxonSignedRank runs a paired, two-sided Wilcoxon signed-rank test on x and y.
// Zero differences are discarded before ranking. A sample whose differences are
// all zero has no defined statistic and yields a COMPUTATION_ERROR.
func WilcoxonSignedRank(x, y []float64, mode WilcoxonMode) (WilcoxonResult, error) {
	if len(x) != len(y) {
		return WilcoxonResult{}, &errors.AppError{
			Code:    errors.CodeInvalidInput,
			Message: "paired test requires equal-length samples",
			Cause:   fmt.Errorf("%w: %d vs %d", core.ErrSampleMismatch, len(x), len(y)),
		}
	}
	if len(x) == 0 {
		return WilcoxonResult{}, errors.ComputationError("empty samples", core.ErrInsufficientData)
	}

	diffs := make([]float64, 0, len(x))
	zeros := 0
	for i := range x {
		d := x[i] - y[i]
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return WilcoxonResult{}, errors.ComputationError(
				fmt.Sprintf("non-finite paired difference at position %d", i+1), core.ErrComputation)
		}
		if d == 0 {
			zeros++
			continue
		}
		diffs = append(diffs, d)
	}
	if len(diffs) == 0 {
		return WilcoxonResult{}, errors.ComputationError(
			fmt.Sprintf("all %d paired differences are zero", len(x)), core.ErrDegenerate)
	}

	ranks, tieSizes := absRanks(diffs)
	res := WilcoxonResult{N: len(diffs), Zeros: zeros, Ties: len(tieSizes) > 0}
	for i, d := range diffs {
		if d > 0 {
			res.WPlus += ranks[i]
		} else {
			res.WMinus += ranks[i]
		}
	}
	res.Statistic = math.Min(res.WPlus, res.WMinus)

	useExact := false
	switch mode {
	case WilcoxonExact:
		if res.Ties || res.Zeros > 0 {
			return WilcoxonResult{}, errors.ComputationError(
				"exact distribution requires no ties and no zero differences", core.ErrComputation)
		}
		if res.N > exactHardLimit {
			return WilcoxonResult{}, errors.ComputationError(
				fmt.Sprintf("exact distribution supports at most %d differences, got %d", exactHardLimit, res.N), core.ErrComputation)
		}
		useExact = true
	case WilcoxonNormal:
	default:
		useExact = res.N <= exactAutoLimit && !res.Ties && res.Zeros == 0
	}

	if useExact {
		res.Method = significance.TestExact
		res.PValue = exactSignedRankPValue(res.Statistic, res.N)
		return res, nil
	}

	z, p, err := normalSignedRankPValue(res.Statistic, res.N, tieSizes)
	if err != nil {
		return WilcoxonResult{}, err
	}
	res.Method = significance.TestNormal
	res.Z = z
	res.PValue = p
	return res, nil
}

// absRanks returns 1-based average ranks of |d| and the size of every tie group
func absRanks(d []float64) ([]float64, []int) {
	n := len(d)
	abs := make([]float64, n)
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	inds := make([]int, n)
	floats.Argsort(abs, inds)

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i + 1
		for j < n && abs[j] == abs[i] {
			j++
		}
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[inds[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// exactSignedRankPValue computes the two-sided p-value of the smaller rank sum
// from the exact null distribution of W+ over all 2^n sign assignments.
func exactSignedRankPValue(statistic float64, n int) float64 {
	total := n * (n + 1) / 2
	w := int(math.Round(statistic))
	if w < 0 {
		w = 0
	}
	if w > total {
		w = total
	}

	// dp[s] = number of sign assignments producing W+ = s
	dp := make([]uint64, total+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := total; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}

	var cum uint64
	for s := 0; s <= w; s++ {
		cum += dp[s]
	}

	p := 2 * float64(cum) / math.Exp2(float64(n))
	return math.Min(p, 1.0)
}

// normalSignedRankPValue uses the tie-corrected normal approximation without continuity correction
func normalSignedRankPValue(statistic float64, n int, tieSizes []int) (float64, float64, error) {
	nf := float64(n)
	mean := nf * (nf + 1) / 4
	variance := nf * (nf + 1) * (2*nf + 1)
	for _, t := range tieSizes {
		tf := float64(t)
		variance -= 0.5 * tf * (tf*tf - 1)
	}
	variance /= 24
	if variance <= 0 {
		return 0, 0, errors.ComputationError("signed-rank variance is zero", core.ErrDegenerate)
	}

	z := (statistic - mean) / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	return z, math.Min(p, 1.0), nil
}
