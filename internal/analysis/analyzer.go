package analysis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sigcompare/adapters/excel"
	"sigcompare/domain/core"
	"sigcompare/domain/significance"
	"sigcompare/internal"
	"sigcompare/internal/errors"
	"sigcompare/internal/stats"
)

// DegeneratePolicy decides what happens when a paired test is undefined for its input
type DegeneratePolicy string

const (
	// DegenerateAbort stops the run with a COMPUTATION_ERROR
	DegenerateAbort DegeneratePolicy = "abort"
	// DegenerateSkip records the pair as skipped with a warning and continues
	DegenerateSkip DegeneratePolicy = "skip"
)

// ParseDegeneratePolicy validates a policy name; empty means abort
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch p := DegeneratePolicy(s); p {
	case DegenerateAbort, DegenerateSkip:
		return p, nil
	case "":
		return DegenerateAbort, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown degenerate-pair policy %q (want abort or skip)", s))
}

// Options configures one analysis run
type Options struct {
	MethodColumn string
	ScoreColumn  string
	Alpha        float64
	Correction   stats.CorrectionMethod
	OnDegenerate DegeneratePolicy
	WilcoxonMode stats.WilcoxonMode
}

// DefaultOptions returns the Method/Dice layout with Bonferroni at alpha 0.05
func DefaultOptions() Options {
	return Options{
		MethodColumn: "Method",
		ScoreColumn:  "Dice",
		Alpha:        significance.DefaultAlpha,
		Correction:   stats.Bonferroni,
		OnDegenerate: DegenerateAbort,
		WilcoxonMode: stats.WilcoxonAuto,
	}
}

// Validate checks option values before a run
func (o Options) Validate() error {
	if strings.TrimSpace(o.MethodColumn) == "" || strings.TrimSpace(o.ScoreColumn) == "" {
		return errors.ConfigInvalid("method and score column names are required")
	}
	if o.MethodColumn == o.ScoreColumn {
		return errors.ConfigInvalid(fmt.Sprintf("method and score columns must differ, both are %q", o.MethodColumn))
	}
	if !(o.Alpha > 0 && o.Alpha < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in (0, 1), got %v", o.Alpha))
	}
	if _, err := stats.ParseCorrectionMethod(string(o.Correction)); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := ParseDegeneratePolicy(string(o.OnDegenerate)); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := stats.ParseWilcoxonMode(string(o.WilcoxonMode)); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Analyzer runs Load -> Group -> Pairwise Test -> Correct over one score table
type Analyzer struct {
	opts   Options
	logger *internal.Logger
}

// NewAnalyzer creates an analyzer; a nil logger discards diagnostics
func NewAnalyzer(opts Options, logger *internal.Logger) *Analyzer {
	if logger == nil {
		logger = internal.Discard()
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Options returns the analyzer's configuration
func (a *Analyzer) Options() Options {
	return a.opts
}

// AnalyzeFile reads the input once and analyzes it
func (a *Analyzer) AnalyzeFile(ctx context.Context, input excel.ReaderConfig) (*significance.Report, error) {
	if err := a.opts.Validate(); err != nil {
		return nil, err
	}
	data, err := excel.NewDataReader(input).WithLogger(a.logger).ReadData()
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, data)
}

// Analyze runs the full pipeline over an already-read table
func (a *Analyzer) Analyze(ctx context.Context, data *excel.ExcelData) (*significance.Report, error) {
	if err := a.opts.Validate(); err != nil {
		return nil, err
	}

	obs, err := a.LoadObservations(data)
	if err != nil {
		return nil, err
	}
	groups := significance.GroupObservations(obs)
	a.logger.Info("loaded %d observations across %d methods from %s", len(obs), groups.Count(), data.Source)

	results, skipped, err := a.PairwiseTests(ctx, groups)
	if err != nil {
		return nil, err
	}
	if err := a.ApplyCorrection(results); err != nil {
		return nil, err
	}
	a.logger.Info("%d comparisons computed, %d skipped, correction=%s alpha=%g",
		len(results), len(skipped), a.opts.Correction, a.opts.Alpha)

	return &significance.Report{
		Source:            data.Source,
		Fingerprint:       data.Fingerprint.String(),
		Alpha:             a.opts.Alpha,
		Correction:        string(a.opts.Correction),
		MethodColumn:      a.opts.MethodColumn,
		ScoreColumn:       a.opts.ScoreColumn,
		TotalObservations: len(obs),
		Methods:           stats.SummarizeGroups(groups),
		Comparisons:       results,
		Skipped:           skipped,
	}, nil
}

// LoadObservations checks the schema and parses every data row
func (a *Analyzer) LoadObservations(data *excel.ExcelData) ([]significance.Observation, error) {
	missing := data.MissingColumns(a.opts.MethodColumn, a.opts.ScoreColumn)
	if len(missing) > 0 {
		return nil, errors.SchemaError(
			fmt.Sprintf("input data is missing required column(s) %s", quoteAll(missing)),
			core.NewSchemaError(missing, data.Headers))
	}

	obs := make([]significance.Observation, 0, len(data.Rows))
	for i, row := range data.Rows {
		rowNum := i + 1
		method := row[a.opts.MethodColumn]
		if method == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: empty %s", rowNum, a.opts.MethodColumn))
		}
		raw := row[a.opts.ScoreColumn]
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, errors.WithCode(errors.CodeInvalidInput,
				core.NewInvalidScoreError(rowNum, a.opts.ScoreColumn, raw))
		}
		obs = append(obs, significance.Observation{Method: method, Score: score, Row: rowNum})
	}
	return obs, nil
}

// PairwiseTests compares every pair (i, j), i before j in discovery order.
// Pairs with unequal sample counts are skipped with a notice.
func (a *Analyzer) PairwiseTests(ctx context.Context, groups *significance.MethodGroups) ([]significance.ComparisonResult, []significance.SkippedPair, error) {
	methods := groups.Methods()
	results := make([]significance.ComparisonResult, 0)
	skipped := make([]significance.SkippedPair, 0)

	for i := 0; i < len(methods); i++ {
		for j := i + 1; j < len(methods); j++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}

			m1, m2 := methods[i], methods[j]
			n1, n2 := groups.Len(m1), groups.Len(m2)
			if n1 != n2 {
				sp := significance.SkippedPair{
					Method1: m1, Method2: m2, N1: n1, N2: n2,
					Reason: significance.SkipSampleMismatch,
					Notice: fmt.Sprintf("Warning: %s and %s have different sample counts (%d vs %d), skipping comparison.", m1, m2, n1, n2),
				}
				a.logger.Warn("%v", core.NewSampleMismatchError(m1, m2, n1, n2))
				skipped = append(skipped, sp)
				continue
			}

			res, err := stats.WilcoxonSignedRank(groups.Scores(m1), groups.Scores(m2), a.opts.WilcoxonMode)
			if err != nil {
				label := significance.PairLabel(m1, m2)
				if core.IsComputationError(err) && a.opts.OnDegenerate == DegenerateSkip {
					a.logger.Warn("skipping %s: %v", label, err)
					skipped = append(skipped, significance.SkippedPair{
						Method1: m1, Method2: m2, N1: n1, N2: n2,
						Reason: significance.SkipDegenerate,
						Notice: fmt.Sprintf("Warning: Wilcoxon test for %s is undefined (%v), skipping comparison.", label, err),
					})
					continue
				}
				return nil, nil, errors.Wrapf(err, "Wilcoxon signed-rank test failed for %s", label)
			}

			a.logger.Debug("%s: n=%d W=%g p=%.6g (%s)", significance.PairLabel(m1, m2), res.N, res.Statistic, res.PValue, res.Method)
			results = append(results, significance.ComparisonResult{
				Method1:    m1,
				Method2:    m2,
				N:          n1,
				Statistic:  res.Statistic,
				ZeroDiffs:  res.Zeros,
				TestMethod: res.Method,
				RawP:       res.PValue,
			})
		}
	}
	return results, skipped, nil
}

// ApplyCorrection adjusts all raw p-values jointly and sets the significance flags
func (a *Analyzer) ApplyCorrection(results []significance.ComparisonResult) error {
	raw := make([]float64, len(results))
	for i, r := range results {
		raw[i] = r.RawP
	}
	c, err := stats.Correct(raw, a.opts.Alpha, a.opts.Correction)
	if err != nil {
		return errors.Wrap(err, "multiple-comparison correction failed")
	}
	for i := range results {
		results[i].CorrectedP = c.Corrected[i]
		results[i].Significant = c.Reject[i]
	}
	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
