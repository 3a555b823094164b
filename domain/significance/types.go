package significance

import "fmt"

// DefaultAlpha is the family-wise error rate used when none is configured
const DefaultAlpha = 0.05

// Observation is one (method, score) row of the input table
type Observation struct {
	Method string  `json:"method"`
	Score  float64 `json:"score"`
	Row    int     `json:"row"` // 1-based data row number, header excluded
}

// MethodGroups partitions scores by method, keeping first-appearance order
type MethodGroups struct {
	order  []string
	scores map[string][]float64
}

// NewMethodGroups creates an empty grouping
func NewMethodGroups() *MethodGroups {
	return &MethodGroups{scores: make(map[string][]float64)}
}

// GroupObservations builds groups from observations in read order
func GroupObservations(obs []Observation) *MethodGroups {
	g := NewMethodGroups()
	for _, o := range obs {
		g.Add(o.Method, o.Score)
	}
	return g
}

// Add appends a score to the method's group
func (g *MethodGroups) Add(method string, score float64) {
	if _, ok := g.scores[method]; !ok {
		g.order = append(g.order, method)
	}
	g.scores[method] = append(g.scores[method], score)
}

// Methods returns method identifiers in order of first appearance
func (g *MethodGroups) Methods() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Scores returns a copy of the scores recorded for a method
func (g *MethodGroups) Scores(method string) []float64 {
	s := g.scores[method]
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// Len returns the number of scores for a method
func (g *MethodGroups) Len(method string) int {
	return len(g.scores[method])
}

// Count returns the number of distinct methods
func (g *MethodGroups) Count() int {
	return len(g.order)
}

// TestMethod names how a p-value was obtained
type TestMethod string

const (
	TestExact  TestMethod = "exact"
	TestNormal TestMethod = "normal"
)

// ComparisonResult holds the outcome of one paired test
type ComparisonResult struct {
	Method1     string     `json:"method_1"`
	Method2     string     `json:"method_2"`
	N           int        `json:"n"`
	Statistic   float64    `json:"statistic"`
	ZeroDiffs   int        `json:"zero_differences"`
	TestMethod  TestMethod `json:"test_method"`
	RawP        float64    `json:"p_value"`
	CorrectedP  float64    `json:"corrected_p_value"`
	Significant bool       `json:"significant"`
}

// Label renders "<method_1> vs <method_2>"
func (c ComparisonResult) Label() string {
	return PairLabel(c.Method1, c.Method2)
}

// PairLabel renders the label for a method pair
func PairLabel(m1, m2 string) string {
	return fmt.Sprintf("%s vs %s", m1, m2)
}

// SkipReason classifies why a pair produced no comparison
type SkipReason string

const (
	SkipSampleMismatch SkipReason = "sample_mismatch"
	SkipDegenerate     SkipReason = "degenerate"
)

// SkippedPair records a pair that produced no ComparisonResult
type SkippedPair struct {
	Method1 string     `json:"method_1"`
	Method2 string     `json:"method_2"`
	N1      int        `json:"n_1"`
	N2      int        `json:"n_2"`
	Reason  SkipReason `json:"reason"`
	Notice  string     `json:"notice"`
}

// MethodSummary carries descriptive statistics for one method's scores
type MethodSummary struct {
	Method string  `json:"method"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report is the complete result of one analysis run
type Report struct {
	Source            string             `json:"source"`
	Fingerprint       string             `json:"fingerprint"`
	Alpha             float64            `json:"alpha"`
	Correction        string             `json:"correction"`
	MethodColumn      string             `json:"method_column"`
	ScoreColumn       string             `json:"score_column"`
	TotalObservations int                `json:"total_observations"`
	Methods           []MethodSummary    `json:"methods"`
	Comparisons       []ComparisonResult `json:"comparisons"`
	Skipped           []SkippedPair      `json:"skipped"`
}

// SignificantCount returns how many comparisons were flagged significant
func (r *Report) SignificantCount() int {
	n := 0
	for _, c := range r.Comparisons {
		if c.Significant {
			n++
		}
	}
	return n
}
