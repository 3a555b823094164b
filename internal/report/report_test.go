package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sigcompare/domain/significance"
	"sigcompare/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *significance.Report {
	return &significance.Report{
		Source:            "scores.csv",
		Fingerprint:       "7c9e6679-7425-5de9-944b-e07fc1f90ae7",
		Alpha:             0.05,
		Correction:        "bonferroni",
		MethodColumn:      "Method",
		ScoreColumn:       "Dice",
		TotalObservations: 13,
		Methods: []significance.MethodSummary{
			{Method: "A", N: 5, Mean: 0.82, Median: 0.82, StdDev: 0.0158, Min: 0.8, Max: 0.84},
			{Method: "B", N: 5, Mean: 0.76, Median: 0.76, StdDev: 0.0158, Min: 0.74, Max: 0.78},
			{Method: "C", N: 3, Mean: 0.7, Median: 0.7, StdDev: 0.01, Min: 0.69, Max: 0.71},
		},
		Comparisons: []significance.ComparisonResult{
			{Method1: "A", Method2: "B", N: 5, Statistic: 0, TestMethod: significance.TestExact,
				RawP: 0.0625, CorrectedP: 0.0625, Significant: false},
		},
		Skipped: []significance.SkippedPair{
			{Method1: "A", Method2: "C", N1: 5, N2: 3, Reason: significance.SkipSampleMismatch,
				Notice: "Warning: A and C have different sample counts (5 vs 3), skipping comparison."},
			{Method1: "B", Method2: "C", N1: 5, N2: 3, Reason: significance.SkipSampleMismatch,
				Notice: "Warning: B and C have different sample counts (5 vs 3), skipping comparison."},
		},
	}
}

func render(t *testing.T, r *significance.Report, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, opts))
	return buf.String()
}

func TestRenderText_Layout(t *testing.T) {
	out := render(t, sampleReport(), Options{Format: FormatText})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "Warning: A and C have different sample counts (5 vs 3), skipping comparison.", lines[0])
	assert.Equal(t, "Warning: B and C have different sample counts (5 vs 3), skipping comparison.", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "=== analysis result ===", lines[3])
	assert.Equal(t, "Method Pair        | Significance", lines[4])
	assert.Equal(t, strings.Repeat("=", 80), lines[5])
	assert.Equal(t, "A vs B             | conclusion: Not Significant (p >= 0.05)", lines[6])
	assert.Equal(t, "Read 13 Dice values in total.", lines[len(lines)-1])
	assert.NotContains(t, out, "0.0625", "p-values are hidden by default")
}

func TestRenderText_SignificantAndPValues(t *testing.T) {
	r := sampleReport()
	r.Alpha = 0.1
	r.Comparisons[0].Significant = true

	out := render(t, r, Options{Format: FormatText, ShowPValues: true})
	assert.Contains(t, out, "Method Pair        | P-value | Bonferroni Corrected P-value | Significance")
	assert.Contains(t, out, "A vs B             | 0.0625 | 0.0625 | conclusion: Significant (p < 0.1)")
}

func TestRenderText_NoComparisons(t *testing.T) {
	r := sampleReport()
	r.Comparisons = nil

	out := render(t, r, Options{})
	assert.Contains(t, out, "No comparisons available")
	assert.True(t, strings.HasSuffix(out, "Read 13 Dice values in total.\n"))
}

func TestRenderText_Summary(t *testing.T) {
	out := render(t, sampleReport(), Options{Format: FormatText, Summary: true})
	assert.Contains(t, out, "=== method summary ===")
	assert.Contains(t, out, "0.8200")
}

func TestRender_Idempotent(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON, FormatMarkdown, FormatHTML} {
		opts := Options{Format: f, ShowPValues: true, Summary: true}
		a := render(t, sampleReport(), opts)
		b := render(t, sampleReport(), opts)
		assert.Equal(t, a, b, "format %s", f)
	}
}

func TestRenderJSON(t *testing.T) {
	out := render(t, sampleReport(), Options{Format: FormatJSON})

	var decoded significance.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 13, decoded.TotalObservations)
	require.Len(t, decoded.Comparisons, 1)
	assert.Equal(t, 0.0625, decoded.Comparisons[0].CorrectedP)
	assert.Len(t, decoded.Skipped, 2)
	assert.Contains(t, out, `"p_value": 0.0625`)
}

func TestMarkdownAndHTML(t *testing.T) {
	md := Markdown(sampleReport(), Options{ShowPValues: true})
	assert.Contains(t, md, "# Significance report")
	assert.Contains(t, md, "| A vs B | 0.0625 | 0.0625 | Not Significant (p >= 0.05) |")
	assert.Contains(t, md, "## Skipped pairs")

	out := render(t, sampleReport(), Options{Format: FormatHTML})
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<title>Significance report</title>")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"md", FormatMarkdown},
		{"html", FormatHTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
