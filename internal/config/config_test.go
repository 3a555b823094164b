package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sigcompare/internal/analysis"
	"sigcompare/internal/errors"
	"sigcompare/internal/report"
	"sigcompare/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SIGCOMPARE_CONFIG", "SIGCOMPARE_INPUT", "SIGCOMPARE_METHOD_COLUMN", "SIGCOMPARE_SCORE_COLUMN",
	"SIGCOMPARE_SHEET", "SIGCOMPARE_DELIMITER", "SIGCOMPARE_ALPHA", "SIGCOMPARE_CORRECTION",
	"SIGCOMPARE_ON_DEGENERATE", "SIGCOMPARE_WILCOXON_MODE", "SIGCOMPARE_FORMAT",
	"SIGCOMPARE_SHOW_P_VALUES", "SIGCOMPARE_SUMMARY", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sigcompare.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Method", cfg.Input.MethodColumn)
	assert.Equal(t, "Dice", cfg.Input.ScoreColumn)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, "bonferroni", cfg.Analysis.Correction)
	assert.Equal(t, "abort", cfg.Analysis.OnDegenerate)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, analysis.DefaultOptions(), cfg.AnalysisOptions())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
input:
  path: scores.xlsx
  sheet: Results
  score_column: DSC
analysis:
  alpha: 0.01
  correction: holm
output:
  format: markdown
  summary: true
`)
	t.Setenv("SIGCOMPARE_ALPHA", "0.1")
	t.Setenv("SIGCOMPARE_SHOW_P_VALUES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scores.xlsx", cfg.Input.Path)
	assert.Equal(t, "Method", cfg.Input.MethodColumn, "unset keys keep defaults")
	assert.Equal(t, "DSC", cfg.Input.ScoreColumn)
	assert.Equal(t, 0.1, cfg.Analysis.Alpha, "env overrides file")
	assert.Equal(t, stats.Holm, cfg.AnalysisOptions().Correction)

	rc := cfg.ReaderConfig()
	assert.Equal(t, "scores.xlsx", rc.FilePath)
	assert.Equal(t, "Results", rc.Sheet)

	ro := cfg.ReportOptions()
	assert.Equal(t, report.FormatMarkdown, ro.Format)
	assert.True(t, ro.ShowPValues)
	assert.True(t, ro.Summary)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIGCOMPARE_CONFIG", writeYAML(t, "analysis:\n  on_degenerate: skip\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, analysis.DegenerateSkip, cfg.AnalysisOptions().OnDegenerate)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "alpha out of range", env: map[string]string{"SIGCOMPARE_ALPHA": "1.5"}},
		{name: "unknown correction", env: map[string]string{"SIGCOMPARE_CORRECTION": "sidak"}},
		{name: "unknown policy", yaml: "analysis:\n  on_degenerate: ignore\n"},
		{name: "unknown format", env: map[string]string{"SIGCOMPARE_FORMAT": "pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			cfg, err := Load(path)
			require.NoError(t, err, "values are checked by Validate, not Load")

			err = cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_InvalidEnvCanBeOverridden(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIGCOMPARE_CORRECTION", "sidak")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sidak", cfg.Analysis.Correction)

	cfg.Analysis.Correction = string(stats.Holm)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeYAML(t, "analysis: [\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Equal(t, 1, strings.Count(err.Error(), "parse config file"))
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
