package config

import (
	"fmt"
	"os"
	"strconv"

	"sigcompare/adapters/excel"
	"sigcompare/domain/significance"
	"sigcompare/internal/analysis"
	"sigcompare/internal/errors"
	"sigcompare/internal/report"
	"sigcompare/internal/stats"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	LogLevel string         `yaml:"log_level"`
}

// InputConfig describes where the score table lives and how it is laid out
type InputConfig struct {
	Path         string `yaml:"path"`
	MethodColumn string `yaml:"method_column"`
	ScoreColumn  string `yaml:"score_column"`
	Sheet        string `yaml:"sheet"`
	Delimiter    string `yaml:"delimiter"`
}

// AnalysisConfig holds the statistical settings
type AnalysisConfig struct {
	Alpha        float64 `yaml:"alpha"`
	Correction   string  `yaml:"correction"`
	OnDegenerate string  `yaml:"on_degenerate"`
	WilcoxonMode string  `yaml:"wilcoxon_mode"`
}

// OutputConfig holds report rendering settings
type OutputConfig struct {
	Format      string `yaml:"format"`
	ShowPValues bool   `yaml:"show_p_values"`
	Summary     bool   `yaml:"summary"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Input: InputConfig{
			MethodColumn: "Method",
			ScoreColumn:  "Dice",
		},
		Analysis: AnalysisConfig{
			Alpha:        significance.DefaultAlpha,
			Correction:   string(stats.Bonferroni),
			OnDegenerate: string(analysis.DegenerateAbort),
			WilcoxonMode: string(stats.WilcoxonAuto),
		},
		Output: OutputConfig{
			Format: string(report.FormatText),
		},
		LogLevel: "INFO",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. An empty path falls back to SIGCOMPARE_CONFIG.
// The result is not validated: callers layer flags on top and then call Validate.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv("SIGCOMPARE_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	loadInputConfig(&config.Input)
	loadAnalysisConfig(&config.Analysis)
	loadOutputConfig(&config.Output)
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
	return config, nil
}

func loadFile(path string, config *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read config file %s: %w", path, err))
	}
	if err := yaml.Unmarshal(content, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse config file %s: %w", path, err))
	}
	return nil
}

func loadInputConfig(c *InputConfig) {
	c.Path = getEnvOrDefault("SIGCOMPARE_INPUT", c.Path)
	c.MethodColumn = getEnvOrDefault("SIGCOMPARE_METHOD_COLUMN", c.MethodColumn)
	c.ScoreColumn = getEnvOrDefault("SIGCOMPARE_SCORE_COLUMN", c.ScoreColumn)
	c.Sheet = getEnvOrDefault("SIGCOMPARE_SHEET", c.Sheet)
	c.Delimiter = getEnvOrDefault("SIGCOMPARE_DELIMITER", c.Delimiter)
}

func loadAnalysisConfig(c *AnalysisConfig) {
	c.Alpha = getEnvFloatOrDefault("SIGCOMPARE_ALPHA", c.Alpha)
	c.Correction = getEnvOrDefault("SIGCOMPARE_CORRECTION", c.Correction)
	c.OnDegenerate = getEnvOrDefault("SIGCOMPARE_ON_DEGENERATE", c.OnDegenerate)
	c.WilcoxonMode = getEnvOrDefault("SIGCOMPARE_WILCOXON_MODE", c.WilcoxonMode)
}

func loadOutputConfig(c *OutputConfig) {
	c.Format = getEnvOrDefault("SIGCOMPARE_FORMAT", c.Format)
	c.ShowPValues = getEnvBoolOrDefault("SIGCOMPARE_SHOW_P_VALUES", c.ShowPValues)
	c.Summary = getEnvBoolOrDefault("SIGCOMPARE_SUMMARY", c.Summary)
}

// Validate checks every setting that has a closed set of values
func (c *Config) Validate() error {
	if err := c.AnalysisOptions().Validate(); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// AnalysisOptions converts the configuration to analyzer options
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		MethodColumn: c.Input.MethodColumn,
		ScoreColumn:  c.Input.ScoreColumn,
		Alpha:        c.Analysis.Alpha,
		Correction:   stats.CorrectionMethod(c.Analysis.Correction),
		OnDegenerate: analysis.DegeneratePolicy(c.Analysis.OnDegenerate),
		WilcoxonMode: stats.WilcoxonMode(c.Analysis.WilcoxonMode),
	}
}

// ReaderConfig converts the input section to a reader configuration
func (c *Config) ReaderConfig() excel.ReaderConfig {
	return excel.ReaderConfig{
		FilePath:  c.Input.Path,
		Sheet:     c.Input.Sheet,
		Delimiter: c.Input.Delimiter,
	}
}

// ReportOptions converts the output section to renderer options
func (c *Config) ReportOptions() report.Options {
	format, err := report.ParseFormat(c.Output.Format)
	if err != nil {
		format = report.FormatText
	}
	return report.Options{
		Format:      format,
		ShowPValues: c.Output.ShowPValues,
		Summary:     c.Output.Summary,
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
