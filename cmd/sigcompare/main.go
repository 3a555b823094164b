package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sigcompare/internal"
	"sigcompare/internal/analysis"
	"sigcompare/internal/config"
	"sigcompare/internal/errors"
	"sigcompare/internal/report"
	"sigcompare/internal/testkit"
	"sigcompare/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file; a missing file is fine
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sigcompare",
		Short:         "Pairwise Wilcoxon significance testing of per-method segmentation scores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newGenerateCmd(),
		newModelConfigCmd(),
	)
	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath   string
		methodColumn string
		scoreColumn  string
		sheet        string
		delimiter    string
		alpha        float64
		correction   string
		onDegenerate string
		wilcoxonMode string
		format       string
		showPValues  bool
		summary      bool
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run pairwise Wilcoxon tests with multiple-comparison correction",
		Long: `Load per-method scores from a CSV, TSV or XLSX table, run a two-sided
Wilcoxon signed-rank test for every pair of methods with equal sample counts,
correct the p-values jointly and print a significance report.

Settings are resolved as defaults < YAML file (--config or SIGCOMPARE_CONFIG)
< environment (SIGCOMPARE_*) < flags.

Example: sigcompare analyze results.csv --correction holm --show-p-values`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if len(args) == 1 {
				cfg.Input.Path = args[0]
			}
			if flags.Changed("method-column") {
				cfg.Input.MethodColumn = methodColumn
			}
			if flags.Changed("score-column") {
				cfg.Input.ScoreColumn = scoreColumn
			}
			if flags.Changed("sheet") {
				cfg.Input.Sheet = sheet
			}
			if flags.Changed("delimiter") {
				cfg.Input.Delimiter = delimiter
			}
			if flags.Changed("alpha") {
				cfg.Analysis.Alpha = alpha
			}
			if flags.Changed("correction") {
				cfg.Analysis.Correction = correction
			}
			if flags.Changed("on-degenerate") {
				cfg.Analysis.OnDegenerate = onDegenerate
			}
			if flags.Changed("wilcoxon-mode") {
				cfg.Analysis.WilcoxonMode = wilcoxonMode
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("show-p-values") {
				cfg.Output.ShowPValues = showPValues
			}
			if flags.Changed("summary") {
				cfg.Output.Summary = summary
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}

			return runAnalyze(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&methodColumn, "method-column", "Method", "Column holding the method identifier")
	flags.StringVar(&scoreColumn, "score-column", "Dice", "Column holding the numeric score")
	flags.StringVar(&sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	flags.StringVar(&delimiter, "delimiter", "", "CSV field delimiter, or \"tab\" (default: by extension)")
	flags.Float64Var(&alpha, "alpha", 0.05, "Family-wise significance level")
	flags.StringVar(&correction, "correction", "bonferroni", "Correction: bonferroni|holm|fdr_bh")
	flags.StringVar(&onDegenerate, "on-degenerate", "abort", "Pairs with no usable differences: abort|skip")
	flags.StringVar(&wilcoxonMode, "wilcoxon-mode", "auto", "Wilcoxon p-value: auto|exact|normal")
	flags.StringVar(&format, "format", "text", "Report format: text|json|markdown|html")
	flags.BoolVar(&showPValues, "show-p-values", false, "Include raw and corrected p-values")
	flags.BoolVar(&summary, "summary", false, "Include per-method descriptive statistics")
	flags.StringVar(&logLevel, "log-level", "INFO", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")

	return cmd
}

// runAnalyze executes one analysis. A schema error is reported as a
// diagnostic and is not a failure of the command.
func runAnalyze(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Input.Path == "" {
		return errors.ConfigInvalid("no input file: pass it as an argument or set SIGCOMPARE_INPUT")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel), stderr)
	analyzer := analysis.NewAnalyzer(cfg.AnalysisOptions(), logger)

	rep, err := analyzer.AnalyzeFile(ctx, cfg.ReaderConfig())
	if err != nil {
		if errors.HasCode(err, errors.CodeSchemaError) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return nil
		}
		return err
	}

	return report.Render(stdout, rep, cfg.ReportOptions())
}

func newGenerateCmd() *cobra.Command {
	var (
		methods    []string
		n          int
		seed       int64
		baseMean   float64
		shift      float64
		stdDev     float64
		interleave bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a reproducible synthetic score table",
		Long: `Generate per-case scores for a list of methods. Each successive method's
mean is raised by --shift, and all methods share a per-case difficulty term so
paired comparisons behave like real segmentation results.

Method entries take the form name or name:n to give one method a different
sample count.

Example: sigcompare generate --methods Baseline,Affine,Transformer --n 20 -o scores.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseMethodSpecs(methods, n, baseMean, shift, stdDev)
			if err != nil {
				return err
			}
			cfg := testkit.ScoreGeneratorConfig{
				Methods:    specs,
				Seed:       seed,
				Interleave: interleave,
			}
			return runGenerate(cfg, output, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&methods, "methods", []string{"Baseline", "Affine", "Transformer"}, "Method names, optionally name:n")
	flags.IntVar(&n, "n", 20, "Cases per method")
	flags.Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	flags.Float64Var(&baseMean, "mean", 0.74, "Mean score of the first method")
	flags.Float64Var(&shift, "shift", 0.03, "Mean increase per successive method")
	flags.Float64Var(&stdDev, "std", 0.04, "Per-method score standard deviation")
	flags.BoolVar(&interleave, "interleave", false, "Emit rows case by case instead of method by method")
	flags.StringVarP(&output, "output", "o", "-", "Output path (.csv or .xlsx), - for stdout")

	return cmd
}

func parseMethodSpecs(entries []string, n int, baseMean, shift, stdDev float64) ([]testkit.MethodSpec, error) {
	if len(entries) == 0 {
		return nil, errors.InvalidInput("at least one method is required")
	}
	specs := make([]testkit.MethodSpec, 0, len(entries))
	for i, entry := range entries {
		name, count := strings.TrimSpace(entry), n
		if idx := strings.LastIndex(name, ":"); idx >= 0 {
			c, err := strconv.Atoi(name[idx+1:])
			if err != nil || c < 0 {
				return nil, errors.InvalidInput(fmt.Sprintf("invalid method entry %q (want name or name:n)", entry))
			}
			name, count = name[:idx], c
		}
		if name == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid method entry %q: empty name", entry))
		}
		specs = append(specs, testkit.MethodSpec{
			Name:   name,
			Mean:   baseMean + float64(i)*shift,
			StdDev: stdDev,
			N:      count,
		})
	}
	return specs, nil
}

func runGenerate(cfg testkit.ScoreGeneratorConfig, output string, stdout io.Writer) error {
	gen := testkit.NewScoreGenerator(cfg)
	obs, err := gen.Generate()
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}

	switch {
	case output == "" || output == "-":
		return gen.WriteCSV(stdout, obs)
	case strings.EqualFold(filepath.Ext(output), ".xlsx"):
		return gen.WriteXLSX(output, obs)
	default:
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", output)
		}
		if err := gen.WriteCSV(f, obs); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

func newModelConfigCmd() *cobra.Command {
	var overridePath string

	cmd := &cobra.Command{
		Use:   "model-config",
		Short: "Print the 3D registration model configuration as YAML",
		Long: `Print the registration transformer hyperparameters. With --file, keys from
the YAML file override the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelConfig(overridePath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&overridePath, "file", "f", "", "YAML file with overrides")
	return cmd
}

func runModelConfig(overridePath string, stdout io.Writer) error {
	cfg := models.DefaultRegistrationConfig()
	if overridePath != "" {
		loaded, err := models.LoadRegistrationConfig(overridePath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	out, err := cfg.YAML()
	if err != nil {
		return errors.Wrap(err, "failed to render registration config")
	}
	_, err = stdout.Write(out)
	return err
}
