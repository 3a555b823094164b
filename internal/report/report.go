// Package report renders significance reports for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sigcompare/domain/significance"
	"sigcompare/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects an output rendering
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name; empty means text
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "", "txt":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown output format %q (want text, json, markdown or html)", s))
}

// Options controls what a rendering includes
type Options struct {
	Format      Format
	ShowPValues bool
	Summary     bool
}

const pairColumnWidth = 18

// Render writes the report to w in the requested format
func Render(w io.Writer, r *significance.Report, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return renderText(w, r, opts)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r, opts))
		return err
	case FormatHTML:
		return renderHTML(w, r, opts)
	}
	return errors.InvalidInput(fmt.Sprintf("unknown output format %q", opts.Format))
}

// Conclusion renders the significance verdict for one comparison
func Conclusion(c significance.ComparisonResult, alpha float64) string {
	a := formatAlpha(alpha)
	if c.Significant {
		return fmt.Sprintf("Significant (p < %s)", a)
	}
	return fmt.Sprintf("Not Significant (p >= %s)", a)
}

func formatAlpha(alpha float64) string {
	return strconv.FormatFloat(alpha, 'g', -1, 64)
}

// TotalLine renders the closing observation count
func TotalLine(r *significance.Report) string {
	return fmt.Sprintf("Read %d %s values in total.", r.TotalObservations, r.ScoreColumn)
}

func noComparisonsLine() string {
	return "No comparisons available: no pair of methods has equal sample counts."
}

func renderText(w io.Writer, r *significance.Report, opts Options) error {
	var sb strings.Builder
	for _, s := range r.Skipped {
		sb.WriteString(s.Notice + "\n")
	}

	sb.WriteString("\n=== analysis result ===\n")
	if opts.ShowPValues {
		fmt.Fprintf(&sb, "%-*s | P-value | %s Corrected P-value | Significance\n",
			pairColumnWidth, "Method Pair", correctionTitle(r.Correction))
	} else {
		fmt.Fprintf(&sb, "%-*s | Significance\n", pairColumnWidth, "Method Pair")
	}
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(r.Comparisons) == 0 {
		sb.WriteString(noComparisonsLine() + "\n")
	}
	for _, c := range r.Comparisons {
		if opts.ShowPValues {
			fmt.Fprintf(&sb, "%-*s | %.4f | %.4f | conclusion: %s\n",
				pairColumnWidth, c.Label(), c.RawP, c.CorrectedP, Conclusion(c, r.Alpha))
		} else {
			fmt.Fprintf(&sb, "%-*s | conclusion: %s\n", pairColumnWidth, c.Label(), Conclusion(c, r.Alpha))
		}
	}

	if opts.Summary && len(r.Methods) > 0 {
		sb.WriteString("\n=== method summary ===\n")
		fmt.Fprintf(&sb, "%-*s | %4s | %8s | %8s | %8s | %8s | %8s\n",
			pairColumnWidth, "Method", "N", "Mean", "Median", "Std", "Min", "Max")
		for _, m := range r.Methods {
			fmt.Fprintf(&sb, "%-*s | %4d | %8.4f | %8.4f | %8.4f | %8.4f | %8.4f\n",
				pairColumnWidth, m.Method, m.N, m.Mean, m.Median, m.StdDev, m.Min, m.Max)
		}
	}

	sb.WriteString("\n" + TotalLine(r) + "\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderJSON(w io.Writer, r *significance.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Markdown renders the report as a GitHub-flavored markdown document
func Markdown(r *significance.Report, opts Options) string {
	var sb strings.Builder
	sb.WriteString("# Significance report\n\n")
	fmt.Fprintf(&sb, "- Source: `%s`\n", r.Source)
	fmt.Fprintf(&sb, "- Correction: %s at alpha = %s\n", correctionTitle(r.Correction), formatAlpha(r.Alpha))
	fmt.Fprintf(&sb, "- Comparisons: %d (%d significant), skipped: %d\n\n",
		len(r.Comparisons), r.SignificantCount(), len(r.Skipped))

	if len(r.Skipped) > 0 {
		sb.WriteString("## Skipped pairs\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&sb, "- %s\n", escapeCell(s.Notice))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Results\n\n")
	if len(r.Comparisons) == 0 {
		sb.WriteString(noComparisonsLine() + "\n\n")
	} else {
		if opts.ShowPValues {
			sb.WriteString("| Method Pair | P-value | Corrected P-value | Conclusion |\n|---|---|---|---|\n")
		} else {
			sb.WriteString("| Method Pair | Conclusion |\n|---|---|\n")
		}
		for _, c := range r.Comparisons {
			if opts.ShowPValues {
				fmt.Fprintf(&sb, "| %s | %.4f | %.4f | %s |\n", escapeCell(c.Label()), c.RawP, c.CorrectedP, Conclusion(c, r.Alpha))
			} else {
				fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(c.Label()), Conclusion(c, r.Alpha))
			}
		}
		sb.WriteString("\n")
	}

	if opts.Summary && len(r.Methods) > 0 {
		sb.WriteString("## Methods\n\n| Method | N | Mean | Median | Std | Min | Max |\n|---|---|---|---|---|---|---|\n")
		for _, m := range r.Methods {
			fmt.Fprintf(&sb, "| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				escapeCell(m.Method), m.N, m.Mean, m.Median, m.StdDev, m.Min, m.Max)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(TotalLine(r) + "\n")
	return sb.String()
}

func renderHTML(w io.Writer, r *significance.Report, opts Options) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Significance report",
	})
	_, err := w.Write(markdown.ToHTML([]byte(Markdown(r, opts)), p, renderer))
	return err
}

func correctionTitle(method string) string {
	switch method {
	case "holm":
		return "Holm"
	case "fdr_bh":
		return "Benjamini-Hochberg"
	default:
		return "Bonferroni"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
