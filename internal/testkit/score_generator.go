package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"sigcompare/domain/significance"

	"github.com/xuri/excelize/v2"
)

// MethodSpec describes one synthetic method's score distribution
type MethodSpec struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// ScoreGeneratorConfig configures the score generator
type ScoreGeneratorConfig struct {
	Methods      []MethodSpec `json:"methods"`
	Seed         int64        `json:"seed"`
	Interleave   bool         `json:"interleave"` // emit case-by-case instead of method-by-method
	MethodColumn string       `json:"method_column"`
	ScoreColumn  string       `json:"score_column"`
}

// DefaultScoreConfig returns three methods with 20 cases each and increasing means
func DefaultScoreConfig() ScoreGeneratorConfig {
	return ScoreGeneratorConfig{
		Methods: []MethodSpec{
			{Name: "Baseline", Mean: 0.74, StdDev: 0.04, N: 20},
			{Name: "Affine", Mean: 0.77, StdDev: 0.04, N: 20},
			{Name: "Transformer", Mean: 0.81, StdDev: 0.03, N: 20},
		},
		Seed:         42,
		MethodColumn: "Method",
		ScoreColumn:  "Dice",
	}
}

// ScoreGenerator produces reproducible per-method score tables
type ScoreGenerator struct {
	config ScoreGeneratorConfig
	rng    *rand.Rand
}

// NewScoreGenerator creates a generator seeded from the config
func NewScoreGenerator(config ScoreGeneratorConfig) *ScoreGenerator {
	if config.MethodColumn == "" {
		config.MethodColumn = "Method"
	}
	if config.ScoreColumn == "" {
		config.ScoreColumn = "Dice"
	}
	return &ScoreGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate draws scores clamped to [0, 1]. Cases share a common difficulty term
// so paired methods are correlated the way real per-case metrics are.
func (g *ScoreGenerator) Generate() ([]significance.Observation, error) {
	maxN := 0
	for _, m := range g.config.Methods {
		if m.Name == "" {
			return nil, fmt.Errorf("method spec has empty name")
		}
		if m.N < 0 || m.StdDev < 0 {
			return nil, fmt.Errorf("method %s: n and std_dev must be non-negative", m.Name)
		}
		if m.N > maxN {
			maxN = m.N
		}
	}

	difficulty := make([]float64, maxN)
	for i := range difficulty {
		difficulty[i] = g.rng.NormFloat64() * 0.02
	}

	perMethod := make([][]float64, len(g.config.Methods))
	for mi, m := range g.config.Methods {
		scores := make([]float64, m.N)
		for i := range scores {
			v := m.Mean + difficulty[i] + g.rng.NormFloat64()*m.StdDev
			scores[i] = math.Round(clamp01(v)*1e4) / 1e4
		}
		perMethod[mi] = scores
	}

	var obs []significance.Observation
	if g.config.Interleave {
		for i := 0; i < maxN; i++ {
			for mi, m := range g.config.Methods {
				if i < m.N {
					obs = append(obs, significance.Observation{Method: m.Name, Score: perMethod[mi][i]})
				}
			}
		}
	} else {
		for mi, m := range g.config.Methods {
			for _, s := range perMethod[mi] {
				obs = append(obs, significance.Observation{Method: m.Name, Score: s})
			}
		}
	}
	for i := range obs {
		obs[i].Row = i + 1
	}
	return obs, nil
}

// WriteCSV writes observations as a two-column CSV with a header row
func (g *ScoreGenerator) WriteCSV(w io.Writer, obs []significance.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{g.config.MethodColumn, g.config.ScoreColumn}); err != nil {
		return err
	}
	for _, o := range obs {
		if err := cw.Write([]string{o.Method, strconv.FormatFloat(o.Score, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes observations to the first sheet of a new workbook at path
func (g *ScoreGenerator) WriteXLSX(path string, obs []significance.Observation) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{g.config.MethodColumn, g.config.ScoreColumn}); err != nil {
		return err
	}
	for i, o := range obs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{o.Method, o.Score}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
