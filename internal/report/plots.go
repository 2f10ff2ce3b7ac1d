// Package report renders already computed predictions and metrics. Nothing in
// here computes a score.
package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"fraudml/internal/evaluation"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PredictionScatter plots predicted against actual values with the identity
// line as reference and saves the figure to path (format from extension).
func PredictionScatter(preds evaluation.PredictionSet, title, path string) error {
	if len(preds) == 0 {
		return fmt.Errorf("no predictions to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	pts := make(plotter.XYs, len(preds))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, pred := range preds {
		pts[i].X = pred.Actual
		pts[i].Y = pred.Predicted
		lo = math.Min(lo, math.Min(pred.Actual, pred.Predicted))
		hi = math.Max(hi, math.Max(pred.Actual, pred.Predicted))
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	s.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	p.Add(s)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("failed to build reference line: %w", err)
	}
	identity.Color = color.RGBA{R: 255, A: 255}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// ClassDistribution draws a bar per actual class with its count.
func ClassDistribution(preds evaluation.PredictionSet, title, path string) error {
	counts := make(map[float64]int)
	for _, pred := range preds {
		counts[pred.Actual]++
	}
	if len(counts) == 0 {
		return fmt.Errorf("no predictions to plot")
	}

	classes := make([]float64, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Float64s(classes)

	values := make(plotter.Values, len(classes))
	names := make([]string, len(classes))
	for i, class := range classes {
		values[i] = float64(counts[class])
		names[i] = strconv.FormatFloat(class, 'f', -1, 64)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Count"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
