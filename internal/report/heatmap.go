package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"fraudml/internal/evaluation"
)

// ConfusionHeatmap renders the confusion matrix as an HTML heatmap. names
// maps class ids to display labels and may be nil.
func ConfusionHeatmap(w io.Writer, m *evaluation.ClassificationMetrics, title string, names map[int]string) error {
	if m == nil || len(m.Classes) == 0 {
		return fmt.Errorf("no confusion matrix to render")
	}

	labels := make([]string, len(m.Classes))
	for i, class := range m.Classes {
		if name, ok := names[class]; ok {
			labels[i] = name
		} else {
			labels[i] = strconv.Itoa(class)
		}
	}

	maxCount := 0
	items := make([]opts.HeatMapData, 0, len(m.Classes)*len(m.Classes))
	for actual, row := range m.ConfusionMatrix {
		for predicted, count := range row {
			items = append(items, opts.HeatMapData{Value: [3]interface{}{predicted, actual, count}})
			if count > maxCount {
				maxCount = count
			}
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Predicted", Data: labels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Actual", Data: labels}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: 0, Max: float32(maxCount)}),
	)
	hm.AddSeries("confusion", items)

	return hm.Render(w)
}

// WriteConfusionHeatmap renders the heatmap into the file at path.
func WriteConfusionHeatmap(path string, m *evaluation.ClassificationMetrics, title string, names map[int]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	return ConfusionHeatmap(file, m, title, names)
}
