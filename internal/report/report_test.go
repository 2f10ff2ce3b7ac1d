package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudml/internal/evaluation"
	"fraudml/internal/report"
)

var preds = evaluation.PredictionSet{
	{Row: 0, Actual: 0, Predicted: 0},
	{Row: 1, Actual: 0, Predicted: 1},
	{Row: 2, Actual: 1, Predicted: 1},
	{Row: 3, Actual: 1, Predicted: 1},
}

func requireNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPredictionScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.png")
	require.NoError(t, report.PredictionScatter(preds, "Actual vs Predicted", path))
	requireNonEmptyFile(t, path)

	assert.Error(t, report.PredictionScatter(nil, "empty", filepath.Join(t.TempDir(), "empty.png")))
}

func TestClassDistribution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.png")
	require.NoError(t, report.ClassDistribution(preds, "Class Distribution", path))
	requireNonEmptyFile(t, path)

	assert.Error(t, report.ClassDistribution(nil, "empty", filepath.Join(t.TempDir(), "empty.png")))
}

func TestConfusionHeatmap(t *testing.T) {
	m, err := evaluation.CalculateMetrics([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.ConfusionHeatmap(&buf, m, "Confusion Matrix", map[int]string{0: "legit", 1: "fraud"}))
	assert.Contains(t, buf.String(), "Confusion Matrix")
	assert.Contains(t, buf.String(), "fraud")

	path := filepath.Join(t.TempDir(), "confusion.html")
	require.NoError(t, report.WriteConfusionHeatmap(path, m, "Confusion Matrix", nil))
	requireNonEmptyFile(t, path)

	assert.Error(t, report.ConfusionHeatmap(&buf, nil, "none", nil))
}
