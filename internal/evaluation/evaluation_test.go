package evaluation_test

import (
	"errors"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudml/internal/data"
	"fraudml/internal/evaluation"
	"fraudml/internal/models"
)

// numericTable builds a table with a feature column x = 0..n-1 and the given
// labels as "label".
func numericTable(t *testing.T, labels []int) *data.Table {
	t.Helper()
	records := [][]string{{"x", "label"}}
	for i, l := range labels {
		records = append(records, []string{strconv.Itoa(i), strconv.Itoa(l)})
	}
	tb, err := data.FromRecords(records)
	require.NoError(t, err)
	return tb
}

func rows(p evaluation.Partition) []int {
	return append([]int(nil), p.Features.Rows...)
}

func TestSplitDeterministic(t *testing.T) {
	tb := numericTable(t, []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1})

	a, err := evaluation.Split(tb, "label", 0.25, 7)
	require.NoError(t, err)
	b, err := evaluation.Split(tb, "label", 0.25, 7)
	require.NoError(t, err)

	assert.Equal(t, rows(a.Train), rows(b.Train))
	assert.Equal(t, rows(a.Test), rows(b.Test))
	assert.Equal(t, a.Train.Features.X, b.Train.Features.X)
}

func TestSplitCompleteAndDisjoint(t *testing.T) {
	tb := numericTable(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1})

	split, err := evaluation.Split(tb, "label", 0.2, 42)
	require.NoError(t, err)
	require.Equal(t, 8, split.Train.Len())
	require.Equal(t, 2, split.Test.Len())
	assert.Equal(t, []string{"x"}, split.Train.Features.Names)

	all := append(rows(split.Train), rows(split.Test)...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	for i, row := range split.Test.Features.Rows {
		assert.Equal(t, float64(row), split.Test.Features.X[i][0], "features stay aligned with their row")
	}
}

func TestTestCountRounding(t *testing.T) {
	assert.Equal(t, 2, evaluation.TestCount(10, 0.2))
	assert.Equal(t, 2, evaluation.TestCount(7, 0.25))
	assert.Equal(t, 3, evaluation.TestCount(5, 0.5))
	assert.Equal(t, 0, evaluation.TestCount(2, 0.2))
}

func TestStratifiedSplit(t *testing.T) {
	tb := numericTable(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1})

	split, err := evaluation.NewTrainTestSplitter(0.5, 3, true).StratifiedSplit(tb, "label")
	require.NoError(t, err)

	count := func(labels []float64, class float64) int {
		n := 0
		for _, l := range labels {
			if l == class {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 4, count(split.Test.Labels, 0))
	assert.Equal(t, 1, count(split.Test.Labels, 1))
	assert.Equal(t, 4, count(split.Train.Labels, 0))
	assert.Equal(t, 1, count(split.Train.Labels, 1))
}

func TestSplitErrors(t *testing.T) {
	tb := numericTable(t, []int{0, 1, 0, 1})

	_, err := evaluation.Split(tb, "missing", 0.2, 1)
	assert.True(t, errors.Is(err, data.ErrTargetMissing))

	_, err = evaluation.Split(tb, "label", 0, 1)
	assert.True(t, errors.Is(err, data.ErrSchema))

	categorical, err := data.FromRecords([][]string{{"x", "label"}, {"a", "0"}})
	require.NoError(t, err)
	_, err = evaluation.Split(categorical, "label", 0.2, 1)
	assert.True(t, errors.Is(err, data.ErrSchema))
}

func TestScaleMask(t *testing.T) {
	tb, err := data.FromRecords([][]string{{"amount", "card", "label"}, {"1", "0", "0"}, {"2", "1", "1"}})
	require.NoError(t, err)

	split, err := evaluation.Split(tb, "label", 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, split.ScaleMask(func(name string) bool { return name == "card" }))
}

func TestCalculateMetrics(t *testing.T) {
	m, err := evaluation.CalculateMetrics([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 1}, {0, 2}}, m.ConfusionMatrix)
	assert.Equal(t, 4, m.Total())
	assert.InDelta(t, 0.75, m.Accuracy, 1e-12)
	assert.InDelta(t, m.Accuracy, m.MatrixAccuracy(), 1e-12)
	assert.InDelta(t, 2.0/3.0, m.PerClassMetrics[1].Precision, 1e-12)
	assert.InDelta(t, 1.0, m.PerClassMetrics[1].Recall, 1e-12)
	assert.InDelta(t, 0.75, m.BalancedAccuracy, 1e-12)
	assert.Contains(t, m.FormatMetrics(), "Accuracy: 0.7500")
}

func TestConfusionCoversPredictedOnlyClasses(t *testing.T) {
	m, err := evaluation.CalculateMetrics([]int{0, 0}, []int{0, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, m.Classes)
	assert.Equal(t, 2, m.Total())

	_, err = evaluation.CalculateMetrics([]int{0, 0}, []int{0, 2}, []int{0, 1})
	assert.Error(t, err)

	_, err = evaluation.CalculateMetrics([]int{0}, []int{0, 1}, nil)
	assert.Error(t, err)
}

func TestRegressionMetrics(t *testing.T) {
	m, err := evaluation.CalculateRegressionMetrics([]float64{1, 2, 3}, []float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, m.MSE, 1e-12)
	assert.InDelta(t, 1.0/3.0, m.MAE, 1e-12)
	assert.InDelta(t, 0.5, m.R2, 1e-12)

	exact, err := evaluation.CalculateRegressionMetrics([]float64{5, 5}, []float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, exact.R2)

	off, err := evaluation.CalculateRegressionMetrics([]float64{5, 5}, []float64{5, 6})
	require.NoError(t, err)
	assert.Equal(t, 0.0, off.R2)
}

// fixedClassifier predicts the same class for every row.
type fixedClassifier struct {
	class int
}

func (f fixedClassifier) GetName() string                  { return "fixed" }
func (f fixedClassifier) GetParams() map[string]any        { return nil }
func (f fixedClassifier) Task() models.Task                { return models.Classification }
func (f fixedClassifier) Fit(X [][]float64, y []int) error { return nil }
func (f fixedClassifier) GetClasses() []int                { return []int{f.class} }
func (f fixedClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range out {
		out[i] = f.class
	}
	return out
}

func TestEvaluateClassifier(t *testing.T) {
	test := evaluation.Partition{
		Features: evaluation.FeatureMatrix{Names: []string{"x"}, X: [][]float64{{1}, {2}, {3}}, Rows: []int{4, 7, 9}},
		Labels:   []float64{0, 1, 0},
	}

	preds, metrics, err := evaluation.Evaluate(fixedClassifier{class: 0}, test)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, evaluation.Prediction{Row: 7, Actual: 1, Predicted: 0}, preds[1])
	assert.Equal(t, models.Classification, metrics.Task)
	assert.Nil(t, metrics.Regression)
	assert.Equal(t, test.Len(), metrics.Classification.Total())
	assert.InDelta(t, 2.0/3.0, metrics.Classification.Accuracy, 1e-12)
	assert.Equal(t, []float64{0, 1, 0}, preds.Actual())
	assert.Equal(t, []float64{0, 0, 0}, preds.Predicted())
}

func TestEvaluateRegressor(t *testing.T) {
	lr := models.NewLinearRegression()
	require.NoError(t, lr.Fit([][]float64{{0}, {1}, {2}}, []float64{1, 3, 5}))

	test := evaluation.Partition{
		Features: evaluation.FeatureMatrix{X: [][]float64{{3}, {4}}},
		Labels:   []float64{7, 9},
	}
	preds, metrics, err := evaluation.Evaluate(lr, test)
	require.NoError(t, err)
	assert.Equal(t, 0, preds[0].Row)
	assert.Equal(t, 1, preds[1].Row)
	assert.InDelta(t, 0, metrics.Regression.MSE, 1e-9)
	assert.InDelta(t, 1, metrics.Regression.R2, 1e-9)
}

func TestEvaluateErrors(t *testing.T) {
	_, _, err := evaluation.Evaluate(fixedClassifier{}, evaluation.Partition{})
	assert.True(t, errors.Is(err, evaluation.ErrEmptyTestSet))

	unfitted := models.NewDecisionTree(3, 2)
	_, _, err = evaluation.Evaluate(unfitted, evaluation.Partition{
		Features: evaluation.FeatureMatrix{X: [][]float64{{1}}},
		Labels:   []float64{0},
	})
	assert.True(t, errors.Is(err, evaluation.ErrNotFitted))
}

func TestKFoldSplit(t *testing.T) {
	cv := evaluation.NewCrossValidator(3, 5)

	folds, err := cv.KFoldSplit(10)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assert.Len(t, folds[2], 4, "last fold takes the remainder")

	var all []int
	for _, f := range folds {
		all = append(all, f...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	_, err = evaluation.NewCrossValidator(1, 5).KFoldSplit(10)
	assert.Error(t, err)
	_, err = evaluation.NewCrossValidator(11, 5).KFoldSplit(10)
	assert.Error(t, err)
}

func TestCrossValidatorDeterministic(t *testing.T) {
	p := evaluation.Partition{Features: evaluation.FeatureMatrix{Names: []string{"x"}}}
	for i := 0; i < 20; i++ {
		label := 0.0
		if i >= 10 {
			label = 1
		}
		p.Features.X = append(p.Features.X, []float64{float64(i)})
		p.Labels = append(p.Labels, label)
	}
	config := models.ModelConfig{Algorithm: "tree", MaxDepth: 3}

	serial := evaluation.NewCrossValidator(4, 11)
	a, err := serial.Run(p, config)
	require.NoError(t, err)

	parallel := evaluation.NewCrossValidator(4, 11)
	parallel.Workers = 3
	b, err := parallel.Run(p, config)
	require.NoError(t, err)

	assert.Equal(t, "accuracy", a.Metric)
	assert.Len(t, a.Scores, 4)
	assert.Equal(t, a.Scores, b.Scores)
	assert.Equal(t, a.Mean, b.Mean)
	for _, s := range a.Scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestCrossValidatorRegression(t *testing.T) {
	p := evaluation.Partition{Features: evaluation.FeatureMatrix{Names: []string{"x"}}}
	for i := 0; i < 12; i++ {
		p.Features.X = append(p.Features.X, []float64{float64(i)})
		p.Labels = append(p.Labels, 3*float64(i)-2)
	}

	res, err := evaluation.NewCrossValidator(3, 1).Run(p, models.ModelConfig{Algorithm: "linear"})
	require.NoError(t, err)
	assert.Equal(t, "r2", res.Metric)
	assert.InDelta(t, 1.0, res.Mean, 1e-9)
	assert.InDelta(t, 0.0, res.Std, 1e-9)
}
