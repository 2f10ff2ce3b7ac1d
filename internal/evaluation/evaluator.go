package evaluation

import (
	"errors"
	"fmt"

	"fraudml/internal/models"
)

var (
	ErrEmptyTestSet = errors.New("empty test set")
	ErrNotFitted    = errors.New("model is not fitted")
)

// Prediction pairs the actual and predicted target of one test row.
type Prediction struct {
	Row       int     `json:"row"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

type PredictionSet []Prediction

func (ps PredictionSet) Actual() []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Actual
	}
	return out
}

func (ps PredictionSet) Predicted() []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Predicted
	}
	return out
}

// Metrics carries the scores of one evaluation; exactly one of
// Classification and Regression is set.
type Metrics struct {
	Task           models.Task            `json:"task"`
	Classification *ClassificationMetrics `json:"classification,omitempty"`
	Regression     *RegressionMetrics     `json:"regression,omitempty"`
}

// Evaluate predicts every row of the test partition and scores the result.
// It has no side effects.
func Evaluate(model models.Model, test Partition) (PredictionSet, *Metrics, error) {
	if test.Len() == 0 {
		return nil, nil, ErrEmptyTestSet
	}
	if len(test.Features.X) != test.Len() {
		return nil, nil, fmt.Errorf("%w: %d feature rows vs %d labels", models.ErrDimensionMismatch, len(test.Features.X), test.Len())
	}

	rows := test.Features.Rows
	if len(rows) != test.Len() {
		rows = make([]int, test.Len())
		for i := range rows {
			rows[i] = i
		}
	}

	switch m := model.(type) {
	case models.Classifier:
		predicted := m.Predict(test.Features.X)
		if len(predicted) != test.Len() {
			return nil, nil, fmt.Errorf("%w: %s returned %d predictions", ErrNotFitted, m.GetName(), len(predicted))
		}

		actual := models.AsClasses(test.Labels)
		metrics, err := CalculateMetrics(actual, predicted, nil)
		if err != nil {
			return nil, nil, err
		}

		preds := make(PredictionSet, len(predicted))
		for i := range predicted {
			preds[i] = Prediction{Row: rows[i], Actual: float64(actual[i]), Predicted: float64(predicted[i])}
		}
		return preds, &Metrics{Task: models.Classification, Classification: metrics}, nil

	case models.Regressor:
		predicted := m.Predict(test.Features.X)
		if len(predicted) != test.Len() {
			return nil, nil, fmt.Errorf("%w: %s returned %d predictions", ErrNotFitted, m.GetName(), len(predicted))
		}

		metrics, err := CalculateRegressionMetrics(test.Labels, predicted)
		if err != nil {
			return nil, nil, err
		}

		preds := make(PredictionSet, len(predicted))
		for i := range predicted {
			preds[i] = Prediction{Row: rows[i], Actual: test.Labels[i], Predicted: predicted[i]}
		}
		return preds, &Metrics{Task: models.Regression, Regression: metrics}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported model type %T", model)
	}
}
