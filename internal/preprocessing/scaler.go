package preprocessing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrNotFitted = errors.New("scaler must be fitted before transform")

const (
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
	ScaleNone     = "none"
)

// Scaler stores per-column statistics fitted on a training matrix. Columns
// with Skip[j] set pass through unchanged. Statistics are accumulated in
// decimal so they do not depend on row order.
type Scaler struct {
	ScaleType   string
	IsFitted    bool
	Skip        []bool
	FeatureMin  []float64
	FeatureMax  []float64
	FeatureMean []float64
	FeatureStd  []float64
}

func NewScaler(scaleType string) *Scaler {
	if scaleType == "" {
		scaleType = ScaleStandard
	}
	return &Scaler{ScaleType: scaleType}
}

// Fit computes the statistics from X only. skip may be nil.
func (s *Scaler) Fit(X [][]float64, skip []bool) error {
	if len(X) == 0 {
		return fmt.Errorf("empty dataset")
	}

	nFeatures := len(X[0])
	for i, row := range X {
		if len(row) != nFeatures {
			return fmt.Errorf("inconsistent feature count at sample %d: expected %d, got %d", i, nFeatures, len(row))
		}
	}
	if skip != nil && len(skip) != nFeatures {
		return fmt.Errorf("skip mask has %d entries, expected %d", len(skip), nFeatures)
	}

	s.Skip = make([]bool, nFeatures)
	copy(s.Skip, skip)
	s.FeatureMin = make([]float64, nFeatures)
	s.FeatureMax = make([]float64, nFeatures)
	s.FeatureMean = make([]float64, nFeatures)
	s.FeatureStd = make([]float64, nFeatures)

	switch s.ScaleType {
	case ScaleMinMax:
		s.fitMinMax(X)
	case ScaleStandard:
		s.fitStandard(X)
	case ScaleNone:
	default:
		return fmt.Errorf("unknown scale type: %s", s.ScaleType)
	}

	s.IsFitted = true
	return nil
}

// Transform returns a scaled copy of X using the fitted statistics.
func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.IsFitted {
		return nil, ErrNotFitted
	}

	result := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(s.Skip) {
			return nil, fmt.Errorf("sample %d has %d features, scaler was fitted on %d", i, len(X[i]), len(s.Skip))
		}
		result[i] = make([]float64, len(X[i]))
		for j, v := range X[i] {
			if s.Skip[j] {
				result[i][j] = v
				continue
			}
			switch s.ScaleType {
			case ScaleMinMax:
				result[i][j] = s.transformMinMax(v, j)
			case ScaleStandard:
				result[i][j] = s.transformStandard(v, j)
			default:
				result[i][j] = v
			}
		}
	}

	return result, nil
}

func (s *Scaler) FitTransform(X [][]float64, skip []bool) ([][]float64, error) {
	if err := s.Fit(X, skip); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *Scaler) fitMinMax(X [][]float64) {
	for j := range s.FeatureMin {
		s.FeatureMin[j] = X[0][j]
		s.FeatureMax[j] = X[0][j]

		for i := 1; i < len(X); i++ {
			s.FeatureMin[j] = math.Min(s.FeatureMin[j], X[i][j])
			s.FeatureMax[j] = math.Max(s.FeatureMax[j], X[i][j])
		}
	}
}

// fitStandard uses the population standard deviation.
func (s *Scaler) fitStandard(X [][]float64) {
	nSamples := decimal.NewFromInt(int64(len(X)))

	for j := range s.FeatureMean {
		sum := decimal.Zero
		for i := range X {
			sum = sum.Add(decimal.NewFromFloat(X[i][j]))
		}
		mean := sum.Div(nSamples)

		variance := decimal.Zero
		for i := range X {
			diff := decimal.NewFromFloat(X[i][j]).Sub(mean)
			variance = variance.Add(diff.Mul(diff))
		}
		variance = variance.Div(nSamples)

		s.FeatureMean[j] = mean.InexactFloat64()
		s.FeatureStd[j] = math.Sqrt(variance.InexactFloat64())
	}
}

func (s *Scaler) transformMinMax(value float64, featureIndex int) float64 {
	span := s.FeatureMax[featureIndex] - s.FeatureMin[featureIndex]
	if span == 0 {
		return 0
	}
	return (value - s.FeatureMin[featureIndex]) / span
}

// transformStandard maps zero-variance columns to 0.
func (s *Scaler) transformStandard(value float64, featureIndex int) float64 {
	std := s.FeatureStd[featureIndex]
	if std == 0 {
		return 0
	}
	return (value - s.FeatureMean[featureIndex]) / std
}
