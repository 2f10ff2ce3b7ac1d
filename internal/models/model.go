package models

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyTrainingSet  = errors.New("empty training set")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

type Task string

const (
	Classification Task = "classification"
	Regression     Task = "regression"
)

type Model interface {
	GetName() string
	GetParams() map[string]any
	Task() Task
}

// Classifier predicts integer class ids.
type Classifier interface {
	Model
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	GetClasses() []int
}

// Regressor predicts continuous values.
type Regressor interface {
	Model
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []int
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

// ExtractClasses returns the distinct labels in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

// ValidateTraining checks a feature matrix against its label count.
func ValidateTraining(X [][]float64, nLabels int) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}

	if len(X) != nLabels {
		return fmt.Errorf("%w: %d feature rows vs %d labels", ErrDimensionMismatch, len(X), nLabels)
	}

	nFeatures := len(X[0])
	for i, sample := range X {
		if len(sample) != nFeatures {
			return fmt.Errorf("%w: sample %d has %d features, expected %d", ErrDimensionMismatch, i, len(sample), nFeatures)
		}
	}

	return nil
}
