package models

import (
	"fmt"
)

type ModelConfig struct {
	Algorithm   string
	NTrees      int
	MaxDepth    int
	MinSplit    int
	MaxFeatures int
	Seed        int64
	Workers     int
}

func CreateModel(config ModelConfig) (Model, error) {
	switch config.Algorithm {
	case "tree":
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		return NewDecisionTree(config.MaxDepth, config.MinSplit), nil

	case "forest":
		if config.NTrees <= 0 {
			config.NTrees = 100
		}
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		rf := NewRandomForest(config.NTrees, config.MaxDepth, config.MinSplit, config.Seed)
		rf.MaxFeatures = config.MaxFeatures
		if config.Workers > 0 {
			rf.Workers = config.Workers
		}
		return rf, nil

	case "linear":
		return NewLinearRegression(), nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", config.Algorithm)
	}
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm, Seed: 42, Workers: 1}

	switch algorithm {
	case "tree":
		config.MaxDepth = 10
		config.MinSplit = 2
	case "forest":
		config.NTrees = 100
		config.MaxDepth = 10
		config.MinSplit = 2
	}

	return config
}

// DefaultAlgorithm is the algorithm used for a task when none is configured.
func DefaultAlgorithm(task Task) string {
	if task == Regression {
		return "linear"
	}
	return "forest"
}

// Train creates the configured model and fits it. Classifiers receive the
// labels truncated to class ids.
func Train(config ModelConfig, X [][]float64, y []float64) (Model, error) {
	model, err := CreateModel(config)
	if err != nil {
		return nil, err
	}

	switch m := model.(type) {
	case Classifier:
		if err := m.Fit(X, AsClasses(y)); err != nil {
			return nil, err
		}
	case Regressor:
		if err := m.Fit(X, y); err != nil {
			return nil, err
		}
	}

	return model, nil
}

func AsClasses(y []float64) []int {
	classes := make([]int, len(y))
	for i, v := range y {
		classes[i] = int(v)
	}
	return classes
}
