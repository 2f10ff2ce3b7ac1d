package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fraudml/internal/evaluation"
	"fraudml/internal/models"
	"fraudml/internal/preprocessing"
)

const (
	TaskAuto = "auto"
)

type ForestConfig struct {
	NTrees          int `yaml:"n_trees"`
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
	MaxFeatures     int `yaml:"max_features"`
	Workers         int `yaml:"workers"`
}

// Input is one file of a batch. Empty fields fall back to the run config.
type Input struct {
	Path      string `yaml:"path"`
	Target    string `yaml:"target"`
	Task      string `yaml:"task"`
	Algorithm string `yaml:"algorithm"`
	Output    string `yaml:"output"`
}

type Config struct {
	Target    string       `yaml:"target"`
	Task      string       `yaml:"task"`
	Algorithm string       `yaml:"algorithm"`
	TestRatio float64      `yaml:"test_ratio"`
	Seed      int64        `yaml:"seed"`
	Stratify  bool         `yaml:"stratify"`
	Scale     string       `yaml:"scale"`
	CVFolds   int          `yaml:"cv_folds"`
	Forest    ForestConfig `yaml:"forest"`
	OutputDir string       `yaml:"output_dir"`
	LogFile   string       `yaml:"log_file"`
	LogLevel  string       `yaml:"log_level"`
	Plots     bool         `yaml:"plots"`
	Inputs    []Input      `yaml:"inputs"`
}

func DefaultConfig() Config {
	return Config{
		Task:      TaskAuto,
		TestRatio: evaluation.DefaultTestSize,
		Seed:      evaluation.DefaultSeed,
		Scale:     preprocessing.ScaleStandard,
		Forest: ForestConfig{
			NTrees:          100,
			MaxDepth:        10,
			MinSamplesSplit: 2,
			Workers:         1,
		},
		OutputDir: filepath.Join("data", "analyzed"),
		LogFile:   filepath.Join("data", "outputs", "pipeline.log"),
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML file over the defaults; keys missing from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test_ratio must be between 0 and 1, got %v", c.TestRatio)
	}
	if c.Forest.NTrees <= 0 {
		return fmt.Errorf("forest.n_trees must be positive, got %d", c.Forest.NTrees)
	}
	if c.CVFolds == 1 || c.CVFolds < 0 {
		return fmt.Errorf("cv_folds must be 0 (off) or at least 2, got %d", c.CVFolds)
	}

	switch c.Scale {
	case preprocessing.ScaleStandard, preprocessing.ScaleMinMax, preprocessing.ScaleNone:
	default:
		return fmt.Errorf("unknown scale mode %q", c.Scale)
	}

	if err := validateTask(c.Task); err != nil {
		return err
	}

	for i, in := range c.Inputs {
		if in.Path == "" {
			return fmt.Errorf("inputs[%d]: path is required", i)
		}
		if in.Target == "" && c.Target == "" {
			return fmt.Errorf("inputs[%d]: no target column configured", i)
		}
		if err := validateTask(in.Task); err != nil && in.Task != "" {
			return fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}

	return nil
}

func validateTask(task string) error {
	switch models.Task(task) {
	case TaskAuto, models.Classification, models.Regression:
		return nil
	}
	return fmt.Errorf("unknown task %q", task)
}

// resolved is the effective settings of one input.
type resolved struct {
	Input     Input
	Target    string
	Task      string
	Algorithm string
	Output    string
}

func (c Config) resolve(in Input) resolved {
	r := resolved{
		Input:     in,
		Target:    preprocessing.NormalizeName(firstNonEmpty(in.Target, c.Target)),
		Task:      firstNonEmpty(in.Task, c.Task, TaskAuto),
		Algorithm: firstNonEmpty(in.Algorithm, c.Algorithm),
		Output:    in.Output,
	}

	if r.Output == "" {
		r.Output = filepath.Join(c.OutputDir, filepath.Base(in.Path))
	}
	if filepath.Ext(r.Output) == "" {
		r.Output += ".csv"
	}

	return r
}

// assignOutputs fills in the default output of every input without one, adding
// a _2, _3 suffix when the default is already taken in the batch.
func (c Config) assignOutputs(inputs []Input) []Input {
	taken := make(map[string]bool)
	for _, in := range inputs {
		if in.Output != "" {
			taken[filepath.Clean(c.resolve(in).Output)] = true
		}
	}

	assigned := make([]Input, len(inputs))
	for i, in := range inputs {
		assigned[i] = in
		if in.Output != "" {
			continue
		}
		base := c.resolve(in).Output
		output := base
		for n := 2; taken[filepath.Clean(output)]; n++ {
			output = siblingPath(base, fmt.Sprintf("_%d", n)) + filepath.Ext(base)
		}
		taken[filepath.Clean(output)] = true
		assigned[i].Output = output
	}
	return assigned
}

// modelConfig builds the model settings for an algorithm.
func (c Config) modelConfig(algorithm string) models.ModelConfig {
	return models.ModelConfig{
		Algorithm:   algorithm,
		NTrees:      c.Forest.NTrees,
		MaxDepth:    c.Forest.MaxDepth,
		MinSplit:    c.Forest.MinSamplesSplit,
		MaxFeatures: c.Forest.MaxFeatures,
		Seed:        c.Seed,
		Workers:     c.Forest.Workers,
	}
}

// siblingPath derives an artifact path next to the predictions file.
func siblingPath(output, suffix string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + suffix
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
