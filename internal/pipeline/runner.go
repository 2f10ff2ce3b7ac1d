package pipeline

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"fraudml/internal/data"
	"fraudml/internal/evaluation"
	"fraudml/internal/jobs"
	"fraudml/internal/models"
	"fraudml/internal/persistence"
	"fraudml/internal/preprocessing"
	"fraudml/internal/report"
)

// maxAutoClasses bounds the distinct integer values a numeric target may have
// to be treated as class labels when the task is auto.
const maxAutoClasses = 10

type Runner struct {
	Config Config
	logger zerolog.Logger
	jobs   *jobs.Manager
}

// Result is everything one successful run produced.
type Result struct {
	RunID       string
	Input       string
	Target      string
	Task        models.Task
	ClassNames  []string
	Algorithm   string
	TrainRows   int
	TestRows    int
	Model       models.Model
	Predictions evaluation.PredictionSet
	Metrics     *evaluation.Metrics
	CrossVal    *evaluation.CVResult
	Output      string
	Summary     string
	Artifacts   []string
}

// Outcome is the per-input entry of a batch.
type Outcome struct {
	Input  string
	Result *Result
	Err    error
}

func NewRunner(config Config, logger zerolog.Logger) *Runner {
	return &Runner{
		Config: config,
		logger: logger,
		jobs:   jobs.NewManager(),
	}
}

func (r *Runner) Jobs() *jobs.Manager {
	return r.jobs
}

// RunBatch runs every input end to end, one after the other. A failing input
// is recorded and logged; the remaining inputs still run.
func (r *Runner) RunBatch(inputs []Input) []Outcome {
	outcomes := make([]Outcome, 0, len(inputs))
	for _, in := range r.Config.assignOutputs(inputs) {
		result, err := r.Run(in)
		var se *StageError
		if errors.As(err, &se) {
			r.logger.Error().
				Str("input", in.Path).
				Str("class", string(se.Class)).
				Str("stage", string(se.Stage)).
				Err(se.Err).
				Msg("input skipped")
		}
		outcomes = append(outcomes, Outcome{Input: in.Path, Result: result, Err: err})
	}
	return outcomes
}

// run carries the state of one input through the stages.
type run struct {
	runner *Runner
	job    *jobs.Job
	logger zerolog.Logger
	stage  Stage
}

func (rn *run) advance(next Stage, rows int) {
	if rn.stage.Next() != next {
		panic(fmt.Sprintf("illegal stage transition %s -> %s", rn.stage, next))
	}
	rn.stage = next
	rn.job.SetStage(string(next), rows)
	rn.logger.Info().Str("stage", string(next)).Int("rows", rows).Msg("stage transition")
}

// Run executes the full pipeline for one input. On failure it returns a
// *StageError and writes nothing to the result sink.
func (r *Runner) Run(in Input) (result *Result, err error) {
	cfg := r.Config.resolve(in)
	job := r.jobs.CreateJob(in.Path, "pipeline run")
	job.SetStatus(jobs.JobRunning)

	rn := &run{
		runner: r,
		job:    job,
		logger: r.logger.With().Str("run_id", job.ID).Str("input", in.Path).Logger(),
		stage:  Pending,
	}

	defer func() {
		if p := recover(); p != nil {
			err = &StageError{Class: FitError, Stage: rn.stage.Next(), Input: in.Path, Err: fmt.Errorf("panic: %v", p)}
			result = nil
		}
		if err != nil {
			err = stageError(in.Path, rn.stage.Next(), err)
			rn.logger.Info().Str("stage", string(Failed)).Str("failed_at", string(rn.stage.Next())).Msg("stage transition")
			job.SetStage(string(Failed), 0)
			job.SetError(err)
			return
		}
		job.SetResult(result)
		job.SetStatus(jobs.JobCompleted)
	}()

	return rn.execute(cfg)
}

func (rn *run) execute(cfg resolved) (*Result, error) {
	config := rn.runner.Config
	validator := data.NewTableValidator()

	raw, err := data.Load(cfg.Input.Path)
	if err != nil {
		return nil, err
	}
	rn.advance(Loaded, raw.NumRows())

	cleaned := preprocessing.Clean(raw)
	if err := validator.ValidateTable(cleaned); err != nil {
		return nil, fmt.Errorf("after cleaning: %w", err)
	}
	if err := validator.RequireColumn(cleaned, cfg.Target); err != nil {
		return nil, err
	}
	rn.advance(Cleaned, cleaned.NumRows())

	task, err := detectTask(cleaned.Column(cfg.Target), cfg.Task)
	if err != nil {
		return nil, err
	}

	encoded, encoder, err := preprocessing.Encode(cleaned)
	if err != nil {
		return nil, err
	}
	rn.advance(Encoded, encoded.NumRows())

	splitter := evaluation.NewTrainTestSplitter(config.TestRatio, config.Seed, true)
	var dataset *evaluation.SplitDataset
	if config.Stratify && task == models.Classification {
		dataset, err = splitter.StratifiedSplit(encoded, cfg.Target)
	} else {
		dataset, err = splitter.Split(encoded, cfg.Target)
	}
	if err != nil {
		return nil, err
	}
	rn.advance(Split, dataset.Train.Len()+dataset.Test.Len())
	rn.logger.Debug().Int("train", dataset.Train.Len()).Int("test", dataset.Test.Len()).Msg("partition sizes")

	mask := dataset.ScaleMask(encoder.IsEncoded)
	train, test, err := scalePartitions(dataset, config.Scale, mask)
	if err != nil {
		return nil, err
	}
	rn.advance(Scaled, train.Len()+test.Len())

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = models.DefaultAlgorithm(task)
	}
	modelConfig := config.modelConfig(algorithm)
	probe, err := models.CreateModel(modelConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrSchema, err)
	}
	if probe.Task() != task {
		return nil, fmt.Errorf("%w: algorithm %s is a %s model, target %q needs %s", data.ErrSchema, algorithm, probe.Task(), cfg.Target, task)
	}

	var cvResult *evaluation.CVResult
	if config.CVFolds > 1 {
		cv := evaluation.NewCrossValidator(config.CVFolds, config.Seed)
		cv.ScaleType = config.Scale
		cv.ScaleSkip = mask
		cv.Workers = config.Forest.Workers
		cvResult, err = cv.Run(dataset.Train, modelConfig)
		if err != nil {
			return nil, fmt.Errorf("cross-validation: %w", err)
		}
		rn.logger.Info().Str("metric", cvResult.Metric).Float64("mean", cvResult.Mean).Float64("std", cvResult.Std).Msg("cross-validation")
	}

	start := time.Now()
	model, err := models.Train(modelConfig, train.Features.X, train.Labels)
	if err != nil {
		return nil, err
	}
	trainingTime := time.Since(start)
	rn.advance(Trained, train.Len())

	preds, metrics, err := evaluation.Evaluate(model, test)
	if err != nil {
		return nil, err
	}
	rn.advance(Evaluated, len(preds))

	result := &Result{
		RunID:       rn.job.ID,
		Input:       cfg.Input.Path,
		Target:      cfg.Target,
		Task:        task,
		ClassNames:  encoder.Classes(cfg.Target),
		Algorithm:   algorithm,
		TrainRows:   train.Len(),
		TestRows:    test.Len(),
		Model:       model,
		Predictions: preds,
		Metrics:     metrics,
		CrossVal:    cvResult,
		Output:      cfg.Output,
		Summary:     siblingPath(cfg.Output, "_metrics.json"),
	}

	if err := persistence.WritePredictions(result.Output, preds); err != nil {
		return nil, err
	}
	summary := &persistence.RunSummary{
		RunID:        result.RunID,
		Input:        result.Input,
		Target:       result.Target,
		Algorithm:    algorithm,
		Parameters:   model.GetParams(),
		TrainRows:    result.TrainRows,
		TestRows:     result.TestRows,
		Metrics:      metrics,
		CrossVal:     cvResult,
		TrainingTime: trainingTime,
		CreatedAt:    time.Now(),
	}
	if err := persistence.WriteSummary(result.Summary, summary); err != nil {
		os.Remove(result.Output)
		return nil, err
	}
	rn.advance(Persisted, len(preds))

	if config.Plots {
		result.Artifacts = rn.render(result)
	}

	return result, nil
}

// render writes the figures for a finished run. Rendering problems are
// logged and never fail the run.
func (rn *run) render(result *Result) []string {
	var artifacts []string
	title := filepath.Base(result.Input)

	scatter := siblingPath(result.Output, "_predictions.png")
	if rn.figure("scatter plot failed", func() error {
		return report.PredictionScatter(result.Predictions, "Actual vs Predicted - "+title, scatter)
	}) {
		artifacts = append(artifacts, scatter)
	}

	if result.Metrics.Classification == nil {
		return artifacts
	}

	dist := siblingPath(result.Output, "_distribution.png")
	if rn.figure("class distribution plot failed", func() error {
		return report.ClassDistribution(result.Predictions, "Class Distribution - "+title, dist)
	}) {
		artifacts = append(artifacts, dist)
	}

	heatmap := siblingPath(result.Output, "_confusion.html")
	if rn.figure("confusion heatmap failed", func() error {
		return report.WriteConfusionHeatmap(heatmap, result.Metrics.Classification, "Confusion Matrix - "+title, result.ClassLabels())
	}) {
		artifacts = append(artifacts, heatmap)
	}

	return artifacts
}

// figure draws one figure and reports whether it was written. Errors and
// panics from the plotting libraries become warnings.
func (rn *run) figure(msg string, draw func() error) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			rn.warn(fmt.Errorf("panic: %v", p), msg)
			ok = false
		}
	}()

	if err := draw(); err != nil {
		rn.warn(err, msg)
		return false
	}
	return true
}

func (rn *run) warn(err error, msg string) {
	rn.logger.Warn().Err(err).Msg(msg)
	rn.job.AddLog(fmt.Sprintf("%s: %v", msg, err))
}

// scalePartitions fits the scaler on the training partition only and applies
// the stored statistics to both partitions.
func scalePartitions(dataset *evaluation.SplitDataset, mode string, skip []bool) (evaluation.Partition, evaluation.Partition, error) {
	train, test := dataset.Train, dataset.Test
	if train.Len() == 0 {
		return train, test, fmt.Errorf("%w: split left no training rows", models.ErrEmptyTrainingSet)
	}

	scaler := preprocessing.NewScaler(mode)
	XTrain, err := scaler.FitTransform(train.Features.X, skip)
	if err != nil {
		return train, test, err
	}
	XTest, err := scaler.Transform(test.Features.X)
	if err != nil {
		return train, test, err
	}

	train.Features.X = XTrain
	test.Features.X = XTest
	return train, test, nil
}

// detectTask resolves auto: categorical targets and integer targets with few
// distinct values (at most half the rows) are classification.
func detectTask(target *data.Column, task string) (models.Task, error) {
	switch models.Task(task) {
	case models.Classification:
		if target.Kind == data.Numeric {
			for _, v := range target.Values {
				if v != math.Trunc(v) {
					return "", fmt.Errorf("%w: class target %q has non-integer value %v", data.ErrSchema, target.Name, v)
				}
			}
		}
		return models.Classification, nil
	case models.Regression:
		if target.Kind == data.Categorical {
			return "", fmt.Errorf("%w: regression target %q is categorical", data.ErrSchema, target.Name)
		}
		return models.Regression, nil
	}

	if target.Kind == data.Categorical {
		return models.Classification, nil
	}

	distinct := make(map[float64]bool)
	for _, v := range target.Values {
		if v != math.Trunc(v) {
			return models.Regression, nil
		}
		distinct[v] = true
	}

	if len(distinct) <= maxAutoClasses && 2*len(distinct) <= len(target.Values) {
		return models.Classification, nil
	}
	return models.Regression, nil
}

// ClassLabels maps encoded class codes back to the target's original labels.
// It is nil for numeric targets.
func (r *Result) ClassLabels() map[int]string {
	if r.ClassNames == nil {
		return nil
	}
	names := make(map[int]string, len(r.ClassNames))
	for i, name := range r.ClassNames {
		names[i] = name
	}
	return names
}
