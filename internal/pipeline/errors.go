package pipeline

import (
	"errors"
	"fmt"

	"fraudml/internal/data"
	"fraudml/internal/evaluation"
	"fraudml/internal/models"
)

type ErrorClass string

const (
	LoadError    ErrorClass = "LoadError"
	SchemaError  ErrorClass = "SchemaError"
	FitError     ErrorClass = "FitError"
	PersistError ErrorClass = "PersistError"
)

// StageError is the single classified error a failed run reports.
type StageError struct {
	Class ErrorClass
	Stage Stage
	Input string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s during %s of %s: %v", e.Class, e.Stage, e.Input, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// classify maps an error to its class, falling back to the class of the
// stage being entered when err is not one of the known sentinels.
func classify(err error, stage Stage) ErrorClass {
	switch {
	case errors.Is(err, data.ErrNotFound), errors.Is(err, data.ErrParse):
		return LoadError
	case errors.Is(err, data.ErrTargetMissing), errors.Is(err, data.ErrEmptyTable), errors.Is(err, data.ErrSchema):
		return SchemaError
	case errors.Is(err, models.ErrEmptyTrainingSet), errors.Is(err, models.ErrDimensionMismatch),
		errors.Is(err, models.ErrSolve), errors.Is(err, evaluation.ErrEmptyTestSet), errors.Is(err, evaluation.ErrNotFitted):
		return FitError
	}

	switch stage {
	case Loaded:
		return LoadError
	case Cleaned, Encoded, Split:
		return SchemaError
	case Persisted:
		return PersistError
	default:
		return FitError
	}
}

func stageError(input string, stage Stage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return &StageError{Class: classify(err, stage), Stage: stage, Input: input, Err: err}
}
