package persistence

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fraudml/internal/evaluation"
)

// RunSummary is the metrics record written next to the predictions.
type RunSummary struct {
	RunID        string               `json:"run_id"`
	Input        string               `json:"input"`
	Target       string               `json:"target"`
	Algorithm    string               `json:"algorithm"`
	Parameters   map[string]any       `json:"parameters"`
	TrainRows    int                  `json:"train_rows"`
	TestRows     int                  `json:"test_rows"`
	Metrics      *evaluation.Metrics  `json:"metrics"`
	CrossVal     *evaluation.CVResult `json:"cross_validation,omitempty"`
	TrainingTime time.Duration        `json:"training_time_ns"`
	CreatedAt    time.Time            `json:"created_at"`
}

// WritePredictions writes actual,predicted rows in test partition order.
// The file only appears once it has been written completely.
func WritePredictions(path string, preds evaluation.PredictionSet) error {
	return writeAtomic(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"actual", "predicted"}); err != nil {
			return err
		}
		for _, p := range preds {
			record := []string{formatValue(p.Actual), formatValue(p.Predicted)}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// ReadPredictions loads a file written by WritePredictions.
func ReadPredictions(path string) (evaluation.PredictionSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "actual" || records[0][1] != "predicted" {
		return nil, fmt.Errorf("%s: expected actual,predicted header", path)
	}

	preds := make(evaluation.PredictionSet, 0, len(records)-1)
	for i, record := range records[1:] {
		actual, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		predicted, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		preds = append(preds, evaluation.Prediction{Row: i, Actual: actual, Predicted: predicted})
	}
	return preds, nil
}

func WriteSummary(path string, summary *RunSummary) error {
	return writeAtomic(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return os.Rename(tmp.Name(), path)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
