package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"fraudml/internal/models"
	"fraudml/internal/preprocessing"
)

// CrossValidator runs k-fold validation inside a training partition. Every
// fold fits its own scaler and model on the fold's training rows.
type CrossValidator struct {
	NFolds     int
	Shuffle    bool
	RandomSeed int64
	Workers    int
	ScaleType  string
	ScaleSkip  []bool
}

type CVResult struct {
	Metric string    `json:"metric"`
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

func NewCrossValidator(nFolds int, seed int64) *CrossValidator {
	return &CrossValidator{
		NFolds:     nFolds,
		Shuffle:    true,
		RandomSeed: seed,
		Workers:    1,
		ScaleType:  preprocessing.ScaleStandard,
	}
}

// Run scores config on every fold: accuracy for classifiers, R² for
// regressors.
func (cv *CrossValidator) Run(p Partition, config models.ModelConfig) (*CVResult, error) {
	folds, err := cv.KFoldSplit(p.Len())
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	errors := make([]error, len(folds))
	metrics := make([]string, len(folds))

	workers := cv.Workers
	if workers > len(folds) {
		workers = len(folds)
	}

	if workers <= 1 {
		for i, fold := range folds {
			scores[i], metrics[i], errors[i] = cv.evaluateFold(p, config, fold)
		}
	} else {
		jobs := make(chan int, len(folds))
		var wg sync.WaitGroup

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					scores[i], metrics[i], errors[i] = cv.evaluateFold(p, config, folds[i])
				}
			}()
		}

		for i := range folds {
			jobs <- i
		}
		close(jobs)

		wg.Wait()
	}

	for i, err := range errors {
		if err != nil {
			return nil, fmt.Errorf("fold %d failed: %w", i, err)
		}
	}

	mean, std := cv.calculateStats(scores)
	return &CVResult{Metric: metrics[0], Scores: scores, Mean: mean, Std: std}, nil
}

func (cv *CrossValidator) evaluateFold(p Partition, config models.ModelConfig, testIndices []int) (float64, string, error) {
	testSet := make(map[int]bool, len(testIndices))
	for _, idx := range testIndices {
		testSet[idx] = true
	}

	trainIndices := make([]int, 0, p.Len()-len(testIndices))
	for i := 0; i < p.Len(); i++ {
		if !testSet[i] {
			trainIndices = append(trainIndices, i)
		}
	}

	train := subset(p, trainIndices)
	test := subset(p, testIndices)

	scaler := preprocessing.NewScaler(cv.ScaleType)
	XTrain, err := scaler.FitTransform(train.Features.X, cv.ScaleSkip)
	if err != nil {
		return 0, "", err
	}
	XTest, err := scaler.Transform(test.Features.X)
	if err != nil {
		return 0, "", err
	}
	train.Features.X = XTrain
	test.Features.X = XTest

	model, err := models.Train(config, train.Features.X, train.Labels)
	if err != nil {
		return 0, "", err
	}

	_, metrics, err := Evaluate(model, test)
	if err != nil {
		return 0, "", err
	}

	if metrics.Regression != nil {
		return metrics.Regression.R2, "r2", nil
	}
	return metrics.Classification.Accuracy, "accuracy", nil
}

func subset(p Partition, indices []int) Partition {
	out := Partition{
		Features: FeatureMatrix{
			Names: p.Features.Names,
			X:     make([][]float64, len(indices)),
			Rows:  make([]int, len(indices)),
		},
		Labels: make([]float64, len(indices)),
	}
	for i, idx := range indices {
		out.Features.X[i] = p.Features.X[idx]
		out.Labels[i] = p.Labels[idx]
		if idx < len(p.Features.Rows) {
			out.Features.Rows[i] = p.Features.Rows[idx]
		}
	}
	return out
}

// calculateStats returns the mean and sample standard deviation.
func (cv *CrossValidator) calculateStats(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(len(scores))

	if len(scores) > 1 {
		variance := 0.0
		for _, s := range scores {
			diff := s - mean
			variance += diff * diff
		}
		variance /= float64(len(scores) - 1)
		std = math.Sqrt(variance)
	}

	return mean, std
}

// KFoldSplit returns the test indices of each fold; the last fold takes the
// remainder.
func (cv *CrossValidator) KFoldSplit(n int) ([][]int, error) {
	if cv.NFolds < 2 || cv.NFolds > n {
		return nil, fmt.Errorf("invalid number of folds: %d (must be between 2 and %d)", cv.NFolds, n)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if cv.Shuffle {
		rng := rand.New(rand.NewSource(cv.RandomSeed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([][]int, cv.NFolds)
	foldSize := n / cv.NFolds

	for i := 0; i < cv.NFolds; i++ {
		start := i * foldSize
		end := start + foldSize
		if i == cv.NFolds-1 {
			end = n
		}

		folds[i] = make([]int, end-start)
		copy(folds[i], indices[start:end])
	}

	return folds, nil
}
