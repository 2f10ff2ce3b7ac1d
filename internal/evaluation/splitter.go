package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"fraudml/internal/data"
)

const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// FeatureMatrix holds the predictor columns of one partition. Rows are the
// row positions in the source table.
type FeatureMatrix struct {
	Names []string
	X     [][]float64
	Rows  []int
}

type Partition struct {
	Features FeatureMatrix
	Labels   []float64
}

func (p Partition) Len() int {
	return len(p.Labels)
}

// SplitDataset is the train/test pair produced by a splitter. It is not
// modified after construction.
type SplitDataset struct {
	Target string
	Train  Partition
	Test   Partition
}

// ScaleMask marks the feature columns that skip(name) reports as excluded
// from scaling.
func (d *SplitDataset) ScaleMask(skip func(name string) bool) []bool {
	mask := make([]bool, len(d.Train.Features.Names))
	for j, name := range d.Train.Features.Names {
		mask[j] = skip(name)
	}
	return mask
}

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
	shuffle    bool
}

func NewTrainTestSplitter(testSize float64, randomSeed int64, shuffle bool) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
		shuffle:    shuffle,
	}
}

// Split permutes the row indices with the seeded generator; the first
// n-round(testSize*n) go to train and the rest to test. It does not stratify.
func (tts *TrainTestSplitter) Split(t *data.Table, target string) (*SplitDataset, error) {
	n, err := tts.validate(t, target)
	if err != nil {
		return nil, err
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if tts.shuffle {
		rng := rand.New(rand.NewSource(tts.randomSeed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testCount := TestCount(n, tts.testSize)
	trainCount := n - testCount

	return build(t, target, indices[:trainCount], indices[trainCount:]), nil
}

// StratifiedSplit applies the test ratio inside every class of the target, in
// ascending class order, so class proportions carry over to both partitions.
func (tts *TrainTestSplitter) StratifiedSplit(t *data.Table, target string) (*SplitDataset, error) {
	n, err := tts.validate(t, target)
	if err != nil {
		return nil, err
	}

	labels := t.Column(target).Values
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		classIndices[labels[i]] = append(classIndices[labels[i]], i)
	}

	classes := make([]float64, 0, len(classIndices))
	for class := range classIndices {
		classes = append(classes, class)
	}
	sort.Float64s(classes)

	var trainIndices, testIndices []int

	rng := rand.New(rand.NewSource(tts.randomSeed))
	for _, class := range classes {
		indices := classIndices[class]
		if tts.shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		testCount := TestCount(len(indices), tts.testSize)
		trainCount := len(indices) - testCount

		trainIndices = append(trainIndices, indices[:trainCount]...)
		testIndices = append(testIndices, indices[trainCount:]...)
	}

	if tts.shuffle {
		rng.Shuffle(len(trainIndices), func(i, j int) {
			trainIndices[i], trainIndices[j] = trainIndices[j], trainIndices[i]
		})
		rng.Shuffle(len(testIndices), func(i, j int) {
			testIndices[i], testIndices[j] = testIndices[j], testIndices[i]
		})
	}

	return build(t, target, trainIndices, testIndices), nil
}

func (tts *TrainTestSplitter) validate(t *data.Table, target string) (int, error) {
	if tts.testSize <= 0 || tts.testSize >= 1 {
		return 0, fmt.Errorf("%w: test size must be between 0 and 1, got %v", data.ErrSchema, tts.testSize)
	}

	col := t.Column(target)
	if col == nil {
		return 0, fmt.Errorf("%w: %q", data.ErrTargetMissing, target)
	}

	if err := data.NewTableValidator().ValidateNumeric(t); err != nil {
		return 0, err
	}

	n := t.NumRows()
	if n == 0 {
		return 0, fmt.Errorf("cannot split: %w", data.ErrEmptyTable)
	}

	return n, nil
}

// TestCount is round(ratio*n), halves rounded away from zero.
func TestCount(n int, ratio float64) int {
	return int(math.Round(ratio * float64(n)))
}

// Split partitions t with the default, non-stratified splitter.
func Split(t *data.Table, target string, ratio float64, seed int64) (*SplitDataset, error) {
	return NewTrainTestSplitter(ratio, seed, true).Split(t, target)
}

func build(t *data.Table, target string, trainIndices, testIndices []int) *SplitDataset {
	targetIdx := t.Index(target)

	names := make([]string, 0, t.NumColumns()-1)
	for j, c := range t.Columns {
		if j != targetIdx {
			names = append(names, c.Name)
		}
	}

	return &SplitDataset{
		Target: target,
		Train:  partition(t, targetIdx, names, trainIndices),
		Test:   partition(t, targetIdx, names, testIndices),
	}
}

func partition(t *data.Table, targetIdx int, names []string, indices []int) Partition {
	X := make([][]float64, len(indices))
	y := make([]float64, len(indices))
	rows := make([]int, len(indices))

	for i, idx := range indices {
		X[i] = make([]float64, 0, len(names))
		for j, c := range t.Columns {
			if j == targetIdx {
				y[i] = c.Values[idx]
				continue
			}
			X[i] = append(X[i], c.Values[idx])
		}
		rows[i] = idx
	}

	return Partition{
		Features: FeatureMatrix{Names: append([]string(nil), names...), X: X, Rows: rows},
		Labels:   y,
	}
}
