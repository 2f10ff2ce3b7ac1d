package models

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// RandomForest trains NTrees decision trees on bootstrap samples, each node
// drawing MaxFeatures candidate features. Tree i is seeded with Seed+i, so the
// fitted forest does not depend on Workers.
type RandomForest struct {
	BaseModel
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Seed            int64
	Workers         int
	Trees           []*DecisionTree
}

func NewRandomForest(nTrees, maxDepth, minSamplesSplit int, seed int64) *RandomForest {
	if nTrees <= 0 {
		nTrees = 100
	}

	return &RandomForest{
		NTrees:          nTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		Seed:            seed,
		Workers:         1,
		BaseModel: BaseModel{
			Name: "RandomForest",
			Params: map[string]any{
				"n_trees":           nTrees,
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
				"seed":              seed,
			},
		},
	}
}

func (rf *RandomForest) Task() Task {
	return Classification
}

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if err := ValidateTraining(X, len(y)); err != nil {
		return err
	}

	rf.Classes = ExtractClasses(y)

	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(len(X[0]))))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	rf.Params["max_features"] = maxFeatures

	rf.Trees = make([]*DecisionTree, rf.NTrees)

	if rf.Workers > 1 {
		return rf.trainParallel(X, y, maxFeatures)
	}

	return rf.trainSequential(X, y, maxFeatures)
}

func (rf *RandomForest) trainParallel(X [][]float64, y []int, maxFeatures int) error {
	var wg sync.WaitGroup
	errors := make([]error, rf.NTrees)

	workers := rf.Workers
	if workers > rf.NTrees {
		workers = rf.NTrees
	}

	jobs := make(chan int, rf.NTrees)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rf.Trees[i], errors[i] = rf.trainSingleTree(X, y, i, maxFeatures)
			}
		}()
	}

	for i := 0; i < rf.NTrees; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errors {
		if err != nil {
			return fmt.Errorf("tree %d training failed: %w", i, err)
		}
	}

	return nil
}

func (rf *RandomForest) trainSequential(X [][]float64, y []int, maxFeatures int) error {
	for i := 0; i < rf.NTrees; i++ {
		tree, err := rf.trainSingleTree(X, y, i, maxFeatures)
		if err != nil {
			return fmt.Errorf("tree %d training failed: %w", i, err)
		}
		rf.Trees[i] = tree
	}
	return nil
}

func (rf *RandomForest) trainSingleTree(X [][]float64, y []int, i int, maxFeatures int) (*DecisionTree, error) {
	r := rand.New(rand.NewSource(rf.Seed + int64(i)))

	n := len(X)
	XBoot := make([][]float64, n)
	yBoot := make([]int, n)

	for k := 0; k < n; k++ {
		idx := r.Intn(n)
		XBoot[k] = X[idx]
		yBoot[k] = y[idx]
	}

	tree := NewDecisionTree(rf.MaxDepth, rf.MinSamplesSplit).WithFeatureSampling(maxFeatures, r)
	err := tree.Fit(XBoot, yBoot)

	return tree, err
}

// Predict takes the majority vote of the trees; ties go to the smallest class.
func (rf *RandomForest) Predict(X [][]float64) []int {
	if len(rf.Trees) == 0 {
		return nil
	}

	votes := make([]map[int]int, len(X))
	for i := range votes {
		votes[i] = make(map[int]int)
	}

	for _, tree := range rf.Trees {
		for i, p := range tree.Predict(X) {
			votes[i][p]++
		}
	}

	predictions := make([]int, len(X))
	for i := range X {
		best, bestVotes := rf.Classes[0], -1
		for _, class := range rf.Classes {
			if votes[i][class] > bestVotes {
				best, bestVotes = class, votes[i][class]
			}
		}
		predictions[i] = best
	}

	return predictions
}

// PredictProba returns the fraction of trees voting for each class, in
// GetClasses order.
func (rf *RandomForest) PredictProba(X [][]float64) [][]float64 {
	index := make(map[int]int, len(rf.Classes))
	for k, class := range rf.Classes {
		index[class] = k
	}

	proba := make([][]float64, len(X))
	for i := range proba {
		proba[i] = make([]float64, len(rf.Classes))
	}

	for _, tree := range rf.Trees {
		for i, p := range tree.Predict(X) {
			proba[i][index[p]]++
		}
	}

	for i := range proba {
		for k := range proba[i] {
			proba[i][k] /= float64(len(rf.Trees))
		}
	}

	return proba
}

func (rf *RandomForest) GetClasses() []int {
	return rf.Classes
}
