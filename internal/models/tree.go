package models

import (
	"math/rand"
	"sort"
)

type TreeNode struct {
	IsLeaf           bool
	Class            int
	Feature          int
	Threshold        float64
	Left             *TreeNode
	Right            *TreeNode
	Samples          int
	Impurity         float64
	ImpurityDecrease float64
}

// DecisionTree is a CART classifier with Gini impurity. Samples with
// x[Feature] <= Threshold go left. When MaxFeatures is set, each node only
// considers a random subset of that many features drawn from rng.
type DecisionTree struct {
	BaseModel
	Root                *TreeNode
	MaxDepth            int
	MinSamplesSplit     int
	MaxFeatures         int
	MinImpurityDecrease float64

	rng        *rand.Rand
	classIndex map[int]int
}

func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	if minSamplesSplit < 2 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		BaseModel: BaseModel{
			Name: "DecisionTree",
			Params: map[string]any{
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

// WithFeatureSampling enables per-node feature subsets of size maxFeatures.
func (dt *DecisionTree) WithFeatureSampling(maxFeatures int, rng *rand.Rand) *DecisionTree {
	dt.MaxFeatures = maxFeatures
	dt.rng = rng
	dt.Params["max_features"] = maxFeatures
	return dt
}

func (dt *DecisionTree) Task() Task {
	return Classification
}

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := ValidateTraining(X, len(y)); err != nil {
		return err
	}

	dt.Classes = ExtractClasses(y)
	dt.classIndex = make(map[int]int, len(dt.Classes))
	for i, class := range dt.Classes {
		dt.classIndex[class] = i
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	dt.Root = dt.buildTree(X, y, indices, 0)
	return nil
}

func (dt *DecisionTree) buildTree(X [][]float64, y []int, indices []int, depth int) *TreeNode {
	counts := dt.countClasses(y, indices)
	node := &TreeNode{
		Samples:  len(indices),
		Impurity: gini(counts, len(indices)),
		Class:    dt.majority(counts),
	}

	if depth >= dt.MaxDepth || len(indices) < dt.MinSamplesSplit || node.Impurity == 0 {
		node.IsLeaf = true
		return node
	}

	feature, threshold, decrease, ok := dt.findBestSplit(X, y, indices, counts, node.Impurity)
	if !ok || decrease <= dt.MinImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	node.ImpurityDecrease = decrease
	node.Left = dt.buildTree(X, y, left, depth+1)
	node.Right = dt.buildTree(X, y, right, depth+1)

	return node
}

// findBestSplit sorts the node samples on each candidate feature and sweeps
// the boundaries between distinct values, tracking class counts on the left.
func (dt *DecisionTree) findBestSplit(X [][]float64, y []int, indices []int, parentCounts []int, parentImpurity float64) (int, float64, float64, bool) {
	bestFeature, bestThreshold, bestDecrease := 0, 0.0, 0.0
	found := false

	n := len(indices)
	sorted := make([]int, n)
	leftCounts := make([]int, len(dt.Classes))
	rightCounts := make([]int, len(dt.Classes))

	for _, feature := range dt.candidateFeatures(len(X[0])) {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		for k := range leftCounts {
			leftCounts[k] = 0
		}
		copy(rightCounts, parentCounts)

		for i := 0; i < n-1; i++ {
			c := dt.classIndex[y[sorted[i]]]
			leftCounts[c]++
			rightCounts[c]--

			current := X[sorted[i]][feature]
			next := X[sorted[i+1]][feature]
			if current == next {
				continue
			}

			nLeft, nRight := i+1, n-i-1
			weighted := (float64(nLeft)*gini(leftCounts, nLeft) + float64(nRight)*gini(rightCounts, nRight)) / float64(n)
			decrease := parentImpurity - weighted

			if decrease > bestDecrease {
				bestFeature = feature
				bestThreshold = current + (next-current)/2
				bestDecrease = decrease
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease, found
}

// candidateFeatures draws MaxFeatures distinct features with a partial
// Fisher-Yates shuffle, or returns every feature when sampling is off.
func (dt *DecisionTree) candidateFeatures(nFeatures int) []int {
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	if dt.rng == nil || dt.MaxFeatures <= 0 || dt.MaxFeatures >= nFeatures {
		return features
	}

	for i := 0; i < dt.MaxFeatures; i++ {
		j := i + dt.rng.Intn(nFeatures-i)
		features[i], features[j] = features[j], features[i]
	}

	return features[:dt.MaxFeatures]
}

func (dt *DecisionTree) Predict(X [][]float64) []int {
	if dt.Root == nil {
		return nil
	}

	predictions := make([]int, len(X))
	for i, sample := range X {
		predictions[i] = dt.predictSample(sample)
	}

	return predictions
}

func (dt *DecisionTree) predictSample(sample []float64) int {
	node := dt.Root
	for !node.IsLeaf {
		if sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Class
}

func (dt *DecisionTree) GetClasses() []int {
	return dt.Classes
}

// Depth returns the depth of the fitted tree; a single leaf has depth 0.
func (dt *DecisionTree) Depth() int {
	return nodeDepth(dt.Root)
}

func nodeDepth(node *TreeNode) int {
	if node == nil || node.IsLeaf {
		return 0
	}
	return 1 + max(nodeDepth(node.Left), nodeDepth(node.Right))
}

func (dt *DecisionTree) countClasses(y []int, indices []int) []int {
	counts := make([]int, len(dt.Classes))
	for _, idx := range indices {
		counts[dt.classIndex[y[idx]]]++
	}
	return counts
}

// majority picks the most frequent class; ties go to the smallest class id.
func (dt *DecisionTree) majority(counts []int) int {
	best := 0
	for k, count := range counts {
		if count > counts[best] {
			best = k
		}
	}
	return dt.Classes[best]
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}

	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(n)
		impurity -= p * p
	}

	return impurity
}
