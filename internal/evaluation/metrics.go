package evaluation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type ClassificationMetrics struct {
	Accuracy          float64              `json:"accuracy"`
	BalancedAccuracy  float64              `json:"balanced_accuracy"`
	MacroPrecision    float64              `json:"macro_precision"`
	MacroRecall       float64              `json:"macro_recall"`
	MacroF1           float64              `json:"macro_f1"`
	WeightedPrecision float64              `json:"weighted_precision"`
	WeightedRecall    float64              `json:"weighted_recall"`
	WeightedF1        float64              `json:"weighted_f1"`
	PerClassMetrics   map[int]ClassMetrics `json:"per_class_metrics"`
	Classes           []int                `json:"classes"`
	ConfusionMatrix   [][]int              `json:"confusion_matrix"`
	ClassSupport      map[int]int          `json:"class_support"`
	NumSamples        int                  `json:"num_samples"`
	NumClasses        int                  `json:"num_classes"`
}

type ClassMetrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1Score     float64 `json:"f1_score"`
	Specificity float64 `json:"specificity"`
	Support     int     `json:"support"`
}

type RegressionMetrics struct {
	MSE        float64 `json:"mse"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	R2         float64 `json:"r2"`
	NumSamples int     `json:"num_samples"`
}

// UnionClasses returns the sorted set of classes seen in either slice, so the
// confusion matrix accounts for every prediction.
func UnionClasses(yTrue, yPred []int) []int {
	set := make(map[int]bool)
	for _, c := range yTrue {
		set[c] = true
	}
	for _, c := range yPred {
		set[c] = true
	}

	classes := make([]int, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// CalculateMetrics builds the confusion matrix (rows are actual classes,
// columns predicted) and derives the per-class and averaged scores from it.
func CalculateMetrics(yTrue, yPred []int, classes []int) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("actual and predicted lengths differ: %d vs %d", len(yTrue), len(yPred))
	}

	if classes == nil {
		classes = UnionClasses(yTrue, yPred)
	}

	numSamples := len(yTrue)
	numClasses := len(classes)

	confusionMatrix, err := buildConfusionMatrix(yTrue, yPred, classes)
	if err != nil {
		return nil, err
	}

	classSupport := make(map[int]int)
	for _, class := range yTrue {
		classSupport[class]++
	}

	perClassMetrics := make(map[int]ClassMetrics)
	var macroPrec, macroRec, macroF1 float64
	var weightedPrec, weightedRec, weightedF1 float64
	totalSupport := 0
	correct := 0

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		correct += tp
		fp, fn, tn := 0, 0, 0

		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
		}

		for j := range classes {
			for k := range classes {
				if j != i && k != i {
					tn += confusionMatrix[j][k]
				}
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)
		specificity := safeDivide(float64(tn), float64(tn+fp))

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision:   precision,
			Recall:      recall,
			F1Score:     f1,
			Specificity: specificity,
			Support:     support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
		totalSupport += support
	}

	return &ClassificationMetrics{
		Accuracy:          safeDivide(float64(correct), float64(numSamples)),
		BalancedAccuracy:  balancedAccuracy(perClassMetrics, classSupport),
		MacroPrecision:    safeDivide(macroPrec, float64(numClasses)),
		MacroRecall:       safeDivide(macroRec, float64(numClasses)),
		MacroF1:           safeDivide(macroF1, float64(numClasses)),
		WeightedPrecision: safeDivide(weightedPrec, float64(totalSupport)),
		WeightedRecall:    safeDivide(weightedRec, float64(totalSupport)),
		WeightedF1:        safeDivide(weightedF1, float64(totalSupport)),
		PerClassMetrics:   perClassMetrics,
		Classes:           classes,
		ConfusionMatrix:   confusionMatrix,
		ClassSupport:      classSupport,
		NumSamples:        numSamples,
		NumClasses:        numClasses,
	}, nil
}

// balancedAccuracy averages recall over the classes that occur in yTrue.
func balancedAccuracy(perClass map[int]ClassMetrics, support map[int]int) float64 {
	sum := 0.0
	for class := range support {
		sum += perClass[class].Recall
	}
	return safeDivide(sum, float64(len(support)))
}

func buildConfusionMatrix(yTrue, yPred []int, classes []int) ([][]int, error) {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[int]int)
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if !trueOk || !predOk {
			return nil, fmt.Errorf("sample %d: class pair (%d, %d) outside class list %v", i, yTrue[i], yPred[i], classes)
		}
		matrix[trueIdx][predIdx]++
	}

	return matrix, nil
}

// Total is the sum of every confusion matrix cell.
func (m *ClassificationMetrics) Total() int {
	total := 0
	for _, row := range m.ConfusionMatrix {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// MatrixAccuracy recomputes accuracy from the confusion matrix diagonal.
func (m *ClassificationMetrics) MatrixAccuracy() float64 {
	diagonal := 0
	for i := range m.ConfusionMatrix {
		diagonal += m.ConfusionMatrix[i][i]
	}
	return safeDivide(float64(diagonal), float64(m.Total()))
}

// CalculateRegressionMetrics scores continuous predictions. R² of a constant
// target is 1 for an exact fit and 0 otherwise.
func CalculateRegressionMetrics(yTrue, yPred []float64) (*RegressionMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("actual and predicted lengths differ: %d vs %d", len(yTrue), len(yPred))
	}

	n := float64(len(yTrue))
	var sse, sae float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		sse += d * d
		sae += math.Abs(d)
	}

	mse := safeDivide(sse, n)
	metrics := &RegressionMetrics{
		MSE:        mse,
		RMSE:       math.Sqrt(mse),
		MAE:        safeDivide(sae, n),
		NumSamples: len(yTrue),
	}

	if len(yTrue) == 0 {
		return metrics, nil
	}

	if len(yTrue) < 2 || stat.Variance(yTrue, nil) == 0 {
		if sse == 0 {
			metrics.R2 = 1
		}
		return metrics, nil
	}

	metrics.R2 = stat.RSquaredFrom(yPred, yTrue, nil)
	return metrics, nil
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics) FormatMetrics() string {
	result := fmt.Sprintf("Accuracy: %.4f\n", m.Accuracy)
	result += fmt.Sprintf("Balanced Accuracy: %.4f\n", m.BalancedAccuracy)
	result += fmt.Sprintf("Macro Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.MacroPrecision, m.MacroRecall, m.MacroF1)
	result += fmt.Sprintf("Weighted Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.WeightedPrecision, m.WeightedRecall, m.WeightedF1)
	return result
}

func (m *RegressionMetrics) FormatMetrics() string {
	return fmt.Sprintf("MSE: %.6g\nRMSE: %.6g\nMAE: %.6g\nR2: %.4f\n", m.MSE, m.RMSE, m.MAE, m.R2)
}
