package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrSolve = errors.New("least squares solve failed")

// LinearRegression is an ordinary least squares fit with intercept. The
// system is solved through a thin SVD, which gives the minimum-norm solution
// when predictors are collinear.
type LinearRegression struct {
	BaseModel
	Coefficients []float64
	Intercept    float64
	Rank         int
	Rcond        float64
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{
		Rcond: 1e-12,
		BaseModel: BaseModel{
			Name:   "LinearRegression",
			Params: map[string]any{"fit_intercept": true},
		},
	}
}

func (lr *LinearRegression) Task() Task {
	return Regression
}

func (lr *LinearRegression) Fit(X [][]float64, y []float64) error {
	if err := ValidateTraining(X, len(y)); err != nil {
		return err
	}

	n, p := len(X), len(X[0])
	design := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return fmt.Errorf("%w: SVD did not converge", ErrSolve)
	}

	rank := svd.Rank(lr.Rcond)
	if rank == 0 {
		return fmt.Errorf("%w: design matrix has rank 0", ErrSolve)
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, target, rank)

	lr.Intercept = beta.AtVec(0)
	lr.Coefficients = make([]float64, p)
	for j := range lr.Coefficients {
		lr.Coefficients[j] = beta.AtVec(j + 1)
	}
	lr.Rank = rank

	return nil
}

func (lr *LinearRegression) Predict(X [][]float64) []float64 {
	if lr.Coefficients == nil {
		return nil
	}

	predictions := make([]float64, len(X))
	for i, row := range X {
		sum := lr.Intercept
		for j, v := range row {
			sum += lr.Coefficients[j] * v
		}
		predictions[i] = sum
	}
	return predictions
}
