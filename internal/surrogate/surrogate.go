// Package surrogate holds the reference trainer: a ridge least-squares fit
// used by the local service so the training and prediction contract is
// runnable without the production backend. It is a stand-in, not a
// reproduction of the production algorithm.
package surrogate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoRows            = errors.New("surrogate: no training rows")
	ErrDimensionMismatch = errors.New("surrogate: input and output row counts differ")
	ErrSingularSystem    = errors.New("surrogate: normal equations are singular")
)

// Params configure one fit.
type Params struct {
	// Alpha is the ridge penalty added to the normal equations. The bias
	// term is not penalized.
	Alpha float64
	// TrainRatio in (0, 1] is the fraction of rows used for fitting; the
	// remainder becomes a holdout split scored by RMSE.
	TrainRatio float64
	// Seed drives the deterministic shuffle behind the split.
	Seed int64
}

// Model is a fitted surrogate: weights for mean prediction and a constant
// per-output residual standard deviation for the uncertainty report.
type Model struct {
	// Weights is (d+1) x m with the bias row first, for d input features
	// and m outputs.
	Weights [][]float64
	// ResidualStd holds one standard deviation per output, estimated from
	// training residuals.
	ResidualStd []float64
	// HoldoutRMSE holds one RMSE per output; nil when no holdout split
	// existed.
	HoldoutRMSE []float64
	TrainRows   int
	HoldoutRows int
}

// Train fits W = (XᵀX + αI)⁻¹XᵀY with a bias column prepended to X.
// x is n rows by d features, y is n rows by m outputs.
func Train(x, y [][]float64, p Params) (*Model, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrNoRows
	}
	if len(y) != n {
		return nil, ErrDimensionMismatch
	}
	if p.TrainRatio <= 0 || p.TrainRatio > 1 {
		return nil, fmt.Errorf("surrogate: train ratio %v out of (0, 1]", p.TrainRatio)
	}

	trainIdx, holdIdx := split(n, p.TrainRatio, p.Seed)

	d := len(x[0])
	m := len(y[0])

	X := designMatrix(x, trainIdx, d)
	Y := pick(y, trainIdx, m)

	// Normal equations with ridge penalty on everything but the bias.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for j := 1; j <= d; j++ {
		xtx.Set(j, j, xtx.At(j, j)+p.Alpha)
	}
	var xty mat.Dense
	xty.Mul(X.T(), Y)

	var w mat.Dense
	if err := w.Solve(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	model := &Model{
		Weights:     denseToSlices(&w),
		TrainRows:   len(trainIdx),
		HoldoutRows: len(holdIdx),
	}

	model.ResidualStd = residualStd(X, Y, &w, m)

	if len(holdIdx) > 0 {
		Xh := designMatrix(x, holdIdx, d)
		Yh := pick(y, holdIdx, m)
		model.HoldoutRMSE = rmse(Xh, Yh, &w, m)
	}

	return model, nil
}

// Predict returns the mean table for the given input rows plus the matching
// std table (the per-output residual std repeated on every row).
func (m *Model) Predict(x [][]float64) (mean, std [][]float64, err error) {
	if len(m.Weights) == 0 {
		return nil, nil, errors.New("surrogate: model has no weights")
	}
	d := len(m.Weights) - 1
	outs := len(m.Weights[0])

	mean = make([][]float64, len(x))
	std = make([][]float64, len(x))
	for i, row := range x {
		if len(row) != d {
			return nil, nil, fmt.Errorf("surrogate: row %d has %d features, model wants %d", i, len(row), d)
		}
		pred := make([]float64, outs)
		for k := 0; k < outs; k++ {
			v := m.Weights[0][k]
			for j, xv := range row {
				v += m.Weights[j+1][k] * xv
			}
			pred[k] = v
		}
		mean[i] = pred
		std[i] = append([]float64(nil), m.ResidualStd...)
	}
	return mean, std, nil
}

// split shuffles row indices with the seeded source and cuts off the
// training share. At least one row always trains; ratio 1 keeps no holdout.
func split(n int, ratio float64, seed int64) (train, holdout []int) {
	if ratio >= 1 {
		train = make([]int, n)
		for i := range train {
			train[i] = i
		}
		return train, nil
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(math.Round(float64(n) * ratio))
	if cut < 1 {
		cut = 1
	}
	if cut > n {
		cut = n
	}
	return perm[:cut], perm[cut:]
}

// designMatrix assembles the selected rows with a leading 1 bias column.
func designMatrix(x [][]float64, idx []int, d int) *mat.Dense {
	X := mat.NewDense(len(idx), d+1, nil)
	for i, r := range idx {
		X.Set(i, 0, 1)
		for j, v := range x[r] {
			X.Set(i, j+1, v)
		}
	}
	return X
}

func pick(y [][]float64, idx []int, m int) *mat.Dense {
	Y := mat.NewDense(len(idx), m, nil)
	for i, r := range idx {
		for k, v := range y[r] {
			Y.Set(i, k, v)
		}
	}
	return Y
}

// residualStd computes the sample standard deviation of Y - XW per output.
func residualStd(X, Y *mat.Dense, w *mat.Dense, m int) []float64 {
	n, _ := X.Dims()
	var pred mat.Dense
	pred.Mul(X, w)

	out := make([]float64, m)
	if n < 2 {
		return out
	}
	for k := 0; k < m; k++ {
		var sum, sumSq float64
		for i := 0; i < n; i++ {
			r := Y.At(i, k) - pred.At(i, k)
			sum += r
			sumSq += r * r
		}
		variance := (sumSq - sum*sum/float64(n)) / float64(n-1)
		if variance > 0 {
			out[k] = math.Sqrt(variance)
		}
	}
	return out
}

func rmse(X, Y *mat.Dense, w *mat.Dense, m int) []float64 {
	n, _ := X.Dims()
	var pred mat.Dense
	pred.Mul(X, w)

	out := make([]float64, m)
	for k := 0; k < m; k++ {
		var sumSq float64
		for i := 0; i < n; i++ {
			r := Y.At(i, k) - pred.At(i, k)
			sumSq += r * r
		}
		out[k] = math.Sqrt(sumSq / float64(n))
	}
	return out
}

func denseToSlices(d *mat.Dense) [][]float64 {
	rows, cols := d.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = d.At(i, j)
		}
		out[i] = row
	}
	return out
}
