package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultL2      = 1.0 // inverse of sklearn's C=1.0
	defaultMaxIter = 100
	defaultTol     = 1e-8
	scaleEps       = 1e-12
)

var errSingular = errors.New("singular hessian")

// Sample is one labelled training row.
type Sample struct {
	X []float64
	Y bool
}

// Model is an L2-regularised logistic regression fitted on standardised
// features. The intercept is not penalised.
type Model struct {
	weights []float64 // weights[0] is the intercept
	mean    []float64
	scale   []float64
}

// Fit trains a logistic regression with Newton-Raphson (IRLS). All samples
// must share the same dimension.
func Fit(samples []Sample) (*Model, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("classifier.Fit: no samples")
	}
	dim := len(samples[0].X)
	for i, s := range samples {
		if len(s.X) != dim {
			return nil, fmt.Errorf("classifier.Fit: sample %d has %d features, want %d", i, len(s.X), dim)
		}
	}

	m := &Model{mean: make([]float64, dim), scale: make([]float64, dim)}
	m.standardise(samples)

	z := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		z[i] = m.design(s.X)
		if s.Y {
			y[i] = 1
		}
	}

	p := dim + 1
	beta := make([]float64, p)
	for iter := 0; iter < defaultMaxIter; iter++ {
		grad := make([]float64, p)
		hess := make([][]float64, p)
		for j := range hess {
			hess[j] = make([]float64, p)
		}

		for i, zi := range z {
			mu := sigmoid(dot(beta, zi))
			w := mu * (1 - mu)
			for j := 0; j < p; j++ {
				grad[j] += (y[i] - mu) * zi[j]
				for k := 0; k < p; k++ {
					hess[j][k] += w * zi[j] * zi[k]
				}
			}
		}
		for j := 1; j < p; j++ {
			grad[j] -= defaultL2 * beta[j]
			hess[j][j] += defaultL2
		}

		step, err := solve(hess, grad)
		if err != nil {
			return nil, fmt.Errorf("classifier.Fit: iteration %d: %w", iter, err)
		}
		maxStep := 0.0
		for j := range beta {
			beta[j] += step[j]
			maxStep = math.Max(maxStep, math.Abs(step[j]))
		}
		if maxStep < defaultTol {
			break
		}
	}

	m.weights = beta
	return m, nil
}

// Probability returns P(filled | x).
func (m *Model) Probability(x []float64) float64 {
	return sigmoid(dot(m.weights, m.design(x)))
}

// Predict returns true when the positive class is more likely.
func (m *Model) Predict(x []float64) bool {
	return m.Probability(x) > 0.5
}

func (m *Model) standardise(samples []Sample) {
	col := make([]float64, len(samples))
	for j := range m.mean {
		for i, s := range samples {
			col[i] = s.X[j]
		}
		m.mean[j], m.scale[j] = stat.PopMeanStdDev(col, nil)
		if m.scale[j] < scaleEps {
			m.scale[j] = 1
		}
	}
}

// design returns [1, standardised x...].
func (m *Model) design(x []float64) []float64 {
	out := make([]float64, len(x)+1)
	out[0] = 1
	for j, v := range x {
		out[j+1] = (v - m.mean[j]) / m.scale[j]
	}
	return out
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// solve resolves a·x = b for the symmetric positive definite Newton system
// by Cholesky factorisation. a and b are not modified.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, a[i][j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errSingular
	}
	if cond := chol.Cond(); math.IsInf(cond, 1) || cond > 1/scaleEps {
		return nil, errSingular
	}

	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", errSingular, err)
	}
	return x.RawVector().Data, nil
}
