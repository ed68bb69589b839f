package gam

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Point is one observation on the padded day-of-year axis.
type Point struct {
	Day  float64
	NDVI float64
}

// Model is a fitted seasonal smoother for one pixel-year. It is owned by the
// processing call that created it and never mutated after Fit returns.
type Model struct {
	basis     *Basis
	coef      []float64
	r         *mat.TriDense
	sigma     float64
	n         int
	converged bool
}

// Fit regresses NDVI on day-of-year with a B-spline basis of the given
// dimension, solved by QR as in ordinary least squares. A numerical failure
// (rank-deficient design, non-finite solution) yields a model whose
// Converged flag is false rather than an error; errors are reserved for
// structurally unusable inputs.
func Fit(points []Point, dim int) (*Model, error) {
	n := len(points)
	if n <= dim {
		return nil, fmt.Errorf("need more than %d points to fit a %d-dimensional basis, got %d", dim, dim, n)
	}

	lo, hi := points[0].Day, points[0].Day
	for _, p := range points {
		lo = math.Min(lo, p.Day)
		hi = math.Max(hi, p.Day)
	}
	// The basis span always covers the canonical evaluation grid so
	// prediction at days 1..365 never leaves the knot range.
	lo = math.Min(lo, 1)
	hi = math.Max(hi, 365)

	basis, err := NewBasis(dim, lo, hi)
	if err != nil {
		return nil, err
	}

	model := &Model{basis: basis, n: n}

	X := mat.NewDense(n, dim, nil)
	y := mat.NewDense(n, 1, nil)
	for i, p := range points {
		X.SetRow(i, basis.Eval(p.Day))
		y.Set(i, 0, p.NDVI)
	}

	var qr mat.QR
	qr.Factorize(X)

	coefs := mat.NewDense(dim, 1, nil)
	if err := qr.SolveTo(coefs, false, y); err != nil {
		return model, nil
	}

	model.coef = make([]float64, dim)
	for i := range model.coef {
		model.coef[i] = coefs.At(i, 0)
		if math.IsNaN(model.coef[i]) || math.IsInf(model.coef[i], 0) {
			return model, nil
		}
	}

	rss := 0.0
	for _, p := range points {
		resid := p.NDVI - model.Predict(p.Day)
		rss += resid * resid
	}
	model.sigma = math.Sqrt(rss / float64(n-dim))
	if math.IsNaN(model.sigma) || math.IsInf(model.sigma, 0) {
		return model, nil
	}

	// Keep the upper-triangular R factor: the coefficient covariance is
	// sigma^2 (R^T R)^-1, so posterior draws only need a triangular solve.
	var rFull mat.Dense
	qr.RTo(&rFull)
	model.r = mat.NewTriDense(dim, mat.Upper, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			model.r.SetTri(i, j, rFull.At(i, j))
		}
	}

	model.converged = true
	return model, nil
}

func (m *Model) Converged() bool { return m.converged }

func (m *Model) Dim() int { return m.basis.Dim() }

func (m *Model) Sigma() float64 { return m.sigma }

func (m *Model) Predict(day float64) float64 {
	row := m.basis.Eval(day)
	total := 0.0
	for i, v := range row {
		total += v * m.coef[i]
	}
	return total
}

func (m *Model) PredictDerivative(day float64) float64 {
	row := m.basis.EvalDeriv(day)
	total := 0.0
	for i, v := range row {
		total += v * m.coef[i]
	}
	return total
}

// simulateCoefficients draws one coefficient vector from the asymptotic
// posterior N(coef, sigma^2 (R^T R)^-1) by solving R w = z for a standard
// normal z.
func (m *Model) simulateCoefficients(rng *rand.Rand) ([]float64, error) {
	dim := m.basis.Dim()
	z := mat.NewVecDense(dim, nil)
	for i := 0; i < dim; i++ {
		z.SetVec(i, rng.NormFloat64())
	}

	var w mat.VecDense
	if err := w.SolveVec(m.r, z); err != nil {
		return nil, fmt.Errorf("posterior draw failed: %w", err)
	}

	draw := make([]float64, dim)
	for i := range draw {
		draw[i] = m.coef[i] + m.sigma*w.AtVec(i)
	}
	return draw, nil
}
