package gam

import "fmt"

const splineDegree = 3

// Basis is a clamped cubic B-spline basis over a fixed day-of-year span.
// It is non-periodic on purpose: continuity across the year boundary comes
// from the padded observations, not from a cyclic basis.
type Basis struct {
	knots []float64
	dim   int
	lo    float64
	hi    float64
}

// NewBasis builds a basis of dim functions with uniformly spaced interior
// knots on [lo, hi]. dim must be at least splineDegree+1.
func NewBasis(dim int, lo, hi float64) (*Basis, error) {
	if dim < splineDegree+1 {
		return nil, fmt.Errorf("basis dimension must be at least %d, got %d", splineDegree+1, dim)
	}
	if hi <= lo {
		return nil, fmt.Errorf("invalid basis span [%f, %f]", lo, hi)
	}

	knots := make([]float64, dim+splineDegree+1)
	step := (hi - lo) / float64(dim-splineDegree)
	for i := range knots {
		switch {
		case i <= splineDegree:
			knots[i] = lo
		case i >= dim:
			knots[i] = hi
		default:
			knots[i] = lo + float64(i-splineDegree)*step
		}
	}

	return &Basis{knots: knots, dim: dim, lo: lo, hi: hi}, nil
}

func (b *Basis) Dim() int { return b.dim }

// clamp keeps evaluation inside the knot span; the right endpoint is nudged
// inward so the half-open Cox-de Boor intervals still pick up the last span.
func (b *Basis) clamp(x float64) float64 {
	eps := (b.hi - b.lo) * 1e-9
	if x < b.lo {
		return b.lo
	}
	if x >= b.hi {
		return b.hi - eps
	}
	return x
}

func (b *Basis) value(i, p int, x float64) float64 {
	if p == 0 {
		if b.knots[i] <= x && x < b.knots[i+1] {
			return 1
		}
		return 0
	}

	var left, right float64
	if d := b.knots[i+p] - b.knots[i]; d > 0 {
		left = (x - b.knots[i]) / d * b.value(i, p-1, x)
	}
	if d := b.knots[i+p+1] - b.knots[i+1]; d > 0 {
		right = (b.knots[i+p+1] - x) / d * b.value(i+1, p-1, x)
	}
	return left + right
}

// Eval returns the dim basis function values at x.
func (b *Basis) Eval(x float64) []float64 {
	x = b.clamp(x)
	row := make([]float64, b.dim)
	for i := range row {
		row[i] = b.value(i, splineDegree, x)
	}
	return row
}

// EvalDeriv returns the first derivatives of the basis functions at x.
func (b *Basis) EvalDeriv(x float64) []float64 {
	x = b.clamp(x)
	row := make([]float64, b.dim)
	p := splineDegree
	for i := range row {
		var left, right float64
		if d := b.knots[i+p] - b.knots[i]; d > 0 {
			left = b.value(i, p-1, x) / d
		}
		if d := b.knots[i+p+1] - b.knots[i+1]; d > 0 {
			right = b.value(i+1, p-1, x) / d
		}
		row[i] = float64(p) * (left - right)
	}
	return row
}
