package gam

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DerivativeBand is the posterior summary of the fitted curve's first
// derivative at one evaluation day.
type DerivativeBand struct {
	Day         int
	Mean        float64
	Lower       float64
	Upper       float64
	Significant bool
}

// EstimateDerivatives draws sims coefficient vectors from the fitted model's
// posterior, evaluates the derivative at every requested day for each draw,
// and summarizes each day with the empirical mean and the
// [alpha/2, 1-alpha/2] quantiles. A day is significant when its interval
// excludes zero.
func EstimateDerivatives(model *Model, days []int, sims int, alpha float64, rng *rand.Rand) ([]DerivativeBand, error) {
	if model == nil || !model.Converged() {
		return nil, fmt.Errorf("cannot estimate derivatives from an unconverged model")
	}
	if sims < 2 {
		return nil, fmt.Errorf("need at least 2 posterior simulations, got %d", sims)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("alpha must be in (0,1), got %f", alpha)
	}

	derivRows := make([][]float64, len(days))
	for i, day := range days {
		derivRows[i] = model.basis.EvalDeriv(float64(day))
	}

	// draws[i] holds the simulated derivative values for days[i].
	draws := make([][]float64, len(days))
	for i := range draws {
		draws[i] = make([]float64, sims)
	}

	for s := 0; s < sims; s++ {
		coef, err := model.simulateCoefficients(rng)
		if err != nil {
			return nil, err
		}
		for i, row := range derivRows {
			total := 0.0
			for j, v := range row {
				total += v * coef[j]
			}
			draws[i][s] = total
		}
	}

	bands := make([]DerivativeBand, len(days))
	for i, day := range days {
		mean := stat.Mean(draws[i], nil)
		sort.Float64s(draws[i])
		lower := stat.Quantile(alpha/2, stat.Empirical, draws[i], nil)
		upper := stat.Quantile(1-alpha/2, stat.Empirical, draws[i], nil)
		bands[i] = DerivativeBand{
			Day:         day,
			Mean:        mean,
			Lower:       lower,
			Upper:       upper,
			Significant: lower > 0 || upper < 0,
		}
	}

	return bands, nil
}

// EvaluationDays returns the canonical 1..365 evaluation grid.
func EvaluationDays() []int {
	days := make([]int, 365)
	for i := range days {
		days[i] = i + 1
	}
	return days
}
