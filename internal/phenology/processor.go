package phenology

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/drought-guardian/hls-drought-monitor/internal/gam"
	"github.com/drought-guardian/hls-drought-monitor/internal/properties"
	"github.com/drought-guardian/hls-drought-monitor/internal/series"
)

type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipInsufficientData
	SkipFitFailure
	SkipUnexpected
)

func (r SkipReason) String() string {
	switch r {
	case SkipInsufficientData:
		return "insufficient data"
	case SkipFitFailure:
		return "fit did not converge"
	case SkipUnexpected:
		return "unexpected failure"
	default:
		return "none"
	}
}

// Outcome is the result of one pixel-year. When Skip is not SkipNone the
// record slice is empty and the year contributed no output rows.
type Outcome struct {
	PixelID string
	Year    int
	Records []DerivativeRecord
	Skip    SkipReason
	Err     error
}

// pixelYearSeed derives a deterministic RNG seed so reruns and
// checkpoint-resumed runs produce identical posterior draws.
func pixelYearSeed(pixelID string, year int) int64 {
	h := fnv.New64a()
	h.Write([]byte(fmt.Sprintf("%s:%d", pixelID, year)))
	return int64(h.Sum64())
}

// ProcessPixelYear runs the full chain for one pixel and target year:
// padding, minimum-observation gate, boundary-year basis reduction, smoother
// fit, convergence check and posterior derivative estimation. Every failure
// is non-fatal and reported through the outcome's skip reason.
func ProcessPixelYear(pixelSeries []series.Observation, pixelID string, targetYear int, cfg properties.Config) (outcome Outcome) {
	outcome = Outcome{PixelID: pixelID, Year: targetYear}
	defer func() {
		if r := recover(); r != nil {
			outcome.Records = nil
			outcome.Skip = SkipUnexpected
			outcome.Err = fmt.Errorf("panic while processing pixel %s year %d: %v", pixelID, targetYear, r)
		}
	}()

	window := series.Pad(pixelSeries, targetYear, cfg.EdgePaddingDays)
	if window.TargetCount() < cfg.MinObservations {
		outcome.Skip = SkipInsufficientData
		return outcome
	}

	points := make([]gam.Point, 0, len(window.Observations))
	for _, obs := range window.Observations {
		points = append(points, gam.Point{Day: float64(obs.Yday), NDVI: obs.NDVI})
	}

	model, err := gam.Fit(points, cfg.BasisDim(targetYear))
	if err != nil {
		outcome.Skip = SkipFitFailure
		outcome.Err = err
		return outcome
	}
	if !model.Converged() {
		outcome.Skip = SkipFitFailure
		outcome.Err = fmt.Errorf("smoother did not converge for pixel %s year %d", pixelID, targetYear)
		return outcome
	}

	rng := rand.New(rand.NewSource(pixelYearSeed(pixelID, targetYear)))
	bands, err := gam.EstimateDerivatives(model, gam.EvaluationDays(), cfg.PosteriorSims, cfg.AlphaLevel, rng)
	if err != nil {
		outcome.Skip = SkipFitFailure
		outcome.Err = err
		return outcome
	}

	records := make([]DerivativeRecord, len(bands))
	for i, band := range bands {
		sig := ""
		if band.Significant {
			sig = "*"
		}
		records[i] = DerivativeRecord{
			PixelID:   pixelID,
			Year:      targetYear,
			Yday:      band.Day,
			DerivMean: band.Mean,
			DerivLwr:  band.Lower,
			DerivUpr:  band.Upper,
			Sig:       sig,
		}
	}

	outcome.Records = records
	return outcome
}

// PixelResult accumulates one pixel's sweep over all configured years.
type PixelResult struct {
	PixelID             string
	Records             []DerivativeRecord
	ProcessedYears      int
	SkippedInsufficient int
	SkippedFitFailure   int
	SkippedUnexpected   int
	Errors              []string
}

// ProcessPixel sweeps every configured target year for one pixel. The input
// slice holds exactly that pixel's observations.
func ProcessPixel(pixelSeries []series.Observation, pixelID string, cfg properties.Config) PixelResult {
	result := PixelResult{PixelID: pixelID}

	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		outcome := ProcessPixelYear(pixelSeries, pixelID, year, cfg)
		switch outcome.Skip {
		case SkipNone:
			result.Records = append(result.Records, outcome.Records...)
			result.ProcessedYears++
		case SkipInsufficientData:
			result.SkippedInsufficient++
		case SkipFitFailure:
			result.SkippedFitFailure++
		case SkipUnexpected:
			result.SkippedUnexpected++
		}
		if outcome.Err != nil {
			result.Errors = append(result.Errors, outcome.Err.Error())
		}
	}

	return result
}
