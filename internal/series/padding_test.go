package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeYear(pixelID string, year int, everyDays int) []Observation {
	var observations []Observation
	for yday := 1; yday <= 365; yday += everyDays {
		observations = append(observations, Observation{
			PixelID: pixelID,
			Year:    year,
			Date:    NewDate(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, yday-1)),
			Yday:    yday,
			NDVI:    0.4,
		})
	}
	return observations
}

func TestPadBorrowsFromBothNeighbors(t *testing.T) {
	var pixelSeries []Observation
	for _, year := range []int{2013, 2014, 2015} {
		pixelSeries = append(pixelSeries, makeYear("P1", year, 8)...)
	}

	window := Pad(pixelSeries, 2014, 31)
	require.NotEmpty(t, window.Observations)
	assert.Equal(t, "P1", window.PixelID)
	assert.Equal(t, 2014, window.Year)

	trailing, leading, target := 0, 0, 0
	for _, obs := range window.Observations {
		switch {
		case obs.Yday < 1:
			trailing++
		case obs.Yday > 365:
			leading++
		default:
			target++
		}
	}

	assert.Positive(t, trailing, "expected borrowed December rows from 2013")
	assert.Positive(t, leading, "expected borrowed January rows from 2015")
	assert.Equal(t, target, window.TargetCount())
	assert.Equal(t, 46, target)
}

func TestPadAtSeriesBoundaries(t *testing.T) {
	var pixelSeries []Observation
	for _, year := range []int{2013, 2014, 2015} {
		pixelSeries = append(pixelSeries, makeYear("P1", year, 8)...)
	}

	tests := []struct {
		name         string
		targetYear   int
		wantTrailing bool
		wantLeading  bool
	}{
		{name: "first year has no prior-year borrow", targetYear: 2013, wantTrailing: false, wantLeading: true},
		{name: "last year has no next-year borrow", targetYear: 2015, wantTrailing: true, wantLeading: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := Pad(pixelSeries, tt.targetYear, 31)

			trailing, leading := 0, 0
			for _, obs := range window.Observations {
				if obs.Yday < 1 {
					trailing++
				}
				if obs.Yday > 365 {
					leading++
				}
			}
			assert.Equal(t, tt.wantTrailing, trailing > 0)
			assert.Equal(t, tt.wantLeading, leading > 0)
		})
	}
}

func TestPadRelabelsStrictlyOutsideTargetRange(t *testing.T) {
	var pixelSeries []Observation
	for _, year := range []int{2013, 2014, 2015} {
		pixelSeries = append(pixelSeries, makeYear("P1", year, 4)...)
	}

	window := Pad(pixelSeries, 2014, 31)
	for _, obs := range window.Observations {
		if obs.Year == 2014 {
			assert.GreaterOrEqual(t, obs.Yday, 1)
			assert.LessOrEqual(t, obs.Yday, 365)
		} else {
			assert.True(t, obs.Yday < 1 || obs.Yday > 365,
				"borrowed row from %d has in-range yday %d", obs.Year, obs.Yday)
		}
	}

	// The borrow window only reaches paddingDays into the neighbors.
	for _, obs := range window.Observations {
		assert.GreaterOrEqual(t, obs.Yday, 365-31-366+1)
		assert.LessOrEqual(t, obs.Yday, 365+31)
	}
}

func TestPadKeepsLeapDayOutsideObservationGate(t *testing.T) {
	pixelSeries := makeYear("P1", 2016, 8)
	pixelSeries = append(pixelSeries, Observation{
		PixelID: "P1",
		Year:    2016,
		Date:    NewDate(time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)),
		Yday:    366,
		NDVI:    0.35,
	})

	window := Pad(pixelSeries, 2016, 31)

	kept := false
	for _, obs := range window.Observations {
		if obs.Yday == 366 {
			kept = true
		}
	}
	assert.True(t, kept, "leap-year day 366 row should stay in the window")
	assert.Equal(t, len(window.Observations)-1, window.TargetCount())
}

func TestPadMissingAdjacentYearContributesNothing(t *testing.T) {
	pixelSeries := makeYear("P1", 2014, 8)

	window := Pad(pixelSeries, 2014, 31)
	assert.Equal(t, window.TargetCount(), len(window.Observations))

	empty := Pad(pixelSeries, 2019, 31)
	assert.Empty(t, empty.Observations)
	assert.Zero(t, empty.TargetCount())
}
