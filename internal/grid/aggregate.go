package grid

import (
	"sort"
	"time"

	"github.com/drought-guardian/hls-drought-monitor/internal/hls"
	"github.com/drought-guardian/hls-drought-monitor/internal/series"
	"github.com/drought-guardian/hls-drought-monitor/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// AggregateScene averages one scene's valid NDVI pixels into the grid cells
// they fall in, producing the long-form observation rows for that date.
func AggregateScene(g *Grid, scene *hls.Scene, date time.Time) []series.Observation {
	sums := make(map[[2]int]float64)
	counts := make(map[[2]int]int)

	for y := 0; y < scene.Height; y++ {
		for x := 0; x < scene.Width; x++ {
			value, ok := scene.At(x, y)
			if !ok {
				continue
			}
			lat, lon := scene.PixelLatLon(x, y)
			cell, ok := g.CellAt(lat, lon)
			if !ok {
				continue
			}
			key := [2]int{cell.Row, cell.Col}
			sums[key] += value
			counts[key]++
		}
	}

	observations := make([]series.Observation, 0, len(sums))
	for key, sum := range sums {
		cell := g.cells[key]
		observations = append(observations, series.Observation{
			PixelID: cell.ID,
			Year:    date.Year(),
			Date:    series.NewDate(date),
			Yday:    date.YearDay(),
			NDVI:    sum / float64(counts[key]),
		})
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].PixelID < observations[j].PixelID
	})
	return observations
}

// BuildTimeseries aggregates every scene in date order into one long-form
// observation table.
func BuildTimeseries(g *Grid, scenes map[time.Time]*hls.Scene) []series.Observation {
	sortedDates := utils.GetSortedDateKeys(scenes, true)
	progressBar := progressbar.Default(int64(len(sortedDates)), "Aggregating scenes onto grid")

	var observations []series.Observation
	for _, date := range sortedDates {
		observations = append(observations, AggregateScene(g, scenes[date], date)...)
		progressBar.Add(1)
	}
	progressBar.Finish()

	return observations
}
