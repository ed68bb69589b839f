package phenology

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/drought-guardian/hls-drought-monitor/internal/properties"
	"github.com/drought-guardian/hls-drought-monitor/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runnerConfig(t *testing.T) (properties.Config, []series.Observation) {
	t.Helper()

	cfg := properties.DefaultConfig()
	cfg.StartYear = 2013
	cfg.EndYear = 2015
	cfg.GamKnots = 10
	cfg.PosteriorSims = 120
	cfg.Cores = 2
	cfg.CheckpointInterval = 1

	dir := t.TempDir()
	cfg.TimeseriesPath = filepath.Join(dir, "timeseries.csv")
	cfg.OutputPath = filepath.Join(dir, "derivatives.csv")

	var observations []series.Observation
	for i, pixelID := range []string{"P1", "P2", "P3", "P4"} {
		observations = append(observations,
			sinusoidSeries(pixelID, []int{2013, 2014, 2015}, 8, 0.02, int64(100+i))...)
	}
	require.NoError(t, series.SaveObservations(observations, cfg.TimeseriesPath))

	return cfg, observations
}

func sortRecords(records []DerivativeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].PixelID != records[j].PixelID {
			return records[i].PixelID < records[j].PixelID
		}
		if records[i].Year != records[j].Year {
			return records[i].Year < records[j].Year
		}
		return records[i].Yday < records[j].Yday
	})
}

func TestRunMissingInputIsFatal(t *testing.T) {
	cfg := properties.DefaultConfig()
	cfg.TimeseriesPath = filepath.Join(t.TempDir(), "missing.csv")
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.csv")

	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := properties.DefaultConfig()
	cfg.StartYear = 2020
	cfg.EndYear = 2013

	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestRunProducesCompleteOutput(t *testing.T) {
	cfg, _ := runnerConfig(t)

	stats, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalPixels)
	assert.Equal(t, 4, stats.ProcessedPixels)
	assert.Zero(t, stats.ResumedPixels)
	assert.Equal(t, 12, stats.ProcessedYears)
	assert.Equal(t, 4*3*365, stats.RecordCount)
	assert.Positive(t, stats.SignificantFraction)

	records, err := LoadRecords(cfg.OutputPath)
	require.NoError(t, err)
	assert.Len(t, records, 4*3*365)

	// Checkpoint must be cleaned up after a successful run.
	_, ok := NewCheckpointStore(cfg.OutputPath).Load()
	assert.False(t, ok)
}

func TestRunResumeMatchesUninterruptedRun(t *testing.T) {
	cfg, observations := runnerConfig(t)

	_, err := Run(cfg)
	require.NoError(t, err)
	full, err := LoadRecords(cfg.OutputPath)
	require.NoError(t, err)

	// Second run against the same data in a new location, with a
	// checkpoint pre-seeded as if the process died after finishing P1
	// and P2.
	resumeDir := t.TempDir()
	resumeCfg := cfg
	resumeCfg.TimeseriesPath = filepath.Join(resumeDir, "timeseries.csv")
	resumeCfg.OutputPath = filepath.Join(resumeDir, "derivatives.csv")
	require.NoError(t, series.SaveObservations(observations, resumeCfg.TimeseriesPath))

	var partial []DerivativeRecord
	for _, record := range full {
		if record.PixelID == "P1" || record.PixelID == "P2" {
			partial = append(partial, record)
		}
	}
	require.NotEmpty(t, partial)
	require.NoError(t, NewCheckpointStore(resumeCfg.OutputPath).Save(partial))

	stats, err := Run(resumeCfg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ResumedPixels)
	assert.Equal(t, 2, stats.ProcessedPixels)

	resumed, err := LoadRecords(resumeCfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, resumed, len(full))

	sortRecords(full)
	sortRecords(resumed)
	assert.Equal(t, full, resumed)
}

func TestRunResumeWithEverythingDone(t *testing.T) {
	cfg, _ := runnerConfig(t)

	_, err := Run(cfg)
	require.NoError(t, err)
	full, err := LoadRecords(cfg.OutputPath)
	require.NoError(t, err)

	// Pre-seed a checkpoint that already covers every pixel.
	require.NoError(t, NewCheckpointStore(cfg.OutputPath).Save(full))

	stats, err := Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.ResumedPixels)
	assert.Zero(t, stats.ProcessedPixels)
	assert.Equal(t, len(full), stats.RecordCount)

	again, err := LoadRecords(cfg.OutputPath)
	require.NoError(t, err)
	sortRecords(full)
	sortRecords(again)
	assert.Equal(t, full, again)
}

func TestRunSkipsThinPixelsWithoutAborting(t *testing.T) {
	cfg, observations := runnerConfig(t)

	// One extra pixel with too few observations in every year.
	observations = append(observations,
		sinusoidSeries("P9", []int{2013, 2014, 2015}, 40, 0.02, 9)...)
	require.NoError(t, series.SaveObservations(observations, cfg.TimeseriesPath))

	stats, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalPixels)
	assert.Equal(t, 5, stats.ProcessedPixels)
	assert.Equal(t, 3, stats.SkippedInsufficient)
	assert.Equal(t, 4*3*365, stats.RecordCount)
}
