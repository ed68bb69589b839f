package phenology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/drought-guardian/hls-drought-monitor/internal/properties"
	"github.com/drought-guardian/hls-drought-monitor/internal/series"
	"github.com/gammazero/workerpool"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
)

// RunStats summarizes a completed batch run.
type RunStats struct {
	TotalPixels         int
	ResumedPixels       int
	ProcessedPixels     int
	ProcessedYears      int
	SkippedInsufficient int
	SkippedFitFailure   int
	SkippedUnexpected   int
	RecordCount         int
	SignificantFraction float64
	Elapsed             time.Duration
}

func (s RunStats) Summary() string {
	return fmt.Sprintf(
		"pixels %d (resumed %d), pixel-years fitted %d, skipped: %d insufficient / %d non-convergent / %d unexpected, %d records, %.1f%% days significant, elapsed %s",
		s.TotalPixels, s.ResumedPixels, s.ProcessedYears,
		s.SkippedInsufficient, s.SkippedFitFailure, s.SkippedUnexpected,
		s.RecordCount, s.SignificantFraction*100, s.Elapsed.Round(time.Second))
}

// Run drives the full pixel-by-year derivative sweep: loads the long-form
// timeseries, resumes from checkpoint when available, dispatches one pixel
// per worker task in pool-sized batches, checkpoints the accumulated records
// every CheckpointInterval pixels and writes the final output CSV. A failure
// on one pixel never aborts the batch.
func Run(cfg properties.Config) (*RunStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	observations, err := series.LoadObservations(cfg.TimeseriesPath)
	if err != nil {
		return nil, err
	}

	grouped := series.GroupByPixel(observations)
	pixelIDs := series.SortedPixelIDs(grouped)
	fmt.Printf("Loaded %d observations across %d pixels\n", len(observations), len(pixelIDs))

	stats := &RunStats{TotalPixels: len(pixelIDs)}
	store := NewCheckpointStore(cfg.OutputPath)

	var accumulated []DerivativeRecord
	done := make(map[string]bool)
	if cfg.ResumeFromCheckpoint {
		if records, ok := store.Load(); ok {
			accumulated = records
			for _, r := range records {
				done[r.PixelID] = true
			}
			fmt.Printf("Resuming from checkpoint: %d pixels already processed\n", len(done))
		}
	}
	stats.ResumedPixels = len(done)

	remaining := make([]string, 0, len(pixelIDs))
	for _, id := range pixelIDs {
		if !done[id] {
			remaining = append(remaining, id)
		}
	}

	start := time.Now()
	if len(remaining) > 0 {
		progressBar := progressbar.Default(int64(len(remaining)), "Fitting pixel-year derivatives")
		wp := workerpool.New(cfg.Cores)

		var mu sync.Mutex
		var errorSamples []string
		sinceCheckpoint := 0

		// Batches are sized to the pool; the driver blocks at each batch
		// boundary so checkpoints always capture whole pixels.
		for batchStart := 0; batchStart < len(remaining); batchStart += cfg.Cores {
			batchEnd := batchStart + cfg.Cores
			if batchEnd > len(remaining) {
				batchEnd = len(remaining)
			}
			batch := remaining[batchStart:batchEnd]

			var wg sync.WaitGroup
			for _, pixelID := range batch {
				id := pixelID
				pixelSeries := grouped[id] // only this pixel's rows cross into the worker
				wg.Add(1)
				wp.Submit(func() {
					defer wg.Done()
					result := ProcessPixel(pixelSeries, id, cfg)

					mu.Lock()
					accumulated = append(accumulated, result.Records...)
					stats.ProcessedPixels++
					stats.ProcessedYears += result.ProcessedYears
					stats.SkippedInsufficient += result.SkippedInsufficient
					stats.SkippedFitFailure += result.SkippedFitFailure
					stats.SkippedUnexpected += result.SkippedUnexpected
					if len(errorSamples) < 20 {
						errorSamples = append(errorSamples, result.Errors...)
					}
					progressBar.Add(1)
					mu.Unlock()
				})
			}
			wg.Wait()

			sinceCheckpoint += len(batch)
			if sinceCheckpoint >= cfg.CheckpointInterval {
				if err := store.Save(accumulated); err != nil {
					fmt.Printf("Warning: failed to write checkpoint: %v\n", err)
				}
				sinceCheckpoint = 0

				elapsed := time.Since(start)
				doneCount := batchEnd
				perMinute := float64(doneCount) / elapsed.Minutes()
				eta := time.Duration(float64(len(remaining)-doneCount)/perMinute) * time.Minute
				fmt.Printf("\nCheckpointed %d/%d pixels (%.1f pixels/min, ETA %s)\n",
					doneCount, len(remaining), perMinute, eta.Round(time.Minute))
			}
		}

		wp.StopWait()
		progressBar.Finish()
		fmt.Println()

		if len(errorSamples) > 0 {
			fmt.Printf("Sample of pixel-year failures:\n%s\n", strings.Join(errorSamples, "\n"))
		}
	}

	stats.Elapsed = time.Since(start)
	stats.RecordCount = len(accumulated)

	sigCount := 0
	for _, r := range accumulated {
		if r.Sig == "*" {
			sigCount++
		}
	}
	if len(accumulated) > 0 {
		stats.SignificantFraction = float64(sigCount) / float64(len(accumulated))
	}

	if err := WriteRecords(accumulated, cfg.OutputPath); err != nil {
		return stats, err
	}
	if err := store.Clear(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	fmt.Printf("Derivative run complete: %s\n", stats.Summary())
	return stats, nil
}

// WriteRecords writes the final output table. An empty record set still
// produces a file with the header row so downstream consumers see a schema.
func WriteRecords(records []DerivativeRecord, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("failed to write output records: %w", err)
	}
	return nil
}

// LoadRecords reads a previously written output table.
func LoadRecords(outputPath string) ([]DerivativeRecord, error) {
	file, err := os.Open(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	var records []DerivativeRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	return records, nil
}
