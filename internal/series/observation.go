package series

import (
	"fmt"
	"os"
	"time"

	"github.com/drought-guardian/hls-drought-monitor/internal/utils"
	"github.com/gocarina/gocsv"
)

// Date is the calendar-date column of the long-form timeseries. Upstream
// writers emit plain ISO dates; files from older tooling carry full RFC3339
// timestamps. Both parse.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date { return Date{Time: t} }

func (d *Date) UnmarshalCSV(value string) error {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unparseable date %q, expected YYYY-MM-DD or RFC3339", value)
}

func (d Date) MarshalCSV() (string, error) {
	return d.Format("2006-01-02"), nil
}

// Observation is one cloud-masked NDVI measurement for a grid pixel, as
// produced by the aggregation phase. The long-form timeseries CSV is the
// union of all observations for all pixels and years.
type Observation struct {
	PixelID string  `csv:"pixel_id"`
	Year    int     `csv:"year"`
	Date    Date    `csv:"date"`
	Yday    int     `csv:"day_of_year"`
	NDVI    float64 `csv:"ndvi"`
}

func LoadObservations(filePath string) ([]Observation, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open timeseries file: %w", err)
	}
	defer file.Close()

	var observations []Observation
	if err := gocsv.UnmarshalFile(file, &observations); err != nil {
		return nil, fmt.Errorf("failed to read timeseries file: %w", err)
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("timeseries file %s is empty", filePath)
	}
	return observations, nil
}

func SaveObservations(observations []Observation, filePath string) error {
	if len(observations) == 0 {
		return fmt.Errorf("no observations to save")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create timeseries file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&observations, file); err != nil {
		return fmt.Errorf("failed to save timeseries: %w", err)
	}
	return nil
}

// GroupByPixel splits the long-form table into per-pixel slices so workers
// only ever receive the rows for their own pixel.
func GroupByPixel(observations []Observation) map[string][]Observation {
	grouped := make(map[string][]Observation)
	for _, obs := range observations {
		grouped[obs.PixelID] = append(grouped[obs.PixelID], obs)
	}
	return grouped
}

func SortedPixelIDs(grouped map[string][]Observation) []string {
	return utils.GetSortedStringKeys(grouped)
}
