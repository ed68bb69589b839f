package output

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/drought-guardian/hls-drought-monitor/internal/grid"
	"github.com/drought-guardian/hls-drought-monitor/internal/phenology"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T) *grid.Grid {
	t.Helper()
	region := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}
	g, err := grid.NewGrid(region, 111.0)
	require.NoError(t, err)
	return g
}

func yearRecords(pixelID string, year int, sigDays int) []phenology.DerivativeRecord {
	records := make([]phenology.DerivativeRecord, 0, 365)
	for day := 1; day <= 365; day++ {
		sig := ""
		if day <= sigDays {
			sig = "*"
		}
		deriv := 0.002 * math.Sin(2*math.Pi*float64(day)/365.0)
		records = append(records, phenology.DerivativeRecord{
			PixelID:   pixelID,
			Year:      year,
			Yday:      day,
			DerivMean: deriv,
			DerivLwr:  deriv - 0.001,
			DerivUpr:  deriv + 0.001,
			Sig:       sig,
		})
	}
	return records
}

func TestCreateSignificanceImage(t *testing.T) {
	g := testGrid(t)

	var records []phenology.DerivativeRecord
	records = append(records, yearRecords("r000_c000", 2021, 300)...)
	records = append(records, yearRecords("r001_c001", 2021, 0)...)
	records = append(records, yearRecords("r000_c001", 2020, 100)...) // other year, ignored

	imagePath := filepath.Join(t.TempDir(), "significance_2021")
	require.NoError(t, CreateSignificanceImage(records, g, 2021, imagePath))

	file, err := os.Open(imagePath + ".png")
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestCreateDerivativePlot(t *testing.T) {
	records := yearRecords("r000_c000", 2021, 120)

	plotPath := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, CreateDerivativePlot(records, "r000_c000", 2021, plotPath))

	file, err := os.Open(plotPath)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 900, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestCreateDerivativePlotUnknownPixel(t *testing.T) {
	records := yearRecords("r000_c000", 2021, 0)
	err := CreateDerivativePlot(records, "r009_c009", 2021, filepath.Join(t.TempDir(), "plot.png"))
	assert.Error(t, err)
}
