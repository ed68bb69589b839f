package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"github.com/drought-guardian/hls-drought-monitor/internal/grid"
	"github.com/drought-guardian/hls-drought-monitor/internal/phenology"
)

// significanceColor shades a cell from grey (no significant days) to deep
// green (many), the quick-look palette for greenup maps.
func significanceColor(fraction float64) color.RGBA {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return color.RGBA{
		R: uint8(200 - 160*fraction),
		G: uint8(200 - 60*fraction),
		B: uint8(200 - 160*fraction),
		A: 255,
	}
}

// CreateSignificanceImage renders one year's grid as a PNG where each cell
// is shaded by its fraction of significantly nonzero derivative days.
func CreateSignificanceImage(records []phenology.DerivativeRecord, g *grid.Grid, year int, outputImagePath string) error {
	if !strings.HasSuffix(outputImagePath, ".png") {
		outputImagePath += ".png"
	}

	sigDays := make(map[string]int)
	totalDays := make(map[string]int)
	for _, record := range records {
		if record.Year != year {
			continue
		}
		totalDays[record.PixelID]++
		if record.Sig == "*" {
			sigDays[record.PixelID]++
		}
	}

	cells := g.Cells()
	maxRow, maxCol := 0, 0
	for _, cell := range cells {
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
		if cell.Col > maxCol {
			maxCol = cell.Col
		}
	}

	newImage := image.NewRGBA(image.Rect(0, 0, maxCol+1, maxRow+1))
	for _, cell := range cells {
		total := totalDays[cell.ID]
		if total == 0 {
			// Cell produced no records this year, leave it transparent.
			continue
		}
		fraction := float64(sigDays[cell.ID]) / float64(total)
		// Row 0 is the southernmost cell, flip so north is up.
		newImage.Set(cell.Col, maxRow-cell.Row, significanceColor(fraction))
	}

	outputFile, err := os.Create(outputImagePath)
	if err != nil {
		return fmt.Errorf("failed to create PNG file: %w", err)
	}
	defer outputFile.Close()

	if err := png.Encode(outputFile, newImage); err != nil {
		return fmt.Errorf("failed to encode PNG file: %w", err)
	}

	fmt.Println("Significance map created successfully at", outputImagePath)
	return nil
}
