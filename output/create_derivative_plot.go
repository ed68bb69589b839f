package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drought-guardian/hls-drought-monitor/internal/phenology"
	"github.com/fogleman/gg"
)

const (
	plotWidth  = 900
	plotHeight = 400
	plotMargin = 50.0
)

// CreateDerivativePlot draws one pixel-year's derivative curve with its
// credible band and significance shading along the day axis.
func CreateDerivativePlot(records []phenology.DerivativeRecord, pixelID string, year int, outputImagePath string) error {
	if !strings.HasSuffix(outputImagePath, ".png") {
		outputImagePath += ".png"
	}

	var rows []phenology.DerivativeRecord
	for _, record := range records {
		if record.PixelID == pixelID && record.Year == year {
			rows = append(rows, record)
		}
	}
	if len(rows) == 0 {
		return fmt.Errorf("no records for pixel %s year %d", pixelID, year)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Yday < rows[j].Yday })

	minVal, maxVal := rows[0].DerivLwr, rows[0].DerivUpr
	for _, row := range rows {
		if row.DerivLwr < minVal {
			minVal = row.DerivLwr
		}
		if row.DerivUpr > maxVal {
			maxVal = row.DerivUpr
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1e-6
	}

	toX := func(yday int) float64 {
		return plotMargin + (float64(yday-1)/364.0)*(plotWidth-2*plotMargin)
	}
	toY := func(value float64) float64 {
		return plotHeight - plotMargin - ((value-minVal)/(maxVal-minVal))*(plotHeight-2*plotMargin)
	}

	dc := gg.NewContext(plotWidth, plotHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Credible band.
	dc.SetRGBA(0.2, 0.6, 0.2, 0.25)
	for _, row := range rows {
		dc.LineTo(toX(row.Yday), toY(row.DerivUpr))
	}
	for i := len(rows) - 1; i >= 0; i-- {
		dc.LineTo(toX(rows[i].Yday), toY(rows[i].DerivLwr))
	}
	dc.ClosePath()
	dc.Fill()

	// Zero line.
	dc.SetRGB(0.4, 0.4, 0.4)
	dc.SetLineWidth(1)
	if minVal < 0 && maxVal > 0 {
		dc.DrawLine(toX(1), toY(0), toX(365), toY(0))
		dc.Stroke()
	}

	// Mean derivative.
	dc.SetRGB(0.1, 0.4, 0.1)
	dc.SetLineWidth(2)
	for _, row := range rows {
		dc.LineTo(toX(row.Yday), toY(row.DerivMean))
	}
	dc.Stroke()

	// Significant days marked along the bottom.
	dc.SetRGB(0.8, 0.2, 0.2)
	for _, row := range rows {
		if row.Sig == "*" {
			dc.DrawCircle(toX(row.Yday), plotHeight-plotMargin/2, 1.5)
			dc.Fill()
		}
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("NDVI derivative, pixel %s, %d", pixelID, year), plotMargin, plotMargin/2)

	if err := dc.SavePNG(outputImagePath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}

	fmt.Println("Derivative plot created successfully at", outputImagePath)
	return nil
}
