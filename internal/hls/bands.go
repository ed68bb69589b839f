package hls

import (
	"fmt"
	"math"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/drought-guardian/hls-drought-monitor/internal/utils"
)

// Sensor identifies the HLS product family a scene came from. Band layout
// differs between the two, so the mapping is resolved once per scene instead
// of looking bands up by name per pixel.
type Sensor int

const (
	SensorL30 Sensor = iota // Landsat 8/9 OLI
	SensorS30               // Sentinel-2 MSI
)

type bandSet struct {
	NIR   string
	Red   string
	Fmask string
}

var sensorBands = map[Sensor]bandSet{
	SensorL30: {NIR: "B05", Red: "B04", Fmask: "Fmask"},
	SensorS30: {NIR: "B8A", Red: "B04", Fmask: "Fmask"},
}

func SensorFromProduct(shortName string) (Sensor, error) {
	switch {
	case strings.HasPrefix(shortName, "HLSL30"):
		return SensorL30, nil
	case strings.HasPrefix(shortName, "HLSS30"):
		return SensorS30, nil
	}
	return 0, fmt.Errorf("unknown HLS product: %s", shortName)
}

func (s Sensor) Bands() bandSet {
	return sensorBands[s]
}

// HLS v2.0 surface reflectance encoding.
const (
	reflectanceScale = 0.0001
	fillValue        = -9999
)

// Fmask quality bits.
const (
	fmaskCirrus        = 1 << 0
	fmaskCloud         = 1 << 1
	fmaskCloudAdjacent = 1 << 2
	fmaskCloudShadow   = 1 << 3
	fmaskSnowIce       = 1 << 4
	fmaskWater         = 1 << 5
)

// ClearPixel reports whether an Fmask value marks a usable land pixel.
func ClearPixel(fmask uint8) bool {
	return fmask&(fmaskCloud|fmaskCloudAdjacent|fmaskCloudShadow|fmaskSnowIce|fmaskWater) == 0
}

// NDVIValue computes NDVI from raw scaled reflectance counts, rejecting fill
// values and out-of-range results. The second return reports validity.
func NDVIValue(nir, red float64, fmask uint8) (float64, bool) {
	if !ClearPixel(fmask) {
		return 0, false
	}
	if nir == fillValue || red == fillValue {
		return 0, false
	}

	nirRefl := nir * reflectanceScale
	redRefl := red * reflectanceScale
	denominator := nirRefl + redRefl
	if denominator == 0 {
		return 0, false
	}

	ndvi := (nirRefl - redRefl) / denominator
	if math.IsNaN(ndvi) || ndvi < -1 || ndvi > 1 {
		return 0, false
	}
	return ndvi, true
}

// Scene is one acquisition's cloud-masked NDVI grid plus the georeferencing
// needed to place its pixels on the reference grid.
type Scene struct {
	NDVI         []float64
	Valid        []bool
	Width        int
	Height       int
	GeoTransform [6]float64
}

func (s *Scene) At(x, y int) (float64, bool) {
	i := y*s.Width + x
	return s.NDVI[i], s.Valid[i]
}

// PixelLatLon converts pixel coordinates to geographic coordinates through
// the scene's geotransform.
func (s *Scene) PixelLatLon(x, y int) (float64, float64) {
	gt := s.GeoTransform
	lon := gt[0] + gt[1]*(float64(x)+0.5) + gt[2]*(float64(y)+0.5)
	lat := gt[3] + gt[4]*(float64(x)+0.5) + gt[5]*(float64(y)+0.5)
	return lat, lon
}

func readBand(path string) ([]float64, int, int, [6]float64, error) {
	var data []float64
	var width, height int
	var gt [6]float64
	var err error

	utils.ExecuteWithGdalMutex(func() {
		var ds *godal.Dataset
		ds, err = godal.Open(path)
		if err != nil {
			err = fmt.Errorf("failed to open band file %s: %w", path, err)
			return
		}
		defer ds.Close()

		width = ds.Structure().SizeX
		height = ds.Structure().SizeY

		var transform [6]float64
		transform, err = ds.GeoTransform()
		if err != nil {
			err = fmt.Errorf("failed to read geotransform from %s: %w", path, err)
			return
		}
		gt = transform

		band := ds.Bands()[0]
		data = make([]float64, width*height)
		if readErr := band.Read(0, 0, data, width, height); readErr != nil {
			err = fmt.Errorf("failed to read raster data from %s: %w", path, readErr)
			return
		}
	})

	return data, width, height, gt, err
}

// BuildScene assembles the masked NDVI grid from a granule's per-band
// GeoTIFF files.
func BuildScene(sensor Sensor, nirPath, redPath, fmaskPath string) (*Scene, error) {
	nir, width, height, gt, err := readBand(nirPath)
	if err != nil {
		return nil, err
	}
	red, redWidth, redHeight, _, err := readBand(redPath)
	if err != nil {
		return nil, err
	}
	fmask, maskWidth, maskHeight, _, err := readBand(fmaskPath)
	if err != nil {
		return nil, err
	}

	if redWidth != width || redHeight != height || maskWidth != width || maskHeight != height {
		return nil, fmt.Errorf("band size mismatch: nir %dx%d, red %dx%d, fmask %dx%d",
			width, height, redWidth, redHeight, maskWidth, maskHeight)
	}

	scene := &Scene{
		NDVI:         make([]float64, width*height),
		Valid:        make([]bool, width*height),
		Width:        width,
		Height:       height,
		GeoTransform: gt,
	}

	for i := range nir {
		value, ok := NDVIValue(nir[i], red[i], uint8(fmask[i]))
		scene.NDVI[i] = value
		scene.Valid[i] = ok
	}

	return scene, nil
}
