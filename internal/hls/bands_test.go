package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorFromProduct(t *testing.T) {
	sensor, err := SensorFromProduct("HLSL30")
	require.NoError(t, err)
	assert.Equal(t, SensorL30, sensor)
	assert.Equal(t, "B05", sensor.Bands().NIR)

	sensor, err = SensorFromProduct("HLSS30")
	require.NoError(t, err)
	assert.Equal(t, SensorS30, sensor)
	assert.Equal(t, "B8A", sensor.Bands().NIR)
	assert.Equal(t, "B04", sensor.Bands().Red)

	_, err = SensorFromProduct("MOD13Q1")
	assert.Error(t, err)
}

func TestClearPixel(t *testing.T) {
	tests := []struct {
		name  string
		fmask uint8
		want  bool
	}{
		{name: "clear land", fmask: 0, want: true},
		{name: "cirrus only still usable", fmask: fmaskCirrus, want: true},
		{name: "cloud", fmask: fmaskCloud, want: false},
		{name: "cloud adjacent", fmask: fmaskCloudAdjacent, want: false},
		{name: "cloud shadow", fmask: fmaskCloudShadow, want: false},
		{name: "snow", fmask: fmaskSnowIce, want: false},
		{name: "water", fmask: fmaskWater, want: false},
		{name: "cloud and shadow", fmask: fmaskCloud | fmaskCloudShadow, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClearPixel(tt.fmask))
		})
	}
}

func TestNDVIValue(t *testing.T) {
	tests := []struct {
		name      string
		nir, red  float64
		fmask     uint8
		wantValue float64
		wantValid bool
	}{
		{name: "healthy vegetation", nir: 3000, red: 1000, fmask: 0, wantValue: 0.5, wantValid: true},
		{name: "cloudy pixel rejected", nir: 3000, red: 1000, fmask: fmaskCloud, wantValid: false},
		{name: "nir fill value rejected", nir: fillValue, red: 1000, fmask: 0, wantValid: false},
		{name: "red fill value rejected", nir: 3000, red: fillValue, fmask: 0, wantValid: false},
		{name: "zero denominator rejected", nir: 0, red: 0, fmask: 0, wantValid: false},
		{name: "out of range rejected", nir: -100, red: 200, fmask: 0, wantValid: false},
		{name: "bare soil", nir: 1200, red: 1000, fmask: 0, wantValue: 200.0 / 2200.0, wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, valid := NDVIValue(tt.nir, tt.red, tt.fmask)
			assert.Equal(t, tt.wantValid, valid)
			if tt.wantValid {
				assert.InDelta(t, tt.wantValue, value, 1e-9)
			}
		})
	}
}

func TestScenePixelLatLon(t *testing.T) {
	scene := &Scene{
		Width:  2,
		Height: 2,
		// North-up geotransform: origin lon -100, lat 40, 0.001 degree
		// pixels.
		GeoTransform: [6]float64{-100, 0.001, 0, 40, 0, -0.001},
	}

	lat, lon := scene.PixelLatLon(0, 0)
	assert.InDelta(t, 39.9995, lat, 1e-9)
	assert.InDelta(t, -99.9995, lon, 1e-9)

	lat, lon = scene.PixelLatLon(1, 1)
	assert.InDelta(t, 39.9985, lat, 1e-9)
	assert.InDelta(t, -99.9985, lon, 1e-9)
}

func TestGranuleBandURL(t *testing.T) {
	granule := Granule{
		ID: "HLS.L30.T14RNS.2021100T170000.v2.0",
		BandURLs: []string{
			"https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T14RNS.2021100.B04.tif",
			"https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T14RNS.2021100.B05.tif",
			"https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T14RNS.2021100.Fmask.tif",
		},
	}

	href, err := granule.BandURL("B05")
	require.NoError(t, err)
	assert.Contains(t, href, "B05.tif")

	_, err = granule.BandURL("B11")
	assert.Error(t, err)
}
