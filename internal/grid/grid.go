package grid

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const defaultCellKm = 4.0

// Cell is one reference-grid pixel. Its ID is the pixel_id used throughout
// the long-form timeseries and the derivative output.
type Cell struct {
	ID  string
	Row int
	Col int
	Lat float64
	Lon float64
}

// Grid is the regular spatial grid covering the monitored region. Cells are
// only materialized where their center falls inside the region geometry.
type Grid struct {
	cells   map[[2]int]Cell
	minLat  float64
	minLon  float64
	latStep float64
	lonStep float64
	rows    int
	cols    int
}

// LoadRegion reads the monitored region's geometry from a GeoJSON file,
// taking the first feature.
func LoadRegion(filePath string) (orb.Geometry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read region file: %w", err)
	}

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse region GeoJSON: %w", err)
	}
	if len(collection.Features) == 0 {
		return nil, fmt.Errorf("region file %s has no features", filePath)
	}

	return collection.Features[0].Geometry, nil
}

func regionContains(geometry orb.Geometry, point orb.Point) bool {
	switch g := geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	default:
		return false
	}
}

// NewGrid lays a cellKm-sized grid over the region's bounding box and keeps
// the cells whose centers are inside the region. Pass 0 for the default
// 4 km resolution.
func NewGrid(region orb.Geometry, cellKm float64) (*Grid, error) {
	if cellKm <= 0 {
		cellKm = defaultCellKm
	}

	bound := region.Bound()
	if bound.IsEmpty() {
		return nil, fmt.Errorf("region geometry has an empty bound")
	}

	centerLat := (bound.Min.Y() + bound.Max.Y()) / 2
	latStep := cellKm / 111.0
	lonStep := cellKm / (111.0 * math.Cos(centerLat*math.Pi/180))

	grid := &Grid{
		cells:   make(map[[2]int]Cell),
		minLat:  bound.Min.Y(),
		minLon:  bound.Min.X(),
		latStep: latStep,
		lonStep: lonStep,
		rows:    int(math.Ceil((bound.Max.Y() - bound.Min.Y()) / latStep)),
		cols:    int(math.Ceil((bound.Max.X() - bound.Min.X()) / lonStep)),
	}

	for row := 0; row < grid.rows; row++ {
		for col := 0; col < grid.cols; col++ {
			lat := grid.minLat + (float64(row)+0.5)*latStep
			lon := grid.minLon + (float64(col)+0.5)*lonStep
			if !regionContains(region, orb.Point{lon, lat}) {
				continue
			}
			grid.cells[[2]int{row, col}] = Cell{
				ID:  fmt.Sprintf("r%03d_c%03d", row, col),
				Row: row,
				Col: col,
				Lat: lat,
				Lon: lon,
			}
		}
	}

	if len(grid.cells) == 0 {
		return nil, fmt.Errorf("no grid cells fall inside the region")
	}
	return grid, nil
}

// CellAt maps a geographic coordinate to its grid cell, if that cell is part
// of the monitored region.
func (g *Grid) CellAt(lat, lon float64) (Cell, bool) {
	row := int(math.Floor((lat - g.minLat) / g.latStep))
	col := int(math.Floor((lon - g.minLon) / g.lonStep))
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Cell{}, false
	}
	cell, ok := g.cells[[2]int{row, col}]
	return cell, ok
}

func (g *Grid) CellCount() int { return len(g.cells) }

// Cells returns the region's cells ordered by ID.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.cells))
	for _, cell := range g.cells {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
	return cells
}
