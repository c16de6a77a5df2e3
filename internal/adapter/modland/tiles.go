// Package modland maps geographic boundaries onto MODLAND sinusoidal tiles.
package modland

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

const (
	// SphereRadius is the radius of the sphere used by the MODIS sinusoidal projection.
	SphereRadius = 6371007.181

	// TileSize is the width and height of a tile in projected metres.
	TileSize = 1111950.5197665

	// HorizontalTiles and VerticalTiles are the dimensions of the global tile grid.
	HorizontalTiles = 36
	VerticalTiles   = 18

	// SinusoidalProj4 describes the MODIS sinusoidal CRS.
	SinusoidalProj4 = "+proj=sinu +lon_0=0 +x_0=0 +y_0=0 +R=6371007.181 +units=m +no_defs"
)

// Grid origin (upper-left corner of tile h00v00) in projected metres.
var (
	originX = -TileSize * HorizontalTiles / 2
	originY = TileSize * VerticalTiles / 2
)

// TileID identifies a tile by its horizontal and vertical index.
type TileID struct {
	H int
	V int
}

func (t TileID) String() string {
	return fmt.Sprintf("h%02dv%02d", t.H, t.V)
}

// ParseTileID parses names such as "h12v04".
func ParseTileID(s string) (TileID, error) {
	var t TileID
	if _, err := fmt.Sscanf(s, "h%02dv%02d", &t.H, &t.V); err != nil {
		return TileID{}, fmt.Errorf("invalid tile id %q: %w", s, err)
	}
	if !t.valid() {
		return TileID{}, fmt.Errorf("tile id %q outside the %dx%d grid", s, HorizontalTiles, VerticalTiles)
	}
	return t, nil
}

func (t TileID) valid() bool {
	return t.H >= 0 && t.H < HorizontalTiles && t.V >= 0 && t.V < VerticalTiles
}

// Bounds returns the tile extent in sinusoidal metres.
func (t TileID) Bounds() *geom.Bounds {
	x0 := originX + float64(t.H)*TileSize
	y1 := originY - float64(t.V)*TileSize
	return &geom.Bounds{
		Min: geom.Point{X: x0, Y: y1 - TileSize},
		Max: geom.Point{X: x0 + TileSize, Y: y1},
	}
}

// Forward projects a longitude/latitude pair (degrees) to sinusoidal metres.
func Forward(lon, lat float64) (float64, float64) {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	return SphereRadius * lambda * math.Cos(phi), SphereRadius * phi
}

// TileAt returns the tile containing a longitude/latitude pair.
func TileAt(lon, lat float64) TileID {
	x, y := Forward(lon, lat)
	return TileID{
		H: clamp(int(math.Floor((x-originX)/TileSize)), 0, HorizontalTiles-1),
		V: clamp(int(math.Floor((originY-y)/TileSize)), 0, VerticalTiles-1),
	}
}

// Index finds tiles intersecting a geographic boundary.
type Index struct{}

// NewIndex creates a tile index.
func NewIndex() *Index {
	return &Index{}
}

// Tiles returns the ids of every tile whose extent intersects the boundary
// ring (longitude/latitude vertices, degrees). Tiles are ordered by H, then V.
func (i *Index) Tiles(boundary [][2]float64) ([]string, error) {
	if len(boundary) < 3 {
		return nil, fmt.Errorf("boundary needs at least 3 vertices, got %d", len(boundary))
	}

	path := make(geom.Path, 0, len(boundary)+1)
	for _, p := range boundary {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			return nil, fmt.Errorf("boundary contains a non-finite vertex")
		}
		x, y := Forward(p[0], clampF(p[1], -90, 90))
		path = append(path, geom.Point{X: x, Y: y})
	}
	if path[0] != path[len(path)-1] {
		path = append(path, path[0])
	}
	poly := geom.Polygon{path}
	b := poly.Bounds()

	hMin := clamp(int(math.Floor((b.Min.X-originX)/TileSize)), 0, HorizontalTiles-1)
	hMax := clamp(int(math.Floor((b.Max.X-originX)/TileSize)), 0, HorizontalTiles-1)
	vMin := clamp(int(math.Floor((originY-b.Max.Y)/TileSize)), 0, VerticalTiles-1)
	vMax := clamp(int(math.Floor((originY-b.Min.Y)/TileSize)), 0, VerticalTiles-1)

	var tiles []string
	for h := hMin; h <= hMax; h++ {
		for v := vMin; v <= vMax; v++ {
			tile := TileID{H: h, V: v}
			tb := tile.Bounds()
			if !b.Overlaps(tb) {
				continue
			}
			isect := poly.Intersection(tb)
			if isect == nil || isect.Area() <= 0 {
				continue
			}
			tiles = append(tiles, tile.String())
		}
	}
	return tiles, nil
}

func clamp(value, minVal, maxVal int) int {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}

func clampF(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(maxVal, value))
}
