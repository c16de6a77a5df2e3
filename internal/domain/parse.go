package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BBox is an axis-aligned extent in the units of its CRS.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// ParseBBox parses "minx,miny,maxx,maxy".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("%w: bbox %q must be minx,miny,maxx,maxy", ErrInvalidGrid, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("%w: bbox %q: %w", ErrInvalidGrid, s, err)
		}
		v[i] = f
	}

	b := BBox{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return BBox{}, fmt.Errorf("%w: bbox %q is empty", ErrInvalidGrid, s)
	}
	return b, nil
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: size %q must be WIDTHxHEIGHT", ErrInvalidGrid, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: size %q: %w", ErrInvalidGrid, s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: size %q: %w", ErrInvalidGrid, s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: size %q must be positive", ErrInvalidGrid, s)
	}
	return width, height, nil
}

// Grid returns a north-up grid of width x height pixels covering b.
func (b BBox) Grid(width, height int, crs string) (Grid, error) {
	return NewGridFromBounds(b.MinX, b.MinY, b.MaxX, b.MaxY, width, height, crs)
}
