package domain

import (
	"fmt"
	"strings"
)

// Resampling names a warp resampling method.
type Resampling string

// Supported resampling methods.
const (
	ResamplingNearest     Resampling = "nearest"
	ResamplingBilinear    Resampling = "bilinear"
	ResamplingCubic       Resampling = "cubic"
	ResamplingCubicSpline Resampling = "cubicspline"
	ResamplingLanczos     Resampling = "lanczos"
	ResamplingAverage     Resampling = "average"
	ResamplingMode        Resampling = "mode"
	ResamplingMax         Resampling = "max"
	ResamplingMin         Resampling = "min"
	ResamplingMedian      Resampling = "med"
)

// gdalNames maps resampling methods to gdalwarp -r values.
var gdalNames = map[Resampling]string{
	ResamplingNearest:     "near",
	ResamplingBilinear:    "bilinear",
	ResamplingCubic:       "cubic",
	ResamplingCubicSpline: "cubicspline",
	ResamplingLanczos:     "lanczos",
	ResamplingAverage:     "average",
	ResamplingMode:        "mode",
	ResamplingMax:         "max",
	ResamplingMin:         "min",
	ResamplingMedian:      "med",
}

// ParseResampling parses a resampling name. An empty name means nearest.
func ParseResampling(name string) (Resampling, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return ResamplingNearest, nil
	case "near":
		return ResamplingNearest, nil
	case "median":
		return ResamplingMedian, nil
	}
	r := Resampling(name)
	if _, ok := gdalNames[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidResampling, name)
	}
	return r, nil
}

// GDALName returns the gdalwarp -r value for r.
func (r Resampling) GDALName() string {
	if n, ok := gdalNames[r]; ok {
		return n
	}
	return gdalNames[ResamplingNearest]
}
