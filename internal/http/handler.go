package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"go.ngs.io/modisci/internal/domain"
	"go.ngs.io/modisci/internal/usecase"
)

// MaxPixels caps the size of a requested grid.
const MaxPixels = 4096 * 4096

// TileLister lists the tiles intersecting a grid.
type TileLister interface {
	Tiles(grid domain.Grid) ([]string, error)
}

// PointSampler samples the clumping index at a location.
type PointSampler interface {
	Sample(ctx context.Context, lat, lon float64, source string) (*usecase.PointValue, error)
}

// Handler handles HTTP requests for clumping-index data.
type Handler struct {
	tiles   TileLister
	sources usecase.Sources
	points  PointSampler
}

// NewHandler creates a new HTTP handler.
func NewHandler(tiles TileLister, sources usecase.Sources, points PointSampler) *Handler {
	return &Handler{
		tiles:   tiles,
		sources: sources,
		points:  points,
	}
}

// RasterResponse is a raster encoded as JSON. Missing values are null.
type RasterResponse struct {
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	CRS          string       `json:"crs"`
	GeoTransform [6]float64   `json:"geotransform"`
	Source       string       `json:"source"`
	NoDataCount  int          `json:"nodata_count"`
	Values       [][]*float64 `json:"values"`
}

// NewRasterResponse converts r for JSON output.
func NewRasterResponse(r *domain.Raster, source string) RasterResponse {
	rows := r.Rows()
	values := make([][]*float64, len(rows))
	for i, row := range rows {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				values[i][j] = &row[j]
			}
		}
	}
	return RasterResponse{
		Width:        r.Grid.Width,
		Height:       r.Grid.Height,
		CRS:          r.Grid.CRS,
		GeoTransform: r.Grid.GeoTransform,
		Source:       source,
		NoDataCount:  r.NaNCount(),
		Values:       values,
	}
}

// GetClumpingIndex handles GET /v1/clumping-index.
func (h *Handler) GetClumpingIndex(c *gin.Context) {
	bbox, err := domain.ParseBBox(c.Query("bbox"))
	if err != nil {
		respondError(c, err)
		return
	}
	width, height, err := domain.ParseSize(c.Query("size"))
	if err != nil {
		respondError(c, err)
		return
	}
	if width > MaxPixels/height {
		respondError(c, fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrInvalidGrid, width, height, MaxPixels))
		return
	}

	crs := c.DefaultQuery("crs", "EPSG:4326")
	grid, err := bbox.Grid(width, height, crs)
	if err != nil {
		respondError(c, err)
		return
	}

	name, load, err := h.sources.Lookup(c.Query("source"))
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	raster, err := load(c.Request.Context(), grid, c.Query("resampling"))
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"grid":    grid.String(),
		"source":  name,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("served clumping index")

	c.JSON(http.StatusOK, NewRasterResponse(raster, name))
}

// GetPoint handles GET /v1/clumping-index/point.
func (h *Handler) GetPoint(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	value, err := h.points.Sample(c.Request.Context(), lat, lon, c.Query("source"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

// GetTiles handles GET /v1/tiles.
func (h *Handler) GetTiles(c *gin.Context) {
	bbox, err := domain.ParseBBox(c.Query("bbox"))
	if err != nil {
		respondError(c, err)
		return
	}
	grid, err := bbox.Grid(1, 1, "EPSG:4326")
	if err != nil {
		respondError(c, err)
		return
	}

	tiles, err := h.tiles.Tiles(grid)
	if err != nil {
		respondError(c, err)
		return
	}
	if tiles == nil {
		tiles = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"bbox":  []float64{bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY},
		"tiles": tiles,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"sources": h.sources.Names(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidGrid),
		errors.Is(err, domain.ErrInvalidResampling),
		errors.Is(err, domain.ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDownloadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
