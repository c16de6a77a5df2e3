package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go.ngs.io/modisci/internal/domain"
	"go.ngs.io/modisci/internal/usecase"
)

type fakeLister struct {
	tiles []string
	grid  domain.Grid
}

func (f *fakeLister) Tiles(grid domain.Grid) ([]string, error) {
	f.grid = grid
	return f.tiles, nil
}

type fakeSampler struct {
	value *usecase.PointValue
	err   error
}

func (f fakeSampler) Sample(_ context.Context, lat, lon float64, source string) (*usecase.PointValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := *f.value
	v.Lat, v.Lon, v.Source = lat, lon, source
	return &v, nil
}

func halfRaster(_ context.Context, grid domain.Grid, resampling string) (*domain.Raster, error) {
	if _, err := domain.ParseResampling(resampling); err != nil {
		return nil, err
	}
	r := domain.NewFilledRaster(grid, 0.5)
	r.Data[0] = float32(math.NaN())
	return r, nil
}

func failing(err error) usecase.Source {
	return func(context.Context, domain.Grid, string) (*domain.Raster, error) {
		return nil, err
	}
}

func setupTestRouter(lister *fakeLister, sources usecase.Sources, sampler PointSampler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewHandler(lister, sources, sampler), nil)
}

func doGet(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(&fakeLister{}, usecase.Sources{usecase.SourceTiles: halfRaster}, fakeSampler{})
	w := doGet(t, router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var body struct {
		Status  string   `json:"status"`
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || len(body.Sources) != 1 || body.Sources[0] != usecase.SourceTiles {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetClumpingIndex(t *testing.T) {
	router := setupTestRouter(&fakeLister{}, usecase.Sources{usecase.SourceTiles: halfRaster}, fakeSampler{})
	w := doGet(t, router, "/v1/clumping-index?bbox=4,44,6,46&size=2x2")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}

	var body RasterResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Width != 2 || body.Height != 2 || body.CRS != "EPSG:4326" || body.Source != usecase.SourceTiles {
		t.Fatalf("unexpected header: %+v", body)
	}
	if body.NoDataCount != 1 || body.Values[0][0] != nil {
		t.Fatalf("NaN should be encoded as null: %s", w.Body.String())
	}
	if body.Values[1][1] == nil || *body.Values[1][1] != 0.5 {
		t.Fatalf("expected 0.5, got %v", body.Values[1][1])
	}
	if body.GeoTransform[0] != 4 || body.GeoTransform[3] != 46 || body.GeoTransform[1] != 1 {
		t.Fatalf("geotransform: %v", body.GeoTransform)
	}
}

func TestGetClumpingIndexErrors(t *testing.T) {
	sources := usecase.Sources{
		usecase.SourceTiles:  failing(domain.ErrTileNotFound),
		usecase.SourceRemote: failing(domain.ErrDownloadFailed),
		"half":               halfRaster,
		"broken":             failing(errors.New("disk on fire")),
	}
	router := setupTestRouter(&fakeLister{}, sources, fakeSampler{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing bbox", "/v1/clumping-index?size=2x2", http.StatusBadRequest},
		{"bad size", "/v1/clumping-index?bbox=0,0,1,1&size=2", http.StatusBadRequest},
		{"too large", "/v1/clumping-index?bbox=0,0,1,1&size=100000x100000", http.StatusBadRequest},
		{"overflowing size", "/v1/clumping-index?bbox=0,0,1,1&size=4294967296x4294967296", http.StatusBadRequest},
		{"unknown source", "/v1/clumping-index?bbox=0,0,1,1&size=2x2&source=ftp", http.StatusBadRequest},
		{"bad resampling", "/v1/clumping-index?bbox=0,0,1,1&size=2x2&source=half&resampling=sinc", http.StatusBadRequest},
		{"missing tile", "/v1/clumping-index?bbox=0,0,1,1&size=2x2", http.StatusNotFound},
		{"download failure", "/v1/clumping-index?bbox=0,0,1,1&size=2x2&source=remote", http.StatusBadGateway},
		{"internal", "/v1/clumping-index?bbox=0,0,1,1&size=2x2&source=broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(t, router, tt.target)
			if w.Code != tt.want {
				t.Fatalf("status: got %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestGetPoint(t *testing.T) {
	v := 0.42
	router := setupTestRouter(&fakeLister{}, usecase.Sources{}, fakeSampler{value: &usecase.PointValue{Value: &v}})

	w := doGet(t, router, "/v1/clumping-index/point?lat=45.5&lon=5.25&source=remote")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var body usecase.PointValue
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Lat != 45.5 || body.Lon != 5.25 || body.Source != "remote" || body.Value == nil || *body.Value != 0.42 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	if w := doGet(t, router, "/v1/clumping-index/point?lat=abc&lon=5"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid latitude: got %d", w.Code)
	}
}

func TestGetPointErrors(t *testing.T) {
	router := setupTestRouter(&fakeLister{}, usecase.Sources{}, fakeSampler{err: domain.ErrInvalidSource})
	if w := doGet(t, router, "/v1/clumping-index/point?lat=1&lon=2&source=x"); w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestGetTiles(t *testing.T) {
	lister := &fakeLister{tiles: []string{"h17v04", "h18v04"}}
	router := setupTestRouter(lister, usecase.Sources{}, fakeSampler{})

	w := doGet(t, router, "/v1/tiles?bbox=-1,44,1,46")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Tiles []string `json:"tiles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tiles) != 2 || body.Tiles[0] != "h17v04" {
		t.Fatalf("tiles: got %v", body.Tiles)
	}
	if lister.grid.CRS != "EPSG:4326" {
		t.Fatalf("tiles should be listed for a geographic grid, got %s", lister.grid.CRS)
	}

	if w := doGet(t, router, "/v1/tiles?bbox=1,2"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad bbox: got %d", w.Code)
	}
}

func TestCORSAllowedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewHandler(&fakeLister{}, usecase.Sources{}, fakeSampler{}), []string{"https://maps.example.org"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://maps.example.org")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.org" {
		t.Fatalf("allowed origin: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin: got %d", w.Code)
	}
}

func TestNewRasterResponse(t *testing.T) {
	g, err := domain.NewGridFromBounds(10, 20, 13, 22, 3, 2, "EPSG:4326")
	if err != nil {
		t.Fatal(err)
	}
	r := domain.NewFilledRaster(g, 0.25)
	r.Set(1, 2, float32(math.NaN()))

	resp := NewRasterResponse(r, usecase.SourceRemote)
	if resp.Width != 3 || resp.Height != 2 || resp.CRS != "EPSG:4326" || resp.GeoTransform != g.GeoTransform {
		t.Fatalf("grid not copied: %+v", resp)
	}
	if resp.Source != usecase.SourceRemote || resp.NoDataCount != 1 {
		t.Fatalf("unexpected source or nodata count: %+v", resp)
	}
	if len(resp.Values) != 2 || len(resp.Values[0]) != 3 {
		t.Fatalf("values shape: %d rows", len(resp.Values))
	}
	if resp.Values[1][2] != nil {
		t.Errorf("NaN pixel should be nil, got %v", *resp.Values[1][2])
	}
	if resp.Values[0][0] == nil || *resp.Values[0][0] != 0.25 {
		t.Errorf("expected 0.25, got %v", resp.Values[0][0])
	}
}
