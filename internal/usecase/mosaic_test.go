package usecase

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.ngs.io/modisci/internal/domain"
)

type staticBoundary struct {
	calls int
}

func (b *staticBoundary) BoundaryLatLon(grid domain.Grid, _ int) ([][2]float64, error) {
	b.calls++
	minX, minY, maxX, maxY := grid.Bounds()
	return [][2]float64{{minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY}, {minX, maxY}}, nil
}

type staticIndex struct {
	tiles []string
	err   error
}

func (i staticIndex) Tiles(_ [][2]float64) ([]string, error) {
	return i.tiles, i.err
}

// fakeTiles returns preset rasters per tile id and records the read order.
type fakeTiles struct {
	data  map[string][]float32
	order []string
}

func (f *fakeTiles) ReadTile(tileID string, grid domain.Grid) (*domain.Raster, error) {
	f.order = append(f.order, tileID)
	values, ok := f.data[tileID]
	if !ok {
		return nil, domain.ErrTileNotFound
	}
	data := make([]float32, len(values))
	copy(data, values)
	return &domain.Raster{Grid: grid, Data: data}, nil
}

func grid2x2(t *testing.T) domain.Grid {
	t.Helper()
	g, err := domain.NewGridFromBounds(0, 0, 2, 2, 2, 2, "EPSG:4326")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

var nan = float32(math.NaN())

func TestMosaicLoad_EarlierTileWins(t *testing.T) {
	tiles := &fakeTiles{data: map[string][]float32{
		"h18v04": {0.5, nan, 0.25, nan},
		"h19v04": {0.9, 0.8, nan, nan},
	}}
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{tiles: []string{"h18v04", "h19v04"}}, tiles)

	got, err := loader.Load(context.Background(), grid2x2(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Data[0] != 0.5 {
		t.Errorf("overlap pixel: expected first tile value 0.5, got %v", got.Data[0])
	}
	if got.Data[1] != 0.8 {
		t.Errorf("gap pixel: expected 0.8 from second tile, got %v", got.Data[1])
	}
	if got.Data[2] != 0.25 {
		t.Errorf("expected 0.25, got %v", got.Data[2])
	}
	if !math.IsNaN(float64(got.Data[3])) {
		t.Errorf("uncovered pixel: expected NaN, got %v", got.Data[3])
	}
	if !reflect.DeepEqual(tiles.order, []string{"h18v04", "h19v04"}) {
		t.Errorf("tiles read out of order: %v", tiles.order)
	}
}

func TestMosaicLoad_OrderDecidesPriority(t *testing.T) {
	data := map[string][]float32{
		"a": {1, 1, 1, 1},
		"b": {2, 2, 2, 2},
	}
	forward := NewMosaicLoader(&staticBoundary{}, staticIndex{tiles: []string{"a", "b"}}, &fakeTiles{data: data})
	reverse := NewMosaicLoader(&staticBoundary{}, staticIndex{tiles: []string{"b", "a"}}, &fakeTiles{data: data})

	f, err := forward.Load(context.Background(), grid2x2(t))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	r, err := reverse.Load(context.Background(), grid2x2(t))
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if f.Data[0] != 1 || r.Data[0] != 2 {
		t.Fatalf("expected first tile to win: forward=%v reverse=%v", f.Data[0], r.Data[0])
	}
}

func TestMosaicLoad_NoTiles(t *testing.T) {
	tiles := &fakeTiles{}
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{}, tiles)

	g, err := domain.NewGridFromBounds(0, 0, 3, 2, 3, 2, "EPSG:4326")
	if err != nil {
		t.Fatal(err)
	}
	got, err := loader.Load(context.Background(), g)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Grid.Width != 3 || got.Grid.Height != 2 || len(got.Data) != 6 {
		t.Fatalf("unexpected shape: %dx%d (%d samples)", got.Grid.Width, got.Grid.Height, len(got.Data))
	}
	if got.NaNCount() != 6 {
		t.Fatalf("expected all-NaN raster, got %d NaN pixels", got.NaNCount())
	}
	if len(tiles.order) != 0 {
		t.Fatalf("expected no tile reads, got %v", tiles.order)
	}
}

func TestMosaicLoad_MissingTileFails(t *testing.T) {
	tiles := &fakeTiles{data: map[string][]float32{"a": {1, 1, 1, 1}}}
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{tiles: []string{"a", "missing"}}, tiles)

	_, err := loader.Load(context.Background(), grid2x2(t))
	if !errors.Is(err, domain.ErrTileNotFound) {
		t.Fatalf("expected ErrTileNotFound, got %v", err)
	}
}

func TestMosaicLoad_IndexError(t *testing.T) {
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{err: errors.New("boom")}, &fakeTiles{})
	if _, err := loader.Load(context.Background(), grid2x2(t)); err == nil {
		t.Fatal("expected index error to propagate")
	}
}

func TestMosaicLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tiles := &fakeTiles{data: map[string][]float32{"a": {1, 1, 1, 1}}}
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{tiles: []string{"a"}}, tiles)
	if _, err := loader.Load(ctx, grid2x2(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadClumpingIndex_ValidatesResampling(t *testing.T) {
	loader := NewMosaicLoader(&staticBoundary{}, staticIndex{}, &fakeTiles{})

	if _, err := loader.LoadClumpingIndex(context.Background(), grid2x2(t), "sinc"); !errors.Is(err, domain.ErrInvalidResampling) {
		t.Fatalf("expected ErrInvalidResampling, got %v", err)
	}
	if _, err := loader.LoadClumpingIndex(context.Background(), grid2x2(t), "bilinear"); err != nil {
		t.Fatalf("bilinear: %v", err)
	}
}

func TestMosaicTiles(t *testing.T) {
	boundary := &staticBoundary{}
	tiles := &fakeTiles{}
	loader := NewMosaicLoader(boundary, staticIndex{tiles: []string{"h17v04", "h18v04"}}, tiles)

	got, err := loader.Tiles(grid2x2(t))
	if err != nil {
		t.Fatalf("Tiles: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"h17v04", "h18v04"}) {
		t.Fatalf("got %v", got)
	}
	if boundary.calls != 1 || len(tiles.order) != 0 {
		t.Fatalf("listing tiles should only project the boundary, reads: %v", tiles.order)
	}

	if _, err := loader.Tiles(domain.Grid{}); !errors.Is(err, domain.ErrInvalidGrid) {
		t.Fatalf("expected ErrInvalidGrid, got %v", err)
	}
}
