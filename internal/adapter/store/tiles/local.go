// Package tiles provides access to the clumping-index tiles bundled on local disk.
package tiles

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.ngs.io/modisci/internal/adapter/gdal"
	"go.ngs.io/modisci/internal/domain"
)

// Sentinel is the byte value marking pixels without a clumping index.
const Sentinel = 255

// Reader warps a raster file onto a target grid.
type Reader interface {
	ReadOnto(path string, grid domain.Grid, opts gdal.WarpOptions) (*domain.Raster, error)
}

// LocalStore reads "<tile>.tif" files from a directory.
// The directory can be a local disk or a FUSE-mounted bucket.
type LocalStore struct {
	dataDir string
	reader  Reader
}

// NewLocalStore creates a tile store rooted at dataDir.
func NewLocalStore(dataDir string, reader Reader) *LocalStore {
	return &LocalStore{
		dataDir: dataDir,
		reader:  reader,
	}
}

// Path returns the file name of a tile. The file is not checked for existence.
func (s *LocalStore) Path(tileID string) string {
	return filepath.Join(s.dataDir, tileID+".tif")
}

// ReadTile opens a tile, maps the sentinel to NaN, casts to float32 and
// reprojects onto grid with nearest-neighbour resampling.
func (s *LocalStore) ReadTile(tileID string, grid domain.Grid) (*domain.Raster, error) {
	path := s.Path(tileID)
	sentinel := float64(Sentinel)
	raster, err := s.reader.ReadOnto(path, grid, gdal.WarpOptions{
		Resampling: domain.ResamplingNearest,
		SrcNoData:  &sentinel,
		DstNoData:  math.NaN(),
	})
	if err != nil {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrTileNotFound, tileID, statErr)
		}
		return nil, fmt.Errorf("failed to read tile %s: %w", tileID, err)
	}
	return raster, nil
}

// Available lists the tile ids present in the data directory.
func (s *LocalStore) Available() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tile directory %s: %w", s.dataDir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tif") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".tif"))
	}
	sort.Strings(ids)
	return ids, nil
}

// DataDir returns the tile directory.
func (s *LocalStore) DataDir() string {
	return s.dataDir
}
