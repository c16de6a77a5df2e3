package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.ngs.io/modisci/internal/domain"
)

// Source names.
const (
	SourceTiles  = "tiles"
	SourceRemote = "remote"
)

// Source loads clumping-index values onto a grid.
type Source func(ctx context.Context, grid domain.Grid, resampling string) (*domain.Raster, error)

// Sources maps source names to loaders.
type Sources map[string]Source

// Lookup returns the named source. An empty name selects SourceTiles.
func (s Sources) Lookup(name string) (string, Source, error) {
	if name == "" {
		name = SourceTiles
	}
	src, ok := s[name]
	if !ok || src == nil {
		return "", nil, fmt.Errorf("%w: %q (available: %s)", domain.ErrInvalidSource, name, strings.Join(s.Names(), ", "))
	}
	return name, src, nil
}

// Names returns the registered source names, sorted.
func (s Sources) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
