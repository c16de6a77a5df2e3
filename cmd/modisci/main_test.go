package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.ngs.io/modisci/internal/adapter/archive"
	"go.ngs.io/modisci/internal/config"
	"go.ngs.io/modisci/internal/domain"
	"go.ngs.io/modisci/internal/usecase"
)

func TestGridFlags(t *testing.T) {
	f := gridFlags{bbox: "4,44,6,46", size: "480x480", crs: "EPSG:4326"}
	g, err := f.grid()
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if g.Width != 480 || g.Height != 480 || g.CRS != "EPSG:4326" {
		t.Fatalf("unexpected grid %s", g)
	}

	f.size = "480"
	if _, err := f.grid(); !errors.Is(err, domain.ErrInvalidGrid) {
		t.Fatalf("expected ErrInvalidGrid, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestNewAppBuildsArchiveOnDemand(t *testing.T) {
	dir := t.TempDir()
	c := &config.Config{
		Port:  "8080",
		Tiles: config.TilesConfig{Dir: filepath.Join(dir, "tiles")},
		Archive: config.ArchiveConfig{
			URL:       archive.DefaultURL,
			Dir:       filepath.Join(dir, "cache"),
			ChunkSize: 1024,
			Netrc:     filepath.Join(dir, "missing-netrc"),
		},
	}

	local, err := newApp(c, false)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if local.fetcher != nil {
		t.Fatal("archive fetcher should not be built for tile-only commands")
	}
	if got := local.sources.Names(); !reflect.DeepEqual(got, []string{usecase.SourceTiles}) {
		t.Fatalf("sources: got %v", got)
	}

	full, err := newApp(c, true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if full.fetcher == nil || full.fetcher.Path() != filepath.Join(dir, "cache", "global_clumping_index.tif") {
		t.Fatalf("unexpected fetcher: %+v", full.fetcher)
	}
	if got := full.sources.Names(); !reflect.DeepEqual(got, []string{usecase.SourceRemote, usecase.SourceTiles}) {
		t.Fatalf("sources: got %v", got)
	}
}
