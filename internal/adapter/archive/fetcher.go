// Package archive downloads the global clumping-index product from the
// ORNL DAAC archive and serves it cropped to target grids.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"go.ngs.io/modisci/internal/adapter/gdal"
	"go.ngs.io/modisci/internal/domain"
)

const (
	// DefaultURL is the global 500 m clumping-index GeoTIFF.
	DefaultURL = "https://daac.ornl.gov/daacdata/global_vegetation/Clumping_Index/data/global_clumping_index.tif"

	// DefaultDirectory is the cache directory, relative to the working directory.
	DefaultDirectory = "MODISCI_download"

	// DefaultChunkSize is the copy buffer size used while downloading.
	DefaultChunkSize = 1 << 20

	// AuthHost is the Earthdata Login host that receives Basic credentials.
	AuthHost = "urs.earthdata.nasa.gov"

	// FillValue marks pixels outside the product and is scaled along with data.
	FillValue = 20

	// ScaleFactor converts stored bytes to the fractional index.
	ScaleFactor = 255

	tempSuffix = ".download"
)

// credentialHosts are tried in order when credentials are not given explicitly.
var credentialHosts = []string{"daac.ornl.gov", AuthHost}

// Downloader transfers a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, rawURL, dest string) error
}

// RasterReader warps a raster file onto a target grid.
type RasterReader interface {
	ReadOnto(path string, grid domain.Grid, opts gdal.WarpOptions) (*domain.Raster, error)
}

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	Username  string
	Password  string
	URL       string
	Directory string
	ChunkSize int

	// NetrcPath overrides the credentials file ($NETRC or ~/.netrc).
	NetrcPath string

	// AuthHost overrides the host that receives Basic credentials.
	AuthHost string

	// Downloader replaces the HTTP transfer.
	Downloader Downloader

	// Reader replaces the GDAL raster reader.
	Reader RasterReader
}

// Fetcher downloads the global product once and crops it on request.
// All state is fixed at construction. Each Fetcher owns its HTTP client, so
// fetchers with different credentials do not affect each other.
type Fetcher struct {
	url       string
	directory string
	chunkSize int
	username  string
	password  string

	client     *http.Client
	downloader Downloader
	reader     RasterReader
}

// New creates a Fetcher. Missing credentials are looked up in the netrc file,
// first for daac.ornl.gov and then for urs.earthdata.nasa.gov, falling back to
// the file's default entry; lookup failures are logged and leave the
// credentials empty.
func New(opts Options) (*Fetcher, error) {
	rawURL := opts.URL
	if rawURL == "" {
		rawURL = DefaultURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid archive URL %q", rawURL)
	}

	dir := opts.Directory
	if dir == "" {
		dir = DefaultDirectory
	}
	dir, err = expandPath(dir)
	if err != nil {
		return nil, err
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	username, password := opts.Username, opts.Password
	if username == "" || password == "" {
		username, password = lookupCredentials(opts.NetrcPath, username, password)
	}

	authHost := opts.AuthHost
	if authHost == "" {
		authHost = AuthHost
	}
	client, err := NewClient(authHost, username, password)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		url:        rawURL,
		directory:  dir,
		chunkSize:  chunkSize,
		username:   username,
		password:   password,
		client:     client,
		downloader: opts.Downloader,
		reader:     opts.Reader,
	}
	if f.downloader == nil {
		f.downloader = &HTTPDownloader{Client: client, ChunkSize: chunkSize}
	}
	if f.reader == nil {
		f.reader = gdal.NewReader()
	}
	return f, nil
}

func lookupCredentials(netrcPath, username, password string) (string, string) {
	for _, host := range credentialHosts {
		login, pass, err := lookupNetrc(netrcPath, host)
		if err != nil {
			log.WithField("host", host).Warnf("unable to read credentials from netrc: %v", err)
			continue
		}
		if username == "" {
			username = login
		}
		if password == "" {
			password = pass
		}
		if username != "" && password != "" {
			break
		}
	}
	return username, password
}

// expandPath expands a leading "~" and makes p absolute.
func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return abs, nil
}

// URL returns the archive URL.
func (f *Fetcher) URL() string { return f.url }

// Directory returns the absolute cache directory.
func (f *Fetcher) Directory() string { return f.directory }

// ChunkSize returns the download buffer size.
func (f *Fetcher) ChunkSize() int { return f.chunkSize }

// Username returns the resolved username, possibly empty.
func (f *Fetcher) Username() string { return f.username }

// HasPassword reports whether a password was resolved.
func (f *Fetcher) HasPassword() bool { return f.password != "" }

// Client returns the fetcher's authenticated HTTP client.
func (f *Fetcher) Client() *http.Client { return f.client }

// Path returns the cache file location, <directory>/<basename(URL)>.
func (f *Fetcher) Path() string {
	name := f.url
	if u, err := url.Parse(f.url); err == nil {
		name = u.Path
	}
	return filepath.Join(f.directory, path.Base(name))
}

// Download makes sure the product is in the cache and returns its path.
// An existing cache file is trusted as is and never fetched again.
// The transfer goes to a temporary file that is renamed into place. Unlike a
// bare external transfer, whose exit status is ignored and only the presence
// of the temporary file counts, an error from the Downloader fails the
// download and removes the partial file.
func (f *Fetcher) Download(ctx context.Context) (string, error) {
	filename := f.Path()
	if _, err := os.Stat(filename); err == nil {
		log.WithField("path", filename).Info("clumping index already downloaded")
		return filename, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to check cache file %s: %w", filename, err)
	}

	//nolint:gosec // G301: Cache directory is shared with other tools.
	if err := os.MkdirAll(f.directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", f.directory, err)
	}

	partial := filename + tempSuffix
	log.WithFields(log.Fields{"url": f.url, "path": filename}).Info("downloading clumping index")
	start := time.Now()

	if err := f.downloader.Download(ctx, f.url, partial); err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDownloadFailed, f.url, err)
	}

	info, err := os.Stat(partial)
	if err != nil {
		return "", fmt.Errorf("%w: %s: no file at %s", domain.ErrDownloadFailed, f.url, partial)
	}

	elapsed := time.Since(start)
	log.WithFields(log.Fields{
		"size":    humanize.Bytes(uint64(info.Size())),
		"elapsed": elapsed.Round(time.Millisecond),
	}).Info("download complete")

	if err := os.Rename(partial, filename); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", partial, err)
	}
	return filename, nil
}

// CI returns the clumping index on grid: the cached product is cropped and
// resampled in one warp, with FillValue outside the product, then divided by
// ScaleFactor. The fill value is scaled too, so it reads as 20/255.
func (f *Fetcher) CI(ctx context.Context, grid domain.Grid, resampling string) (*domain.Raster, error) {
	method, err := domain.ParseResampling(resampling)
	if err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	filename, err := f.Download(ctx)
	if err != nil {
		return nil, err
	}

	image, err := f.reader.ReadOnto(filename, grid, gdal.WarpOptions{
		Resampling: method,
		DstNoData:  FillValue,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	image.Divide(ScaleFactor)
	return image, nil
}
