package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"

	"golang.org/x/net/publicsuffix"
)

// NewClient creates an HTTP client with its own cookie jar that sends Basic
// credentials to authHost only. Earthdata Login redirects archive requests
// to authHost and back, setting session cookies on the way.
func NewClient(authHost, username, password string) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{
		Jar: jar,
		Transport: &basicAuthTransport{
			base:     http.DefaultTransport,
			host:     authHost,
			username: username,
			password: password,
		},
	}, nil
}

// basicAuthTransport adds Basic credentials to requests for a single host.
type basicAuthTransport struct {
	base     http.RoundTripper
	host     string
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.username != "" && req.URL.Hostname() == t.host {
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.username, t.password)
	}
	return t.base.RoundTrip(req)
}

// HTTPDownloader streams a URL into a file.
type HTTPDownloader struct {
	Client    *http.Client
	ChunkSize int
}

// Download writes the response body of rawURL to dest. A partially written
// dest is removed when the transfer fails.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	size := d.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	if _, err := io.CopyBuffer(out, resp.Body, make([]byte, size)); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}
