// Package fetch downloads remote playbooks and task files into a local
// directory so ansible-playbook can read them.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/yourlabs/bigsudo/internal/branding"
	"github.com/yourlabs/bigsudo/internal/platform"
)

// Fetcher downloads files over HTTP.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	progress   io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithProgress reports download progress to w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		userAgent:  branding.CLIName(),
		progress:   io.Discard,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FileName returns the name a download of rawURL is saved under: the last
// non-empty segment of its path.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %s: %w", rawURL, err)
	}
	name := path.Base(path.Clean("/" + u.Path))
	if name == "/" || name == "." {
		return "", fmt.Errorf("url %s has no file name", rawURL)
	}
	return name, nil
}

// Download saves rawURL into destDir and returns the written path. An
// existing file of the same name is replaced only once the download has
// completed.
func (f *Fetcher) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	log.Debug().Str("url", rawURL).Str("dest", destPath).Msg("downloading")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(destDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", destPath, err)
	}

	if err := platform.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("setting permissions on %s: %w", destPath, err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return "", fmt.Errorf("moving download into place: %w", err)
	}

	fmt.Fprintf(f.progress, "%s -> %s (%d bytes)\n", rawURL, destPath, written)
	return destPath, nil
}
