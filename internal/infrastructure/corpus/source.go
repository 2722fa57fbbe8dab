package corpus

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/reviewlens/harvester/internal/domain"
)

// Source locates the bulk corpus on disk, downloading it from the configured
// URL when the local copy is missing.
type Source struct {
	url    string
	path   string
	client *http.Client
}

// NewSource creates a source for a corpus URL and its local cache path. The
// download client carries no timeout; corpus files run to hundreds of
// megabytes and are bounded by the request context instead.
func NewSource(url, path string) *Source {
	return &Source{
		url:    url,
		path:   path,
		client: &http.Client{},
	}
}

// Open returns a decoded line stream over the corpus, fetching it first if
// needed. Gzipped files are transparently decompressed based on extension.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := s.EnsureLocal(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusUnreadable, err)
	}
	if !strings.HasSuffix(s.path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusUnreadable, err)
	}
	return &gzipStream{gz: gz, file: f}, nil
}

// EnsureLocal downloads the corpus to the cache path unless it already
// exists. The download streams straight to disk through a temp file so a
// partial fetch never masquerades as a complete corpus.
func (s *Source) EnsureLocal(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if s.url == "" {
		return fmt.Errorf("%w: %s does not exist and no corpus url is configured", domain.ErrCorpusUnreadable, s.path)
	}

	log.Printf("[corpus] downloading %s to %s", s.url, s.path)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating corpus dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("building corpus request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: corpus download returned status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	tmp := s.path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("moving corpus into place: %w", err)
	}
	log.Printf("[corpus] download complete: %s", s.path)
	return nil
}

// gzipStream closes both the decompressor and the underlying file.
type gzipStream struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipStream) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipStream) Close() error {
	gzErr := g.gz.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}
