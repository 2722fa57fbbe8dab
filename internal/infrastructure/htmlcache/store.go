package htmlcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store persists fetched page HTML and reads previously saved fragments.
// Either directory may be empty, which disables that side of the store.
type Store struct {
	readDir string
	saveDir string
}

// NewStore creates a store over a read directory and a save directory.
func NewStore(readDir, saveDir string) *Store {
	return &Store{readDir: readDir, saveDir: saveDir}
}

// Load concatenates every saved fragment whose name starts with the product
// id, in lexical order, so paginated saves replay in page order.
func (s *Store) Load(productID string) (string, bool, error) {
	if s.readDir == "" {
		return "", false, nil
	}
	matches, err := filepath.Glob(filepath.Join(s.readDir, productID+"*"))
	if err != nil {
		return "", false, fmt.Errorf("globbing fragments for %s: %w", productID, err)
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	sort.Strings(matches)

	var sb strings.Builder
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("reading fragment %s: %w", path, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), true, nil
}

// SavePage persists one paginated review page.
func (s *Store) SavePage(productID string, page int, html string) error {
	return s.save(fmt.Sprintf("%s_p%d.html", productID, page), html)
}

// SaveSingle persists a single product-page fetch.
func (s *Store) SaveSingle(productID string, html string) error {
	return s.save(productID+".html", html)
}

func (s *Store) save(name, html string) error {
	if s.saveDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.saveDir, 0o755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}
	path := filepath.Join(s.saveDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
