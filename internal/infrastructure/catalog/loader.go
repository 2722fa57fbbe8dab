package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/reviewlens/harvester/internal/domain"
)

var requiredColumns = []string{"product_id", "brand", "product_name", "source_site", "source_url"}

// Loader reads the product catalog and the optional external-id table from
// CSV files on disk.
type Loader struct {
	catalogPath     string
	externalIDsPath string
}

// NewLoader creates a loader over the given file paths. The external-id path
// may point at a file that does not exist; that only disables exact matching.
func NewLoader(catalogPath, externalIDsPath string) *Loader {
	return &Loader{
		catalogPath:     catalogPath,
		externalIDsPath: externalIDsPath,
	}
}

// Products loads the catalog, preserving file order. Columns are located by
// header name so the file may carry extra columns in any order.
func (l *Loader) Products() ([]domain.CatalogProduct, error) {
	f, err := os.Open(l.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", l.catalogPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}
	idx, err := indexColumns(header, requiredColumns)
	if err != nil {
		return nil, err
	}

	var products []domain.CatalogProduct
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog row: %w", err)
		}
		products = append(products, domain.CatalogProduct{
			ProductID:   field(row, idx, "product_id"),
			Brand:       field(row, idx, "brand"),
			ProductName: field(row, idx, "product_name"),
			Flavor:      field(row, idx, "flavor"),
			SizeVariant: field(row, idx, "size_variant"),
			SourceSite:  field(row, idx, "source_site"),
			SourceURL:   field(row, idx, "source_url"),
			ExternalID:  field(row, idx, "external_id"),
		})
	}
	return products, nil
}

// ExternalIDs loads the product-id to external-id table. A missing or
// unusable file is not an error; it just means no exact matching this run.
func (l *Loader) ExternalIDs() (map[string]string, error) {
	f, err := os.Open(l.externalIDsPath)
	if err != nil {
		log.Printf("[catalog] no external-id table at %s, matching by phrase", l.externalIDsPath)
		return nil, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		log.Printf("[catalog] external-id table unreadable: %v", err)
		return nil, nil
	}
	idx, err := indexColumns(header, []string{"product_id", "asin"})
	if err != nil {
		log.Printf("[catalog] external-id table ignored: %v", err)
		return nil, nil
	}

	ids := make(map[string]string)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading external-id row: %w", err)
		}
		pid := field(row, idx, "product_id")
		asin := field(row, idx, "asin")
		if pid != "" && asin != "" {
			ids[pid] = asin
		}
	}
	return ids, nil
}

// indexColumns maps header names to positions and checks required names.
func indexColumns(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// field reads a named column from a row, tolerating absent optional columns.
func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
