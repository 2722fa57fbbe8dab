package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/reviewlens/harvester/internal/domain"
)

// CatalogSource supplies the product catalog and the optional external-id
// table that switches the run into exact-match mode.
type CatalogSource interface {
	Products() ([]domain.CatalogProduct, error)
	ExternalIDs() (map[string]string, error)
}

// CorpusOpener yields a decoded line stream of the bulk corpus.
type CorpusOpener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Orchestrator wires identity resolution, acquisition and normalization into
// the two top-level runs: one over the bulk corpus and one against the live
// site. Each run ends with one CSV per catalog product in the output dir.
type Orchestrator struct {
	catalog    CatalogSource
	corpus     CorpusOpener
	cascade    *ExtractionCascade
	resolver   *IdentityResolver
	normalizer *ReviewNormalizer
	budget     domain.Budget
	scanConfig ScannerConfig
	outputDir  string
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(
	catalog CatalogSource,
	corpus CorpusOpener,
	cascade *ExtractionCascade,
	resolver *IdentityResolver,
	normalizer *ReviewNormalizer,
	budget domain.Budget,
	scanConfig ScannerConfig,
	outputDir string,
) *Orchestrator {
	return &Orchestrator{
		catalog:    catalog,
		corpus:     corpus,
		cascade:    cascade,
		resolver:   resolver,
		normalizer: normalizer,
		budget:     budget,
		scanConfig: scanConfig,
		outputDir:  outputDir,
	}
}

// RunCorpus builds every product's review file from the bulk corpus in a
// single streaming pass.
func (o *Orchestrator) RunCorpus(ctx context.Context) error {
	products, err := o.catalog.Products()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	externalIDs, err := o.catalog.ExternalIDs()
	if err != nil {
		return fmt.Errorf("loading external ids: %w", err)
	}

	mode, criteria := o.resolver.Resolve(products, externalIDs)
	log.Printf("[harvest] corpus run: %d products, match mode %s", len(products), mode)

	stream, err := o.corpus.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer stream.Close()

	order := make([]string, 0, len(products))
	for _, p := range products {
		order = append(order, p.ProductID)
	}

	scanner := NewCorpusScanner(mode, criteria, order, o.budget, o.scanConfig)
	matched, stats, err := scanner.Scan(ctx, stream)
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}

	written := 0
	for _, pid := range order {
		rows := o.normalizer.Normalize(pid, matched[pid])
		if len(rows) == 0 {
			log.Printf("[harvest] %s matched zero corpus records, no file written", pid)
			continue
		}
		if err := o.writeReviews(pid, rows); err != nil {
			return err
		}
		written += len(rows)
	}
	log.Printf("[harvest] corpus run complete: scanned=%d written=%d", stats.Scanned, written)
	return nil
}

// RunLive runs the extraction cascade for the selected products, or for the
// whole catalog when ids is empty. A product that yields nothing is reported
// and skipped; the run keeps going.
func (o *Orchestrator) RunLive(ctx context.Context, ids []string) error {
	products, err := o.catalog.Products()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	selected, err := selectProducts(products, ids)
	if err != nil {
		return err
	}
	log.Printf("[harvest] live run: %d products", len(selected))

	written := 0
	for _, p := range selected {
		records, err := o.cascade.Run(ctx, p)
		if err != nil {
			log.Printf("[harvest] %s: %v", p.ProductID, err)
			continue
		}
		rows := o.normalizer.Normalize(p.ProductID, records)
		if err := o.writeReviews(p.ProductID, rows); err != nil {
			return err
		}
		written += len(rows)
	}
	log.Printf("[harvest] live run complete: written=%d", written)
	return nil
}

// selectProducts filters the catalog down to the requested ids, preserving
// catalog order. An unknown id fails the run before any fetch happens.
func selectProducts(products []domain.CatalogProduct, ids []string) ([]domain.CatalogProduct, error) {
	if len(ids) == 0 {
		return products, nil
	}
	byID := make(map[string]domain.CatalogProduct, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductUnknown, id)
		}
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var selected []domain.CatalogProduct
	for _, p := range products {
		if want[p.ProductID] {
			selected = append(selected, p)
		}
	}
	return selected, nil
}

// writeReviews writes one product's canonical rows to reviews_<id>.csv.
func (o *Orchestrator) writeReviews(productID string, rows []domain.NormalizedReview) error {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(o.outputDir, ReviewFileName(productID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(domain.ReviewColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Row()); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	log.Printf("[harvest] wrote %d reviews to %s", len(rows), path)
	return nil
}

// ReviewFileName returns the per-product output file name.
func ReviewFileName(productID string) string {
	return "reviews_" + productID + ".csv"
}
