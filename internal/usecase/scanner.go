package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/schollz/progressbar/v3"

	"github.com/reviewlens/harvester/internal/domain"
)

// progressInterval is how often (in scanned lines) counts are logged.
const progressInterval = 100000

// maxLineBytes bounds a single corpus line; review records are small but the
// default bufio size (64K) is too tight for long review bodies. A line over
// this limit is treated like a malformed one, not a fatal corpus error.
const maxLineBytes = 1 << 20

// ScanStats summarizes one pass over the bulk corpus.
type ScanStats struct {
	Scanned   int
	Matched   int
	Malformed int
	Counts    map[string]int
}

// ScannerConfig holds configuration for the corpus scanner
type ScannerConfig struct {
	Strict       bool // abort on the first malformed line instead of skipping
	ShowProgress bool
}

// CorpusScanner streams the bulk corpus record-by-record, classifies each
// record against the resolved match criteria, and accumulates matches under
// the run budget. Accumulation state lives in an explicit per-product map
// owned by the scan call, so a future parallel scan can shard and merge it.
type CorpusScanner struct {
	mode     domain.MatchMode
	criteria map[string]domain.MatchCriteria
	order    []string // catalog order; phrase routing is first-match-wins
	budget   domain.Budget
	config   ScannerConfig
}

// NewCorpusScanner creates a scanner for one resolved catalog. The order
// slice fixes phrase-mode routing priority and must list every product id.
func NewCorpusScanner(mode domain.MatchMode, criteria map[string]domain.MatchCriteria, order []string, budget domain.Budget, config ScannerConfig) *CorpusScanner {
	return &CorpusScanner{
		mode:     mode,
		criteria: criteria,
		order:    order,
		budget:   budget,
		config:   config,
	}
}

// accumulator collects matches for one product during a scan.
type accumulator struct {
	records []domain.RawRecord
}

// Scan reads the corpus exactly once and routes each record to at most one
// product. It stops when the scan cap is hit or every product reached its
// per-product cap, whichever occurs first. A malformed line is skipped and
// counted unless strict mode is on, in which case it aborts the scan.
func (s *CorpusScanner) Scan(ctx context.Context, r io.Reader) (map[string][]domain.RawRecord, ScanStats, error) {
	stats := ScanStats{Counts: make(map[string]int, len(s.order))}
	accs := make(map[string]*accumulator, len(s.order))
	for _, pid := range s.order {
		accs[pid] = &accumulator{}
		stats.Counts[pid] = 0
	}

	idIndex := s.buildIDIndex()

	var bar *progressbar.ProgressBar
	if s.config.ShowProgress {
		bar = progressbar.Default(-1, "scanning corpus")
		defer bar.Close()
	}

	reader := bufio.NewReaderSize(r, maxLineBytes)

	for {
		select {
		case <-ctx.Done():
			return s.collect(accs), stats, ctx.Err()
		default:
		}

		line, tooLong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %v", domain.ErrCorpusUnreadable, err)
		}

		stats.Scanned++
		if bar != nil {
			_ = bar.Add(1)
		}

		var rec domain.CorpusRecord
		var parseErr error
		if tooLong {
			parseErr = fmt.Errorf("line exceeds %d bytes", maxLineBytes)
		} else {
			parseErr = json.Unmarshal(line, &rec)
		}
		switch {
		case parseErr != nil && s.config.Strict:
			return nil, stats, fmt.Errorf("%w: line %d: %v", domain.ErrRecordParse, stats.Scanned, parseErr)
		case parseErr != nil:
			stats.Malformed++
		default:
			if pid, ok := s.classify(rec, idIndex, stats.Counts); ok {
				accs[pid].records = append(accs[pid].records, rec)
				stats.Counts[pid]++
				stats.Matched++
			}
		}

		if stats.Scanned%progressInterval == 0 {
			log.Printf("[scan] scanned=%d matched=%d malformed=%d counts=%v",
				stats.Scanned, stats.Matched, stats.Malformed, stats.Counts)
		}

		if stats.Scanned >= s.budget.MaxScan || s.allFull(stats.Counts) {
			break
		}
	}

	log.Printf("[scan] done: scanned=%d matched=%d malformed=%d counts=%v",
		stats.Scanned, stats.Matched, stats.Malformed, stats.Counts)
	return s.collect(accs), stats, nil
}

// readLine returns the next newline-terminated line without its terminator.
// An oversized line is drained to its newline and reported via tooLong so
// the caller can count it and keep scanning. io.EOF signals a clean end.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	line, err = r.ReadSlice('\n')
	if err == nil || (errors.Is(err, io.EOF) && len(line) > 0) {
		return bytes.TrimRight(line, "\r\n"), false, nil
	}
	if !errors.Is(err, bufio.ErrBufferFull) {
		return nil, false, err
	}
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = r.ReadSlice('\n')
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, true, err
	}
	return nil, true, nil
}

// classify routes one record to at most one still-open product.
func (s *CorpusScanner) classify(rec domain.CorpusRecord, idIndex map[string]string, counts map[string]int) (string, bool) {
	if s.mode == domain.MatchByExternalID {
		pid, ok := idIndex[NormalizeExternalID(rec.ASIN)]
		if !ok || counts[pid] >= s.budget.MaxPerProduct {
			return "", false
		}
		return pid, true
	}

	titleNorm := NormalizePhrase(rec.Title)
	if titleNorm == "" {
		return "", false
	}
	for _, pid := range s.order {
		if counts[pid] >= s.budget.MaxPerProduct {
			continue
		}
		if ContainsAny(titleNorm, s.criteria[pid].Phrases) {
			return pid, true
		}
	}
	return "", false
}

// buildIDIndex inverts the criteria into an external-id → product-id index.
func (s *CorpusScanner) buildIDIndex() map[string]string {
	if s.mode != domain.MatchByExternalID {
		return nil
	}
	index := make(map[string]string, len(s.criteria))
	for pid, c := range s.criteria {
		if c.ExternalID != "" {
			index[c.ExternalID] = pid
		}
	}
	return index
}

// allFull reports whether every product reached its per-product cap.
func (s *CorpusScanner) allFull(counts map[string]int) bool {
	for _, pid := range s.order {
		if counts[pid] < s.budget.MaxPerProduct {
			return false
		}
	}
	return true
}

func (s *CorpusScanner) collect(accs map[string]*accumulator) map[string][]domain.RawRecord {
	out := make(map[string][]domain.RawRecord, len(accs))
	for pid, acc := range accs {
		out[pid] = acc.records
	}
	return out
}
