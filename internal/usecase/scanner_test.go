package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewlens/harvester/internal/domain"
)

func phraseCriteria() map[string]domain.MatchCriteria {
	return map[string]domain.MatchCriteria{
		"p1": {ProductID: "p1", Phrases: []string{"tender selects"}},
		"p2": {ProductID: "p2", Phrases: []string{"wilderness"}},
	}
}

func TestScanPhraseMode(t *testing.T) {
	input := strings.Join([]string{
		`{"title":"Purina ONE Tender Selects Blend","reviewText":"good","overall":5.0}`,
		`{"title":"Blue Buffalo Wilderness High Protein","reviewText":"ok","overall":4.0}`,
		`{"title":"Generic Dog Toy","reviewText":"squeaks","overall":3.0}`,
		`{"title":"Tender Selects 7lb bag","reviewText":"cat approved","overall":5.0}`,
	}, "\n")

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{},
	)
	matched, stats, err := scanner.Scan(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Scanned)
	assert.Equal(t, 3, stats.Matched)
	assert.Len(t, matched["p1"], 2)
	assert.Len(t, matched["p2"], 1)
}

func TestScanPerProductCap(t *testing.T) {
	lines := make([]string, 5)
	for i := range lines {
		lines[i] = `{"title":"Tender Selects refill","reviewText":"yum"}`
	}

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 2, MaxScan: 100}, ScannerConfig{},
	)
	matched, stats, err := scanner.Scan(context.Background(), strings.NewReader(strings.Join(lines, "\n")))

	require.NoError(t, err)
	assert.Len(t, matched["p1"], 2)
	assert.Equal(t, 2, stats.Counts["p1"])
}

func TestScanStopsAtScanCap(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = `{"title":"nothing relevant"}`
	}

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 3}, ScannerConfig{},
	)
	_, stats, err := scanner.Scan(context.Background(), strings.NewReader(strings.Join(lines, "\n")))

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"title":"Tender Selects","reviewText":"fine"}`,
		`{not json at all`,
		`{"title":"Wilderness","reviewText":"fine"}`,
	}, "\n")

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{},
	)
	matched, stats, err := scanner.Scan(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Malformed)
	assert.Len(t, matched["p1"], 1)
	assert.Len(t, matched["p2"], 1)
}

func TestScanSkipsOversizedLines(t *testing.T) {
	// A line over the buffer limit counts as malformed; records before and
	// after it still match.
	input := strings.Join([]string{
		`{"title":"Tender Selects","reviewText":"before"}`,
		`{"title":"padding","reviewText":"` + strings.Repeat("a", maxLineBytes) + `"}`,
		`{"title":"Wilderness","reviewText":"after"}`,
	}, "\n")

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{},
	)
	matched, stats, err := scanner.Scan(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Malformed)
	assert.Len(t, matched["p1"], 1)
	assert.Len(t, matched["p2"], 1)
}

func TestScanStrictAbortsOnOversizedLine(t *testing.T) {
	input := `{"title":"padding","reviewText":"` + strings.Repeat("a", maxLineBytes) + `"}`

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{Strict: true},
	)
	_, _, err := scanner.Scan(context.Background(), strings.NewReader(input))

	assert.ErrorIs(t, err, domain.ErrRecordParse)
}

func TestScanStrictAbortsOnMalformedLine(t *testing.T) {
	input := strings.Join([]string{
		`{"title":"Tender Selects","reviewText":"fine"}`,
		`{not json at all`,
	}, "\n")

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, phraseCriteria(), []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{Strict: true},
	)
	_, _, err := scanner.Scan(context.Background(), strings.NewReader(input))

	assert.ErrorIs(t, err, domain.ErrRecordParse)
}

func TestScanExternalIDMode(t *testing.T) {
	input := strings.Join([]string{
		`{"asin":"B000AAAA01","reviewText":"match p1"}`,
		`{"asin":"b000aaaa01","reviewText":"case-insensitive match p1"}`,
		`{"asin":"B000ZZZZ99","reviewText":"no product"}`,
	}, "\n")

	criteria := map[string]domain.MatchCriteria{
		"p1": {ProductID: "p1", ExternalID: "B000AAAA01"},
		"p2": {ProductID: "p2"},
	}
	scanner := NewCorpusScanner(
		domain.MatchByExternalID, criteria, []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{},
	)
	matched, stats, err := scanner.Scan(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Len(t, matched["p1"], 2)
	assert.Empty(t, matched["p2"])
	assert.Equal(t, 2, stats.Matched)
}

func TestScanRoutesToFirstOpenProduct(t *testing.T) {
	// A title matching both products goes to the earlier catalog entry only.
	criteria := map[string]domain.MatchCriteria{
		"p1": {ProductID: "p1", Phrases: []string{"cat food"}},
		"p2": {ProductID: "p2", Phrases: []string{"cat food"}},
	}
	input := `{"title":"Best cat food ever","reviewText":"yes"}`

	scanner := NewCorpusScanner(
		domain.MatchByPhrase, criteria, []string{"p1", "p2"},
		domain.Budget{MaxPerProduct: 10, MaxScan: 100}, ScannerConfig{},
	)
	matched, _, err := scanner.Scan(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Len(t, matched["p1"], 1)
	assert.Empty(t, matched["p2"])
}
