package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw/products.csv", cfg.Paths.Catalog)
	assert.Equal(t, "data/raw/review_urls.csv", cfg.Paths.ExternalIDs)
	assert.Equal(t, "data/raw", cfg.Paths.OutputDir)

	assert.Equal(t, 500, cfg.Budget.MaxPerProduct)
	assert.Equal(t, 800000, cfg.Budget.MaxScan)
	assert.Equal(t, 3, cfg.Budget.MaxPages)

	assert.False(t, cfg.Corpus.Strict)
	assert.Contains(t, cfg.Corpus.URL, ".json.gz")

	assert.Equal(t, "https://www.amazon.com", cfg.Scrape.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scrape.RequestInterval)
	assert.True(t, cfg.Scrape.SearchEnabled)
	assert.False(t, cfg.Scrape.ForceLive)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 100, cfg.RateLimit.PerIP)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REVIEWLENS_BUDGET_MAX_PER_PRODUCT", "25")
	t.Setenv("REVIEWLENS_CORPUS_STRICT", "true")
	t.Setenv("REVIEWLENS_SCRAPE_REQUEST_INTERVAL", "3s")
	t.Setenv("REVIEWLENS_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Budget.MaxPerProduct)
	assert.True(t, cfg.Corpus.Strict)
	assert.Equal(t, 3*time.Second, cfg.Scrape.RequestInterval)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty catalog path", "REVIEWLENS_PATHS_CATALOG", ""},
		{"non-positive per-product cap", "REVIEWLENS_BUDGET_MAX_PER_PRODUCT", "0"},
		{"negative scan cap", "REVIEWLENS_BUDGET_MAX_SCAN", "-5"},
		{"negative page cap", "REVIEWLENS_BUDGET_MAX_PAGES", "-1"},
		{"zero timeout", "REVIEWLENS_SCRAPE_TIMEOUT", "0s"},
		{"non-positive rate limit", "REVIEWLENS_RATELIMIT_PER_IP", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
