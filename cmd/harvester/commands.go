package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reviewlens/harvester/config"
	delivery "github.com/reviewlens/harvester/internal/delivery/http"
	"github.com/reviewlens/harvester/internal/domain"
	"github.com/reviewlens/harvester/internal/infrastructure/catalog"
	"github.com/reviewlens/harvester/internal/infrastructure/corpus"
	"github.com/reviewlens/harvester/internal/infrastructure/htmlcache"
	"github.com/reviewlens/harvester/internal/infrastructure/retail"
	"github.com/reviewlens/harvester/internal/usecase"
)

var (
	flagStrict    bool
	flagForceLive bool
	flagProducts  []string
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Builds per-product review corpora from bulk and live sources",
	Long: `harvester reads a fixed product catalog and collects customer reviews
for each product, either by scanning a bulk offline corpus or by extracting
reviews from live retail pages. Every run writes one CSV per product.`,
	SilenceUsage: true,
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Scan the bulk corpus and write per-product review files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagStrict {
			cfg.Corpus.Strict = true
		}

		ctx, stop := signalContext()
		defer stop()

		orch := buildOrchestrator(cfg)
		return orch.RunCorpus(ctx)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract reviews from live retail pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagForceLive {
			cfg.Scrape.ForceLive = true
		}

		ctx, stop := signalContext()
		defer stop()

		orch := buildOrchestrator(cfg)
		return orch.RunLive(ctx, flagProducts)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the collected review corpora over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		loader := catalog.NewLoader(cfg.Paths.Catalog, cfg.Paths.ExternalIDs)
		handler := delivery.NewHandler(loader, cfg.Paths.OutputDir)
		router := delivery.SetupRouter(handler, cfg)

		log.Printf("starting server on port %s (environment: %s)", cfg.Server.Port, cfg.Server.Environment)
		return router.Run(":" + cfg.Server.Port)
	},
}

func init() {
	corpusCmd.Flags().BoolVar(&flagStrict, "strict", false, "abort the scan on the first malformed corpus line")
	scrapeCmd.Flags().BoolVar(&flagForceLive, "force-live", false, "attempt live extraction regardless of source site")
	scrapeCmd.Flags().StringSliceVar(&flagProducts, "products", nil, "comma-separated product ids to scrape (default: all)")

	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildOrchestrator wires the full acquisition pipeline from configuration.
func buildOrchestrator(cfg *config.Config) *usecase.Orchestrator {
	budget := domain.Budget{
		MaxPerProduct: cfg.Budget.MaxPerProduct,
		MaxScan:       cfg.Budget.MaxScan,
		MaxPages:      cfg.Budget.MaxPages,
	}

	loader := catalog.NewLoader(cfg.Paths.Catalog, cfg.Paths.ExternalIDs)
	source := corpus.NewSource(cfg.Corpus.URL, corpusPath(cfg))
	client := retail.NewClient(cfg.Scrape.BaseURL, cfg.Scrape.Timeout, cfg.Scrape.RequestInterval)
	store := htmlcache.NewStore(cfg.Paths.HTMLReadDir, cfg.Paths.HTMLSaveDir)

	cascade := usecase.NewExtractionCascade(client, store, budget, usecase.CascadeConfig{
		SearchEnabled: cfg.Scrape.SearchEnabled,
		ForceLive:     cfg.Scrape.ForceLive,
		SiteHost:      siteHost(cfg.Scrape.BaseURL),
	})

	return usecase.NewOrchestrator(
		loader,
		source,
		cascade,
		usecase.NewIdentityResolver(),
		usecase.NewReviewNormalizer(cfg.Budget.MaxPerProduct),
		budget,
		usecase.ScannerConfig{Strict: cfg.Corpus.Strict, ShowProgress: true},
		cfg.Paths.OutputDir,
	)
}

// corpusPath derives the local cache path for the corpus from its URL.
func corpusPath(cfg *config.Config) string {
	name := "corpus.json.gz"
	if i := strings.LastIndex(cfg.Corpus.URL, "/"); i >= 0 && i < len(cfg.Corpus.URL)-1 {
		name = cfg.Corpus.URL[i+1:]
	}
	return filepath.Join(cfg.Paths.OutputDir, name)
}

// siteHost reduces a base URL to the host fragment used for eligibility.
func siteHost(baseURL string) string {
	host := strings.TrimPrefix(baseURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
