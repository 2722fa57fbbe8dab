package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the harvester
type Config struct {
	Paths     PathsConfig
	Budget    BudgetConfig
	Corpus    CorpusConfig
	Scrape    ScrapeConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
}

// PathsConfig holds input/output locations
type PathsConfig struct {
	Catalog     string `mapstructure:"catalog"`
	ExternalIDs string `mapstructure:"external_ids"`
	OutputDir   string `mapstructure:"output_dir"`
	HTMLReadDir string `mapstructure:"html_read_dir"`
	HTMLSaveDir string `mapstructure:"html_save_dir"`
}

// BudgetConfig caps resource use of one acquisition run
type BudgetConfig struct {
	MaxPerProduct int `mapstructure:"max_per_product"`
	MaxScan       int `mapstructure:"max_scan"`
	MaxPages      int `mapstructure:"max_pages"`
}

// CorpusConfig holds bulk-corpus settings
type CorpusConfig struct {
	URL    string `mapstructure:"url"`
	Strict bool   `mapstructure:"strict"` // abort the scan on the first malformed line
}

// ScrapeConfig holds live-extraction settings
type ScrapeConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	SearchEnabled   bool          `mapstructure:"search_enabled"`
	ForceLive       bool          `mapstructure:"force_live"`
}

// ServerConfig holds serve-mode settings
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/reviewlens/")

	// Environment variable settings
	v.SetEnvPrefix("REVIEWLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Path defaults
	v.SetDefault("paths.catalog", "data/raw/products.csv")
	v.SetDefault("paths.external_ids", "data/raw/review_urls.csv")
	v.SetDefault("paths.output_dir", "data/raw")
	v.SetDefault("paths.html_read_dir", "")
	v.SetDefault("paths.html_save_dir", "")

	// Budget defaults
	v.SetDefault("budget.max_per_product", 500)
	v.SetDefault("budget.max_scan", 800000)
	v.SetDefault("budget.max_pages", 3)

	// Corpus defaults
	v.SetDefault("corpus.url", "https://jmcauley.ucsd.edu/data/amazon_v2/categoryFilesSmall/Pet_Supplies_5.json.gz")
	v.SetDefault("corpus.strict", false)

	// Scrape defaults
	v.SetDefault("scrape.base_url", "https://www.amazon.com")
	v.SetDefault("scrape.timeout", "20s")
	v.SetDefault("scrape.request_interval", "1500ms")
	v.SetDefault("scrape.search_enabled", true)
	v.SetDefault("scrape.force_live", false)

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Paths.Catalog == "" {
		return fmt.Errorf("catalog path is required (set REVIEWLENS_PATHS_CATALOG)")
	}

	if config.Paths.OutputDir == "" {
		return fmt.Errorf("output directory is required (set REVIEWLENS_PATHS_OUTPUT_DIR)")
	}

	if config.Budget.MaxPerProduct <= 0 {
		return fmt.Errorf("budget.max_per_product must be positive, got: %d", config.Budget.MaxPerProduct)
	}

	if config.Budget.MaxScan <= 0 {
		return fmt.Errorf("budget.max_scan must be positive, got: %d", config.Budget.MaxScan)
	}

	if config.Budget.MaxPages < 0 {
		return fmt.Errorf("budget.max_pages must not be negative, got: %d", config.Budget.MaxPages)
	}

	if config.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be positive, got: %s", config.Scrape.Timeout)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
