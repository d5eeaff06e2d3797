package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RPCConfig holds JSON-RPC node configurations.
type RPCConfig struct {
	URL                      string `yaml:"url"`
	ConnectionTimeoutSeconds int    `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int    `yaml:"callTimeoutSeconds"`
	BatchTimeoutSeconds      int    `yaml:"batchTimeoutSeconds"`
	ProbeBatchSize           int    `yaml:"probeBatchSize"`
}

// ExplorerConfig holds the paginated REST explorer configurations.
type ExplorerConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	APIKey               string  `yaml:"apiKey"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	PageSize             int     `yaml:"pageSize"`
	BlockRangeSize       uint64  `yaml:"blockRangeSize"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
}

// MarketplaceConfig holds the NFT marketplace API configurations.
type MarketplaceConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	MaxPages             int    `yaml:"maxPages"`
}

// PriceFeedConfig holds the price API configurations.
type PriceFeedConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	HistoryDays          int    `yaml:"historyDays"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
}

// CollectionsConfig identifies the specially tracked ERC-1155 collections.
type CollectionsConfig struct {
	BadgeContract string `yaml:"badgeContract"`
	BadgeMaxID    uint64 `yaml:"badgeMaxId"`
	CardContract  string `yaml:"cardContract"`
	CardMaxID     uint64 `yaml:"cardMaxId"`
}

// HoldingsConfig tunes the holdings reconciler.
type HoldingsConfig struct {
	FloorCacheCapacity   int `yaml:"floorCacheCapacity"`
	FloorCacheTTLMinutes int `yaml:"floorCacheTTLMinutes"`
	EnrichTopN           int `yaml:"enrichTopN"`
}

// RateLimitConfig bounds caller-facing request rates.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	RPC         RPCConfig         `yaml:"rpc"`
	Explorer    ExplorerConfig    `yaml:"explorer"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	PriceFeed   PriceFeedConfig   `yaml:"priceFeed"`
	Collections CollectionsConfig `yaml:"collections"`
	Holdings    HoldingsConfig    `yaml:"holdings"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
}

// Load reads the YAML configuration file from the given path and unmarshals it,
// filling sensible defaults for everything left unset.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.RPC.URL == "" {
		return nil, fmt.Errorf("rpc.url is required")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 120
	}

	if cfg.RPC.ConnectionTimeoutSeconds <= 0 {
		cfg.RPC.ConnectionTimeoutSeconds = 10
	}
	if cfg.RPC.CallTimeoutSeconds <= 0 {
		cfg.RPC.CallTimeoutSeconds = 10
	}
	if cfg.RPC.BatchTimeoutSeconds <= 0 {
		cfg.RPC.BatchTimeoutSeconds = 20
	}
	if cfg.RPC.ProbeBatchSize <= 0 {
		cfg.RPC.ProbeBatchSize = 100
		logrus.Infof("rpc.probeBatchSize not set, defaulting to %d", cfg.RPC.ProbeBatchSize)
	}

	if cfg.Explorer.BaseURL == "" {
		cfg.Explorer.BaseURL = "https://api.etherscan.io/api"
	}
	if cfg.Explorer.RequestTimeoutMillis <= 0 {
		cfg.Explorer.RequestTimeoutMillis = 20000
	}
	if cfg.Explorer.PageSize <= 0 {
		cfg.Explorer.PageSize = 1000
		logrus.Infof("explorer.pageSize not set, defaulting to %d", cfg.Explorer.PageSize)
	}
	if cfg.Explorer.BlockRangeSize == 0 {
		cfg.Explorer.BlockRangeSize = 2_000_000
		logrus.Infof("explorer.blockRangeSize not set, defaulting to %d", cfg.Explorer.BlockRangeSize)
	}
	if cfg.Explorer.RequestsPerSecond <= 0 {
		cfg.Explorer.RequestsPerSecond = 4
	}

	if cfg.Marketplace.BaseURL == "" {
		cfg.Marketplace.BaseURL = "https://api.opensea.io/api/v2"
	}
	if cfg.Marketplace.RequestTimeoutMillis <= 0 {
		cfg.Marketplace.RequestTimeoutMillis = 10000
	}
	if cfg.Marketplace.MaxPages <= 0 {
		cfg.Marketplace.MaxPages = 5
	}

	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.PriceFeed.RequestTimeoutMillis <= 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
	}
	if cfg.PriceFeed.HistoryDays <= 0 {
		cfg.PriceFeed.HistoryDays = 365
	}
	if cfg.PriceFeed.CacheTTLMinutes <= 0 {
		cfg.PriceFeed.CacheTTLMinutes = 5
	}

	if cfg.Collections.BadgeMaxID == 0 {
		cfg.Collections.BadgeMaxID = 50
	}
	if cfg.Collections.CardMaxID == 0 {
		cfg.Collections.CardMaxID = 900
	}

	if cfg.Holdings.FloorCacheCapacity <= 0 {
		cfg.Holdings.FloorCacheCapacity = 200
	}
	if cfg.Holdings.FloorCacheTTLMinutes <= 0 {
		cfg.Holdings.FloorCacheTTLMinutes = 5
	}
	if cfg.Holdings.EnrichTopN <= 0 {
		cfg.Holdings.EnrichTopN = 10
	}

	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = 30
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
}
