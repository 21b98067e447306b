package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nothsreports/internal/affiliate"
	"nothsreports/internal/rank"
)

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Site      SiteConfig      `yaml:"site"`
	Affiliate AffiliateConfig `yaml:"affiliate"`
	Feefo     FeefoConfig     `yaml:"feefo"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Logger    LoggerConfig    `yaml:"logger"`
	Server    ServerConfig    `yaml:"server"`
}

type PathsConfig struct {
	DataDir      string `yaml:"data_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	OutputDir    string `yaml:"output_dir"`
	SnapshotDB   string `yaml:"snapshot_db"`
}

type SiteConfig struct {
	Title        string     `yaml:"title"`
	BaseURL      string     `yaml:"base_url"`
	StaticPath   string     `yaml:"static_path"`
	SellerTopN   int        `yaml:"seller_top_n"`
	ReviewBands  rank.Bands `yaml:"review_bands"`
	ProductBands rank.Bands `yaml:"product_bands"`
	MinReviews   int        `yaml:"min_reviews"`
}

type AffiliateConfig struct {
	MerchantID  string   `yaml:"merchant_id"`
	AffiliateID string   `yaml:"affiliate_id"`
	Domains     []string `yaml:"domains"`
}

type FeefoConfig struct {
	BaseURL  string `yaml:"base_url"`
	Token    string `yaml:"token"`
	Merchant string `yaml:"merchant"`
	PageSize int    `yaml:"page_size"`
}

type ScrapeConfig struct {
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
	Delay     time.Duration `yaml:"delay"`
	UserAgent string        `yaml:"user_agent"`
}

type LoggerConfig struct {
	Level             string `yaml:"level"`
	Encoding          string `yaml:"encoding"`
	DisableCaller     bool   `yaml:"disable_caller"`
	DisableStacktrace bool   `yaml:"disable_stacktrace"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings used when no file or environment overrides
// are present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:    "data",
			StaticDir:  "static",
			OutputDir:  "output/noths",
			SnapshotDB: "data/top_products.sqlite",
		},
		Site: SiteConfig{
			Title:        "NOTHS Sellers and Products",
			BaseURL:      "https://example.github.io/noths",
			StaticPath:   "/static",
			SellerTopN:   100,
			ReviewBands:  rank.NewBands(30000, 20000, 10000, 5000, 2500, 1000),
			ProductBands: rank.NewBands(1000, 500, 250, 100, 50),
			MinReviews:   5,
		},
		Affiliate: AffiliateConfig{
			MerchantID: affiliate.DefaultMerchantID,
			Domains:    []string{affiliate.DefaultDomain},
		},
		Feefo: FeefoConfig{
			BaseURL:  "https://api.feefo.com",
			Merchant: "notonthehighstreet-com",
			PageSize: 100,
		},
		Scrape: ScrapeConfig{
			Workers:   10,
			Timeout:   15 * time.Second,
			Delay:     time.Second,
			UserAgent: "Mozilla/5.0 (compatible; nothsreports/1.0)",
		},
		Logger: LoggerConfig{
			Level:             "info",
			Encoding:          "console",
			DisableStacktrace: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty) and then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("config file %s not found", path)
		case err != nil:
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.Site.ReviewBands = cfg.Site.ReviewBands.Normalize()
	cfg.Site.ProductBands = cfg.Site.ProductBands.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Paths.DataDir = getEnv("NOTHS_DATA_DIR", c.Paths.DataDir)
	c.Paths.TemplatesDir = getEnv("NOTHS_TEMPLATES_DIR", c.Paths.TemplatesDir)
	c.Paths.StaticDir = getEnv("NOTHS_STATIC_DIR", c.Paths.StaticDir)
	c.Paths.OutputDir = getEnv("NOTHS_OUTPUT_DIR", c.Paths.OutputDir)
	c.Paths.SnapshotDB = getEnv("NOTHS_SNAPSHOT_DB", c.Paths.SnapshotDB)

	c.Site.BaseURL = getEnv("NOTHS_BASE_URL", c.Site.BaseURL)
	c.Site.StaticPath = getEnv("NOTHS_STATIC_PATH", c.Site.StaticPath)
	c.Site.SellerTopN = getEnvInt("NOTHS_SELLER_TOP_N", c.Site.SellerTopN)
	c.Site.MinReviews = getEnvInt("NOTHS_MIN_REVIEWS", c.Site.MinReviews)

	c.Affiliate.MerchantID = getEnv("AWIN_MERCHANT_ID", c.Affiliate.MerchantID)
	c.Affiliate.AffiliateID = getEnv("AWIN_AFFILIATE_ID", c.Affiliate.AffiliateID)
	c.Affiliate.Domains = getEnvSlice("AFFILIATE_DOMAINS", c.Affiliate.Domains)

	c.Feefo.BaseURL = getEnv("FEEFO_BASE_URL", c.Feefo.BaseURL)
	c.Feefo.Token = getEnv("FEEFO_API_TOKEN", c.Feefo.Token)
	c.Feefo.Merchant = getEnv("FEEFO_MERCHANT", c.Feefo.Merchant)
	c.Feefo.PageSize = getEnvInt("FEEFO_PAGE_SIZE", c.Feefo.PageSize)

	c.Scrape.Workers = getEnvInt("SCRAPE_WORKERS", c.Scrape.Workers)
	c.Scrape.Timeout = getEnvDuration("SCRAPE_TIMEOUT", c.Scrape.Timeout)
	c.Scrape.Delay = getEnvDuration("SCRAPE_DELAY", c.Scrape.Delay)
	c.Scrape.UserAgent = getEnv("SCRAPE_USER_AGENT", c.Scrape.UserAgent)

	c.Logger.Level = getEnv("LOGGER_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getEnv("LOGGER_ENCODING", c.Logger.Encoding)
	c.Logger.DisableCaller = getEnvBool("LOGGER_DISABLE_CALLER", c.Logger.DisableCaller)
	c.Logger.DisableStacktrace = getEnvBool("LOGGER_DISABLE_STACKTRACE", c.Logger.DisableStacktrace)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
}

// Normalizer returns the affiliate link normalizer for these settings.
func (c *Config) Normalizer() affiliate.Normalizer {
	n := affiliate.New(c.Affiliate.MerchantID, c.Affiliate.AffiliateID)
	if len(c.Affiliate.Domains) > 0 {
		n.Domains = c.Affiliate.Domains
	}
	return n
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var out []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return fallback
}
