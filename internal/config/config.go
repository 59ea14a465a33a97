package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Parse  ParseConfig  `yaml:"parse" mapstructure:"parse"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	OCR    OCRConfig    `yaml:"ocr" mapstructure:"ocr"`
}

// StoreConfig configures the law library backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures access to the statute site.
type FetchConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	PDFDir      string  `yaml:"pdf_dir" mapstructure:"pdf_dir"`
}

// ParseConfig tunes the law parser.
type ParseConfig struct {
	Workers          int     `yaml:"workers" mapstructure:"workers"`
	MinWords         int     `yaml:"min_words" mapstructure:"min_words"`
	DOMFallbackRatio float64 `yaml:"dom_fallback_ratio" mapstructure:"dom_fallback_ratio"`
	MaxNewTextRunes  int     `yaml:"max_new_text_runes" mapstructure:"max_new_text_runes"`
	CorrectionsFile  string  `yaml:"corrections_file" mapstructure:"corrections_file"`
}

// BatchConfig configures folder syncs.
type BatchConfig struct {
	MaxConcurrentLaws int `yaml:"max_concurrent_laws" mapstructure:"max_concurrent_laws"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STATUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "statutes.db")
	v.SetDefault("fetch.base_url", "https://laws.boe.gov.sa")
	v.SetDefault("fetch.user_agent", "statute-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.pdf_dir", "")
	v.SetDefault("parse.workers", 4)
	v.SetDefault("parse.min_words", 2)
	v.SetDefault("parse.dom_fallback_ratio", 0.5)
	v.SetDefault("parse.max_new_text_runes", 500)
	v.SetDefault("parse.corrections_file", "")
	v.SetDefault("batch.max_concurrent_laws", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "parse", "fetch", "sync" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "parse":
	case "fetch", "sync":
		if c.Fetch.BaseURL == "" {
			errs = append(errs, "fetch.base_url is required")
		}
		if c.Fetch.RatePerSec <= 0 {
			errs = append(errs, "fetch.rate_per_sec must be > 0")
		}
		if c.Fetch.MaxRetries < 0 {
			errs = append(errs, "fetch.max_retries must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Parse.Workers < 1 || c.Parse.Workers > 64 {
		errs = append(errs, "parse.workers must be between 1 and 64")
	}
	if c.Parse.DOMFallbackRatio < 0 || c.Parse.DOMFallbackRatio > 1 {
		errs = append(errs, "parse.dom_fallback_ratio must be between 0 and 1")
	}
	if c.Batch.MaxConcurrentLaws < 1 || c.Batch.MaxConcurrentLaws > 50 {
		errs = append(errs, "batch.max_concurrent_laws must be between 1 and 50")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
