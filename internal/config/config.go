package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the docfusion configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Index      IndexConfig      `yaml:"index"`
	Structured StructuredConfig `yaml:"structured"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Files      FilesConfig      `yaml:"files"`
	Backfill   BackfillConfig   `yaml:"backfill"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig holds search-index connection, schema and retry settings.
type IndexConfig struct {
	Addrs             []string `yaml:"addrs"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	ReadinessTimeout  int      `yaml:"readiness_timeout_sec"`
	Name              string   `yaml:"name"`
	KeyPrefix         string   `yaml:"key_prefix"`
	Language          string   `yaml:"language"`
	HNSWM             int      `yaml:"hnsw_m"`
	HNSWEFConstruct   int      `yaml:"hnsw_ef_construction"`
	MaxAttempts       int      `yaml:"max_attempts"`
	BaseDelayMS       int      `yaml:"base_delay_ms"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
}

// StructuredConfig holds relational store settings.
type StructuredConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Driver             string `yaml:"driver"` // mysql
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	Database           string `yaml:"database"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// EmbeddingConfig holds embedding and answer-synthesis provider settings.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"` // 0 = derived from model
	MaxInputChars int    `yaml:"max_input_chars"`
	MaxBatchSize  int    `yaml:"max_batch_size"`
	CacheSize     int    `yaml:"cache_size"`
	CacheTTLSec   int    `yaml:"cache_ttl_sec"`
	ChatModel     string `yaml:"chat_model"` // empty disables answers
}

// SearchConfig holds ranking and presentation settings.
type SearchConfig struct {
	IdentifierBonus    float64 `yaml:"identifier_bonus"`
	KeywordMultiplier  float64 `yaml:"keyword_multiplier"`
	ContentWeight      float64 `yaml:"content_weight"`
	ContentScanLimit   int     `yaml:"content_scan_limit"`
	MaxKeywords        int     `yaml:"max_keywords"`
	DefaultTopK        int     `yaml:"default_top_k"`
	MaxTopK            int     `yaml:"max_top_k"`
	KNNCandidateFactor int     `yaml:"knn_candidate_factor"`
	SnippetMax         int     `yaml:"snippet_max"`
	SnippetLength      int     `yaml:"snippet_length"`
	SnippetLead        int     `yaml:"snippet_lead"`
	HighlightFragLen   int     `yaml:"highlight_fragment_len"`
	HighlightFrags     int     `yaml:"highlight_fragments"`
}

// FilesConfig holds public file URL settings.
type FilesConfig struct {
	PublicURL     string   `yaml:"public_url"`
	StripPrefixes []string `yaml:"strip_prefixes"`
}

// BackfillConfig holds vector backfill worker settings.
type BackfillConfig struct {
	BatchSize       int    `yaml:"batch_size"`
	SleepSec        int    `yaml:"sleep_sec"`
	WaitTimeoutSec  int    `yaml:"wait_timeout_sec"`
	WaitPollSec     int    `yaml:"wait_poll_sec"`
	MinReadiness    string `yaml:"min_readiness"` // green, yellow
	AutoStop        bool   `yaml:"auto_stop_enabled"`
	EmptyRoundLimit int    `yaml:"auto_stop_empty_rounds"`
	FailLimit       int    `yaml:"auto_stop_fail_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	setInt(&c.HTTP.ReadTimeoutSec, 10)
	setInt(&c.HTTP.WriteTimeoutSec, 60)
	setInt(&c.HTTP.ShutdownSec, 10)

	setInt(&c.Index.ReadinessTimeout, 10)
	setString(&c.Index.Name, "docfusion:idx")
	setString(&c.Index.KeyPrefix, "doc:")
	setString(&c.Index.Language, "chinese")
	setInt(&c.Index.HNSWM, 16)
	setInt(&c.Index.HNSWEFConstruct, 200)
	setInt(&c.Index.MaxAttempts, 5)
	setInt(&c.Index.BaseDelayMS, 1000)
	setInt(&c.Index.RequestTimeoutSec, 30)

	setString(&c.Structured.Driver, "mysql")
	setInt(&c.Structured.Port, 3306)
	setInt(&c.Structured.MaxIdleConns, 5)
	setInt(&c.Structured.MaxOpenConns, 20)
	setInt(&c.Structured.ConnMaxLifetimeSec, 3600)

	setString(&c.Embedding.Provider, "openai")
	setString(&c.Embedding.Model, "text-embedding-3-small")
	setInt(&c.Embedding.MaxInputChars, 8000)
	setInt(&c.Embedding.MaxBatchSize, 100)
	setInt(&c.Embedding.CacheSize, 1024)
	setInt(&c.Embedding.CacheTTLSec, 86400)

	setFloat(&c.Search.IdentifierBonus, 10)
	setFloat(&c.Search.KeywordMultiplier, 2)
	setFloat(&c.Search.ContentWeight, 0.5)
	setInt(&c.Search.ContentScanLimit, 100)
	setInt(&c.Search.MaxKeywords, 10)
	setInt(&c.Search.DefaultTopK, 10)
	setInt(&c.Search.MaxTopK, 50)
	setInt(&c.Search.KNNCandidateFactor, 10)
	setInt(&c.Search.SnippetMax, 5)
	setInt(&c.Search.SnippetLength, 500)
	setInt(&c.Search.SnippetLead, 100)
	setInt(&c.Search.HighlightFragLen, 150)
	setInt(&c.Search.HighlightFrags, 2)

	setInt(&c.Backfill.BatchSize, 100)
	setInt(&c.Backfill.SleepSec, 10)
	setInt(&c.Backfill.WaitTimeoutSec, 180)
	setInt(&c.Backfill.WaitPollSec, 3)
	setString(&c.Backfill.MinReadiness, "yellow")
	setInt(&c.Backfill.EmptyRoundLimit, 3)
	setInt(&c.Backfill.FailLimit, 5)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Index.Addrs) == 0 {
		return fmt.Errorf("index.addrs is required")
	}
	if c.Structured.Enabled {
		if c.Structured.Driver != "mysql" {
			return fmt.Errorf("structured.driver must be \"mysql\", got %q", c.Structured.Driver)
		}
		if c.Structured.Host == "" || c.Structured.Database == "" {
			return fmt.Errorf("structured.host and structured.database are required when structured.enabled")
		}
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k %d exceeds search.max_top_k %d",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Search.SnippetLead >= c.Search.SnippetLength {
		return fmt.Errorf("search.snippet_lead must be shorter than search.snippet_length")
	}
	switch c.Backfill.MinReadiness {
	case "green", "yellow":
	default:
		return fmt.Errorf("backfill.min_readiness must be \"green\" or \"yellow\", got %q", c.Backfill.MinReadiness)
	}
	return nil
}

// RequestTimeout returns the per-request index timeout.
func (c IndexConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// BaseDelay returns the first retry delay.
func (c IndexConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

func setInt(p *int, def int) {
	if *p <= 0 {
		*p = def
	}
}

func setFloat(p *float64, def float64) {
	if *p <= 0 {
		*p = def
	}
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
