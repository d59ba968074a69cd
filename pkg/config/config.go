package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"TrendPull/internal/services/indicators"
	"TrendPull/internal/services/trend"
)

// EnvPrefix prefixes every environment override, e.g. TRENDPULL_KAFKA_BROKERS.
const EnvPrefix = "TRENDPULL"

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "config/config.yaml"

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	App         AppConfig       `yaml:"app"`
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Analysis    AnalysisConfig  `yaml:"analysis"`
	Market      MarketConfig    `yaml:"market"`
	Scanner     ScannerConfig   `yaml:"scanner"`
	LLM         LLMConfig       `yaml:"llm"`
	Redis       RedisConfig     `yaml:"redis"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	RateLimit   RateLimitConfig `yaml:"ratelimit"`
}

type AppConfig struct {
	Name        string `yaml:"name" default:"trendpull"`
	Version     string `yaml:"version" default:"0.1.0"`
	Description string `yaml:"description"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type LoggingConfig struct {
	Level     string          `yaml:"level" default:"info"`
	Format    string          `yaml:"format" default:"json"`
	Output    string          `yaml:"output" default:"stdout"`
	Collector CollectorConfig `yaml:"collector"`
}

// CollectorConfig controls shipping of aggregated error logs to kafka.
type CollectorConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Topic     string        `yaml:"topic" default:"trendpull.logs"`
	Interval  time.Duration `yaml:"interval" default:"30s"`
	Threshold int           `yaml:"threshold" default:"100"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type AnalysisConfig struct {
	Indicators  indicators.Config `yaml:"indicators"`
	Trend       trend.Options     `yaml:"trend"`
	HistoryDays int               `yaml:"history_days" default:"90"`
}

const (
	ProviderYahoo      = "yahoo"
	ProviderClickHouse = "clickhouse"
)

type MarketConfig struct {
	Provider string        `yaml:"provider" default:"yahoo"`
	Yahoo    YahooConfig   `yaml:"yahoo"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"5m"`
}

type YahooConfig struct {
	BaseURL  string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
	Range    string        `yaml:"range" default:"3mo"`
	Interval string        `yaml:"interval" default:"1d"`
	Timeout  time.Duration `yaml:"timeout" default:"10s"`
}

type ScannerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Count       int           `yaml:"count" default:"200"`
	VolumeRatio float64       `yaml:"volume_ratio" default:"1.1"`
	Concurrency int           `yaml:"concurrency" default:"4"`
	Timeout     time.Duration `yaml:"timeout" default:"15s"`
}

type LLMConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	APIVersion      string        `yaml:"api_version" default:"2024-02-01"`
	Deployment      string        `yaml:"deployment"`
	SubscriptionKey string        `yaml:"subscription_key"`
	PromptPath      string        `yaml:"prompt_path" default:"config/prompt.txt"`
	Temperature     float64       `yaml:"temperature" default:"0.2"`
	MaxTokens       int           `yaml:"max_tokens" default:"800"`
	Retry           int           `yaml:"retry" default:"2"`
	Timeout         time.Duration `yaml:"timeout" default:"60s"`
}

type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr" default:"localhost:6379"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	ReportTTL time.Duration `yaml:"report_ttl" default:"10m"`
}

type ClickHouse struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"market"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"daily_klines"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	RequestTopic string   `yaml:"request_topic" default:"trend.requests"`
	ReportTopic  string   `yaml:"report_topic" default:"trend.reports"`
	Producer     struct {
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchSize    int           `yaml:"batch_size" default:"50"`
		Linger       time.Duration `yaml:"linger" default:"200ms"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"trendpull"`
		Workers    int           `yaml:"workers" default:"2"`
		BufferSize int           `yaml:"buffer_size" default:"16"`
		RetryMax   int           `yaml:"retry_max" default:"2"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic   string        `yaml:"dlq_topic"`
	} `yaml:"consumer"`
}

type RateLimitConfig struct {
	Capacity     int     `yaml:"capacity" default:"5"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
}

// Default returns a configuration built only from defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return &c
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	return finish(c)
}

// Overrides are the settings that may come from TRENDPULL_* variables.
// Unset variables leave the file value untouched.
type Overrides struct {
	Environment        string   `envconfig:"ENVIRONMENT"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	Port               int      `envconfig:"PORT"`
	MarketProvider     string   `envconfig:"MARKET_PROVIDER"`
	ScannerBaseURL     string   `envconfig:"SCANNER_BASE_URL"`
	LLMEndpoint        string   `envconfig:"LLM_ENDPOINT"`
	LLMDeployment      string   `envconfig:"LLM_DEPLOYMENT"`
	LLMKey             string   `envconfig:"LLM_SUBSCRIPTION_KEY"`
	RedisAddr          string   `envconfig:"REDIS_ADDR"`
	RedisPassword      string   `envconfig:"REDIS_PASSWORD"`
	ClickHouseHost     string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePassword string   `envconfig:"CLICKHOUSE_PASSWORD"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
}

// LoadWithEnv is Load with TRENDPULL_* environment overrides applied after the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	var o Overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	c.Apply(o)
	return finish(c)
}

// Apply copies every non-zero override into c.
func (c *Config) Apply(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Environment, o.Environment)
	set(&c.Logging.Level, o.LogLevel)
	set(&c.Market.Provider, o.MarketProvider)
	set(&c.Scanner.BaseURL, o.ScannerBaseURL)
	set(&c.LLM.Endpoint, o.LLMEndpoint)
	set(&c.LLM.Deployment, o.LLMDeployment)
	set(&c.LLM.SubscriptionKey, o.LLMKey)
	set(&c.Redis.Addr, o.RedisAddr)
	set(&c.Redis.Password, o.RedisPassword)
	set(&c.ClickHouse.Host, o.ClickHouseHost)
	set(&c.ClickHouse.Password, o.ClickHousePassword)
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if len(o.KafkaBrokers) > 0 {
		c.Kafka.Brokers = o.KafkaBrokers
	}
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// Decoding over the defaults keeps explicit false and zero values from the file.
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func finish(c *Config) (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks enums, required fields and the analysis parameters.
func (c *Config) Validate() error {
	switch c.Market.Provider {
	case ProviderYahoo:
	case ProviderClickHouse:
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("market.provider 'clickhouse' requires clickhouse.enabled")
		}
	default:
		return fmt.Errorf("market.provider must be 'yahoo' or 'clickhouse', got '%s'", c.Market.Provider)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got '%s'", c.Logging.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collector requires kafka.enabled")
	}
	if c.Scanner.VolumeRatio <= 0 {
		return fmt.Errorf("scanner.volume_ratio must be positive")
	}
	if c.Analysis.HistoryDays < 2 {
		return fmt.Errorf("analysis.history_days must be at least 2")
	}
	if err := c.Analysis.Indicators.Validate(); err != nil {
		return err
	}
	return c.Analysis.Trend.Validate()
}

// LLMConfigured reports whether the LLM endpoint can be called.
func (c *Config) LLMConfigured() bool {
	return c.LLM.Endpoint != "" && c.LLM.Deployment != "" && c.LLM.SubscriptionKey != ""
}
