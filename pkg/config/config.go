package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"BestPrice/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Logging     logger.Config `yaml:"logging"`

	Dataset struct {
		Source      string `yaml:"source" default:"file" validate:"oneof=file clickhouse"`
		Name        string `yaml:"name" default:"EURUSD" validate:"required"`
		DataDir     string `yaml:"data_dir" default:"data"`
		PriceColumn int    `yaml:"price_column" default:"4" validate:"gte=0"`
		Delimiter   string `yaml:"delimiter" default:"\t" validate:"len=1"`
	} `yaml:"dataset"`

	Experiment struct {
		WholePeriod   int          `yaml:"whole_period" default:"250" validate:"gte=1"`
		TradingPeriod int          `yaml:"trading_period" default:"200" validate:"gte=1,ltefield=WholePeriod"`
		Samples       int          `yaml:"samples" default:"20" validate:"gte=1"`
		EtaStep       float64      `yaml:"eta_step" default:"0.01" validate:"gt=0,lt=1"`
		Workers       int          `yaml:"workers" default:"4" validate:"gte=1"`
		RValues       []float64    `yaml:"r_values" validate:"dive,gt=0"`
		HPairs        [][2]float64 `yaml:"h_pairs"`
	} `yaml:"experiment"`

	Output struct {
		Dir    string `yaml:"dir" default:"experiment_result"`
		CSV    bool   `yaml:"csv" default:"true"`
		Charts bool   `yaml:"charts" default:"true"`
	} `yaml:"output"`

	Server struct {
		Port                int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout         time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout        time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout     time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// token bucket per client for GET /api/experiments; burst 0 disables it
		ExperimentBurst     float64       `yaml:"experiment_burst" default:"5" validate:"gte=0"`
		ExperimentPerSecond float64       `yaml:"experiment_per_second" default:"0.2" validate:"gte=0"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Cache struct {
		TTL        time.Duration `yaml:"ttl" default:"1h"`
		MemorySize int           `yaml:"memory_size" default:"256" validate:"gte=1"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"bestprice"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"bestprice"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		ReportsTopic  string   `yaml:"reports_topic" default:"bestprice.reports"`
		RequestsTopic string   `yaml:"requests_topic" default:"bestprice.requests"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Consumer      struct {
			GroupID    string        `yaml:"group_id" default:"bestprice"`
			Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"16" validate:"gte=1"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"bestprice.requests.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	Finnhub struct {
		APIKey       string        `yaml:"api_key"`
		WebSocketURL string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		PingInterval time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"finnhub"`

	Live struct {
		Symbol    string  `yaml:"symbol" default:"BINANCE:BTCUSDT"`
		Family    string  `yaml:"family" default:"aware" validate:"oneof=oblivious aware"`
		Direction string  `yaml:"direction" default:"negative" validate:"oneof=negative positive"`
		VStar     float64 `yaml:"v_star"`
		Eta       float64 `yaml:"eta" validate:"gte=0"`
		R         float64 `yaml:"r" default:"1"`
		Hn        float64 `yaml:"hn"`
		Hp        float64 `yaml:"hp"`
		Max       float64 `yaml:"max"`
		Min       float64 `yaml:"min"`
		MaxTicks  int     `yaml:"max_ticks" default:"1000" validate:"gte=1"`
	} `yaml:"live"`
}

var validate = validator.New()

// DefaultRValues are the discount factors swept for H-Oblivious.
var DefaultRValues = []float64{0.5, 0.75, 1, 1.5}

// DefaultHPairs are the (Hn, Hp) trust-bound pairs swept for H-Aware.
var DefaultHPairs = [][2]float64{
	{0.05, 0.05}, {0.1, 0.1}, {0.2, 0.2}, {0.2, 0.3}, {0.3, 0.3}, {0.4, 0.4}, {0.5, 0.5},
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML bytes over them and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present) and the YAML config, then applies
// environment overrides. A missing config file falls back to defaults.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BESTPRICE_DATASET"); v != "" {
		c.Dataset.Name = v
	}
	if v := os.Getenv("BESTPRICE_DATA_DIR"); v != "" {
		c.Dataset.DataDir = v
	}
	if v := os.Getenv("BESTPRICE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
}

func (c *Config) finish() error {
	if len(c.Experiment.RValues) == 0 {
		c.Experiment.RValues = append([]float64(nil), DefaultRValues...)
	}
	if len(c.Experiment.HPairs) == 0 {
		c.Experiment.HPairs = append([][2]float64(nil), DefaultHPairs...)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, p := range c.Experiment.HPairs {
		if p[0] < 0 || p[1] < 0 || p[1] >= 1 {
			return fmt.Errorf("experiment.h_pairs: invalid pair (%v, %v)", p[0], p[1])
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
