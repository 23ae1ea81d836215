// Package config resolves client settings. Later sources win:
// defaults, then the YAML file named by SHOP_CONFIG, then the environment
// (a .env file fills in variables that are not already set).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type StoreKind string

const (
	StoreBolt   StoreKind = "bolt"
	StoreRedis  StoreKind = "redis"
	StoreMemory StoreKind = "memory"
)

type Config struct {
	APIURL              string        `yaml:"api_url"`
	Store               StoreKind     `yaml:"store"`
	BoltPath            string        `yaml:"bolt_path"`
	RedisAddr           string        `yaml:"redis_addr"`
	RedisKey            string        `yaml:"redis_key"`
	AMQPURL             string        `yaml:"amqp_url"`
	AMQPDialAttempts    int           `yaml:"amqp_dial_attempts"`
	AMQPDialDelay       time.Duration `yaml:"amqp_dial_delay"`
	LogLevel            string        `yaml:"log_level"`
	LogFormat           string        `yaml:"log_format"`
	MetricsAddr         string        `yaml:"metrics_addr"`
	ReportWriteFailures bool          `yaml:"report_write_failures"`
}

func Default() Config {
	return Config{
		APIURL:    "http://localhost:3000/",
		Store:     StoreBolt,
		BoltPath:  "shopfront.db",
		RedisAddr: "localhost:6379",
		RedisKey:  "shopfront:TOKEN",
		LogLevel:  "info",
		LogFormat: "console",

		AMQPDialAttempts: 5,
		AMQPDialDelay:    2 * time.Second,
	}
}

// Load builds the configuration from every source. Missing .env files are ignored.
func Load(dotenvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c := Default()
	if path := os.Getenv("SHOP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Parse(data, &c); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&c, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Parse overlays YAML data on c. Keys absent from data keep their value.
func Parse(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SHOP_API_URL":      &c.APIURL,
		"SHOP_BOLT_PATH":    &c.BoltPath,
		"SHOP_REDIS_ADDR":   &c.RedisAddr,
		"SHOP_REDIS_KEY":    &c.RedisKey,
		"SHOP_AMQP_URL":     &c.AMQPURL,
		"SHOP_LOG_LEVEL":    &c.LogLevel,
		"SHOP_LOG_FORMAT":   &c.LogFormat,
		"SHOP_METRICS_ADDR": &c.MetricsAddr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("SHOP_STORE"); ok {
		c.Store = StoreKind(v)
	}
	if v, ok := lookup("SHOP_REPORT_WRITE_FAILURES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOP_REPORT_WRITE_FAILURES: %w", err)
		}
		c.ReportWriteFailures = b
	}
	if v, ok := lookup("SHOP_AMQP_DIAL_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOP_AMQP_DIAL_ATTEMPTS: %w", err)
		}
		c.AMQPDialAttempts = n
	}
	if v, ok := lookup("SHOP_AMQP_DIAL_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHOP_AMQP_DIAL_DELAY: %w", err)
		}
		c.AMQPDialDelay = d
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreBolt:
		if c.BoltPath == "" {
			return errors.New("store bolt needs bolt_path")
		}
	case StoreRedis:
		if c.RedisAddr == "" || c.RedisKey == "" {
			return errors.New("store redis needs redis_addr and redis_key")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if c.AMQPDialAttempts < 1 || c.AMQPDialDelay < 0 {
		return errors.New("amqp_dial_attempts must be at least 1 and amqp_dial_delay not negative")
	}
	return nil
}
