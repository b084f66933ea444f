// Package config loads service configuration from a YAML file with
// environment-variable overrides. Every component receives its settings
// from here; nothing reads the environment ad hoc.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Window    time.Duration `mapstructure:"window"`
}

type ScraperConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	MarkersPath  string        `mapstructure:"markers_path"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

type ShareConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // zero keeps shares forever
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Share     ShareConfig     `mapstructure:"share"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Load reads CONFIG_PATH (default ./config/citechat.yaml) if it exists and
// applies CITECHAT_* environment overrides on top of the defaults. A
// missing file is not an error; the defaults are a working configuration.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("citechat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/citechat.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.threshold", 10)
	v.SetDefault("rate_limit.window", "60s")

	v.SetDefault("scraper.timeout", "10s")
	v.SetDefault("scraper.user_agent", "citechat/1.0")
	v.SetDefault("scraper.max_body_bytes", 2<<20)
	v.SetDefault("scraper.markers_path", "./config/scraper.yaml")

	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("llm.model", "gemini-pro")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)

	v.SetDefault("share.ttl", "0")

	v.SetDefault("logging.level", "info")
}
