package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the minuted service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Render    RenderConfig    `mapstructure:"render"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	DevUserEmail string `mapstructure:"dev_user_email"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	return nil
}

// LLMConfig configures the classification/title provider
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TitlesEnabled bool          `mapstructure:"titles_enabled"`
}

// RenderConfig configures the share-page render backends
type RenderConfig struct {
	// Cascade lists backend names in attempt order. Known names:
	// chrome, browserless_unblock, browserless_content, plain.
	Cascade     []string          `mapstructure:"cascade"`
	Plain       PlainConfig       `mapstructure:"plain"`
	Chrome      ChromeConfig      `mapstructure:"chrome"`
	Browserless BrowserlessConfig `mapstructure:"browserless"`
	CacheTTL    time.Duration     `mapstructure:"cache_ttl"`
}

// PlainConfig contains plain HTTP fetch settings
type PlainConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ChromeConfig contains headless browser settings
type ChromeConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	WaitSelector string        `mapstructure:"wait_selector"`
}

// BrowserlessConfig contains remote render service settings
type BrowserlessConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Token            string        `mapstructure:"token"`
	ResidentialProxy bool          `mapstructure:"residential_proxy"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

func (r RenderConfig) Validate() error {
	known := map[string]struct{}{
		"chrome":              {},
		"browserless_unblock": {},
		"browserless_content": {},
		"plain":               {},
	}
	if len(r.Cascade) == 0 {
		return fmt.Errorf("render.cascade must list at least one backend")
	}
	for _, name := range r.Cascade {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("render.cascade: unknown backend %q", name)
		}
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// ConnString builds a postgres:// URL from the parts, unless a full URL
// was given. The URL form works for both lib/pq and golang-migrate.
func (p PostgresConfig) ConnString() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(p.User), url.QueryEscape(p.Password), p.Host, p.Port, p.DBName, sslmode)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// SearchConfig contains conversation search index settings
type SearchConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	IndexPath   string `mapstructure:"index_path"`
	RebuildCron string `mapstructure:"rebuild_cron"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "120s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.dev_user_email", "dev@minutelab.local")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 256)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.titles_enabled", true)
	viper.SetDefault("render.cascade", []string{"chrome", "browserless_unblock", "browserless_content", "plain"})
	viper.SetDefault("render.plain.timeout", "12s")
	viper.SetDefault("render.chrome.timeout", "40s")
	viper.SetDefault("render.chrome.settle_delay", "3s")
	viper.SetDefault("render.browserless.timeout", "60s")
	viper.SetDefault("render.cache_ttl", "10m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.user", "minuted")
	viper.SetDefault("storage.postgres.dbname", "minuted")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("search.enabled", true)
	viper.SetDefault("search.index_path", "./data/minuted.bleve")
	viper.SetDefault("search.rebuild_cron", "0 3 * * *")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.metrics_port", 9090)
}

// bindWellKnownEnv maps conventional environment variable names onto
// their config keys so deployments do not need the MINUTED_ prefix for
// credentials.
func bindWellKnownEnv() {
	viper.BindEnv("llm.api_key", "MINUTED_LLM_API_KEY", "OPENAI_API_KEY")
	viper.BindEnv("render.browserless.token", "MINUTED_RENDER_BROWSERLESS_TOKEN", "BROWSERLESS_TOKEN")
	viper.BindEnv("render.browserless.base_url", "MINUTED_RENDER_BROWSERLESS_BASE_URL", "BROWSERLESS_URL")
	viper.BindEnv("storage.postgres.url", "MINUTED_STORAGE_POSTGRES_URL", "DATABASE_URL")
	viper.BindEnv("server.jwt_secret", "MINUTED_SERVER_JWT_SECRET", "JWT_SECRET")
	viper.BindEnv("server.dev_user_email", "MINUTED_SERVER_DEV_USER_EMAIL", "DEV_USER_EMAIL")
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MINUTED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindWellKnownEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus environment are a complete configuration; only a
		// present-but-broken file is fatal.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Render.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
