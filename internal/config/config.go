package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Backend  BackendConfig  `toml:"backend"`
	Client   ClientConfig   `toml:"client"`
	Storage  StorageConfig  `toml:"storage"`
	MySQL    MySQLConfig    `toml:"mysql"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

// BackendConfig locates the upstream API. APIPrefix is fixed for the lifetime
// of the process: the rewriter is registered with it once.
type BackendConfig struct {
	URL       string `toml:"url"`
	APIPrefix string `toml:"api_prefix"`
}

type ClientConfig struct {
	SiteURL        string `toml:"site_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UseRAG         bool   `toml:"use_rag"`
}

type StorageConfig struct {
	Driver    string `toml:"driver"`
	Path      string `toml:"path"`
	KeyPrefix string `toml:"key_prefix"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RabbitMQConfig struct {
	URL        string `toml:"url"`
	AuditQueue string `toml:"audit_queue"`
}

func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// APIBaseURL is where clients send API calls: the site origin plus the
// rewritten prefix.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.Client.SiteURL, "/") + c.Backend.APIPrefix
}

func (c *Config) MySQLEnabled() bool {
	return c.MySQL.Host != ""
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func (c *Config) validate() error {
	prefix := c.Backend.APIPrefix
	if prefix == "" || !strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("invalid api prefix %q: must start with / and not end with /", prefix)
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("backend url is empty")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "portfolio-site",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
		},
		Backend: BackendConfig{
			URL:       "http://localhost:8000",
			APIPrefix: "/api",
		},
		Client: ClientConfig{
			SiteURL:        "http://localhost:8080",
			TimeoutSeconds: 0,
			UseRAG:         true,
		},
		Storage: StorageConfig{
			Driver:    "file",
			Path:      defaultStatePath(),
			KeyPrefix: "portfolio:",
		},
		MySQL: MySQLConfig{
			Host:   "",
			Port:   3306,
			User:   "root",
			DB:     "portfolio_site",
			Params: "parseTime=true&loc=Local&charset=utf8mb4",
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},
		RabbitMQ: RabbitMQConfig{
			URL:        "",
			AuditQueue: "portfolio.admin.audit",
		},
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".portfolio-state.toml"
	}
	return home + "/.portfolio/state.toml"
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Backend.URL = getEnv("BACKEND_URL", cfg.Backend.URL)
	cfg.Backend.APIPrefix = getEnv("API_PREFIX", cfg.Backend.APIPrefix)

	cfg.Client.SiteURL = getEnv("SITE_URL", cfg.Client.SiteURL)
	cfg.Client.TimeoutSeconds = getEnvAsInt("CLIENT_TIMEOUT_SECONDS", cfg.Client.TimeoutSeconds)
	cfg.Client.UseRAG = getEnvAsBool("CHAT_USE_RAG", cfg.Client.UseRAG)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.KeyPrefix = getEnv("STORAGE_KEY_PREFIX", cfg.Storage.KeyPrefix)

	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DB = getEnv("MYSQL_DB", cfg.MySQL.DB)
	cfg.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.MySQL.Params)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.AuditQueue = getEnv("RABBITMQ_AUDIT_QUEUE", cfg.RabbitMQ.AuditQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
