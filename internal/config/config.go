package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Veritas/pkg/logger"
)

var bootLog = logger.New("config")

const (
	configPathEnv       = "VERITAS_CONFIG"
	dotEnvFile          = ".env"
	openRouterAPIKeyEnv = "OPENROUTER_API_KEY"
	providerAPIKeyEnv   = "VERITAS_PROVIDER_API_KEY"
	providerModelEnv    = "VERITAS_MODEL"
	providerEndpointEnv = "VERITAS_PROVIDER_ENDPOINT"
	clientAPIKeyEnv     = "VERITAS_CLIENT_API_KEY"
	serverAddrEnv       = "VERITAS_ADDR"
	logLevelEnv         = "VERITAS_LOG_LEVEL"
	logFormatEnv        = "VERITAS_LOG_FORMAT"
	ginModeEnv          = "GIN_MODE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Access   AccessConfig   `yaml:"access"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig describes the HTTP listener. Only TrustedProxies may set
// X-Forwarded-For / X-Real-IP; an empty list trusts nobody.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	GinMode         string        `yaml:"ginMode"`
	TrustedProxies  []string      `yaml:"trustedProxies"`
}

// ProviderConfig defines how to contact the chat completion API.
type ProviderConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Referer  string `yaml:"referer"`
	Title    string `yaml:"title"`
}

// Configured reports whether a provider credential is present.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// AnalysisConfig bounds the size of what flows through the pipeline.
type AnalysisConfig struct {
	MaxContentChars  int           `yaml:"maxContentChars"`
	ErrorBodyChars   int           `yaml:"errorBodyChars"`
	MaxFetchBytes    int64         `yaml:"maxFetchBytes"`
	MaxResponseBytes int64         `yaml:"maxResponseBytes"`
	HTTPTimeout      time.Duration `yaml:"httpTimeout"`
	UserAgent        string        `yaml:"userAgent"`
}

// AccessConfig holds the optional caller-facing key for /api/analyze.
// An empty key leaves the API open.
type AccessConfig struct {
	ClientAPIKey string `yaml:"clientApiKey"`
}

// LoggingConfig selects slog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
// An empty path falls back to VERITAS_CONFIG.
func Load(path string) Config {
	loadDotEnv(dotEnvFile)

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			bootLog.Printf("cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				bootLog.Printf("cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.clampLimits()

	return cfg
}

// loadDotEnv exports KEY=VALUE pairs from file without overriding variables
// that are already set.
func loadDotEnv(file string) {
	if _, err := os.Stat(file); err != nil {
		return
	}
	if err := godotenv.Load(file); err != nil {
		bootLog.Printf("cannot load %s: %v", file, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openRouterAPIKeyEnv); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv(providerAPIKeyEnv); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv(providerModelEnv); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv(providerEndpointEnv); v != "" {
		c.Provider.Endpoint = v
	}
	if v := os.Getenv(clientAPIKeyEnv); v != "" {
		c.Access.ClientAPIKey = v
	}
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(ginModeEnv); v != "" {
		c.Server.GinMode = v
	}

	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	c.Access.ClientAPIKey = strings.TrimSpace(c.Access.ClientAPIKey)
}

func (c *Config) clampLimits() {
	def := defaultConfig()
	if c.Analysis.MaxContentChars <= 0 {
		c.Analysis.MaxContentChars = def.Analysis.MaxContentChars
	}
	if c.Analysis.ErrorBodyChars <= 0 {
		c.Analysis.ErrorBodyChars = def.Analysis.ErrorBodyChars
	}
	if c.Analysis.MaxFetchBytes <= 0 {
		c.Analysis.MaxFetchBytes = def.Analysis.MaxFetchBytes
	}
	if c.Analysis.MaxResponseBytes <= 0 {
		c.Analysis.MaxResponseBytes = def.Analysis.MaxResponseBytes
	}
	if c.Analysis.HTTPTimeout <= 0 {
		c.Analysis.HTTPTimeout = def.Analysis.HTTPTimeout
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if len(override.Server.CORSOrigins) > 0 {
		base.Server.CORSOrigins = override.Server.CORSOrigins
	}
	if override.Server.RequestTimeout > 0 {
		base.Server.RequestTimeout = override.Server.RequestTimeout
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}
	if override.Server.GinMode != "" {
		base.Server.GinMode = override.Server.GinMode
	}
	if override.Server.TrustedProxies != nil {
		base.Server.TrustedProxies = override.Server.TrustedProxies
	}

	if override.Provider.Endpoint != "" {
		base.Provider.Endpoint = override.Provider.Endpoint
	}
	if override.Provider.Model != "" {
		base.Provider.Model = override.Provider.Model
	}
	if override.Provider.APIKey != "" {
		base.Provider.APIKey = override.Provider.APIKey
	}
	if override.Provider.Referer != "" {
		base.Provider.Referer = override.Provider.Referer
	}
	if override.Provider.Title != "" {
		base.Provider.Title = override.Provider.Title
	}

	if override.Analysis.MaxContentChars > 0 {
		base.Analysis.MaxContentChars = override.Analysis.MaxContentChars
	}
	if override.Analysis.ErrorBodyChars > 0 {
		base.Analysis.ErrorBodyChars = override.Analysis.ErrorBodyChars
	}
	if override.Analysis.MaxFetchBytes > 0 {
		base.Analysis.MaxFetchBytes = override.Analysis.MaxFetchBytes
	}
	if override.Analysis.MaxResponseBytes > 0 {
		base.Analysis.MaxResponseBytes = override.Analysis.MaxResponseBytes
	}
	if override.Analysis.HTTPTimeout > 0 {
		base.Analysis.HTTPTimeout = override.Analysis.HTTPTimeout
	}
	if override.Analysis.UserAgent != "" {
		base.Analysis.UserAgent = override.Analysis.UserAgent
	}

	if override.Access.ClientAPIKey != "" {
		base.Access.ClientAPIKey = override.Access.ClientAPIKey
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			RequestTimeout:  35 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			GinMode:         "release",
			TrustedProxies:  []string{"127.0.0.1", "::1"},
		},
		Provider: ProviderConfig{
			Endpoint: "https://openrouter.ai/api/v1/chat/completions",
			Model:    "openai/gpt-oss-120b:free",
			APIKey:   "",
			Referer:  "https://localhost",
			Title:    "Veritas",
		},
		Analysis: AnalysisConfig{
			MaxContentChars:  8000,
			ErrorBodyChars:   500,
			MaxFetchBytes:    2 << 20,
			MaxResponseBytes: 4 << 20,
			HTTPTimeout:      30 * time.Second,
			UserAgent:        "Veritas/1.0",
		},
		Logging: LoggingConfig{Level: "info", Format: "auto"},
	}
}
