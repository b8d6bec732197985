package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	Gemini   GeminiConfig  `yaml:"gemini"`
	Storage  StorageConfig `yaml:"storage"`
	Advice   AdviceConfig  `yaml:"advice"`
	Log      LogConfig     `yaml:"log"`
	HTTPPort string        `yaml:"http_port"`
}

type GeminiConfig struct {
	APIKey       string `yaml:"api_key"`
	ChatModel    string `yaml:"chat_model"`
	WorkoutModel string `yaml:"workout_model"`
}

type StorageConfig struct {
	Backend        string `yaml:"backend"`
	DatabaseURL    string `yaml:"database_url"`
	DataDir        string `yaml:"data_dir"`
	Slot           string `yaml:"slot"`
	QuotaBytes     int    `yaml:"quota_bytes"`
	SaveDebounceMS int    `yaml:"save_debounce_ms"`
}

type AdviceConfig struct {
	CacheMB    int `yaml:"cache_mb"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

func Default() Config {
	return Config{
		Gemini: GeminiConfig{
			ChatModel:    "gemini-1.5-flash-latest",
			WorkoutModel: "gemini-1.5-pro-latest",
		},
		Storage: StorageConfig{
			Backend:        BackendSQLite,
			DatabaseURL:    "swimflow.db",
			DataDir:        "data",
			Slot:           "swimflow_data",
			QuotaBytes:     5 * 1024 * 1024,
			SaveDebounceMS: 500,
		},
		Advice: AdviceConfig{
			CacheMB:    8,
			TTLSeconds: 3600,
		},
		Log: LogConfig{
			Level: "info",
		},
		HTTPPort: "8080",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (a .env file is honoured), in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, relying on environment variables")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.ChatModel = getEnv("GEMINI_CHAT_MODEL", cfg.Gemini.ChatModel)
	cfg.Gemini.WorkoutModel = getEnv("GEMINI_WORKOUT_MODEL", cfg.Gemini.WorkoutModel)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DatabaseURL = getEnv("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.DataDir = getEnv("DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.Slot = getEnv("STORAGE_SLOT", cfg.Storage.Slot)
	cfg.Storage.QuotaBytes = getEnvAsInt("STORAGE_QUOTA_BYTES", cfg.Storage.QuotaBytes)
	cfg.Storage.SaveDebounceMS = getEnvAsInt("SAVE_DEBOUNCE_MS", cfg.Storage.SaveDebounceMS)

	cfg.Advice.CacheMB = getEnvAsInt("ADVICE_CACHE_MB", cfg.Advice.CacheMB)
	cfg.Advice.TTLSeconds = getEnvAsInt("ADVICE_TTL_SECONDS", cfg.Advice.TTLSeconds)

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.JSON = getEnvAsBool("LOG_JSON", cfg.Log.JSON)
}

func (c *Config) validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the sqlite backend")
		}
	case BackendFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of sqlite, file, memory; got %q", c.Storage.Backend)
	}
	if c.Storage.Slot == "" {
		return fmt.Errorf("storage.slot is required")
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must not be negative")
	}
	if c.Storage.SaveDebounceMS < 0 {
		return fmt.Errorf("storage.save_debounce_ms must not be negative")
	}
	if c.Advice.CacheMB < 1 {
		return fmt.Errorf("advice.cache_mb must be at least 1")
	}
	if c.Advice.TTLSeconds < 0 {
		return fmt.Errorf("advice.ttl_seconds must not be negative")
	}
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("http_port %q is not a valid port", c.HTTPPort)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// RequireGemini is checked only by commands that talk to the model.
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return nil
}

func (c *Config) SaveDebounce() time.Duration {
	return time.Duration(c.Storage.SaveDebounceMS) * time.Millisecond
}

func (c *Config) AdviceTTL() time.Duration {
	return time.Duration(c.Advice.TTLSeconds) * time.Second
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warnf("Ignoring %s=%q: not an integer", key, valueStr)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warnf("Ignoring %s=%q: not a boolean", key, valueStr)
		return defaultValue
	}
	return value
}
