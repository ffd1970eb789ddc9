package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// EnvPrefix is the prefix of every environment variable read by the loader.
const EnvPrefix = "CHAT"

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string        `json:"port" envconfig:"PORT"`
	ReadTimeout  time.Duration `json:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" envconfig:"WRITE_TIMEOUT"`

	// Storage
	Store               string        `json:"store" envconfig:"STORE"`
	MongoURI            string        `json:"mongo_uri" envconfig:"MONGO_URI"`
	MongoDatabase       string        `json:"mongo_database" envconfig:"MONGO_DATABASE"`
	MongoConnectTimeout time.Duration `json:"mongo_connect_timeout" envconfig:"MONGO_CONNECT_TIMEOUT"`
	MongoPingTimeout    time.Duration `json:"mongo_ping_timeout" envconfig:"MONGO_PING_TIMEOUT"`
	MongoMaxPoolSize    uint64        `json:"mongo_max_pool_size" envconfig:"MONGO_MAX_POOL_SIZE"`
	MongoMinPoolSize    uint64        `json:"mongo_min_pool_size" envconfig:"MONGO_MIN_POOL_SIZE"`
	StoreTimeout        time.Duration `json:"store_timeout" envconfig:"STORE_TIMEOUT"`

	// Presence
	SweepInterval time.Duration `json:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
	StaleAfter    time.Duration `json:"stale_after" envconfig:"STALE_AFTER"`

	// Messages
	DefaultMessageLimit int `json:"default_message_limit" envconfig:"DEFAULT_MESSAGE_LIMIT"`

	// Security settings
	MaxMessageLength  int           `json:"max_message_length" envconfig:"MAX_MESSAGE_LENGTH"`
	MaxNameLength     int           `json:"max_name_length" envconfig:"MAX_NAME_LENGTH"`
	AllowedOrigins    []string      `json:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimitMessages int           `json:"rate_limit_messages" envconfig:"RATE_LIMIT_MESSAGES"`
	RateLimitWindow   time.Duration `json:"rate_limit_window" envconfig:"RATE_LIMIT_WINDOW"`
	EnableRateLimit   bool          `json:"enable_rate_limit" envconfig:"ENABLE_RATE_LIMIT"`

	// Logging
	LogEnv   string `json:"log_env" envconfig:"LOG_ENV"`
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         ":5000",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,

		Store:               StoreMongo,
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "chat_uol",
		MongoConnectTimeout: 10 * time.Second,
		MongoPingTimeout:    5 * time.Second,
		MongoMaxPoolSize:    100,
		MongoMinPoolSize:    5,
		StoreTimeout:        5 * time.Second,

		SweepInterval: 15 * time.Second,
		StaleAfter:    10 * time.Second,

		DefaultMessageLimit: 0, // unbounded

		MaxMessageLength:  1000,
		MaxNameLength:     50,
		AllowedOrigins:    []string{"*"},
		RateLimitMessages: 30,
		RateLimitWindow:   1 * time.Minute,
		EnableRateLimit:   true,

		LogEnv:   "dev",
		LogLevel: "info",
	}
}

// Validate rejects settings the server cannot run with
func (c *ServerConfig) Validate() error {
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("mongo_uri is required when store is mongo")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (expected %q or %q)", c.Store, StoreMongo, StoreMemory)
	}

	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("read_timeout and write_timeout must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep_interval must be positive")
	}
	if c.StaleAfter <= 0 {
		return errors.New("stale_after must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store_timeout must be positive")
	}
	if c.DefaultMessageLimit < 0 {
		return errors.New("default_message_limit must not be negative")
	}
	if c.MaxNameLength <= 0 || c.MaxMessageLength <= 0 {
		return errors.New("max_name_length and max_message_length must be positive")
	}
	return nil
}

// ConfigLoader handles loading configuration from various sources
type ConfigLoader struct {
	configPath string
	envFile    string
	mutex      sync.Mutex
}

// NewConfigLoader creates a new configuration loader. configPath points to an
// optional JSON file, envFile to an optional dotenv file.
func NewConfigLoader(configPath, envFile string) *ConfigLoader {
	return &ConfigLoader{
		configPath: configPath,
		envFile:    envFile,
	}
}

// LoadConfig layers defaults, the JSON file, the dotenv file and the process
// environment, in that order.
func (cl *ConfigLoader) LoadConfig() (*ServerConfig, error) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	config := DefaultServerConfig()

	if cl.configPath != "" {
		if err := cl.loadFromFile(config); err != nil {
			return nil, err
		}
	}

	if cl.envFile != "" {
		// variables already present in the environment win over the file
		if err := godotenv.Load(cl.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", cl.envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// loadFromFile loads configuration from JSON file. A missing file keeps the defaults.
func (cl *ConfigLoader) loadFromFile(config *ServerConfig) error {
	data, err := os.ReadFile(cl.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}
