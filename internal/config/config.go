// Package config resolves the proxy settings from flags, environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full set of serve-time settings.
type Config struct {
	PathwayFile string
	Addr        string

	Store           string
	StoreDir        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	RedisTTL        time.Duration
	DistributedLock bool

	OpenAIKey       string
	OpenAIBaseURL   string
	UpstreamTimeout time.Duration

	ClassifierModel   string
	ClassifierTimeout time.Duration

	ResponseMode string
	LogLevel     string
	LogFormat    string
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		PathwayFile:       "pathways.json",
		Addr:              ":8080",
		Store:             StoreMemory,
		StoreDir:          ".pathway/positions",
		RedisAddr:         "localhost:6379",
		RedisPrefix:       "pathway:position:",
		UpstreamTimeout:   120 * time.Second,
		ClassifierModel:   "gpt-4o-mini",
		ClassifierTimeout: 10 * time.Second,
		ResponseMode:      "passthrough",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// envNames maps flag names to the environment variables that back them.
var envNames = map[string]string{
	"pathway":            "PATHWAY_FILE",
	"addr":               "PATHWAY_ADDR",
	"store":              "PATHWAY_STORE",
	"store-dir":          "PATHWAY_STORE_DIR",
	"redis-addr":         "REDIS_ADDR",
	"redis-password":     "REDIS_PASSWORD",
	"redis-db":           "REDIS_DB",
	"redis-prefix":       "PATHWAY_REDIS_PREFIX",
	"redis-ttl":          "PATHWAY_REDIS_TTL",
	"distributed-lock":   "PATHWAY_DISTRIBUTED_LOCK",
	"openai-api-key":     "OPENAI_API_KEY",
	"openai-base-url":    "OPENAI_BASE_URL",
	"upstream-timeout":   "PATHWAY_UPSTREAM_TIMEOUT",
	"classifier-model":   "PATHWAY_CLASSIFIER_MODEL",
	"classifier-timeout": "PATHWAY_CLASSIFIER_TIMEOUT",
	"response-mode":      "PATHWAY_RESPONSE_MODE",
	"log-level":          "PATHWAY_LOG_LEVEL",
	"log-format":         "PATHWAY_LOG_FORMAT",
}

// EnvName returns the environment variable backing a flag, or "".
func EnvName(flag string) string {
	return envNames[flag]
}

// BindStoreFlags registers the flags that select and configure the position store.
func (c *Config) BindStoreFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Store, "store", c.Store, "Position store: memory, file or redis")
	fs.StringVar(&c.StoreDir, "store-dir", c.StoreDir, "Directory of the file store")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", c.RedisPrefix, "Key prefix of stored positions")
	fs.DurationVar(&c.RedisTTL, "redis-ttl", c.RedisTTL, "Expire idle positions after this long (0 keeps them)")
}

// BindServeFlags registers every serve flag, store flags included.
func (c *Config) BindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.PathwayFile, "pathway", c.PathwayFile, "Pathway file (.json, .yaml or .yml)")
	fs.StringVar(&c.Addr, "addr", c.Addr, "Address to listen on")
	c.BindStoreFlags(fs)
	fs.BoolVar(&c.DistributedLock, "distributed-lock", c.DistributedLock, "Serialize turns across replicas with a redis lock")
	fs.StringVar(&c.OpenAIKey, "openai-api-key", c.OpenAIKey, "API key for the upstream and the classifier")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", c.OpenAIBaseURL, "Base URL of the OpenAI-compatible API")
	fs.DurationVar(&c.UpstreamTimeout, "upstream-timeout", c.UpstreamTimeout, "Timeout of upstream completions")
	fs.StringVar(&c.ClassifierModel, "classifier-model", c.ClassifierModel, "Model used to evaluate step checks")
	fs.DurationVar(&c.ClassifierTimeout, "classifier-timeout", c.ClassifierTimeout, "Timeout of a single classification")
	fs.StringVar(&c.ResponseMode, "response-mode", c.ResponseMode, "Non-streaming response shape: passthrough or compact")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv fills every flag the user did not set from its environment variable.
func ApplyEnv(fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		name, ok := envNames[f.Name]
		if !ok || f.Changed {
			return
		}
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// Validate checks the values that flags cannot.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, file or redis)", c.Store)
	}
	if c.DistributedLock && c.Store != StoreRedis {
		return errors.New("--distributed-lock requires --store redis")
	}
	if strings.TrimSpace(c.PathwayFile) == "" {
		return errors.New("a pathway file is required")
	}
	if c.UpstreamTimeout <= 0 || c.ClassifierTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.RedisTTL < 0 {
		return errors.New("--redis-ttl must not be negative")
	}
	return nil
}

// Durable reports whether positions survive a restart of the process.
func (c Config) Durable() bool {
	return c.Store != StoreMemory
}
