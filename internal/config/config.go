package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSurreal = "surreal"
	StoreMongo   = "mongo"
	StoreMemory  = "memory"
)

// Classifier providers.
const (
	ClassifierOpenAI    = "openai"
	ClassifierLangchain = "langchain"
	ClassifierNone      = "none"
)

// LLM providers for the langchain classifier.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Port       string
	CORSOrigin string
	RateLimit  float64 // requests per second per client IP, 0 disables
	RateBurst  int

	// CLI
	ServerURL string

	// Store selection
	StoreBackend string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// MongoDB connection
	MongoURL      string
	MongoDatabase string

	// Classification
	ClassifierProvider string
	ClassifyTimeout    time.Duration
	ModerateOnSend     bool
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	SentimentModel     string
	LLMProvider        string
	LLMModel           string
	AnthropicAPIKey    string
	OllamaHost         string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the optional YAML file named by CHATROOM_CONFIG.
// Environment variables override anything it sets.
type fileConfig struct {
	Server struct {
		Port       string  `yaml:"port"`
		CORSOrigin string  `yaml:"cors_origin"`
		RateLimit  float64 `yaml:"rate_limit"`
		RateBurst  int     `yaml:"rate_burst"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"`
		Surreal struct {
			URL       string `yaml:"url"`
			Namespace string `yaml:"namespace"`
			Database  string `yaml:"database"`
			User      string `yaml:"user"`
			AuthLevel string `yaml:"auth_level"`
		} `yaml:"surreal"`
		Mongo struct {
			URL      string `yaml:"url"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"store"`
	Classifier struct {
		Provider       string `yaml:"provider"`
		Timeout        string `yaml:"timeout"`
		ModerateOnSend bool   `yaml:"moderate_on_send"`
		OpenAIBaseURL  string `yaml:"openai_base_url"`
		SentimentModel string `yaml:"sentiment_model"`
		LLMProvider    string `yaml:"llm_provider"`
		LLMModel       string `yaml:"llm_model"`
		OllamaHost     string `yaml:"ollama_host"`
	} `yaml:"classifier"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// defaults flattens the file values onto environment variable names.
// Secrets are never read from the file.
func (f fileConfig) defaults() map[string]string {
	d := map[string]string{
		"CHATROOM_PORT":             f.Server.Port,
		"CHATROOM_CORS_ORIGIN":      f.Server.CORSOrigin,
		"CHATROOM_STORE":            f.Store.Backend,
		"SURREALDB_URL":             f.Store.Surreal.URL,
		"SURREALDB_NAMESPACE":       f.Store.Surreal.Namespace,
		"SURREALDB_DATABASE":        f.Store.Surreal.Database,
		"SURREALDB_USER":            f.Store.Surreal.User,
		"SURREALDB_AUTH_LEVEL":      f.Store.Surreal.AuthLevel,
		"MONGO_URL":                 f.Store.Mongo.URL,
		"MONGO_DATABASE":            f.Store.Mongo.Database,
		"CHATROOM_CLASSIFIER":       f.Classifier.Provider,
		"CHATROOM_CLASSIFY_TIMEOUT": f.Classifier.Timeout,
		"OPENAI_BASE_URL":           f.Classifier.OpenAIBaseURL,
		"CHATROOM_SENTIMENT_MODEL":  f.Classifier.SentimentModel,
		"CHATROOM_LLM_PROVIDER":     f.Classifier.LLMProvider,
		"CHATROOM_LLM_MODEL":        f.Classifier.LLMModel,
		"OLLAMA_HOST":               f.Classifier.OllamaHost,
		"CHATROOM_LOG_FILE":         f.Log.File,
		"CHATROOM_LOG_LEVEL":        f.Log.Level,
	}
	if f.Server.RateLimit != 0 {
		d["CHATROOM_RATE_LIMIT"] = strconv.FormatFloat(f.Server.RateLimit, 'f', -1, 64)
	}
	if f.Server.RateBurst != 0 {
		d["CHATROOM_RATE_BURST"] = strconv.Itoa(f.Server.RateBurst)
	}
	if f.Classifier.ModerateOnSend {
		d["CHATROOM_MODERATE_ON_SEND"] = "true"
	}
	return d
}

// Load reads configuration from a .env file (if present), the YAML file named by
// CHATROOM_CONFIG (if set) and environment variables, in increasing precedence.
func Load() (Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	var file fileConfig
	if path := os.Getenv("CHATROOM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return fromEnv(file.defaults())
}

func fromEnv(fileDefaults map[string]string) (Config, error) {
	get := func(key, builtin string) string {
		if v := fileDefaults[key]; v != "" {
			builtin = v
		}
		return getEnv(key, builtin)
	}

	timeout, err := time.ParseDuration(get("CHATROOM_CLASSIFY_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("CHATROOM_CLASSIFY_TIMEOUT: %w", err)
	}
	rateLimit, err := strconv.ParseFloat(get("CHATROOM_RATE_LIMIT", "20"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("CHATROOM_RATE_LIMIT: %w", err)
	}
	rateBurst, err := strconv.Atoi(get("CHATROOM_RATE_BURST", "40"))
	if err != nil {
		return Config{}, fmt.Errorf("CHATROOM_RATE_BURST: %w", err)
	}

	cfg := Config{
		Port:       get("CHATROOM_PORT", "3000"),
		CORSOrigin: get("CHATROOM_CORS_ORIGIN", "http://localhost:5173"),
		RateLimit:  rateLimit,
		RateBurst:  rateBurst,

		ServerURL: get("CHATROOM_SERVER_URL", "http://localhost:3000"),

		StoreBackend: strings.ToLower(get("CHATROOM_STORE", StoreSurreal)),

		SurrealDBURL:       get("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: get("SURREALDB_NAMESPACE", "chatroom"),
		SurrealDBDatabase:  get("SURREALDB_DATABASE", "rooms"),
		SurrealDBUser:      get("SURREALDB_USER", "root"),
		SurrealDBPass:      get("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: get("SURREALDB_AUTH_LEVEL", "root"),

		MongoURL:      get("MONGO_URL", "mongodb://localhost:27017"),
		MongoDatabase: get("MONGO_DATABASE", "chatroom"),

		ClassifierProvider: strings.ToLower(get("CHATROOM_CLASSIFIER", ClassifierOpenAI)),
		ClassifyTimeout:    timeout,
		ModerateOnSend:     get("CHATROOM_MODERATE_ON_SEND", "false") == "true",
		OpenAIAPIKey:       get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      get("OPENAI_BASE_URL", ""),
		SentimentModel:     get("CHATROOM_SENTIMENT_MODEL", ""),
		LLMProvider:        strings.ToLower(get("CHATROOM_LLM_PROVIDER", ProviderOllama)),
		LLMModel:           get("CHATROOM_LLM_MODEL", "llama3.2"),
		AnthropicAPIKey:    get("ANTHROPIC_API_KEY", ""),
		OllamaHost:         get("OLLAMA_HOST", "http://localhost:11434"),

		LogFile:  get("CHATROOM_LOG_FILE", "/tmp/chatroom.log"),
		LogLevel: parseLogLevel(get("CHATROOM_LOG_LEVEL", "INFO")),
	}

	switch cfg.StoreBackend {
	case StoreSurreal, StoreMongo, StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	switch cfg.ClassifierProvider {
	case ClassifierOpenAI, ClassifierLangchain, ClassifierNone:
	default:
		return Config{}, fmt.Errorf("unknown classifier provider %q", cfg.ClassifierProvider)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
