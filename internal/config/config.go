package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Generator GeneratorConfig `json:"generator"`
	Retriever RetrieverConfig `json:"retriever"`
	Cache     CacheConfig     `json:"cache"`
	Ledger    LedgerConfig    `json:"ledger"`
	Dialect   DialectConfig   `json:"dialect"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type GeneratorConfig struct {
	APIKey      string  `json:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

type RetrieverConfig struct {
	BaseURL      string        `json:"base_url,omitempty"`
	MaxResults   int           `json:"max_results"`
	MinRelevance float64       `json:"min_relevance"`
	Timeout      time.Duration `json:"timeout"`
}

type CacheConfig struct {
	TTL        time.Duration `json:"ttl"`
	MemorySize int           `json:"memory_size"`
}

type LedgerConfig struct {
	IdleTimeout  time.Duration `json:"idle_timeout"`
	HistoryTurns int           `json:"history_turns"`
}

// DialectConfig carries target-dialect constraints that get injected verbatim
// into the generation prompt. Dialect knowledge lives here and nowhere else,
// so swapping the target engine is a config change.
type DialectConfig struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".queryflow"))
	}

	// Set defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "queryflow")
	viper.SetDefault("database.database", "queryflow")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("generator.model", "gpt-4")
	viper.SetDefault("generator.max_tokens", 1000)
	viper.SetDefault("generator.temperature", 0.1)
	viper.SetDefault("retriever.max_results", 10)
	viper.SetDefault("retriever.min_relevance", 0.7)
	viper.SetDefault("retriever.timeout", 5*time.Second)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("cache.memory_size", 256)
	viper.SetDefault("ledger.idle_timeout", 24*time.Hour)
	viper.SetDefault("ledger.history_turns", 3)
	viper.SetDefault("dialect.name", "postgres")
	viper.SetDefault("dialect.rules", defaultDialectRules())

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Fall back to a default config
			return createDefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Load environment variables
	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func createDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "queryflow",
			Password: "",
			Database: "queryflow",
			SSLMode:  "disable",
		},
		Generator: GeneratorConfig{
			Model:       "gpt-4",
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		Retriever: RetrieverConfig{
			MaxResults:   10,
			MinRelevance: 0.7,
			Timeout:      5 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MemorySize: 256,
		},
		Ledger: LedgerConfig{
			IdleTimeout:  24 * time.Hour,
			HistoryTurns: 3,
		},
		Dialect: DialectConfig{
			Name:  "postgres",
			Rules: defaultDialectRules(),
		},
	}
	loadEnvOverrides(cfg)
	return cfg
}

func defaultDialectRules() []string {
	return []string{
		"ALWAYS use fully qualified table names: schema.table_name",
		"String literals use single quotes",
		"Use CAST() for type conversions",
		"Use explicit interval arithmetic for relative date filters, e.g. NOW() - INTERVAL '30 days'",
		"Do not reference a derived-column alias inside a HAVING clause; repeat the aggregate expression",
		"Use appropriate aggregate functions: COUNT, SUM, AVG, MIN, MAX",
	}
}

func loadEnvOverrides(cfg *Config) {
	// Override with environment variables
	if port := os.Getenv("QUERYFLOW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if host := os.Getenv("QUERYFLOW_HOST"); host != "" {
		cfg.Server.Host = host
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	// Generator overrides
	if key := os.Getenv("QUERYFLOW_OPENAI_API_KEY"); key != "" {
		cfg.Generator.APIKey = key
	}
	if url := os.Getenv("QUERYFLOW_OPENAI_BASE_URL"); url != "" {
		cfg.Generator.BaseURL = url
	}
	if model := os.Getenv("QUERYFLOW_GENERATOR_MODEL"); model != "" {
		cfg.Generator.Model = model
	}

	// Retriever override
	if url := os.Getenv("QUERYFLOW_RETRIEVER_URL"); url != "" {
		cfg.Retriever.BaseURL = url
	}
}

func (c *Config) Save() error {
	return viper.WriteConfig()
}
