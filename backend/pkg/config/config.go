package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"newsgraph/backend/internal/constants"
	apperrors "newsgraph/backend/pkg/errors"
)

// Article sources the server can explore.
const (
	SourceNeo4j    = "neo4j"
	SourceLobsters = "lobsters"
)

// Config holds all application configuration
type Config struct {
	// App
	Port          string
	Env           string
	AllowedOrigin string
	ArticleSource string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Explorer
	Explorer ExplorerConfig

	// Importer
	LobstersBaseURL   string
	ImportPages       int
	ImportConcurrency int
}

// ExplorerConfig tunes exploration sessions. It can be overridden from a YAML
// file named by NEWSGRAPH_CONFIG.
type ExplorerConfig struct {
	MostRecentLimit int           `yaml:"most_recent_limit"`
	ByTagLimit      int           `yaml:"by_tag_limit"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	// Strict makes a malformed candidate graph crash the process. Meant for
	// local debugging only.
	Strict          bool          `yaml:"strict"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		ArticleSource: getEnv("ARTICLE_SOURCE", SourceNeo4j),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),
		Explorer: ExplorerConfig{
			MostRecentLimit: getEnvInt("MOST_RECENT_LIMIT", constants.DefaultMostRecentLimit),
			ByTagLimit:      getEnvInt("BY_TAG_LIMIT", constants.DefaultByTagLimit),
			SessionTTL:      getEnvDuration("SESSION_TTL", constants.DefaultSessionTTL),
			FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
			Strict:          getEnvBool("EXPLORER_STRICT", false),
		},
		LobstersBaseURL:   getEnv("LOBSTERS_BASE_URL", "https://lobste.rs"),
		ImportPages:       getEnvInt("IMPORT_PAGES", constants.DefaultImportPages),
		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", constants.DefaultImportConcurrency),
	}

	if path := os.Getenv("NEWSGRAPH_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyFile overlays explorer settings from a YAML file. Keys absent from the
// file keep their environment values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file struct {
		Explorer ExplorerConfig `yaml:"explorer"`
	}
	file.Explorer = c.Explorer
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Explorer = file.Explorer
	return nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ArticleSource != SourceNeo4j && c.ArticleSource != SourceLobsters {
		return apperrors.NewConfigValidationFailed("ARTICLE_SOURCE", "must be neo4j or lobsters")
	}
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.Explorer.MostRecentLimit < 1 {
		return apperrors.NewConfigValidationFailed("MOST_RECENT_LIMIT", "must be positive")
	}
	if c.Explorer.ByTagLimit < 1 {
		return apperrors.NewConfigValidationFailed("BY_TAG_LIMIT", "must be positive")
	}
	if c.ImportConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("IMPORT_CONCURRENCY", "must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
