package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "newsgraph/backend/pkg/errors"
)

var envKeys = []string{
	"PORT", "ENV", "ALLOWED_ORIGIN", "ARTICLE_SOURCE",
	"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE",
	"MOST_RECENT_LIMIT", "BY_TAG_LIMIT", "SESSION_TTL", "FETCH_TIMEOUT", "EXPLORER_STRICT",
	"LOBSTERS_BASE_URL", "IMPORT_PAGES", "IMPORT_CONCURRENCY",
	"NEWSGRAPH_CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Explorer.Strict, "development does not imply strict merging")
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, SourceNeo4j, cfg.ArticleSource)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, 30, cfg.Explorer.MostRecentLimit)
	assert.Equal(t, 10, cfg.Explorer.ByTagLimit)
	assert.Equal(t, 30*time.Minute, cfg.Explorer.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.Explorer.FetchTimeout)
	assert.Equal(t, "https://lobste.rs", cfg.LobstersBaseURL)
	assert.Equal(t, 5, cfg.ImportPages)
	assert.Equal(t, 3, cfg.ImportConcurrency)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("MOST_RECENT_LIMIT", "50")
	t.Setenv("BY_TAG_LIMIT", "not-a-number")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("EXPLORER_STRICT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 50, cfg.Explorer.MostRecentLimit)
	assert.Equal(t, 10, cfg.Explorer.ByTagLimit, "unparsable values fall back to the default")
	assert.Equal(t, 5*time.Minute, cfg.Explorer.SessionTTL)
	assert.True(t, cfg.Explorer.Strict)
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("BY_TAG_LIMIT", "7")

	path := filepath.Join(t.TempDir(), "newsgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("explorer:\n  most_recent_limit: 12\n  fetch_timeout: 3s\n"), 0o600))
	t.Setenv("NEWSGRAPH_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Explorer.MostRecentLimit)
	assert.Equal(t, 3*time.Second, cfg.Explorer.FetchTimeout)
	assert.Equal(t, 7, cfg.Explorer.ByTagLimit, "keys missing from the file keep the environment value")
	assert.Equal(t, 30*time.Minute, cfg.Explorer.SessionTTL)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("NEWSGRAPH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("explorer: [1, 2"), 0o600))
		t.Setenv("NEWSGRAPH_CONFIG", path)
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ArticleSource:     SourceNeo4j,
			Neo4jURI:          "bolt://localhost:7687",
			Neo4jUser:         "neo4j",
			Neo4jPassword:     "password",
			Explorer:          ExplorerConfig{MostRecentLimit: 30, ByTagLimit: 10},
			ImportConcurrency: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "live source", mutate: func(c *Config) { c.ArticleSource = SourceLobsters }},
		{name: "unknown source", mutate: func(c *Config) { c.ArticleSource = "hn" }, wantErr: true},
		{name: "missing uri", mutate: func(c *Config) { c.Neo4jURI = "" }, wantErr: true},
		{name: "missing password", mutate: func(c *Config) { c.Neo4jPassword = "" }, wantErr: true},
		{name: "zero most recent limit", mutate: func(c *Config) { c.Explorer.MostRecentLimit = 0 }, wantErr: true},
		{name: "negative tag limit", mutate: func(c *Config) { c.Explorer.ByTagLimit = -1 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.ImportConcurrency = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
		})
	}
}
