package config

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tags/app/colors"
	"todo-tags/app/store"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo-tags.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, colors.DefaultPalette().Colors(), cfg.Palette)
}

func TestLoad_FileEnvFlagPriority(t *testing.T) {
	path := writeConfig(t, `
listen_addr = "127.0.0.1:9000"
store = "neo4j"
log_level = "debug"
color_strategy = "random"
palette = ["#000000", "#FFFFFF"]

[neo4j]
uri = "bolt://graph:7687"
username = "admin"
database = "tasks"
`)
	t.Setenv("TODO_TAGS_LOG_LEVEL", "warn")
	t.Setenv("TODO_TAGS_NEO4J_PASSWORD", "secret")

	cfg, err := Load(newFlagSet(), []string{"-config", path, "-listen", ":7000"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, StoreNeo4j, cfg.Store)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, colors.StrategyRandom, cfg.ColorStrategy)
	assert.Equal(t, []string{"#000000", "#FFFFFF"}, cfg.Palette)
	assert.Equal(t, Neo4jConfig{URI: "bolt://graph:7687", Username: "admin", Password: "secret", Database: "tasks"}, cfg.Neo4j)
}

func TestLoad_EnvPalette(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TODO_TAGS_PALETTE", "#111111, #222222 ,")

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"#111111", "#222222"}, cfg.Palette)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "postgres" }},
		{"empty listen", func(c *Config) { c.ListenAddr = " " }},
		{"sqlite without path", func(c *Config) { c.SQLite.Path = "" }},
		{"neo4j without uri", func(c *Config) { c.Store = StoreNeo4j; c.Neo4j.URI = "" }},
		{"unknown strategy", func(c *Config) { c.ColorStrategy = "rainbow" }},
		{"empty palette", func(c *Config) { c.Palette = nil }},
		{"bad color", func(c *Config) { c.Palette = []string{"red"} }},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := Default()
	cfg.SQLite.Path = store.MemoryPath

	st, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close(context.Background())
	assert.IsType(t, &store.SQLiteStore{}, st)
}
