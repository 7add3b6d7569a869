// Package config loads server settings from a TOML file, the environment
// and command-line flags, in that order of increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"todo-tags/app/colors"
)

// Defaults.
const (
	DefaultConfigFile = "todo-tags.toml"
	DefaultListenAddr = "0.0.0.0:8080"
	DefaultStore      = StoreSQLite
	DefaultSQLitePath = "todo-tags.db"
	DefaultNeo4jURI   = "neo4j://localhost:7687"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreNeo4j  = "neo4j"
)

// SQLiteConfig holds the [sqlite] table.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// Neo4jConfig holds the [neo4j] table.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Config is the complete server configuration.
type Config struct {
	ListenAddr    string       `toml:"listen_addr"`
	Store         string       `toml:"store"`
	LogLevel      string       `toml:"log_level"`
	LogFormat     string       `toml:"log_format"`
	ColorStrategy string       `toml:"color_strategy"`
	Palette       []string     `toml:"palette"`
	SQLite        SQLiteConfig `toml:"sqlite"`
	Neo4j         Neo4jConfig  `toml:"neo4j"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		ListenAddr:    DefaultListenAddr,
		Store:         DefaultStore,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		ColorStrategy: colors.StrategyHash,
		Palette:       colors.DefaultPalette().Colors(),
		SQLite:        SQLiteConfig{Path: DefaultSQLitePath},
		Neo4j:         Neo4jConfig{URI: DefaultNeo4jURI, Username: "neo4j"},
	}
}

// Load builds the configuration:
// 1. Defaults
// 2. Config file (-config flag, TODO_TAGS_CONFIG, or ./todo-tags.toml if present)
// 3. Environment variables
// 4. CLI flags
func Load(fset *flag.FlagSet, args []string) (*Config, error) {
	if fset == nil {
		fset = flag.NewFlagSet("todo-tags", flag.ContinueOnError)
	}
	var (
		configFile string
		overrides  Config
	)
	fset.StringVar(&configFile, "config", "", "Path to TOML config file")
	fset.StringVar(&overrides.ListenAddr, "listen", "", "HTTP listen address")
	fset.StringVar(&overrides.Store, "store", "", "Store backend (sqlite or neo4j)")
	fset.StringVar(&overrides.SQLite.Path, "sqlite-path", "", "SQLite database file")
	fset.StringVar(&overrides.LogLevel, "log-level", "", "Log level")
	fset.StringVar(&overrides.LogFormat, "log-format", "", "Log format (text, json, logfmt)")
	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default()

	path, required := configFile, true
	if path == "" {
		path = os.Getenv("TODO_TAGS_CONFIG")
	}
	if path == "" {
		path, required = DefaultConfigFile, false
	}
	if err := loadFile(cfg, path, required); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}

	loadFromEnv(cfg)
	cfg.merge(&overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes path over cfg. A missing optional file is not an error.
func loadFile(cfg *Config, path string, required bool) error {
	_, err := toml.DecodeFile(path, cfg)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// merge copies the non-empty fields of o into c.
func (c *Config) merge(o *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.ListenAddr, o.ListenAddr)
	set(&c.Store, o.Store)
	set(&c.LogLevel, o.LogLevel)
	set(&c.LogFormat, o.LogFormat)
	set(&c.ColorStrategy, o.ColorStrategy)
	set(&c.SQLite.Path, o.SQLite.Path)
	set(&c.Neo4j.URI, o.Neo4j.URI)
	set(&c.Neo4j.Username, o.Neo4j.Username)
	set(&c.Neo4j.Password, o.Neo4j.Password)
	set(&c.Neo4j.Database, o.Neo4j.Database)
	if len(o.Palette) > 0 {
		c.Palette = o.Palette
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	switch c.Store {
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case StoreNeo4j:
		if c.Neo4j.URI == "" {
			return errors.New("neo4j.uri is required")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSQLite, StoreNeo4j)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if _, err := c.ColorAssigner(); err != nil {
		return err
	}
	return nil
}

// ColorAssigner builds the configured tag color strategy.
func (c *Config) ColorAssigner() (colors.Assigner, error) {
	palette, err := colors.NewPalette(c.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return colors.New(c.ColorStrategy, palette)
}
