package config

import (
	"os"
	"strings"
)

// loadFromEnv overrides config from TODO_TAGS_* environment variables.
func loadFromEnv(cfg *Config) {
	var env Config
	env.ListenAddr = os.Getenv("TODO_TAGS_LISTEN_ADDR")
	env.Store = os.Getenv("TODO_TAGS_STORE")
	env.LogLevel = os.Getenv("TODO_TAGS_LOG_LEVEL")
	env.LogFormat = os.Getenv("TODO_TAGS_LOG_FORMAT")
	env.ColorStrategy = os.Getenv("TODO_TAGS_COLOR_STRATEGY")
	env.SQLite.Path = os.Getenv("TODO_TAGS_SQLITE_PATH")
	env.Neo4j.URI = os.Getenv("TODO_TAGS_NEO4J_URI")
	env.Neo4j.Username = os.Getenv("TODO_TAGS_NEO4J_USERNAME")
	env.Neo4j.Password = os.Getenv("TODO_TAGS_NEO4J_PASSWORD")
	env.Neo4j.Database = os.Getenv("TODO_TAGS_NEO4J_DATABASE")
	if v := os.Getenv("TODO_TAGS_PALETTE"); v != "" {
		env.Palette = splitAndTrim(v, ",")
	}
	cfg.merge(&env)
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
