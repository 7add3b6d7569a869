package config

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"todo-tags/app/store"
)

// InitNeo4j initializes the Neo4j driver and returns it.
func InitNeo4j(cfg Neo4jConfig) (neo4j.DriverWithContext, error) {
	return neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
}

// OpenStore opens the configured store backend.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.Store {
	case StoreNeo4j:
		driver, err := InitNeo4j(cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("neo4j driver: %w", err)
		}
		st, err := store.NewNeo4jStore(ctx, driver, cfg.Neo4j.Database)
		if err != nil {
			driver.Close(ctx)
			return nil, err
		}
		return st, nil
	case StoreSQLite:
		return store.OpenSQLite(ctx, cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
