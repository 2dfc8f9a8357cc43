package config

import (
	"fmt"
	"strings"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	minHashSaltLength = 8
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Certificate.HashSalt) < minHashSaltLength {
		return fmt.Errorf("certificate.hash_salt must be at least %d characters (got %d)",
			minHashSaltLength, len(c.Certificate.HashSalt))
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)",
			StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Database.ConnectAttempts < 1 {
		c.Database.ConnectAttempts = 1
	}
	if c.Redis.Enabled && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis.lock_ttl must be > 0 when redis is enabled")
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
