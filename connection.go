/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bunplus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomoncle/bunplus/cache"
	"github.com/tomoncle/bunplus/database"
	"github.com/tomoncle/bunplus/query"
	"github.com/tomoncle/bunplus/repository"
	"github.com/tomoncle/bunplus/scope"

	"github.com/uptrace/bun"
)

// DefaultConnectionName is used when a connection is looked up without a name.
const DefaultConnectionName = "default"

// Connection bundles a Bun database with the scope registry, query cache and
// logger shared by the repositories created from it.
type Connection struct {
	name     string
	db       *bun.DB
	manager  database.AbstractDatabaseManager
	registry *scope.Registry
	cache    cache.QueryCache
	logger   database.Logger
	closers  []func() error
}

// ConnectionOption configures a Connection.
type ConnectionOption func(*Connection)

func WithConnectionName(name string) ConnectionOption {
	return func(c *Connection) {
		if name != "" {
			c.name = name
		}
	}
}

func WithScopeRegistry(registry *scope.Registry) ConnectionOption {
	return func(c *Connection) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithQueryCache enables the query result cache for repositories of the connection.
func WithQueryCache(qc cache.QueryCache) ConnectionOption {
	return func(c *Connection) { c.cache = qc }
}

func WithConnectionLogger(logger database.Logger) ConnectionOption {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConnection wraps an open Bun database.
func NewConnection(db *bun.DB, opts ...ConnectionOption) *Connection {
	c := &Connection{
		name:     DefaultConnectionName,
		db:       db,
		registry: scope.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = database.GetLogger()
	}
	c.logger = database.WithFields(c.logger, "connection", c.name)
	return c
}

// Open connects to the database described by cfg, loads its scope file and
// connects the Redis query cache when enabled.
func Open(ctx context.Context, cfg *database.Config, opts ...ConnectionOption) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	c := NewConnection(nil, append([]ConnectionOption{WithConnectionName(cfg.Name)}, opts...)...)

	manager, err := database.Open(ctx, &cfg.ConnectionConfig, c.logger)
	if err != nil {
		return nil, err
	}
	c.manager = manager
	c.db = manager.GetDB()
	c.closers = append(c.closers, manager.Disconnect)

	if cfg.Scope.File != "" {
		tables, err := c.registry.LoadFile(cfg.Scope.File)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to load scopes: %w", err)
		}
		c.logger.Info("Scopes loaded", "file", cfg.Scope.File, "tables", len(tables))
	}

	if cfg.Cache.Enabled && c.cache == nil {
		rc, err := cache.NewRedisCacheFromURL(ctx, cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to connect query cache: %w", err)
		}
		c.cache = rc
		c.closers = append(c.closers, rc.Close)
	}
	return c, nil
}

func (c *Connection) Name() string { return c.name }

func (c *Connection) DB() *bun.DB { return c.db }

func (c *Connection) Registry() *scope.Registry { return c.registry }

func (c *Connection) Cache() cache.QueryCache { return c.cache }

// Manager returns the database manager, or nil for wrapped databases.
func (c *Connection) Manager() database.AbstractDatabaseManager { return c.manager }

// CreateQueryBuilder starts a paginating select query, optionally bound to model.
func (c *Connection) CreateQueryBuilder(model any) (*query.SelectQueryBuilder, error) {
	if c == nil || c.db == nil {
		return nil, query.ErrQueryBuilderNotSupported
	}
	return query.NewSelectQueryBuilder(c.db, model)
}

// Close releases what Open acquired, in reverse order. Wrapped databases are
// left open.
func (c *Connection) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// GetRepository returns the decorated repository of T on conn.
func GetRepository[T any](conn *Connection, opts ...Option) Repository[T] {
	var engineOpts []repository.Option
	if conn.cache != nil {
		engineOpts = append(engineOpts, repository.WithQueryCache(conn.cache))
	}
	engine := repository.NewRepository[T](conn.db, engineOpts...)
	base := []Option{WithRegistry(conn.registry), WithLogger(conn.logger)}
	return NewRepository[T](engine, append(base, opts...)...)
}

var (
	connectionsMu sync.RWMutex
	connections   = map[string]*Connection{}
)

// RegisterConnection makes conn available to GetConnection under name. An
// empty name uses the connection's own name.
func RegisterConnection(name string, conn *Connection) {
	if name == "" {
		name = conn.Name()
	}
	connectionsMu.Lock()
	defer connectionsMu.Unlock()
	connections[name] = conn
}

// GetConnection returns the connection registered under name, "default" when empty.
func GetConnection(name string) (*Connection, error) {
	if name == "" {
		name = DefaultConnectionName
	}
	connectionsMu.RLock()
	defer connectionsMu.RUnlock()
	c, ok := connections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, name)
	}
	return c, nil
}

// UnregisterConnection removes the named connection from the registry.
func UnregisterConnection(name string) {
	connectionsMu.Lock()
	defer connectionsMu.Unlock()
	delete(connections, name)
}
