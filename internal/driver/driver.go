// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package driver opens a connection pool for a DSN, choosing the dialect from
// its scheme.
package driver

import (
	"context"
	"fmt"
	"time"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/driver/mysql"
	"querydesk/cli/internal/driver/postgres"
	"querydesk/cli/internal/dsn"
)

// Options tune the pool regardless of dialect.
type Options struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Open validates rawDSN and creates a pool for it. The pool does not connect
// until it is pinged or used.
func Open(ctx context.Context, rawDSN string, opts Options) (connpool.Pool, error) {
	resolver, err := dsn.ResolverFor(rawDSN)
	if err != nil {
		return nil, err
	}
	if err := resolver.Validate(rawDSN); err != nil {
		return nil, err
	}
	info, err := resolver.Parse(rawDSN)
	if err != nil {
		return nil, err
	}

	switch info.Type {
	case dsn.DBTypeMySQL:
		cfg := mysql.ConfigFromDSN(info)
		cfg.MaxConns = opts.MaxConns
		cfg.ConnectTimeout = opts.ConnectTimeout
		pool, err := mysql.Open(cfg)
		if err != nil {
			return nil, err
		}
		return pool, nil

	case dsn.DBTypePostgreSQL:
		normalized, err := resolver.Normalize(info)
		if err != nil {
			return nil, err
		}
		pool, err := postgres.Open(ctx, normalized, postgres.Options{
			MaxConns:       opts.MaxConns,
			ConnectTimeout: opts.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return pool, nil
	}

	return nil, fmt.Errorf("unsupported database type %s", info.Type)
}
