// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app is the command surface shared by the CLI and the RPC server.
// It owns the connection pool manager and the query executor.
package app

import (
	"context"
	"log/slog"
	"time"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/driver"
	"querydesk/cli/internal/errors"
	"querydesk/cli/internal/render"
	"querydesk/cli/internal/sqlexec"
)

// Opener creates a pool for a DSN. driver.Open is the production opener.
type Opener func(ctx context.Context, dsn string, opts driver.Options) (connpool.Pool, error)

// App executes queries against the current connection.
type App struct {
	pools    *connpool.Manager
	exec     *sqlexec.Executor
	open     Opener
	poolOpts driver.Options
}

// New returns a disconnected App.
func New(opts driver.Options) *App {
	return NewWithOpener(opts, driver.Open)
}

// NewWithOpener returns a disconnected App that opens pools with open.
func NewWithOpener(opts driver.Options, open Opener) *App {
	pools := connpool.NewManager()
	return &App{
		pools:    pools,
		exec:     sqlexec.New(pools),
		open:     open,
		poolOpts: opts,
	}
}

// Connect opens and verifies a pool for dsn, then makes it current.
// On failure the previous connection, if any, stays in place.
func (a *App) Connect(ctx context.Context, dsn string) error {
	pool, err := a.open(ctx, dsn, a.poolOpts)
	if err != nil {
		return errors.Wrap(errors.ConnectionFailed, "Failed to connect", err)
	}

	pingCtx := ctx
	if a.poolOpts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, a.poolOpts.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return errors.Wrap(errors.ConnectionFailed, "Failed to connect", err)
	}

	a.pools.Replace(pool)
	slog.Info("connected", "dialect", pool.Dialect())
	return nil
}

// Disconnect drops the current pool.
func (a *App) Disconnect() {
	a.pools.Clear()
}

// Connected reports whether a pool is installed.
func (a *App) Connected() bool {
	return a.pools.Connected()
}

// ExecuteQuery runs sql and returns its results. Only the first result set is
// materialized, so the slice always has exactly one element on success.
// A nil opts means all toggles off.
func (a *App) ExecuteQuery(ctx context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error) {
	var o sqlexec.Options
	if opts != nil {
		o = *opts
	}

	resp, err := a.exec.Execute(ctx, sql, db, o)
	if err != nil {
		return nil, err
	}
	return []sqlexec.QueryResponse{*resp}, nil
}

// ExecuteQueryHTML runs sql with default options and renders the first result.
// QueryTime covers the whole call, not just the statement.
func (a *App) ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error) {
	start := time.Now()

	results, err := a.ExecuteQuery(ctx, sql, db, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New(errors.NoResults, errors.MsgNoResults)
	}

	main := results[0]
	return render.NewQueryResultHTML(main.Columns, main.Rows, time.Since(start)), nil
}

// ServerStatus reads the server's global counters.
func (a *App) ServerStatus(ctx context.Context) (*sqlexec.ServerStatus, error) {
	return a.exec.Status(ctx)
}
