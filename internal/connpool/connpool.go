// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package connpool holds the process-wide connection pool and the contracts
// that dialect drivers implement.
//
// The Manager guards only the pool handle. Borrowing takes the lock long enough
// to read the current pool and releases it before any network I/O, so a slow
// server never serializes unrelated requests.
package connpool

import (
	"context"
	"log/slog"
	"sync"

	"querydesk/cli/internal/errors"
	"querydesk/cli/internal/value"
)

// Summary describes the outcome of a finished statement.
type Summary struct {
	AffectedRows uint64
	LastInsertID uint64
}

// Rows iterates over a materializing result. Cell is only valid after Next
// returned true. Close must be called exactly once and returns the statement
// summary or the statement error.
type Rows interface {
	Columns() []string
	Next() bool
	Cell(i int) (value.Value, error)
	Close() (Summary, error)
}

// Conn is one borrowed server session.
type Conn interface {
	// UseDatabase makes name the default schema of the session.
	UseDatabase(ctx context.Context, name string) error
	// SetForeignKeyChecks toggles referential integrity enforcement for the session.
	SetForeignKeyChecks(ctx context.Context, enabled bool) error
	Begin(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Query executes sql verbatim as a single statement.
	Query(ctx context.Context, sql string) (Rows, error)
	// StatusVariables returns the server counters as name/value pairs.
	StatusVariables(ctx context.Context) (map[string]string, error)
	// Release returns the session to its pool.
	Release()
	// Discard closes the session instead of returning it to the pool.
	Discard()
}

// Pool is a bounded set of sessions to one server.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
	Dialect() string
}

// Manager owns the current pool. The zero value is ready to use and not connected.
type Manager struct {
	mu   sync.Mutex
	pool Pool
}

// NewManager returns an empty Manager.
func NewManager() *Manager { return &Manager{} }

// Current returns the installed pool or a NotConnected error.
func (m *Manager) Current() (Pool, error) {
	m.mu.Lock()
	p := m.pool
	m.mu.Unlock()

	if p == nil {
		return nil, errors.New(errors.NotConnected, errors.MsgNotConnected)
	}
	return p, nil
}

// Connected reports whether a pool is installed.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool != nil
}

// Borrow acquires a session from the current pool. If the pool is replaced
// while the acquire is in flight, the old pool is being closed and the acquire
// is retried once on the new one.
func (m *Manager) Borrow(ctx context.Context) (Conn, error) {
	p, err := m.Current()
	if err != nil {
		return nil, err
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		if next := m.replacement(p); next != nil && ctx.Err() == nil {
			slog.Debug("pool replaced during acquire, retrying", "dialect", next.Dialect())
			conn, err = next.Acquire(ctx)
		}
	}
	if err != nil {
		return nil, errors.Wrap(errors.ConnectionFailed, "failed to acquire connection", err)
	}
	return conn, nil
}

// replacement returns the installed pool if it is not p.
func (m *Manager) replacement(p Pool) Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil || m.pool == p {
		return nil
	}
	return m.pool
}

// Replace installs p as the current pool. The previous pool is closed in the
// background; its Close waits for borrowed sessions to come back.
func (m *Manager) Replace(p Pool) {
	m.mu.Lock()
	old := m.pool
	m.pool = p
	m.mu.Unlock()

	retire(old)
}

// Clear removes the current pool, closing it in the background.
func (m *Manager) Clear() {
	m.Replace(nil)
}

func retire(p Pool) {
	if p == nil {
		return
	}
	go func() {
		p.Close()
		slog.Debug("connection pool closed", "dialect", p.Dialect())
	}()
}
