// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package mysql implements the session contracts over the MySQL wire protocol.
//
// Sessions are go-mysql client connections kept in a puddle pool. The client
// buffers each result completely, so a statement's rows, affected row count and
// last insert id are all available once Execute returns.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/jackc/puddle/v2"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/dsn"
)

// Dialect is the name reported by pools of this package.
const Dialect = "mysql"

const (
	defaultCharset = "utf8mb4"
	// Idle sessions older than this are pinged before being handed out.
	staleAfter = time.Minute
	// Attempts to find a live session before giving up.
	acquireAttempts = 3
)

// Config describes how to reach the server.
type Config struct {
	Addr           string
	User           string
	Password       string
	Database       string
	Charset        string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// ConfigFromDSN builds a Config from parsed DSN info.
func ConfigFromDSN(info *dsn.DSNInfo) Config {
	cfg := Config{
		Addr:     info.Address(),
		User:     info.User,
		Password: info.Password,
		Database: info.Database,
		Charset:  info.Params["charset"],
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultCharset
	}
	return cfg
}

// Pool is a bounded set of MySQL sessions.
type Pool struct {
	cfg Config
	res *puddle.Pool[*client.Conn]
}

// Open creates a pool. No connection is made until the first Acquire or Ping.
func Open(cfg Config) (*Pool, error) {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}

	p := &Pool{cfg: cfg}
	res, err := puddle.NewPool(&puddle.Config[*client.Conn]{
		Constructor: p.dial,
		Destructor: func(c *client.Conn) {
			if err := c.Close(); err != nil {
				slog.Debug("closing mysql session", "error", err)
			}
		},
		MaxSize: cfg.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("create mysql pool: %w", err)
	}
	p.res = res
	return p, nil
}

func (p *Pool) dial(ctx context.Context) (*client.Conn, error) {
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	c, err := client.ConnectWithDialer(ctx, "tcp", p.cfg.Addr, p.cfg.User, p.cfg.Password, p.cfg.Database, dialer.DialContext, acceptMultiResults)
	if err != nil {
		return nil, err
	}

	if p.cfg.Charset != "" {
		if err := c.SetCharset(p.cfg.Charset); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set charset %s: %w", p.cfg.Charset, err)
		}
	}

	slog.Debug("mysql session opened", "addr", p.cfg.Addr, "connection_id", c.GetConnectionID())
	return c, nil
}

// acceptMultiResults lets the server answer CALL with more than one result.
// Without it the server rejects procedures that return rows.
func acceptMultiResults(c *client.Conn) {
	c.SetCapability(mysql.CLIENT_MULTI_RESULTS)
}

// Acquire borrows a session, replacing idle sessions the server has dropped.
func (p *Pool) Acquire(ctx context.Context) (connpool.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		r, err := p.res.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if r.IdleDuration() < staleAfter {
			return &Conn{res: r}, nil
		}
		if lastErr = r.Value().Ping(); lastErr == nil {
			return &Conn{res: r}, nil
		}
		slog.Debug("dropping stale mysql session", "error", lastErr)
		r.Destroy()
	}
	return nil, fmt.Errorf("no live mysql session after %d attempts: %w", acquireAttempts, lastErr)
}

// Ping verifies that a session can be opened and answers.
func (p *Pool) Ping(ctx context.Context) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	conn := c.(*Conn)
	err = conn.track(conn.client().Ping())
	conn.Release()
	return err
}

// Close destroys all sessions, waiting for borrowed ones to be returned.
func (p *Pool) Close() { p.res.Close() }

func (p *Pool) Dialect() string { return Dialect }

// Stat reports pool occupancy.
func (p *Pool) Stat() *puddle.Stat { return p.res.Stat() }
