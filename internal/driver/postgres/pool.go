// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package postgres implements the session contracts over pgxpool.
//
// MySQL session concepts map onto PostgreSQL as follows: selecting a database
// sets search_path, disabling foreign key checks switches
// session_replication_role to replica, and there is no last insert id.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/value"
)

// Dialect is the name reported by pools of this package.
const Dialect = "postgresql"

const statusQuery = `SELECT 'Threads_connected', count(*)::text FROM pg_stat_activity
UNION ALL
SELECT 'Questions', COALESCE(sum(xact_commit + xact_rollback), 0)::text FROM pg_stat_database`

// Options tune the pool.
type Options struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Pool wraps a pgxpool.Pool.
type Pool struct {
	pool *pgxpool.Pool
}

// Open parses dsn and creates a pool. Connections are established lazily.
func Open(ctx context.Context, dsn string, opts Options) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: pool}, nil
}

func (p *Pool) Acquire(ctx context.Context) (connpool.Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: c}, nil
}

func (p *Pool) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }
func (p *Pool) Close()                         { p.pool.Close() }
func (p *Pool) Dialect() string                { return Dialect }

// Conn is a borrowed pgx session.
type Conn struct {
	conn *pgxpool.Conn
}

func (c *Conn) exec(ctx context.Context, sql string) error {
	_, err := c.conn.Exec(ctx, sql)
	return err
}

func (c *Conn) UseDatabase(ctx context.Context, name string) error {
	return c.exec(ctx, "SET search_path TO "+pgx.Identifier{name}.Sanitize())
}

func (c *Conn) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	if enabled {
		return c.exec(ctx, "SET session_replication_role = DEFAULT")
	}
	return c.exec(ctx, "SET session_replication_role = replica")
}

func (c *Conn) Begin(ctx context.Context) error    { return c.exec(ctx, "BEGIN") }
func (c *Conn) Rollback(ctx context.Context) error { return c.exec(ctx, "ROLLBACK") }

// Query runs sql without caching a prepared statement for it.
func (c *Conn) Query(ctx context.Context, sql string) (connpool.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, pgx.QueryExecModeDescribeExec)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows, typeMap: c.conn.Conn().TypeMap()}, nil
}

func (c *Conn) StatusVariables(ctx context.Context) (map[string]string, error) {
	rows, err := c.conn.Query(ctx, statusQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vars := make(map[string]string)
	for rows.Next() {
		var name, val string
		if err := rows.Scan(&name, &val); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		vars[name] = val
	}
	return vars, rows.Err()
}

func (c *Conn) Release() { c.conn.Release() }

// Discard takes the session out of the pool and closes it.
func (c *Conn) Discard() {
	raw := c.conn.Hijack()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = raw.Close(ctx)
}

// Rows adapts pgx.Rows, decoding each cell separately so one bad cell does not
// fail the row.
type Rows struct {
	rows    pgx.Rows
	typeMap *pgtype.Map
	raw     [][]byte
}

func (r *Rows) Columns() []string {
	fds := r.rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return cols
}

func (r *Rows) Next() bool {
	if !r.rows.Next() {
		return false
	}
	r.raw = r.rows.RawValues()
	return true
}

func (r *Rows) Cell(i int) (value.Value, error) {
	fds := r.rows.FieldDescriptions()
	if i < 0 || i >= len(fds) || i >= len(r.raw) {
		return value.Null, fmt.Errorf("column %d out of range", i)
	}
	fd := fds[i]
	return convertCell(r.typeMap, fd.DataTypeOID, fd.Format, r.raw[i])
}

// Close finishes the statement. SELECT reports zero affected rows.
func (r *Rows) Close() (connpool.Summary, error) {
	r.rows.Close()
	if err := r.rows.Err(); err != nil {
		return connpool.Summary{}, err
	}
	return summaryOf(r.rows.CommandTag()), nil
}

func summaryOf(tag pgconn.CommandTag) connpool.Summary {
	if tag.Select() {
		return connpool.Summary{}
	}
	n := tag.RowsAffected()
	if n < 0 {
		n = 0
	}
	return connpool.Summary{AffectedRows: uint64(n)}
}
