// Package sqlexec runs ad-hoc SQL against the current connection pool and
// materializes the result into driver-independent values.
//
// A single execution borrows one session and runs, strictly in order:
//   - an optional schema switch
//   - an optional foreign-key enforcement toggle
//   - an optional sandbox transaction that is always rolled back
//   - the user statement, sent verbatim
//
// Session changes made for the request are undone on every exit path, in
// reverse order of setup. A session whose cleanup failed is discarded instead
// of being returned to the pool.
package sqlexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/errors"
	"querydesk/cli/internal/value"
)

// Borrower hands out sessions. *connpool.Manager satisfies it.
type Borrower interface {
	Borrow(ctx context.Context) (connpool.Conn, error)
}

// Executor executes SQL statements using borrowed sessions.
type Executor struct {
	pool Borrower
}

// New creates an Executor over a session source.
func New(pool Borrower) *Executor {
	return &Executor{pool: pool}
}

// Execute runs sql as one statement, optionally after selecting database.
// Only the first result set of the statement is materialized.
func (e *Executor) Execute(ctx context.Context, sql, database string, opts Options) (*QueryResponse, error) {
	conn, err := e.pool.Borrow(ctx)
	if err != nil {
		return nil, err
	}

	s := &session{conn: conn}
	defer s.finish(ctx)

	if database != "" {
		if err := conn.UseDatabase(ctx, database); err != nil {
			return nil, errors.Wrap(errors.SchemaSwitchFailed, fmt.Sprintf("Failed to select database %s", database), err)
		}
	}

	if opts.DisableFKChecks {
		if err := conn.SetForeignKeyChecks(ctx, false); err != nil {
			return nil, errors.Wrap(errors.SessionSetupFailed, "Failed to disable foreign key checks", err)
		}
		s.restoreFK = true
	}

	if opts.Rollback {
		if err := conn.Begin(ctx); err != nil {
			return nil, errors.Wrap(errors.SessionSetupFailed, "Failed to start transaction", err)
		}
		s.rollback = true
	}

	start := time.Now()

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, errors.Wrap(errors.StatementFailed, errors.MsgSQLError, err)
	}

	resp := materialize(rows)

	summary, err := rows.Close()
	if err != nil {
		return nil, errors.Wrap(errors.StatementFailed, errors.MsgSQLError, err)
	}

	resp.Duration = time.Since(start)
	resp.DurationMS = float64(resp.Duration) / float64(time.Millisecond)
	resp.AffectedRows = summary.AffectedRows
	resp.LastInsertID = summary.LastInsertID

	slog.Debug("statement executed",
		"columns", len(resp.Columns),
		"rows", len(resp.Rows),
		"affected_rows", resp.AffectedRows,
		"duration_ms", resp.DurationMS,
	)

	return resp, nil
}

// materialize drains rows. A cell that fails to decode becomes Null.
func materialize(rows connpool.Rows) *QueryResponse {
	cols := rows.Columns()
	if cols == nil {
		cols = []string{}
	}
	resp := &QueryResponse{
		Columns: cols,
		Rows:    [][]value.Value{},
	}

	for rows.Next() {
		row := make([]value.Value, len(cols))
		for i := range cols {
			v, err := rows.Cell(i)
			if err != nil {
				slog.Debug("cell decode failed, using NULL",
					"row", len(resp.Rows),
					"column", cols[i],
					"error", err,
				)
				v = value.Null
			}
			row[i] = v
		}
		resp.Rows = append(resp.Rows, row)
	}

	return resp
}

// session tracks what a request changed so it can be undone.
type session struct {
	conn      connpool.Conn
	rollback  bool
	restoreFK bool
}

// finish undoes session changes in reverse order and gives the connection back.
// Cleanup runs even when ctx is already cancelled.
func (s *session) finish(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	healthy := true

	if s.rollback {
		if err := s.conn.Rollback(ctx); err != nil {
			slog.Warn("rollback failed, discarding connection", "error", err)
			healthy = false
		}
	}

	if s.restoreFK {
		if err := s.conn.SetForeignKeyChecks(ctx, true); err != nil {
			slog.Warn("restoring foreign key checks failed, discarding connection", "error", err)
			healthy = false
		}
	}

	if !healthy {
		s.conn.Discard()
		return
	}
	s.conn.Release()
}
