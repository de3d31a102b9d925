// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package mysql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/jackc/puddle/v2"

	"querydesk/cli/internal/connpool"
	"querydesk/cli/internal/value"
)

const statusQuery = "SHOW GLOBAL STATUS WHERE Variable_name IN " +
	"('Threads_connected', 'Bytes_received', 'Bytes_sent', 'Questions')"

// Conn is a borrowed MySQL session. The client has no context support, so
// contexts only bound pool acquisition.
type Conn struct {
	res *puddle.Resource[*client.Conn]
	// broken is set once a call fails below the SQL layer. Such a session is
	// never handed out again.
	broken bool
}

func (c *Conn) client() *client.Conn { return c.res.Value() }

// track records whether err left the session unusable and returns err.
func (c *Conn) track(err error) error {
	if err != nil && !c.broken && sessionLost(err) {
		c.broken = true
		slog.Debug("mysql session lost", "error", err)
	}
	return err
}

// sessionLost reports whether err came from the transport or the packet layer
// rather than from an error packet sent by the server. Server errors leave the
// session in a known state; anything else may have left it mid-response.
func sessionLost(err error) bool {
	if errors.Is(err, mysql.ErrBadConn) {
		return true
	}
	var serverErr *mysql.MyError
	return !errors.As(err, &serverErr)
}

func (c *Conn) execute(sql string) (*mysql.Result, error) {
	res, err := c.client().Execute(sql)
	return res, c.track(err)
}

func (c *Conn) exec(sql string) error {
	_, err := c.execute(sql)
	return err
}

// UseDatabase issues COM_INIT_DB, the protocol form of USE.
func (c *Conn) UseDatabase(_ context.Context, name string) error {
	return c.track(c.client().UseDB(name))
}

func (c *Conn) SetForeignKeyChecks(_ context.Context, enabled bool) error {
	if enabled {
		return c.exec("SET FOREIGN_KEY_CHECKS = 1")
	}
	return c.exec("SET FOREIGN_KEY_CHECKS = 0")
}

func (c *Conn) Begin(context.Context) error    { return c.exec("START TRANSACTION") }
func (c *Conn) Rollback(context.Context) error { return c.exec("ROLLBACK") }

// Query sends sql over the text protocol and buffers the full result. When the
// statement produces several results, as CALL does, the first one is reported
// and the rest are read off the wire and dropped.
func (c *Conn) Query(_ context.Context, sql string) (connpool.Rows, error) {
	var first firstResult
	if _, err := c.client().ExecuteMultiple(sql, first.add); err != nil {
		return nil, c.track(err)
	}
	if first.err != nil {
		return nil, c.track(first.err)
	}
	if first.res == nil {
		return nil, c.track(errors.New("no result for statement"))
	}
	return newRows(first.res), nil
}

// firstResult keeps the first result of a multi-result response. A failure
// in a later result is still reported.
type firstResult struct {
	res   *mysql.Result
	err   error
	count int
}

func (f *firstResult) add(res *mysql.Result, err error) {
	f.count++
	if f.count == 1 {
		f.res = res
	} else if err == nil && res != nil {
		slog.Debug("dropping extra mysql result", "index", f.count)
	}
	if err != nil && f.err == nil {
		f.err = err
	}
}

func (c *Conn) StatusVariables(context.Context) (map[string]string, error) {
	res, err := c.execute(statusQuery)
	if err != nil {
		return nil, err
	}
	if res.Resultset == nil {
		return map[string]string{}, nil
	}

	vars := make(map[string]string, len(res.Values))
	for i := range res.Values {
		name, err := res.GetString(i, 0)
		if err != nil {
			return nil, fmt.Errorf("status row %d: %w", i, err)
		}
		val, err := res.GetString(i, 1)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", name, err)
		}
		vars[name] = strings.TrimSpace(val)
	}
	return vars, nil
}

// Release returns the session to the pool, or destroys it when a call on it
// failed at the transport level.
func (c *Conn) Release() {
	if c.broken {
		c.res.Destroy()
		return
	}
	c.res.Release()
}

func (c *Conn) Discard() { c.res.Destroy() }

// Rows walks a buffered result. Statements without a result set have no
// columns and no rows.
type Rows struct {
	res  *mysql.Result
	cols []column
	pos  int
}

func newRows(res *mysql.Result) *Rows {
	r := &Rows{res: res}
	if res.Resultset != nil {
		r.cols = make([]column, len(res.Fields))
		for i, f := range res.Fields {
			r.cols[i] = columnOf(f)
		}
	}
	return r
}

func (r *Rows) Columns() []string {
	if r.res.Resultset == nil {
		return []string{}
	}
	names := make([]string, len(r.res.Fields))
	for i, f := range r.res.Fields {
		names[i] = string(f.Name)
	}
	return names
}

func (r *Rows) Next() bool {
	if r.res.Resultset == nil || r.pos >= len(r.res.Values) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Cell(i int) (value.Value, error) {
	row := r.res.Values[r.pos-1]
	if i < 0 || i >= len(row) || i >= len(r.cols) {
		return value.Null, fmt.Errorf("column %d out of range", i)
	}
	fv := &row[i]
	return convert(r.cols[i], fv.Type, fv), nil
}

// Close reports the OK packet counters. Result sets report zero affected rows.
func (r *Rows) Close() (connpool.Summary, error) {
	return connpool.Summary{
		AffectedRows: r.res.AffectedRows,
		LastInsertID: r.res.InsertId,
	}, nil
}
