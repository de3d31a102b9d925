// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	stderrors "errors"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"querydesk/cli/internal/errors"
	"querydesk/cli/internal/render"
	"querydesk/cli/internal/sqlexec"
	"querydesk/cli/internal/value"
)

type fakeBackend struct {
	mu       sync.Mutex
	dsn      string
	lastOpts *sqlexec.Options
	lastDB   string
	execErr  error
}

func (b *fakeBackend) Connect(_ context.Context, dsn string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dsn == "mysql://bad" {
		return errors.Wrap(errors.ConnectionFailed, "Failed to connect", stderrors.New("access denied"))
	}
	b.dsn = dsn
	return nil
}

func (b *fakeBackend) Disconnect() {
	b.mu.Lock()
	b.dsn = ""
	b.mu.Unlock()
}

func (b *fakeBackend) ExecuteQuery(_ context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastOpts, b.lastDB = opts, db
	if b.dsn == "" {
		return nil, errors.New(errors.NotConnected, errors.MsgNotConnected)
	}
	if b.execErr != nil {
		return nil, b.execErr
	}
	return []sqlexec.QueryResponse{{
		Columns: []string{"id", "big", "name", "blob"},
		Rows: [][]value.Value{
			{value.Int(9007199254740993), value.Uint(math.MaxUint64), value.Text("ann"), value.Null},
		},
		DurationMS: 1.25,
	}}, nil
}

func (b *fakeBackend) ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error) {
	results, err := b.ExecuteQuery(ctx, sql, db, nil)
	if err != nil {
		return nil, err
	}
	return render.NewQueryResultHTML(results[0].Columns, results[0].Rows, time.Millisecond), nil
}

func (b *fakeBackend) ServerStatus(context.Context) (*sqlexec.ServerStatus, error) {
	return &sqlexec.ServerStatus{Connections: 4, BytesReceived: 1 << 40, BytesSent: 12, Queries: 99}, nil
}

func startServer(t *testing.T, backend Backend, opts ServerOptions, clientSecret string) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(backend, opts)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewClient("passthrough:///bufnet", clientSecret,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	c := startServer(t, backend, ServerOptions{}, "")
	ctx := context.Background()

	_, err := c.ExecuteQuery(ctx, "SELECT 1", "", nil)
	if err == nil || err.Error() != "Not connected" {
		t.Fatalf("ExecuteQuery() before connect error = %v, want Not connected", err)
	}
	if !errors.Is(err, errors.NotConnected) {
		t.Errorf("kind = %q, want not_connected", errors.KindOf(err))
	}

	if err := c.Connect(ctx, "mysql://root@localhost/shop"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	results, err := c.ExecuteQuery(ctx, "SELECT id FROM t", "shop", &sqlexec.Options{Rollback: true, DisableFKChecks: true})
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	row := results[0].Rows[0]
	if !row[0].Equal(value.Int(9007199254740993)) {
		t.Errorf("id = %v, integer precision lost", row[0])
	}
	if !row[1].Equal(value.Uint(math.MaxUint64)) {
		t.Errorf("big = %v, want max uint64", row[1])
	}
	if !row[3].IsNull() {
		t.Errorf("blob = %v, want NULL", row[3])
	}
	if results[0].DurationMS != 1.25 {
		t.Errorf("duration_ms = %v, want 1.25", results[0].DurationMS)
	}

	backend.mu.Lock()
	opts, db := backend.lastOpts, backend.lastDB
	backend.mu.Unlock()
	if opts == nil || !opts.Rollback || !opts.DisableFKChecks || db != "shop" {
		t.Errorf("backend saw opts=%+v db=%q", opts, db)
	}

	html, err := c.ExecuteQueryHTML(ctx, "SELECT id FROM t", "")
	if err != nil {
		t.Fatalf("ExecuteQueryHTML() error = %v", err)
	}
	if html.Count != 1 || html.HeadHTML != "<tr><th>id</th><th>big</th><th>name</th><th>blob</th></tr>" {
		t.Errorf("html = %+v", html)
	}

	st, err := c.ServerStatus(ctx)
	if err != nil {
		t.Fatalf("ServerStatus() error = %v", err)
	}
	if st.BytesReceived != 1<<40 || st.Queries != 99 {
		t.Errorf("status = %+v", st)
	}

	if err := c.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
}

func TestErrorsKeepMessage(t *testing.T) {
	backend := &fakeBackend{
		dsn:     "mysql://root@localhost",
		execErr: errors.Wrap(errors.StatementFailed, errors.MsgSQLError, stderrors.New("Unknown column 'x'")),
	}
	c := startServer(t, backend, ServerOptions{}, "")
	ctx := context.Background()

	_, err := c.ExecuteQuery(ctx, "SELECT x", "", nil)
	if err == nil || err.Error() != "SQL Error: Unknown column 'x'" {
		t.Fatalf("error = %v, want SQL Error message", err)
	}
	if !errors.Is(err, errors.StatementFailed) {
		t.Errorf("kind = %q, want statement_failed", errors.KindOf(err))
	}

	if err := c.Connect(ctx, "mysql://bad"); !errors.Is(err, errors.ConnectionFailed) {
		t.Errorf("Connect() error = %v, want connection failed", err)
	}
	if err := c.Connect(ctx, ""); !errors.Is(err, errors.InvalidRequest) {
		t.Errorf("Connect(\"\") error = %v, want invalid request", err)
	}
	if _, err := c.ExecuteQuery(ctx, "", "", nil); !errors.Is(err, errors.InvalidRequest) {
		t.Errorf("ExecuteQuery(\"\") error = %v, want invalid request", err)
	}
}

func TestAuthentication(t *testing.T) {
	tests := []struct {
		name         string
		serverSecret string
		clientSecret string
		wantErr      bool
	}{
		{name: "matching secret", serverSecret: "s3cret", clientSecret: "s3cret"},
		{name: "no auth configured", serverSecret: "", clientSecret: ""},
		{name: "missing token", serverSecret: "s3cret", clientSecret: "", wantErr: true},
		{name: "wrong secret", serverSecret: "s3cret", clientSecret: "other", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, &fakeBackend{}, ServerOptions{AuthSecret: tt.serverSecret}, tt.clientSecret)

			_, err := c.ServerStatus(context.Background())
			if tt.wantErr {
				if !errors.Is(err, errors.Unauthenticated) {
					t.Errorf("ServerStatus() error = %v, want unauthenticated", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ServerStatus() error = %v", err)
			}
		})
	}
}

func TestMintTokenExpiry(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	token, exp, err := MintToken([]byte("k"), "tester", now)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !exp.Equal(now.Add(tokenTTL)) {
		t.Errorf("expiry = %v, want %v", exp, now.Add(tokenTTL))
	}
}
