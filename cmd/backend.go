// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"querydesk/cli/internal/app"
	"querydesk/cli/internal/driver"
	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/keychain"
	"querydesk/cli/internal/render"
	"querydesk/cli/internal/rpc"
	"querydesk/cli/internal/sqlexec"
)

// errNoDSN is returned when no connection is configured anywhere.
var errNoDSN = errors.New("no database connection configured; run 'querydesk connect' or set QUERYDESK_DSN")

// queryBackend is what query and status need, served either in-process or
// by a remote query server.
type queryBackend interface {
	ExecuteQuery(ctx context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error)
	ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error)
	ServerStatus(ctx context.Context) (*sqlexec.ServerStatus, error)
}

// resolveDSN returns the active DSN and where it came from. Environment
// variables win over the keychain.
func resolveDSN() (dsn, source string, err error) {
	for _, key := range []string{"QUERYDESK_DSN", "DATABASE_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, key + " environment variable", nil
		}
	}

	km, err := keychain.GetManager()
	if err != nil {
		return "", "", err
	}
	dsn, err = km.LoadDBDSN()
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return "", "", errNoDSN
		}
		return "", "", err
	}
	return dsn, "OS keychain", nil
}

// resolveAuthSecret returns the RPC shared secret, or "" when none is set.
func resolveAuthSecret() string {
	if v := strings.TrimSpace(os.Getenv("QUERYDESK_AUTH_SECRET")); v != "" {
		return v
	}
	km, err := keychain.GetManager()
	if err != nil {
		slog.Debug("keychain unavailable for auth secret", "error", err)
		return ""
	}
	secret, err := km.LoadAuthSecret()
	if err != nil {
		return ""
	}
	return secret
}

func poolOptions() driver.Options {
	return driver.Options{
		MaxConns:       cfg.Pool.MaxConns,
		ConnectTimeout: time.Duration(cfg.Pool.ConnectTimeout),
	}
}

// openLocal connects an in-process engine to the active DSN.
func openLocal(ctx context.Context) (*app.App, error) {
	dsn, source, err := resolveDSN()
	if err != nil {
		return nil, err
	}
	slog.Debug("using DSN", "source", source)

	a := app.New(poolOptions())
	if err := a.Connect(ctx, dsn); err != nil {
		return nil, err
	}
	return a, nil
}

// openBackend returns a local engine, or a client for the query server at
// remote. The returned close function releases either. sendDSN allows the
// local DSN to be handed to a non-loopback server that is not connected.
func openBackend(ctx context.Context, remote string, sendDSN bool) (queryBackend, func(), error) {
	if remote == "" {
		a, err := openLocal(ctx)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Disconnect, nil
	}

	c, err := rpc.NewClient(remote, resolveAuthSecret())
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := c.Close(); err != nil {
			slog.Debug("closing rpc client", "error", err)
		}
	}
	return &remoteBackend{Client: c, addr: remote, sendDSN: sendDSN}, closeFn, nil
}

// remoteBackend connects an idle query server with the local DSN on first
// "Not connected" and retries the call once. The DSN carries credentials, so
// it only goes to loopback servers unless sendDSN is set.
type remoteBackend struct {
	*rpc.Client
	addr    string
	sendDSN bool
}

// mayForwardDSN reports whether the local DSN may be sent to the query server
// at addr.
func mayForwardDSN(addr string, explicit bool) bool {
	return explicit || isLoopback(addr)
}

func (r *remoteBackend) ensureConnected(ctx context.Context, err error) bool {
	if !qerrors.Is(err, qerrors.NotConnected) {
		return false
	}
	if !mayForwardDSN(r.addr, r.sendDSN) {
		slog.Warn("query server is not connected; pass --send-dsn to send the local connection to it",
			"remote", r.addr)
		return false
	}
	dsn, _, derr := resolveDSN()
	if derr != nil {
		return false
	}
	slog.Info("query server is not connected, sending local connection")
	if cerr := r.Client.Connect(ctx, dsn); cerr != nil {
		slog.Warn("remote connect failed", "error", cerr)
		return false
	}
	return true
}

func (r *remoteBackend) ExecuteQuery(ctx context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error) {
	res, err := r.Client.ExecuteQuery(ctx, sql, db, opts)
	if err != nil && r.ensureConnected(ctx, err) {
		return r.Client.ExecuteQuery(ctx, sql, db, opts)
	}
	return res, err
}

func (r *remoteBackend) ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error) {
	res, err := r.Client.ExecuteQueryHTML(ctx, sql, db)
	if err != nil && r.ensureConnected(ctx, err) {
		return r.Client.ExecuteQueryHTML(ctx, sql, db)
	}
	return res, err
}

func (r *remoteBackend) ServerStatus(ctx context.Context) (*sqlexec.ServerStatus, error) {
	res, err := r.Client.ServerStatus(ctx)
	if err != nil && r.ensureConnected(ctx, err) {
		return r.Client.ServerStatus(ctx)
	}
	return res, err
}
