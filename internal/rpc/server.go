// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// ServerOptions configure NewServer.
type ServerOptions struct {
	// AuthSecret enables bearer token authentication when non-empty.
	AuthSecret string
}

// NewServer returns a gRPC server with the query service registered.
func NewServer(backend Backend, opts ServerOptions) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logInterceptor}
	if opts.AuthSecret != "" {
		interceptors = append(interceptors, authInterceptor([]byte(opts.AuthSecret)))
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterQueryServiceServer(s, NewService(backend))
	return s
}

func logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	attrs := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"elapsed", time.Since(start),
	}
	if err != nil {
		slog.Warn("rpc failed", append(attrs, "error", status.Convert(err).Message())...)
	} else {
		slog.Debug("rpc handled", attrs...)
	}
	return resp, err
}
