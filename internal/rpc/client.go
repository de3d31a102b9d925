// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"querydesk/cli/internal/render"
	"querydesk/cli/internal/sqlexec"
)

// Client calls a running query service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient prepares a client for target. The connection is established on
// first use. A non-empty authSecret signs a bearer token for every call.
func NewClient(target, authSecret string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if authSecret != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(&bearerCredentials{
			secret:  []byte(authSecret),
			subject: "querydesk-cli",
		}))
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) Connect(ctx context.Context, dsn string) error {
	in, err := structpb.NewStruct(map[string]any{"dsn": dsn})
	if err != nil {
		return err
	}
	return fromStatus(c.conn.Invoke(ctx, MethodConnect, in, &emptypb.Empty{}))
}

func (c *Client) Disconnect(ctx context.Context) error {
	return fromStatus(c.conn.Invoke(ctx, MethodDisconnect, &emptypb.Empty{}, &emptypb.Empty{}))
}

func (c *Client) ExecuteQuery(ctx context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error) {
	fields := map[string]any{"sql": sql, "db": db}
	if opts != nil {
		fields["options"] = map[string]any{
			"rollback":          opts.Rollback,
			"disable_fk_checks": opts.DisableFKChecks,
		}
	}

	var results []sqlexec.QueryResponse
	if err := c.call(ctx, MethodExecuteQuery, fields, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error) {
	var res render.QueryResultHTML
	if err := c.call(ctx, MethodExecuteQueryHTML, map[string]any{"sql": sql, "db": db}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ServerStatus(ctx context.Context) (*sqlexec.ServerStatus, error) {
	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, MethodGetServerStatus, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}

	var st sqlexec.ServerStatus
	if err := json.Unmarshal([]byte(out.GetValue()), &st); err != nil {
		return nil, fmt.Errorf("decode server status: %w", err)
	}
	return &st, nil
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any, dst any) error {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return fromStatus(err)
	}
	if err := json.Unmarshal([]byte(out.GetValue()), dst); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}
