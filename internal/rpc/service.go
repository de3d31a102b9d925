// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package rpc exposes the command surface over gRPC.
//
// The service is registered from a hand-written ServiceDesc and uses only
// well-known protobuf message types. Requests arrive as Struct values; results
// travel back as JSON inside a StringValue so that 64-bit integers never pass
// through a double.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"querydesk/cli/internal/errors"
	"querydesk/cli/internal/render"
	"querydesk/cli/internal/sqlexec"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "querydesk.v1.QueryService"

// Full method names.
const (
	MethodConnect          = "/" + ServiceName + "/Connect"
	MethodDisconnect       = "/" + ServiceName + "/Disconnect"
	MethodExecuteQuery     = "/" + ServiceName + "/ExecuteQuery"
	MethodExecuteQueryHTML = "/" + ServiceName + "/ExecuteQueryHTML"
	MethodGetServerStatus  = "/" + ServiceName + "/GetServerStatus"
)

// Backend is the command surface served over RPC. *app.App implements it.
type Backend interface {
	Connect(ctx context.Context, dsn string) error
	Disconnect()
	ExecuteQuery(ctx context.Context, sql, db string, opts *sqlexec.Options) ([]sqlexec.QueryResponse, error)
	ExecuteQueryHTML(ctx context.Context, sql, db string) (*render.QueryResultHTML, error)
	ServerStatus(ctx context.Context) (*sqlexec.ServerStatus, error)
}

// QueryServiceServer is the server API of the query service.
type QueryServiceServer interface {
	Connect(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Disconnect(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ExecuteQuery(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	ExecuteQueryHTML(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	GetServerStatus(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// serviceDesc is what protoc-gen-go-grpc would generate for the service.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Connect",
			Handler: unaryHandler(MethodConnect, func(s QueryServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.Connect(ctx, in)
			}),
		},
		{
			MethodName: "Disconnect",
			Handler: unaryHandler(MethodDisconnect, func(s QueryServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
				return s.Disconnect(ctx, in)
			}),
		},
		{
			MethodName: "ExecuteQuery",
			Handler: unaryHandler(MethodExecuteQuery, func(s QueryServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.ExecuteQuery(ctx, in)
			}),
		},
		{
			MethodName: "ExecuteQueryHTML",
			Handler: unaryHandler(MethodExecuteQueryHTML, func(s QueryServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.ExecuteQueryHTML(ctx, in)
			}),
		},
		{
			MethodName: "GetServerStatus",
			Handler: unaryHandler(MethodGetServerStatus, func(s QueryServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
				return s.GetServerStatus(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querydesk/v1/query.proto",
}

// unaryHandler adapts a typed call to a grpc.MethodDesc handler.
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}](fullMethod string, call func(QueryServiceServer, context.Context, PReq) (proto.Message, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(QueryServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterQueryServiceServer registers srv on s.
func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Service implements QueryServiceServer over a Backend.
type Service struct {
	backend Backend
}

// NewService wraps backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

func (s *Service) Connect(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	dsn := stringField(in, "dsn")
	if dsn == "" {
		return nil, toStatus(errors.New(errors.InvalidRequest, "dsn is required"))
	}
	if err := s.backend.Connect(ctx, dsn); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Service) Disconnect(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	s.backend.Disconnect()
	return &emptypb.Empty{}, nil
}

func (s *Service) ExecuteQuery(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	sql := stringField(in, "sql")
	if sql == "" {
		return nil, toStatus(errors.New(errors.InvalidRequest, "sql is required"))
	}

	var opts *sqlexec.Options
	if o := in.GetFields()["options"].GetStructValue(); o != nil {
		opts = &sqlexec.Options{
			Rollback:        o.GetFields()["rollback"].GetBoolValue(),
			DisableFKChecks: o.GetFields()["disable_fk_checks"].GetBoolValue(),
		}
	}

	results, err := s.backend.ExecuteQuery(ctx, sql, stringField(in, "db"), opts)
	if err != nil {
		return nil, toStatus(err)
	}
	return jsonString(results)
}

func (s *Service) ExecuteQueryHTML(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	sql := stringField(in, "sql")
	if sql == "" {
		return nil, toStatus(errors.New(errors.InvalidRequest, "sql is required"))
	}

	res, err := s.backend.ExecuteQueryHTML(ctx, sql, stringField(in, "db"))
	if err != nil {
		return nil, toStatus(err)
	}
	return jsonString(res)
}

func (s *Service) GetServerStatus(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	st, err := s.backend.ServerStatus(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return jsonString(st)
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func jsonString(v any) (*wrapperspb.StringValue, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, toStatus(fmt.Errorf("encode response: %w", err))
	}
	return wrapperspb.String(string(b)), nil
}
