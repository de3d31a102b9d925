// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"querydesk/cli/internal/errors"
)

const errorDomain = "querydesk"

var kindCodes = map[errors.Kind]codes.Code{
	errors.NotConnected:       codes.FailedPrecondition,
	errors.ConnectionFailed:   codes.Unavailable,
	errors.SchemaSwitchFailed: codes.InvalidArgument,
	errors.SessionSetupFailed: codes.Aborted,
	errors.StatementFailed:    codes.InvalidArgument,
	errors.NoResults:          codes.NotFound,
	errors.InvalidRequest:     codes.InvalidArgument,
	errors.Unauthenticated:    codes.Unauthenticated,
}

// toStatus converts err to a gRPC status error. The status message is the
// error's text, unchanged, and the kind rides along as ErrorInfo.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	kind := errors.KindOf(err)
	code, ok := kindCodes[kind]
	if !ok {
		code = codes.Internal
	}

	st := status.New(code, err.Error())
	if kind != "" {
		if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: string(kind), Domain: errorDomain}); derr == nil {
			st = detailed
		}
	}
	return st.Err()
}

// fromStatus turns a status error back into a typed error carrying the same
// message. Statuses raised by the transport itself are returned unchanged.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	kind := errors.Kind("")
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			kind = errors.Kind(info.GetReason())
			break
		}
	}
	if kind == "" {
		kind = kindForCode(st.Code())
	}
	if kind == "" {
		// Transport failure that never reached the service.
		return err
	}
	return errors.New(kind, st.Message())
}

func kindForCode(c codes.Code) errors.Kind {
	switch c {
	case codes.FailedPrecondition:
		return errors.NotConnected
	case codes.Unauthenticated:
		return errors.Unauthenticated
	case codes.NotFound:
		return errors.NoResults
	default:
		return ""
	}
}
