// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	stderrors "errors"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"querydesk/cli/internal/errors"
)

func TestParseRemoteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RemoteErrorType
	}{
		{name: "nil", err: nil, want: RemoteErrorUnknown},
		{name: "unavailable status", err: status.Error(codes.Unavailable, "connection error"), want: RemoteErrorUnavailable},
		{name: "deadline status", err: status.Error(codes.DeadlineExceeded, "context deadline exceeded"), want: RemoteErrorTimeout},
		{name: "internal status", err: status.Error(codes.Internal, "boom"), want: RemoteErrorInternal},
		{name: "typed unauthenticated", err: errors.New(errors.Unauthenticated, "invalid token"), want: RemoteErrorAuth},
		{name: "refused", err: stderrors.New("dial tcp 127.0.0.1:7431: connect: connection refused"), want: RemoteErrorNetwork},
		{name: "query failure", err: errors.New(errors.StatementFailed, "SQL Error: syntax"), want: RemoteErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRemoteError(tt.err); got != tt.want {
				t.Errorf("ParseRemoteError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatRemoteErrorMasksDetails(t *testing.T) {
	err := status.Error(codes.Unavailable, "dial mysql://root:pw@db:3306 failed")
	out := FormatRemoteError("127.0.0.1:7431", err)

	if strings.Contains(out, "pw@") {
		t.Errorf("output leaks password: %q", out)
	}
	if !strings.Contains(out, "127.0.0.1:7431") {
		t.Errorf("output does not name the address: %q", out)
	}
	if !IsRemoteTransportError(err) {
		t.Error("IsRemoteTransportError() = false, want true")
	}
}
