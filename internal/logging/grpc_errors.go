// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"querydesk/cli/internal/errors"
)

// RemoteErrorType represents the category of a failed call to a query server.
type RemoteErrorType int

const (
	RemoteErrorUnknown RemoteErrorType = iota
	RemoteErrorNetwork
	RemoteErrorAuth
	RemoteErrorTimeout
	RemoteErrorInternal
	RemoteErrorUnavailable
)

// ParseRemoteError categorizes a transport-level RPC error. Errors that carry
// a server-side query failure are not transport errors and report Unknown.
func ParseRemoteError(err error) RemoteErrorType {
	if err == nil {
		return RemoteErrorUnknown
	}
	if errors.Is(err, errors.Unauthenticated) {
		return RemoteErrorAuth
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return RemoteErrorAuth
		case codes.DeadlineExceeded:
			return RemoteErrorTimeout
		case codes.Internal:
			return RemoteErrorInternal
		case codes.Unavailable:
			return RemoteErrorUnavailable
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") || strings.Contains(lower, "connection refused"):
		return RemoteErrorNetwork
	case strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout"):
		return RemoteErrorTimeout
	case strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "unauthorized"):
		return RemoteErrorAuth
	}
	return RemoteErrorUnknown
}

// FormatRemoteError formats a failed call to a query server at addr in a user-friendly way.
func FormatRemoteError(addr string, err error) string {
	errType := ParseRemoteError(err)

	var builder strings.Builder
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Query server unreachable"))
	builder.WriteString("\n\n")

	switch errType {
	case RemoteErrorNetwork, RemoteErrorUnavailable:
		fmt.Fprintf(&builder, "Could not reach the query server at %s.\n", addr)
		builder.WriteString("Check that 'querydesk serve' is running and listening on that address.\n")
	case RemoteErrorTimeout:
		fmt.Fprintf(&builder, "The query server at %s did not answer in time.\n", addr)
	case RemoteErrorAuth:
		builder.WriteString("The query server rejected the request credentials.\n")
		builder.WriteString("Make sure QUERYDESK_AUTH_SECRET matches the secret the server was started with.\n")
	case RemoteErrorInternal:
		builder.WriteString("The query server hit an internal error while handling the request.\n")
	default:
		builder.WriteString("The request to the query server failed.\n")
	}

	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return builder.String()
}

// IsRemoteTransportError reports whether err is an RPC failure that never
// reached the query engine.
func IsRemoteTransportError(err error) bool {
	return ParseRemoteError(err) != RemoteErrorUnknown
}
