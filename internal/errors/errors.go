// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that crosses the command surface carries a machine-readable Kind
// and a human-readable Message. Error() renders only the message and the cause,
// so prefixes such as "SQL Error:" and "Not connected" reach callers verbatim.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotConnected indicates that no connection pool has been established.
	NotConnected Kind = "not_connected"
	// ConnectionFailed indicates that a pool could not be opened or a connection borrowed.
	ConnectionFailed Kind = "connection_failed"
	// SchemaSwitchFailed indicates that the requested database could not be selected.
	SchemaSwitchFailed Kind = "schema_switch_failed"
	// SessionSetupFailed indicates that a session toggle or transaction start failed.
	SessionSetupFailed Kind = "session_setup_failed"
	// StatementFailed indicates that the server rejected the user statement.
	StatementFailed Kind = "statement_failed"
	// NoResults indicates that an execution produced no result to render.
	NoResults Kind = "no_results"
	// InvalidRequest indicates malformed input at the RPC boundary.
	InvalidRequest Kind = "invalid_request"
	// Unauthenticated indicates a missing or invalid RPC credential.
	Unauthenticated Kind = "unauthenticated"
)

// Messages shown to users for the fixed-text kinds.
const (
	MsgNotConnected = "Not connected"
	MsgSQLError     = "SQL Error"
	MsgNoResults    = "No results returned"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
