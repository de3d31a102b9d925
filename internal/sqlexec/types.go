package sqlexec

import (
	"time"

	"querydesk/cli/internal/value"
)

// Options are per-call toggles. The zero value runs the statement as is.
type Options struct {
	// Rollback wraps the statement in a transaction that is always rolled back.
	Rollback bool `json:"rollback"`
	// DisableFKChecks turns off referential integrity enforcement for the call.
	DisableFKChecks bool `json:"disable_fk_checks"`
}

// QueryResponse is the materialized outcome of one statement.
type QueryResponse struct {
	Columns      []string        `json:"columns"`
	Rows         [][]value.Value `json:"rows"`
	AffectedRows uint64          `json:"affected_rows"`
	LastInsertID uint64          `json:"last_insert_id"`
	DurationMS   float64         `json:"duration_ms"`

	// Duration is DurationMS at full precision; not serialized.
	Duration time.Duration `json:"-"`
}

// ServerStatus is a point-in-time snapshot of server counters.
type ServerStatus struct {
	Connections   uint64 `json:"connections"`
	BytesReceived uint64 `json:"bytes_received"`
	BytesSent     uint64 `json:"bytes_sent"`
	Queries       uint64 `json:"queries"`
}
