package sqlexec

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"querydesk/cli/internal/errors"
)

// Status variable names read from the server.
const (
	VarThreadsConnected = "Threads_connected"
	VarBytesReceived    = "Bytes_received"
	VarBytesSent        = "Bytes_sent"
	VarQuestions        = "Questions"
)

// Status reads the server's global counters. Missing or unparsable counters are 0.
func (e *Executor) Status(ctx context.Context) (*ServerStatus, error) {
	conn, err := e.pool.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	vars, err := conn.StatusVariables(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.StatementFailed, errors.MsgSQLError, fmt.Errorf("read server status: %w", err))
	}

	return statusFromVariables(vars), nil
}

func statusFromVariables(vars map[string]string) *ServerStatus {
	lookup := make(map[string]string, len(vars))
	for k, v := range vars {
		lookup[strings.ToLower(k)] = v
	}
	counter := func(name string) uint64 {
		n, err := strconv.ParseUint(strings.TrimSpace(lookup[strings.ToLower(name)]), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	return &ServerStatus{
		Connections:   counter(VarThreadsConnected),
		BytesReceived: counter(VarBytesReceived),
		BytesSent:     counter(VarBytesSent),
		Queries:       counter(VarQuestions),
	}
}
