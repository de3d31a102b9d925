// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"querydesk/cli/internal/value"
)

// convertCell decodes one raw wire value. Types pgx does not know are kept as
// text when sent in text format and as bytes otherwise.
func convertCell(m *pgtype.Map, oid uint32, format int16, raw []byte) (value.Value, error) {
	if raw == nil {
		return value.Null, nil
	}

	t, ok := m.TypeForOID(oid)
	if !ok {
		if format == pgtype.TextFormatCode {
			return value.Text(string(raw)), nil
		}
		return value.Bytes(raw), nil
	}

	native, err := t.Codec.DecodeValue(m, oid, format, raw)
	if err != nil {
		return value.Null, fmt.Errorf("decode %s: %w", t.Name, err)
	}

	switch oid {
	case pgtype.JSONOID, pgtype.JSONBOID:
		b, err := json.Marshal(native)
		if err != nil {
			return value.Null, fmt.Errorf("encode %s: %w", t.Name, err)
		}
		return value.Text(string(b)), nil
	}

	switch v := native.(type) {
	case time.Time:
		return value.Text(formatTime(oid, v)), nil
	case [16]byte:
		return value.Text(formatUUID(v)), nil
	}

	return value.FromNative(native), nil
}

func formatTime(oid uint32, t time.Time) string {
	switch oid {
	case pgtype.DateOID:
		return t.Format(value.DateLayout)
	case pgtype.TimestampOID:
		return t.Format(value.DateTimeLayout)
	default:
		return t.Format(value.TimestampLayout)
	}
}

func formatUUID(v [16]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
}
