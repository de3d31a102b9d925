// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package mysql

import (
	"github.com/go-mysql-org/go-mysql/mysql"

	"querydesk/cli/internal/value"
)

// binaryCollationID is the collation the server reports for BINARY, VARBINARY
// and BLOB columns.
const binaryCollationID = 63

// fieldValue is the subset of *mysql.FieldValue the converter reads.
type fieldValue interface {
	AsUint64() uint64
	AsInt64() int64
	AsFloat64() float64
	AsString() []byte
}

// column is the metadata that drives conversion of a text-protocol cell.
type column struct {
	Type    uint8
	Flag    uint16
	Charset uint16
}

func columnOf(f *mysql.Field) column {
	return column{Type: f.Type, Flag: f.Flag, Charset: f.Charset}
}

// convert maps one text-protocol cell to a Value. The client library already
// parsed integer and floating point columns; everything else arrives as the
// server's canonical text.
func convert(col column, kind mysql.FieldValueType, fv fieldValue) value.Value {
	switch kind {
	case mysql.FieldValueTypeNull:
		return value.Null
	case mysql.FieldValueTypeUnsigned:
		return value.Uint(fv.AsUint64())
	case mysql.FieldValueTypeSigned:
		return value.Int(fv.AsInt64())
	case mysql.FieldValueTypeFloat:
		if col.Type == mysql.MYSQL_TYPE_FLOAT {
			return value.Float32(float32(fv.AsFloat64()))
		}
		return value.Float(fv.AsFloat64())
	}

	raw := fv.AsString()
	if raw == nil {
		// The cell is not NULL, so an empty payload is an empty value.
		raw = []byte{}
	}

	switch col.Type {
	case mysql.MYSQL_TYPE_BIT:
		return bitValue(raw)
	case mysql.MYSQL_TYPE_GEOMETRY:
		return value.Bytes(raw)
	case mysql.MYSQL_TYPE_TINY_BLOB, mysql.MYSQL_TYPE_MEDIUM_BLOB, mysql.MYSQL_TYPE_LONG_BLOB,
		mysql.MYSQL_TYPE_BLOB, mysql.MYSQL_TYPE_VARCHAR, mysql.MYSQL_TYPE_VAR_STRING, mysql.MYSQL_TYPE_STRING:
		if col.Charset == binaryCollationID {
			return value.Bytes(raw)
		}
	}

	// DECIMAL, temporal types, JSON, ENUM, SET and character data.
	return value.Text(string(raw))
}

// bitValue decodes a big-endian BIT(n) payload. Payloads wider than 64 bits
// cannot occur, but are kept as bytes if they do.
func bitValue(raw []byte) value.Value {
	if len(raw) > 8 {
		return value.Bytes(raw)
	}
	var n uint64
	for _, b := range raw {
		n = n<<8 | uint64(b)
	}
	return value.Uint(n)
}
