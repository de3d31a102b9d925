// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package value defines the driver-independent representation of one result cell.
//
// A Value is a closed tagged variant: exactly one of Null, Bool, Int, Uint, Float,
// Text or Bytes. Drivers convert their native cell representations into a Value
// and everything downstream (JSON responses, HTML rendering, exports) consumes
// only this type.
package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindText
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one cell of a materialized result. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	s    string
	b    []byte
}

// Null is the SQL NULL value.
var Null = Value{}

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Uint returns an Int when v fits in int64, so each number has one representation.
func Uint(v uint64) Value {
	if v <= math.MaxInt64 {
		return Int(int64(v))
	}
	return Value{kind: KindUint, u: v}
}

func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Text(v string) Value   { return Value{kind: KindText, s: v} }

// Bytes returns a Bytes value holding a copy of v. A nil slice is Null.
func Bytes(v []byte) Value {
	if v == nil {
		return Null
	}
	return Value{kind: KindBytes, b: bytes.Clone(v)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool, AsInt, AsUint, AsFloat, AsText and AsBytes return the payload and
// whether the value holds that variant.

func (v Value) AsBool() (bool, bool)     { return v.i == 1, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) AsUint() (uint64, bool)   { return v.u, v.kind == KindUint }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) AsText() (string, bool)   { return v.s, v.kind == KindText }
func (v Value) AsBytes() ([]byte, bool)  { return v.b, v.kind == KindBytes }

// String renders the value for display. Null renders as "NULL" and bytes as
// a 0x-prefixed hex literal.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBytes:
		return fmt.Sprintf("0x%X", v.b)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindText:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	}
	return false
}

// MarshalJSON encodes the value as a plain JSON scalar. Integers are written
// exactly, bytes as standard base64 and non-finite floats as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.i == 1)), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindUint:
		return []byte(strconv.FormatUint(v.u, 10)), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		return json.Marshal(v.f)
	case KindText:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.b))
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a JSON scalar. Numbers without a fraction or exponent
// become Int or Uint without passing through float64. Strings always decode as
// Text since base64 bytes cannot be told apart from text on the wire.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case nil:
		*v = Null
	case bool:
		*v = Bool(x)
	case string:
		*v = Text(x)
	case json.Number:
		parsed, err := parseNumber(x.String())
		if err != nil {
			return err
		}
		*v = parsed
	default:
		return fmt.Errorf("value: cannot decode JSON %s into a scalar", bytes.TrimSpace(data))
	}
	return nil
}

func parseNumber(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null, fmt.Errorf("value: invalid number %q: %w", s, err)
	}
	return Float(f), nil
}
