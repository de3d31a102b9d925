// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package value

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"
)

// Canonical text layouts for temporal values.
const (
	DateLayout      = "2006-01-02"
	DateTimeLayout  = "2006-01-02 15:04:05.999999"
	TimestampLayout = time.RFC3339Nano
)

// Float32 converts a single-precision float using its shortest decimal form,
// so 0.1 stays 0.1 instead of 0.10000000149011612.
func Float32(f float32) Value {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return Float(float64(f))
	}
	d, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return Float(float64(f))
	}
	return Float(d)
}

// BigInt returns Int or Uint when n fits in 64 bits and Text otherwise.
func BigInt(n *big.Int) Value {
	if n == nil {
		return Null
	}
	if n.IsInt64() {
		return Int(n.Int64())
	}
	if n.IsUint64() {
		return Uint(n.Uint64())
	}
	return Text(n.String())
}

// FromNative converts a Go value produced by a driver into a Value. It never
// fails: anything without a dedicated mapping is stringified.
func FromNative(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null
	case Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return Uint(uint64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return Uint(v)
	case float32:
		return Float32(v)
	case float64:
		return Float(v)
	case string:
		return Text(v)
	case []byte:
		return Bytes(v)
	case time.Time:
		return Text(v.Format(TimestampLayout))
	case time.Duration:
		return Text(v.String())
	case *big.Int:
		return BigInt(v)
	case big.Int:
		return BigInt(&v)
	case *big.Float:
		if v == nil {
			return Null
		}
		return Text(v.Text('f', -1))
	case json.RawMessage:
		return Text(string(v))
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return Text(fmt.Sprint(x))
		}
		if _, again := inner.(driver.Valuer); again {
			return Text(fmt.Sprint(inner))
		}
		return FromNative(inner)
	case fmt.Stringer:
		return Text(v.String())
	}

	return fromReflect(x)
}

// fromReflect handles pointers, named scalar types and composite values.
func fromReflect(x any) Value {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return FromNative(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint())
	case reflect.Float32:
		return Float32(float32(rv.Float()))
	case reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return Text(rv.String())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(x); err == nil {
			return Text(string(b))
		}
	}
	return Text(fmt.Sprint(x))
}
