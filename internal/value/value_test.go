// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package value

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"
)

func TestMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "null", v: Null, want: `null`},
		{name: "bool", v: Bool(true), want: `true`},
		{name: "int", v: Int(-42), want: `-42`},
		{name: "max int64", v: Int(math.MaxInt64), want: `9223372036854775807`},
		{name: "max uint64", v: Uint(math.MaxUint64), want: `18446744073709551615`},
		{name: "float", v: Float(1.5), want: `1.5`},
		{name: "nan", v: Float(math.NaN()), want: `"NaN"`},
		{name: "inf", v: Float(math.Inf(-1)), want: `"-Inf"`},
		{name: "text", v: Text(`a "b"`), want: `"a \"b\""`},
		{name: "bytes", v: Bytes([]byte{0xDE, 0xAD, 0xBE, 0xEF}), want: `"3q2+7w=="`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnmarshalJSONKeepsIntegers(t *testing.T) {
	var row []Value
	if err := json.Unmarshal([]byte(`[null, 1, 9007199254740993, 18446744073709551615, 2.25, "x", false]`), &row); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []Value{Null, Int(1), Int(9007199254740993), Uint(math.MaxUint64), Float(2.25), Text("x"), Bool(false)}
	if len(row) != len(want) {
		t.Fatalf("len = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if !row[i].Equal(want[i]) {
			t.Errorf("row[%d] = %v (%s), want %v (%s)", i, row[i], row[i].Kind(), want[i], want[i].Kind())
		}
	}
}

func TestUnmarshalJSONRejectsComposite(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"a":1}`), &v); err == nil {
		t.Error("expected error for object")
	}
}

func TestUintNormalizesSmallValues(t *testing.T) {
	if got := Uint(7).Kind(); got != KindInt {
		t.Errorf("Uint(7).Kind() = %s, want int", got)
	}
	if got := Uint(math.MaxInt64 + 1).Kind(); got != KindUint {
		t.Errorf("Uint(MaxInt64+1).Kind() = %s, want uint", got)
	}
}

type status string

type valuer struct{ v any }

func (v valuer) Value() (any, error) { return v.v, nil }

func TestFromNative(t *testing.T) {
	ts := time.Date(2024, 3, 9, 13, 4, 5, 120000000, time.UTC)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	n := int32(5)
	var nilPtr *int32

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{name: "nil", in: nil, want: Null},
		{name: "int8", in: int8(-3), want: Int(-3)},
		{name: "uint64 small", in: uint64(10), want: Int(10)},
		{name: "uint64 large", in: uint64(math.MaxUint64), want: Uint(math.MaxUint64)},
		{name: "float32 shortest", in: float32(0.1), want: Float(0.1)},
		{name: "float64", in: 3.25, want: Float(3.25)},
		{name: "string", in: "abc", want: Text("abc")},
		{name: "bytes", in: []byte("raw"), want: Bytes([]byte("raw"))},
		{name: "time", in: ts, want: Text("2024-03-09T13:04:05.12Z")},
		{name: "big int fits", in: big.NewInt(99), want: Int(99)},
		{name: "big int wide", in: huge, want: Text("123456789012345678901234567890")},
		{name: "valuer", in: valuer{v: int64(8)}, want: Int(8)},
		{name: "named string", in: status("active"), want: Text("active")},
		{name: "pointer", in: &n, want: Int(5)},
		{name: "nil pointer", in: nilPtr, want: Null},
		{name: "map", in: map[string]any{"k": 1}, want: Text(`{"k":1}`)},
		{name: "slice", in: []int{1, 2}, want: Text(`[1,2]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromNative(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("FromNative(%v) = %v (%s), want %v (%s)", tt.in, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestBytesCopiesInput(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)
	src[0] = 9

	b, _ := v.AsBytes()
	if b[0] != 1 {
		t.Errorf("Bytes() aliases caller slice")
	}
	if !Bytes(nil).IsNull() {
		t.Error("Bytes(nil) should be Null")
	}
}

func TestString(t *testing.T) {
	if got := Null.String(); got != "NULL" {
		t.Errorf("Null.String() = %q", got)
	}
	if got := Bytes([]byte{0x0A, 0xFF}).String(); got != "0x0AFF" {
		t.Errorf("Bytes.String() = %q", got)
	}
}
