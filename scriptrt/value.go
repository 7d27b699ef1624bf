// Package scriptrt is the runtime support library linked into every
// compiled script unit. It provides the dynamic Value type exchanged
// across the host boundary, the name-hash function shared by the
// generator and the dispatch tables, entity handles, and the failure
// interceptor installed inside the loaded unit.
package scriptrt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/shopspring/decimal"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindDecimal
	KindBigInt
	KindString
	KindArray
	KindMap
	KindID
)

// Value is the generically serialized dynamic value used for
// inspection, persistence, and designer overrides. It is the only
// representation that crosses the host/script boundary; generated code
// converts between Value and statically typed fields through the value
// bridge accessors below.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	u    uint64
	f    float64
	d    decimal.Decimal
	bi   *big.Int
	s    string
	arr  []Value
	m    map[string]Value
	id   EntityID
}

// --- Constructors ---

func Null() Value                   { return Value{kind: KindNull} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Int(i int64) Value             { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value           { return Value{kind: KindUint, u: u} }
func Float(f float64) Value         { return Value{kind: KindFloat, f: f} }
func Dec(d decimal.Decimal) Value   { return Value{kind: KindDecimal, d: d} }
func Big(b *big.Int) Value          { return Value{kind: KindBigInt, bi: b} }
func Str(s string) Value            { return Value{kind: KindString, s: s} }
func Arr(vs []Value) Value          { return Value{kind: KindArray, arr: vs} }
func MapOf(m map[string]Value) Value { return Value{kind: KindMap, m: m} }
func ID(id EntityID) Value          { return Value{kind: KindID, id: id} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value holds nothing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// --- Typed accessors (the extraction side of the value bridge) ---
//
// Each accessor returns (zero, false) when the value does not hold a
// compatible variant. Numeric accessors convert between the integer
// variants; Float64 additionally accepts integers, matching how the
// serialized form treats all numbers uniformly.

func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUint:
		return int64(v.u), true
	}
	return 0, false
}

func (v Value) Uint64() (uint64, bool) {
	switch v.kind {
	case KindUint:
		return v.u, true
	case KindInt:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	}
	return 0, false
}

func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	}
	return 0, false
}

func (v Value) Boolean() (bool, bool) {
	if v.kind == KindBool {
		return v.b, true
	}
	return false, false
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindDecimal:
		return v.d, true
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindFloat:
		return decimal.NewFromFloat(v.f), true
	}
	return decimal.Decimal{}, false
}

func (v Value) BigInt() (*big.Int, bool) {
	switch v.kind {
	case KindBigInt:
		return v.bi, true
	case KindInt:
		return big.NewInt(v.i), true
	case KindUint:
		return new(big.Int).SetUint64(v.u), true
	}
	return nil, false
}

func (v Value) Str() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

func (v Value) Slice() ([]Value, bool) {
	if v.kind == KindArray {
		return v.arr, true
	}
	return nil, false
}

func (v Value) MapVals() (map[string]Value, bool) {
	if v.kind == KindMap {
		return v.m, true
	}
	return nil, false
}

func (v Value) Identifier() (EntityID, bool) {
	switch v.kind {
	case KindID:
		return v.id, true
	case KindString:
		id, err := ParseEntityID(v.s)
		if err != nil {
			return ZeroEntityID, false
		}
		return id, true
	}
	return ZeroEntityID, false
}

// --- Generic structured conversion (the serialization side) ---

// ToValue converts an arbitrary statically typed Go value into a Value.
// Containers are walked recursively; this is the generic conversion the
// read tables use for container fields.
func ToValue(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Uint(uint64(t))
	case uint8:
		return Uint(uint64(t))
	case uint16:
		return Uint(uint64(t))
	case uint32:
		return Uint(uint64(t))
	case uint64:
		return Uint(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case decimal.Decimal:
		return Dec(t)
	case *big.Int:
		return Big(t)
	case string:
		return Str(t)
	case EntityID:
		return ID(t)
	case []Value:
		return Arr(t)
	case map[string]Value:
		return MapOf(t)
	}
	return reflectToValue(reflect.ValueOf(x))
}

func reflectToValue(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null()
		}
		return reflectToValue(rv.Elem())
	case reflect.Slice, reflect.Array:
		out := make([]Value, rv.Len())
		for i := range out {
			out[i] = ToValue(rv.Index(i).Interface())
		}
		return Arr(out)
	case reflect.Map:
		out := make(map[string]Value, rv.Len())
		for _, k := range rv.MapKeys() {
			out[fmt.Sprint(k.Interface())] = ToValue(rv.MapIndex(k).Interface())
		}
		return MapOf(out)
	case reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return Null()
		}
		var v Value
		if err := json.Unmarshal(data, &v); err != nil {
			return Null()
		}
		return v
	}
	return Null()
}

// DecodeValue extracts a structured value (user-defined record or
// handle-bearing built-in) into out, which must be a pointer. It is the
// multi-line deserialization strategy used by generated write and call
// table entries for record-typed members.
func DecodeValue(v Value, out any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// --- JSON interchange ---

// MarshalJSON encodes the value in the interchange form used for
// persistence and designer overrides.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindUint:
		return json.Marshal(v.u)
	case KindFloat:
		return json.Marshal(v.f)
	case KindDecimal:
		return json.Marshal(v.d)
	case KindBigInt:
		return []byte(v.bi.String()), nil
	case KindString:
		return json.Marshal(v.s)
	case KindID:
		return json.Marshal(v.id.String())
	case KindArray:
		return json.Marshal(v.arr)
	case KindMap:
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("unencodable value kind %d", v.kind)
}

// UnmarshalJSON decodes the interchange form. Numbers decode to Int
// when integral, Float otherwise; objects decode to Map, arrays to
// Array. Handle and decimal variants round-trip through strings and
// numbers respectively.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromDecoded(raw)
	return nil
}

func fromDecoded(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return Str(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromDecoded(e)
		}
		return Arr(out)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = fromDecoded(e)
		}
		return MapOf(out)
	}
	return Null()
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindUint:
		return fmt.Sprintf("%d", v.u)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindDecimal:
		return v.d.String()
	case KindBigInt:
		return v.bi.String()
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindID:
		return v.id.String()
	case KindArray:
		return fmt.Sprintf("%v", v.arr)
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("%s: %s", k, v.m[k])
		}
		return s + "}"
	}
	return "<invalid>"
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f
	case KindDecimal:
		return v.d.Equal(o.d)
	case KindBigInt:
		return v.bi.Cmp(o.bi) == 0
	case KindString:
		return v.s == o.s
	case KindID:
		return v.id == o.id
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}
