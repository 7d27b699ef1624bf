// Package types defines the script type system: the Type tagged union,
// default values, the implicit-coercion lattice, copy classification,
// and the bridge that extracts statically typed values out of the
// dynamic serialized form.
package types

import (
	"fmt"
	"strings"
)

// Kind tags the variant of a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt       // signed integer, Bits = 8/16/32/64
	KindUint      // unsigned integer, Bits = 8/16/32/64
	KindFloat     // Bits = 32/64
	KindDecimal   // arbitrary-precision decimal
	KindBigInt    // arbitrary-precision integer
	KindBool
	KindString    // owned
	KindStrStatic // borrowed/static
	KindStrCow    // copy-on-write
	KindEntityID  // opaque 128-bit identifier
	KindOptional  // Elem
	KindArray     // Elem
	KindFixedArray // Elem, Len
	KindMap       // Key, Elem
	KindAny
	KindNode    // handle to a host entity of statically known kind (Name)
	KindDynNode // handle resolved only at runtime
	KindHostRecord // named host built-in record kind (Name)
	KindRecord  // user-defined record reference (Name)
	KindSignal
)

// Type is a value-compared type descriptor. Types are produced during
// parsing/inference and never mutated afterwards.
type Type struct {
	Kind Kind
	Bits int   // integer/float width
	Len  int   // fixed-array length
	Name string // node kind, host record name, or user record name
	Key  *Type  // map key
	Elem *Type  // optional/array/fixed-array element, map value
}

// --- Constructors ---

func Void() Type             { return Type{Kind: KindVoid} }
func Int(bits int) Type      { return Type{Kind: KindInt, Bits: bits} }
func Uint(bits int) Type     { return Type{Kind: KindUint, Bits: bits} }
func Float(bits int) Type    { return Type{Kind: KindFloat, Bits: bits} }
func Decimal() Type          { return Type{Kind: KindDecimal} }
func BigInt() Type           { return Type{Kind: KindBigInt} }
func Bool() Type             { return Type{Kind: KindBool} }
func String() Type           { return Type{Kind: KindString} }
func StrStatic() Type        { return Type{Kind: KindStrStatic} }
func StrCow() Type           { return Type{Kind: KindStrCow} }
func EntityID() Type         { return Type{Kind: KindEntityID} }
func Any() Type              { return Type{Kind: KindAny} }
func DynNode() Type          { return Type{Kind: KindDynNode} }
func Signal() Type           { return Type{Kind: KindSignal} }
func Node(kind string) Type  { return Type{Kind: KindNode, Name: kind} }
func HostRecord(name string) Type { return Type{Kind: KindHostRecord, Name: name} }
func Record(name string) Type     { return Type{Kind: KindRecord, Name: name} }

func Optional(elem Type) Type { return Type{Kind: KindOptional, Elem: &elem} }
func Array(elem Type) Type    { return Type{Kind: KindArray, Elem: &elem} }
func FixedArray(elem Type, n int) Type {
	return Type{Kind: KindFixedArray, Elem: &elem, Len: n}
}
func Map(key, val Type) Type { return Type{Kind: KindMap, Key: &key, Elem: &val} }

// Equal compares two types structurally.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Bits != o.Bits || t.Len != o.Len || t.Name != o.Name {
		return false
	}
	if (t.Key == nil) != (o.Key == nil) || (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Key != nil && !t.Key.Equal(*o.Key) {
		return false
	}
	if t.Elem != nil && !t.Elem.Equal(*o.Elem) {
		return false
	}
	return true
}

// IsNumeric reports whether the type is one of the numeric kinds.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt, KindUint, KindFloat, KindDecimal, KindBigInt:
		return true
	}
	return false
}

// IsStringKind reports whether the type is one of the string variants.
func (t Type) IsStringKind() bool {
	switch t.Kind {
	case KindString, KindStrStatic, KindStrCow:
		return true
	}
	return false
}

// IsHandle reports whether values of the type are entity handles.
func (t Type) IsHandle() bool {
	switch t.Kind {
	case KindEntityID, KindNode, KindDynNode:
		return true
	}
	return false
}

// String renders the type in surface syntax for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindInt:
		return fmt.Sprintf("i%d", t.Bits)
	case KindUint:
		return fmt.Sprintf("u%d", t.Bits)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case KindDecimal:
		return "decimal"
	case KindBigInt:
		return "bigint"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	case KindStrStatic:
		return "strref"
	case KindStrCow:
		return "strcow"
	case KindEntityID:
		return "id"
	case KindOptional:
		return t.Elem.String() + "?"
	case KindArray:
		return "[" + t.Elem.String() + "]"
	case KindFixedArray:
		return fmt.Sprintf("[%s; %d]", t.Elem.String(), t.Len)
	case KindMap:
		return fmt.Sprintf("{%s: %s}", t.Key.String(), t.Elem.String())
	case KindAny:
		return "any"
	case KindNode:
		return t.Name
	case KindDynNode:
		return "node"
	case KindHostRecord, KindRecord:
		return t.Name
	case KindSignal:
		return "signal"
	}
	return "<invalid>"
}

// hostRecordNames maps the built-in record kinds to their runtime types.
var hostRecordNames = map[string]string{
	"Vec2":        "scriptrt.Vec2",
	"Color":       "scriptrt.Color",
	"Rect":        "scriptrt.Rect",
	"Transform2D": "scriptrt.Transform2D",
}

// IsHostRecordName reports whether name is a known host built-in record.
func IsHostRecordName(name string) bool {
	_, ok := hostRecordNames[name]
	return ok
}

// Parse resolves surface type syntax to a Type. Unknown names resolve
// to a user record reference; whether the record exists is checked at
// generation time against the record arena.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Void(), fmt.Errorf("empty type")
	}
	if strings.HasSuffix(s, "?") {
		inner, err := Parse(strings.TrimSuffix(s, "?"))
		if err != nil {
			return Void(), err
		}
		return Optional(inner), nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := s[1 : len(s)-1]
		if idx := strings.LastIndex(inner, ";"); idx >= 0 {
			elem, err := Parse(inner[:idx])
			if err != nil {
				return Void(), err
			}
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(inner[idx+1:]), "%d", &n); err != nil || n <= 0 {
				return Void(), fmt.Errorf("bad fixed array length in %q", s)
			}
			return FixedArray(elem, n), nil
		}
		elem, err := Parse(inner)
		if err != nil {
			return Void(), err
		}
		return Array(elem), nil
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		inner := s[1 : len(s)-1]
		idx := strings.Index(inner, ":")
		if idx < 0 {
			return Void(), fmt.Errorf("bad map type %q", s)
		}
		key, err := Parse(inner[:idx])
		if err != nil {
			return Void(), err
		}
		val, err := Parse(inner[idx+1:])
		if err != nil {
			return Void(), err
		}
		return Map(key, val), nil
	}

	switch s {
	case "void":
		return Void(), nil
	case "i8", "i16", "i32", "i64":
		var n int
		fmt.Sscanf(s[1:], "%d", &n)
		return Int(n), nil
	case "u8", "u16", "u32", "u64":
		var n int
		fmt.Sscanf(s[1:], "%d", &n)
		return Uint(n), nil
	case "int":
		return Int(64), nil
	case "uint":
		return Uint(64), nil
	case "f32":
		return Float(32), nil
	case "f64", "float", "number":
		return Float(64), nil
	case "decimal":
		return Decimal(), nil
	case "bigint":
		return BigInt(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "str", "string":
		return String(), nil
	case "strref":
		return StrStatic(), nil
	case "strcow":
		return StrCow(), nil
	case "id":
		return EntityID(), nil
	case "any", "object":
		return Any(), nil
	case "node":
		return DynNode(), nil
	case "signal":
		return Signal(), nil
	}
	if IsHostRecordName(s) {
		return HostRecord(s), nil
	}
	if isNodeKindName(s) {
		return Node(s), nil
	}
	return Record(s), nil
}

// nodeKinds is the closed set of host entity kinds the compiler knows.
// The compiler never interprets them beyond the tag itself.
var nodeKinds = map[string]bool{
	"Node":      true,
	"Node2D":    true,
	"Sprite":    true,
	"Camera":    true,
	"Label":     true,
	"AudioNode": true,
	"Timer":     true,
	"Area2D":    true,
}

func isNodeKindName(s string) bool { return nodeKinds[s] }

// IsNodeKind reports whether s names a known host entity kind.
func IsNodeKind(s string) bool { return nodeKinds[s] }
