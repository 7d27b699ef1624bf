package types

import "fmt"

// Default returns the canonical zero-like Go literal for a type. It is
// total except for Void, whose absence of a value is a fatal condition
// at the call site.
func Default(t Type) (string, error) {
	switch t.Kind {
	case KindInt, KindUint:
		return "0", nil
	case KindFloat:
		return "0", nil
	case KindDecimal:
		return "decimal.Zero", nil
	case KindBigInt:
		return "new(big.Int)", nil
	case KindBool:
		return "false", nil
	case KindString, KindStrStatic, KindStrCow:
		return `""`, nil
	case KindEntityID, KindNode, KindDynNode:
		return "scriptrt.ZeroEntityID", nil
	case KindOptional:
		return "nil", nil
	case KindArray:
		return GoType(t) + "{}", nil
	case KindFixedArray:
		return GoType(t) + "{}", nil
	case KindMap:
		return GoType(t) + "{}", nil
	case KindAny:
		return "scriptrt.Null()", nil
	case KindHostRecord:
		return GoType(t) + "{}", nil
	case KindRecord:
		return GoType(t) + "{}", nil
	case KindSignal:
		return "scriptrt.ZeroEntityID", nil
	}
	return "", fmt.Errorf("type %s has no default value", t)
}

// CanImplicitlyConvert reports whether a value of type a may be used
// where type b is expected without an explicit cast.
func CanImplicitlyConvert(a, b Type) bool {
	if a.Equal(b) {
		return true
	}

	// T -> Optional<T>, exact element type only. i32 does not reach
	// Optional<i64> in one implicit step.
	if b.Kind == KindOptional && a.Equal(*b.Elem) {
		return true
	}

	switch a.Kind {
	case KindInt:
		switch b.Kind {
		case KindInt:
			return b.Bits > a.Bits // widening only
		case KindFloat:
			return b.Bits > a.Bits // wider float only
		case KindDecimal, KindBigInt:
			return true
		}
	case KindUint:
		switch b.Kind {
		case KindUint:
			return b.Bits > a.Bits
		case KindInt:
			return b.Bits > a.Bits // unsigned fits in strictly wider signed
		case KindFloat:
			return b.Bits > a.Bits
		case KindDecimal, KindBigInt:
			return true
		}
	case KindFloat:
		switch b.Kind {
		case KindFloat:
			return b.Bits > a.Bits
		case KindDecimal:
			return true
		}
	case KindString:
		// owned -> copy-on-write
		return b.Kind == KindStrCow
	case KindStrStatic:
		// borrowed -> copy-on-write, borrowed -> owned (one-way copy)
		return b.Kind == KindStrCow || b.Kind == KindString
	case KindStrCow:
		// copy-on-write -> owned
		return b.Kind == KindString
	case KindEntityID, KindNode, KindDynNode:
		// All handles are structurally identical opaque identifiers.
		return b.IsHandle()
	}
	return false
}

// IsTriviallyDuplicable reports whether values of the type copy by
// simple assignment: numerics, booleans, handles, and the small
// fixed-layout host record kinds.
func IsTriviallyDuplicable(t Type) bool {
	switch t.Kind {
	case KindInt, KindUint, KindFloat, KindDecimal, KindBigInt, KindBool,
		KindEntityID, KindNode, KindDynNode, KindSignal:
		return true
	case KindHostRecord:
		return IsHostRecordName(t.Name)
	}
	return false
}

// RequiresClone is the negation of IsTriviallyDuplicable, propagated
// through the optional wrapper.
func RequiresClone(t Type) bool {
	if t.Kind == KindOptional {
		return RequiresClone(*t.Elem)
	}
	return !IsTriviallyDuplicable(t)
}

// GoType returns the Go source type generated code uses for a type.
// User record references resolve through their generated struct name;
// callers that rename records use GoTypeWith.
func GoType(t Type) string {
	return GoTypeWith(t, func(name string) string { return name })
}

// GoTypeWith is GoType with a resolver for user-defined record names.
func GoTypeWith(t Type, record func(string) string) string {
	switch t.Kind {
	case KindVoid:
		return ""
	case KindInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KindUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KindFloat:
		return fmt.Sprintf("float%d", t.Bits)
	case KindDecimal:
		return "decimal.Decimal"
	case KindBigInt:
		return "*big.Int"
	case KindBool:
		return "bool"
	case KindString, KindStrStatic, KindStrCow:
		return "string"
	case KindEntityID, KindNode, KindDynNode, KindSignal:
		return "scriptrt.EntityID"
	case KindOptional:
		return "*" + GoTypeWith(*t.Elem, record)
	case KindArray:
		return "[]" + GoTypeWith(*t.Elem, record)
	case KindFixedArray:
		return fmt.Sprintf("[%d]%s", t.Len, GoTypeWith(*t.Elem, record))
	case KindMap:
		return fmt.Sprintf("map[%s]%s", GoTypeWith(*t.Key, record), GoTypeWith(*t.Elem, record))
	case KindAny:
		return "scriptrt.Value"
	case KindHostRecord:
		if goName, ok := hostRecordNames[t.Name]; ok {
			return goName
		}
		return "scriptrt." + t.Name
	case KindRecord:
		return record(t.Name)
	}
	return ""
}
