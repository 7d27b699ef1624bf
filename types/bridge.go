package types

import (
	"fmt"
	"strings"
)

// Extraction is one generated extraction strategy: a Go expression
// evaluating to (T, bool) that pulls a typed value out of a dynamic
// scriptrt.Value. Multiline is true when the strategy is a deserializing
// block rather than a single accessor call.
type Extraction struct {
	Expr      string
	Multiline bool
}

// ExtractFromValue returns the extraction strategy for pulling a value
// of type t out of the Value expression src. This is the single
// translation point between the dynamic serialized format and the
// statically typed representation; the write, apply, and call tables
// all generate through it and differ only in what they do when the
// returned ok is false.
func ExtractFromValue(t Type, src string) (Extraction, error) {
	return extractWith(t, src, func(name string) string { return name })
}

// ExtractFromValueWith is ExtractFromValue with a record-name resolver.
func ExtractFromValueWith(t Type, src string, record func(string) string) (Extraction, error) {
	return extractWith(t, src, record)
}

func extractWith(t Type, src string, record func(string) string) (Extraction, error) {
	goType := GoTypeWith(t, record)

	switch t.Kind {
	case KindInt:
		if t.Bits == 64 {
			return Extraction{Expr: src + ".Int64()"}, nil
		}
		return Extraction{Expr: fmt.Sprintf(
			"func() (%[1]s, bool) { n, ok := %[2]s.Int64(); return %[1]s(n), ok }()",
			goType, src)}, nil
	case KindUint:
		if t.Bits == 64 {
			return Extraction{Expr: src + ".Uint64()"}, nil
		}
		return Extraction{Expr: fmt.Sprintf(
			"func() (%[1]s, bool) { n, ok := %[2]s.Uint64(); return %[1]s(n), ok }()",
			goType, src)}, nil
	case KindFloat:
		if t.Bits == 64 {
			return Extraction{Expr: src + ".Float64()"}, nil
		}
		return Extraction{Expr: fmt.Sprintf(
			"func() (float32, bool) { n, ok := %s.Float64(); return float32(n), ok }()",
			src)}, nil
	case KindDecimal:
		return Extraction{Expr: src + ".Decimal()"}, nil
	case KindBigInt:
		return Extraction{Expr: src + ".BigInt()"}, nil
	case KindBool:
		return Extraction{Expr: src + ".Boolean()"}, nil
	case KindString, KindStrStatic, KindStrCow:
		return Extraction{Expr: src + ".Str()"}, nil
	case KindEntityID, KindNode, KindDynNode:
		return Extraction{Expr: src + ".Identifier()"}, nil
	case KindAny:
		return Extraction{Expr: fmt.Sprintf(
			"func() (scriptrt.Value, bool) { return %s, true }()", src)}, nil

	case KindOptional:
		inner, err := extractWith(*t.Elem, "v", record)
		if err != nil {
			return Extraction{}, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "func() (%s, bool) {\n", goType)
		fmt.Fprintf(&b, "\tif %s.IsNull() {\n\t\treturn nil, true\n\t}\n", src)
		fmt.Fprintf(&b, "\tv := %s\n", src)
		fmt.Fprintf(&b, "\te, ok := %s\n", inner.Expr)
		b.WriteString("\tif !ok {\n\t\treturn nil, false\n\t}\n")
		b.WriteString("\treturn &e, true\n}()")
		return Extraction{Expr: b.String(), Multiline: true}, nil

	case KindArray:
		// Fast path: element is already the dynamic type, plain copy.
		if t.Elem.Kind == KindAny {
			return Extraction{Expr: src + ".Slice()"}, nil
		}
		inner, err := extractWith(*t.Elem, "it", record)
		if err != nil {
			return Extraction{}, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "func() (%s, bool) {\n", goType)
		fmt.Fprintf(&b, "\titems, ok := %s.Slice()\n", src)
		b.WriteString("\tif !ok {\n\t\treturn nil, false\n\t}\n")
		fmt.Fprintf(&b, "\tout := make(%s, 0, len(items))\n", goType)
		b.WriteString("\tfor _, it := range items {\n")
		fmt.Fprintf(&b, "\t\te, ok := %s\n", indentTail(inner.Expr, 2))
		b.WriteString("\t\tif !ok {\n\t\t\treturn nil, false\n\t\t}\n")
		b.WriteString("\t\tout = append(out, e)\n\t}\n")
		b.WriteString("\treturn out, true\n}()")
		return Extraction{Expr: b.String(), Multiline: true}, nil

	case KindFixedArray:
		inner, err := extractWith(*t.Elem, "it", record)
		if err != nil {
			return Extraction{}, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "func() (%s, bool) {\n", goType)
		fmt.Fprintf(&b, "\tvar out %s\n", goType)
		fmt.Fprintf(&b, "\titems, ok := %s.Slice()\n", src)
		fmt.Fprintf(&b, "\tif !ok || len(items) != %d {\n\t\treturn out, false\n\t}\n", t.Len)
		b.WriteString("\tfor i, it := range items {\n")
		fmt.Fprintf(&b, "\t\te, ok := %s\n", indentTail(inner.Expr, 2))
		b.WriteString("\t\tif !ok {\n\t\t\treturn out, false\n\t\t}\n")
		b.WriteString("\t\tout[i] = e\n\t}\n")
		b.WriteString("\treturn out, true\n}()")
		return Extraction{Expr: b.String(), Multiline: true}, nil

	case KindMap:
		if !t.Key.IsStringKind() {
			return Extraction{}, fmt.Errorf("map key type %s is not a string kind", t.Key)
		}
		// Fast path: values are already dynamic, plain copy.
		if t.Elem.Kind == KindAny {
			return Extraction{Expr: src + ".MapVals()"}, nil
		}
		inner, err := extractWith(*t.Elem, "it", record)
		if err != nil {
			return Extraction{}, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "func() (%s, bool) {\n", goType)
		fmt.Fprintf(&b, "\tentries, ok := %s.MapVals()\n", src)
		b.WriteString("\tif !ok {\n\t\treturn nil, false\n\t}\n")
		fmt.Fprintf(&b, "\tout := make(%s, len(entries))\n", goType)
		b.WriteString("\tfor k, it := range entries {\n")
		fmt.Fprintf(&b, "\t\te, ok := %s\n", indentTail(inner.Expr, 2))
		b.WriteString("\t\tif !ok {\n\t\t\treturn nil, false\n\t\t}\n")
		b.WriteString("\t\tout[k] = e\n\t}\n")
		b.WriteString("\treturn out, true\n}()")
		return Extraction{Expr: b.String(), Multiline: true}, nil

	case KindRecord, KindHostRecord:
		// Structured deserialization for records and handle-bearing
		// built-ins.
		var b strings.Builder
		fmt.Fprintf(&b, "func() (%s, bool) {\n", goType)
		fmt.Fprintf(&b, "\tvar out %s\n", goType)
		fmt.Fprintf(&b, "\tif err := scriptrt.DecodeValue(%s, &out); err != nil {\n", src)
		b.WriteString("\t\treturn out, false\n\t}\n")
		b.WriteString("\treturn out, true\n}()")
		return Extraction{Expr: b.String(), Multiline: true}, nil
	}
	return Extraction{}, fmt.Errorf("type %s cannot be extracted from a dynamic value", t)
}

// WrapValue returns a Go expression converting a typed expression src
// of type t into a scriptrt.Value. Scalars wrap directly; containers
// and records go through the generic structured conversion.
func WrapValue(t Type, src string) (string, error) {
	switch t.Kind {
	case KindInt:
		if t.Bits == 64 {
			return fmt.Sprintf("scriptrt.Int(%s)", src), nil
		}
		return fmt.Sprintf("scriptrt.Int(int64(%s))", src), nil
	case KindUint:
		if t.Bits == 64 {
			return fmt.Sprintf("scriptrt.Uint(%s)", src), nil
		}
		return fmt.Sprintf("scriptrt.Uint(uint64(%s))", src), nil
	case KindFloat:
		if t.Bits == 64 {
			return fmt.Sprintf("scriptrt.Float(%s)", src), nil
		}
		return fmt.Sprintf("scriptrt.Float(float64(%s))", src), nil
	case KindDecimal:
		return fmt.Sprintf("scriptrt.Dec(%s)", src), nil
	case KindBigInt:
		return fmt.Sprintf("scriptrt.Big(%s)", src), nil
	case KindBool:
		return fmt.Sprintf("scriptrt.Bool(%s)", src), nil
	case KindString, KindStrStatic, KindStrCow:
		return fmt.Sprintf("scriptrt.Str(%s)", src), nil
	case KindEntityID, KindNode, KindDynNode, KindSignal:
		return fmt.Sprintf("scriptrt.ID(%s)", src), nil
	case KindAny:
		return src, nil
	case KindOptional, KindArray, KindFixedArray, KindMap, KindRecord, KindHostRecord:
		return fmt.Sprintf("scriptrt.ToValue(%s)", src), nil
	}
	return "", fmt.Errorf("type %s cannot be wrapped into a dynamic value", t)
}

// indentTail re-indents every line after the first by n tabs, so nested
// multi-line strategies align inside their enclosing block.
func indentTail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return s
	}
	pad := strings.Repeat("\t", n)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}
