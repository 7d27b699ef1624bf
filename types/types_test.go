package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSurfaceTypes(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"i32", Int(32)},
		{"u8", Uint(8)},
		{"int", Int(64)},
		{"f32", Float(32)},
		{"float", Float(64)},
		{"decimal", Decimal()},
		{"bigint", BigInt()},
		{"bool", Bool()},
		{"str", String()},
		{"id", EntityID()},
		{"any", Any()},
		{"node", DynNode()},
		{"i32?", Optional(Int(32))},
		{"[f64]", Array(Float(64))},
		{"[i32; 4]", FixedArray(Int(32), 4)},
		{"{str: i64}", Map(String(), Int(64))},
		{"Sprite", Node("Sprite")},
		{"Vec2", HostRecord("Vec2")},
		{"Stats", Record("Stats")},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.True(t, got.Equal(c.want), "Parse(%q) = %s", c.in, got)
	}

	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse("[i32; x]")
	assert.Error(t, err)
}

func TestCanImplicitlyConvert(t *testing.T) {
	allowed := [][2]Type{
		{Int(32), Int(32)},                // reflexive
		{Int(8), Int(32)},                 // widening
		{Uint(16), Uint(64)},              // widening
		{Uint(16), Int(32)},               // unsigned into wider signed
		{Int(32), Float(64)},              // into wider float
		{Float(32), Float(64)},            // wider float
		{Int(64), Decimal()},              // any int to decimal
		{Float(64), Decimal()},            // any float to decimal
		{Uint(64), BigInt()},              // any int to bigint
		{String(), StrCow()},              // owned to cow
		{StrStatic(), StrCow()},           // borrowed to cow
		{StrStatic(), String()},           // borrowed to owned (copy)
		{StrCow(), String()},              // cow to owned
		{Node("Sprite"), EntityID()},      // handles interconvert
		{EntityID(), DynNode()},
		{DynNode(), Node("Camera")},
		{Int(32), Optional(Int(32))},      // T to Optional<T>
	}
	for _, p := range allowed {
		assert.True(t, CanImplicitlyConvert(p[0], p[1]), "%s -> %s", p[0], p[1])
	}

	forbidden := [][2]Type{
		{Int(32), Int(8)},        // narrowing
		{Int(32), Uint(64)},      // signed into unsigned
		{Float(64), Int(64)},     // float into int
		{Float(64), Float(32)},   // narrowing float
		{Decimal(), Int(64)},     // decimal never narrows back
		{BigInt(), Int(64)},
		{String(), StrStatic()},  // owned never becomes borrowed
		{StrCow(), StrStatic()},
		{Bool(), Int(8)},
		{String(), Any()},        // any requires explicit wrap
		{Array(Int(32)), Array(Int(64))},
		{Optional(Int(32)), Int(32)}, // unwrapping is explicit
		{Int(8), Optional(Int(64))},  // no widening under the wrapper
	}
	for _, p := range forbidden {
		assert.False(t, CanImplicitlyConvert(p[0], p[1]), "%s -> %s", p[0], p[1])
	}
}

func TestDuplicationClassification(t *testing.T) {
	assert.True(t, IsTriviallyDuplicable(Int(32)))
	assert.True(t, IsTriviallyDuplicable(Bool()))
	assert.True(t, IsTriviallyDuplicable(EntityID()))
	assert.True(t, IsTriviallyDuplicable(Node("Sprite")))
	assert.True(t, IsTriviallyDuplicable(HostRecord("Vec2")))

	assert.False(t, IsTriviallyDuplicable(String()))
	assert.False(t, IsTriviallyDuplicable(Any()))
	assert.False(t, IsTriviallyDuplicable(Array(Int(32))))
	assert.False(t, IsTriviallyDuplicable(Record("Stats")))

	// RequiresClone propagates through the optional wrapper
	assert.True(t, RequiresClone(Optional(String())))
	assert.False(t, RequiresClone(Optional(Int(32))))
}

func TestDefault(t *testing.T) {
	cases := map[string]Type{
		"0":                    Int(32),
		"false":                Bool(),
		`""`:                   String(),
		"decimal.Zero":         Decimal(),
		"new(big.Int)":         BigInt(),
		"scriptrt.ZeroEntityID": EntityID(),
		"nil":                  Optional(Int(8)),
		"[]float64{}":          Array(Float(64)),
		"map[string]int64{}":   Map(String(), Int(64)),
		"scriptrt.Null()":      Any(),
		"scriptrt.Vec2{}":      HostRecord("Vec2"),
	}
	for want, typ := range cases {
		got, err := Default(typ)
		require.NoError(t, err, typ.String())
		assert.Equal(t, want, got)
	}

	_, err := Default(Void())
	assert.Error(t, err)
}

func TestGoType(t *testing.T) {
	assert.Equal(t, "int32", GoType(Int(32)))
	assert.Equal(t, "uint8", GoType(Uint(8)))
	assert.Equal(t, "float64", GoType(Float(64)))
	assert.Equal(t, "string", GoType(StrCow()))
	assert.Equal(t, "scriptrt.EntityID", GoType(Node("Sprite")))
	assert.Equal(t, "*int32", GoType(Optional(Int(32))))
	assert.Equal(t, "[]string", GoType(Array(String())))
	assert.Equal(t, "[4]int32", GoType(FixedArray(Int(32), 4)))
	assert.Equal(t, "map[string]scriptrt.Value", GoType(Map(String(), Any())))
	assert.Equal(t, "scriptrt.Vec2", GoType(HostRecord("Vec2")))
	assert.Equal(t, "rec_Stats", GoTypeWith(Record("Stats"), func(n string) string { return "rec_" + n }))
}

func TestExtractFromValuePrimitives(t *testing.T) {
	ex, err := ExtractFromValue(Int(64), "v")
	require.NoError(t, err)
	assert.Equal(t, "v.Int64()", ex.Expr)
	assert.False(t, ex.Multiline)

	ex, err = ExtractFromValue(Int(32), "v")
	require.NoError(t, err)
	assert.Contains(t, ex.Expr, "v.Int64()")
	assert.Contains(t, ex.Expr, "int32(n)")

	ex, err = ExtractFromValue(String(), "args[0]")
	require.NoError(t, err)
	assert.Equal(t, "args[0].Str()", ex.Expr)

	ex, err = ExtractFromValue(DynNode(), "v")
	require.NoError(t, err)
	assert.Equal(t, "v.Identifier()", ex.Expr)
}

func TestExtractFromValueContainers(t *testing.T) {
	// Fast path: element type is the dynamic type itself
	ex, err := ExtractFromValue(Array(Any()), "v")
	require.NoError(t, err)
	assert.Equal(t, "v.Slice()", ex.Expr)

	ex, err = ExtractFromValue(Map(String(), Any()), "v")
	require.NoError(t, err)
	assert.Equal(t, "v.MapVals()", ex.Expr)

	// Recursive per-element walk otherwise
	ex, err = ExtractFromValue(Array(Int(32)), "v")
	require.NoError(t, err)
	assert.True(t, ex.Multiline)
	assert.Contains(t, ex.Expr, "v.Slice()")
	assert.Contains(t, ex.Expr, "for _, it := range items")
	assert.Contains(t, ex.Expr, "int32(n)")

	// Non-string map keys are rejected
	_, err = ExtractFromValue(Map(Int(32), Int(32)), "v")
	assert.Error(t, err)
}

func TestExtractFromValueRecords(t *testing.T) {
	ex, err := ExtractFromValueWith(Record("Stats"), "v", func(n string) string { return "rec_" + n })
	require.NoError(t, err)
	assert.True(t, ex.Multiline)
	assert.Contains(t, ex.Expr, "var out rec_Stats")
	assert.Contains(t, ex.Expr, "scriptrt.DecodeValue(v, &out)")

	_, err = ExtractFromValue(Void(), "v")
	assert.Error(t, err)
}

func TestWrapValue(t *testing.T) {
	s, err := WrapValue(Int(32), "s.pv_hp")
	require.NoError(t, err)
	assert.Equal(t, "scriptrt.Int(int64(s.pv_hp))", s)

	s, err = WrapValue(Array(Int(32)), "s.pv_list")
	require.NoError(t, err)
	assert.Equal(t, "scriptrt.ToValue(s.pv_list)", s)

	s, err = WrapValue(Any(), "s.pv_extra")
	require.NoError(t, err)
	assert.Equal(t, "s.pv_extra", s)
}
