package scriptrt

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	i, ok := Int(42).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	// Cross-variant numeric conversion
	f, ok := Int(7).Float64()
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	u, ok := Int(-1).Uint64()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), u)

	// Strict accessors reject other kinds
	_, ok = Str("hi").Int64()
	assert.False(t, ok)
	_, ok = Bool(true).Str()
	assert.False(t, ok)

	s, ok := Str("hello").Str()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	b, ok := Bool(true).Boolean()
	assert.True(t, ok)
	assert.True(t, b)
}

func TestValueDecimalAndBigInt(t *testing.T) {
	d, ok := Dec(decimal.RequireFromString("1.5")).Decimal()
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1.5")))

	// Integers promote to decimal and big
	d, ok = Int(3).Decimal()
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(3)))

	bi, ok := Int(9).BigInt()
	assert.True(t, ok)
	assert.Equal(t, 0, bi.Cmp(big.NewInt(9)))
}

func TestValueIdentifier(t *testing.T) {
	id := NewEntityID()
	got, ok := ID(id).Identifier()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	// String form parses back
	got, ok = Str(id.String()).Identifier()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = Str("not-a-handle").Identifier()
	assert.False(t, ok)
}

func TestToValueContainers(t *testing.T) {
	v := ToValue([]int32{1, 2, 3})
	items, ok := v.Slice()
	require.True(t, ok)
	require.Len(t, items, 3)
	n, _ := items[1].Int64()
	assert.Equal(t, int64(2), n)

	v = ToValue(map[string]float64{"hp": 1.5})
	m, ok := v.MapVals()
	require.True(t, ok)
	f, _ := m["hp"].Float64()
	assert.Equal(t, 1.5, f)
}

func TestValueJSONRoundTrip(t *testing.T) {
	orig := MapOf(map[string]Value{
		"name": Str("bob"),
		"hp":   Int(100),
		"tags": Arr([]Value{Str("a"), Str("b")}),
		"none": Null(),
	})
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, orig.Equal(back))
}

func TestDecodeValueRecord(t *testing.T) {
	type stats struct {
		HP   int64  `json:"hp"`
		Name string `json:"name"`
	}
	v := MapOf(map[string]Value{"hp": Int(10), "name": Str("bob")})
	var out stats
	require.NoError(t, DecodeValue(v, &out))
	assert.Equal(t, stats{HP: 10, Name: "bob"}, out)

	// Mismatched shape fails instead of half-populating silently
	var n int64
	assert.Error(t, DecodeValue(v, &n))
}

func TestNameHashStable(t *testing.T) {
	h1 := NameHash("health")
	h2 := NameHash("health")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, NameHash("health"), NameHash("Health"))
	assert.NotEqual(t, NameHash("x"), NameHash("y"))
	// Length participates in the hash
	assert.NotEqual(t, NameHash(""), NameHash("\x00"))
}
