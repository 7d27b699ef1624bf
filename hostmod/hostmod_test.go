package hostmod

import (
	"testing"

	"github.com/pawlang/paw/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	assert.True(t, IsModule("math"))
	assert.True(t, IsModule("scene"))
	assert.False(t, IsModule("gpu"))

	f, ok := LookupFunc("math", "sqrt")
	require.True(t, ok)
	assert.Equal(t, "math.Sqrt(%s)", f.GoTemplate)
	assert.True(t, f.Ret.Equal(types.Float(64)))

	_, ok = LookupFunc("math", "nope")
	assert.False(t, ok)
	_, ok = LookupFunc("nope", "sqrt")
	assert.False(t, ok)
}

func TestSugarAccessors(t *testing.T) {
	f, ok := LookupFunc("scene", "get_child_by_name")
	require.True(t, ok)
	assert.Equal(t, ChildLookup, f.Kind)
	assert.True(t, f.Ret.Equal(types.DynNode()))

	f, ok = LookupFunc("scene", "get_parent")
	require.True(t, ok)
	assert.Equal(t, ParentLookup, f.Kind)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}
