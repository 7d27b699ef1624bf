package sourcemap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *SourceMap {
	sm := New()
	sm.Scripts["player_paw"] = &ScriptMap{
		Src:  "res://player.paw",
		Lang: "paw",
		Lines: []LineRange{
			{SrcStart: 10, SrcEnd: 14, GenStart: 30, GenEnd: 38},
			{SrcStart: 20, SrcEnd: 20, GenStart: 50, GenEnd: 55},
		},
		Names: map[string]string{
			"pv_health": "health",
			"fn_move":   "move",
		},
	}
	return sm
}

func TestFindSourceLineInterpolates(t *testing.T) {
	m := sample().Scripts["player_paw"]

	// range start and end map to source start and end
	line, ok := m.FindSourceLine(30)
	require.True(t, ok)
	assert.Equal(t, 10, line)

	line, ok = m.FindSourceLine(38)
	require.True(t, ok)
	assert.Equal(t, 14, line)

	// midpoint interpolates
	line, ok = m.FindSourceLine(34)
	require.True(t, ok)
	assert.Equal(t, 12, line)

	// degenerate source span pins to its single line
	line, ok = m.FindSourceLine(53)
	require.True(t, ok)
	assert.Equal(t, 20, line)

	_, ok = m.FindSourceLine(99)
	assert.False(t, ok)
}

func TestRestoreName(t *testing.T) {
	m := sample().Scripts["player_paw"]
	assert.Equal(t, "health", m.RestoreName("pv_health"))
	assert.Equal(t, "move", m.RestoreName("fn_move"))
	// mechanical fallback for names missing from the table
	assert.Equal(t, "speed", m.RestoreName("pv_speed"))
	assert.Equal(t, "helper", m.RestoreName("fn_helper"))
	assert.Equal(t, "plain", m.RestoreName("plain"))
}

func TestConvertMessage(t *testing.T) {
	m := sample().Scripts["player_paw"]
	msg := m.ConvertMessage("cannot read pv_health in fn_move")
	assert.Equal(t, "cannot read health in move", msg)

	// whole-word only: no substring rewrites
	msg = m.ConvertMessage("pv_healthy stays")
	assert.Equal(t, "pv_healthy stays", msg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sourcemap.yaml")
	require.NoError(t, Save(path, sample()))

	got, err := Load(path)
	require.NoError(t, err)
	m := got.Scripts["player_paw"]
	require.NotNil(t, m)
	assert.Equal(t, "res://player.paw", m.Src)
	assert.Len(t, m.Lines, 2)
	assert.Equal(t, 30, m.Lines[0].GenStart)
	assert.Equal(t, "health", m.Names["pv_health"])
}

func TestBuilderRanges(t *testing.T) {
	b := NewBuilder("res://a.paw", "paw")
	b.StartRange(5, 20)
	b.EndRange(8, 27)
	b.StartRange(12, 40) // left open, closed by Map
	b.Name("pv_x", "x")

	m := b.Map()
	require.Len(t, m.Lines, 2)
	assert.Equal(t, LineRange{SrcStart: 5, SrcEnd: 8, GenStart: 20, GenEnd: 27}, m.Lines[0])
	assert.Equal(t, 12, m.Lines[1].SrcStart)
	assert.Equal(t, "x", m.Names["pv_x"])
}

func TestApproximateFromSource(t *testing.T) {
	goSrc := `package scripts

func (s *Script_player_paw) fn_move(h scriptrt.Host) {
	if s.pv_health > 0 {
		s.pv_health--
	}
}
`
	b := NewBuilder("res://player.paw", "paw")
	b.ApproximateFromSource(goSrc, map[string]FuncSpan{
		"fn_move": {SrcStart: 40, SrcEnd: 46},
	})
	m := b.Map()
	require.Len(t, m.Lines, 1)
	assert.Equal(t, 40, m.Lines[0].SrcStart)
	assert.Equal(t, 46, m.Lines[0].SrcEnd)
	assert.Equal(t, 3, m.Lines[0].GenStart)
	assert.Equal(t, 7, m.Lines[0].GenEnd)
}

func TestTranslateFailure(t *testing.T) {
	sm := sample()
	stack := `goroutine 1 [running]:
github.com/x/scripts.(*Script_player_paw).fn_move(...)
	/tmp/build/player_paw.go:34 +0x19
main.main()
	/src/main.go:10 +0x2a
`
	out, ok := TranslateFailure(sm, "cannot read pv_health", stack)
	require.True(t, ok)
	assert.Equal(t, "res://player.paw:12: cannot read health", out)
}

func TestTranslateFailureNoFrame(t *testing.T) {
	sm := sample()
	_, ok := TranslateFailure(sm, "boom", "goroutine 1:\n\t/src/other.go:3")
	assert.False(t, ok)
}

func TestTranslateFailureLineHint(t *testing.T) {
	sm := sample()
	out, ok := TranslateFailure(sm, "index out of range at line 34", "no frames here")
	require.True(t, ok)
	assert.Equal(t, "res://player.paw: index out of range at line 12", out)
}
