package paw

import (
	"testing"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerSrc = `
extends Sprite

# designer-tunable
@expose
var speed: f32

pub var health: i32 = 100
var name = "player"

record Stats extends BaseStats {
	strength: i32,
	agility: i32,
}

on init() {
	var door = $Door
	var parent = scene.get_parent() as Sprite
	self.x = 5
}

on update(dt: f64) {
	health += 1
	move(dt)
}

on door_opened() {
	pass
}

fn move(dt: f64) {
	var v = math.sqrt(dt) * 2.0
	if v > 1.0 {
		v = 1.0
	} elif v < 0.0 {
		v = 0.0
	} else {
		pass
	}
	for i = 0; i < 3; i += 1 {
		v += 0.1
	}
	for x in 0..10 {
		v += 0.01
	}
}

@skip
fn helper(items: [str]) -> i64 {
	return str.len(items[0])
}
`

func parsePlayer(t *testing.T) *ast.Script {
	t.Helper()
	p := &Parser{}
	s, err := p.ParseScript([]byte(playerSrc), "player.paw")
	require.NoError(t, err)
	return s
}

func TestParseScriptHeader(t *testing.T) {
	s := parsePlayer(t)
	assert.Equal(t, "Sprite", s.NodeType)
	assert.False(t, s.IsModule)
	assert.Equal(t, "paw", s.Language)
	assert.Equal(t, "player.paw", s.SourceFile)
}

func TestParseVariables(t *testing.T) {
	s := parsePlayer(t)
	require.Len(t, s.Variables, 3)

	speed := s.Variables[0]
	assert.Equal(t, "speed", speed.Name)
	assert.True(t, speed.Exposed)
	assert.False(t, speed.Public)
	require.NotNil(t, speed.Type)
	assert.True(t, speed.Type.Equal(types.Float(32)))

	health := s.Variables[1]
	assert.Equal(t, "health", health.Name)
	assert.True(t, health.Public)
	assert.False(t, health.Exposed)
	require.NotNil(t, health.Init)
	assert.True(t, health.Type.Equal(types.Int(32)))

	// Type inferred from initializer
	name := s.Variables[2]
	require.NotNil(t, name.Type)
	assert.True(t, name.Type.Equal(types.String()))
}

func TestParseHooksAndSignals(t *testing.T) {
	s := parsePlayer(t)
	byName := map[string]*ast.Function{}
	for _, f := range s.Functions {
		byName[f.Name] = f
	}

	require.Contains(t, byName, "init")
	assert.True(t, byName["init"].IsLifecycle)

	update := byName["update"]
	require.NotNil(t, update)
	assert.True(t, update.IsLifecycle)
	require.Len(t, update.Params, 1)
	assert.Equal(t, "dt", update.Params[0].Name)

	sig := byName["on_door_opened"]
	require.NotNil(t, sig)
	assert.False(t, sig.IsLifecycle)
	assert.Equal(t, "door_opened", sig.SignalName)

	assert.True(t, byName["helper"].HasAttribute("skip"))
	assert.Contains(t, s.Attributes, "helper()")
}

func TestParseRecord(t *testing.T) {
	s := parsePlayer(t)
	require.Len(t, s.Records, 1)
	rec := s.Records[0]
	assert.Equal(t, "Stats", rec.Name)
	assert.Equal(t, "BaseStats", rec.Base)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "strength", rec.Fields[0].Name)
}

func TestParseStatements(t *testing.T) {
	s := parsePlayer(t)
	var move *ast.Function
	for _, f := range s.Functions {
		if f.Name == "move" {
			move = f
		}
	}
	require.NotNil(t, move)
	require.Len(t, move.Body, 4)

	_, ok := move.Body[0].(*ast.VarDeclStmt)
	assert.True(t, ok)
	ifStmt, ok := move.Body[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.ElseIfs, 1)
	assert.Len(t, ifStmt.Else, 1)
	_, ok = move.Body[2].(*ast.ForStmt)
	assert.True(t, ok)
	forIn, ok := move.Body[3].(*ast.ForInStmt)
	require.True(t, ok)
	_, ok = forIn.Iter.(*ast.RangeExpr)
	assert.True(t, ok)
}

func TestParseNodeSugar(t *testing.T) {
	s := parsePlayer(t)
	var initFn *ast.Function
	for _, f := range s.Functions {
		if f.Name == "init" {
			initFn = f
		}
	}
	require.NotNil(t, initFn)

	// $Door expands to the child lookup accessor
	decl := initFn.Body[0].(*ast.VarDeclStmt)
	hc, ok := decl.Init.(*ast.HostCall)
	require.True(t, ok)
	assert.Equal(t, "scene", hc.Module)
	assert.Equal(t, "get_child_by_name", hc.Func)

	// cast-wrapped parent lookup
	decl = initFn.Body[1].(*ast.VarDeclStmt)
	cast, ok := decl.Init.(*ast.Cast)
	require.True(t, ok)
	hc, ok = cast.X.(*ast.HostCall)
	require.True(t, ok)
	assert.Equal(t, "get_parent", hc.Func)

	// self.x = 5 becomes a member assign rooted at self
	ma, ok := initFn.Body[2].(*ast.MemberAssignStmt)
	require.True(t, ok)
	_, ok = ma.Object.(*ast.SelfExpr)
	assert.True(t, ok)
}

func TestParseModuleHeader(t *testing.T) {
	src := `
module util

fn double(x: i64) -> i64 {
	return x * 2
}
`
	p := &Parser{}
	s, err := p.ParseScript([]byte(src), "util.paw")
	require.NoError(t, err)
	assert.True(t, s.IsModule)
	assert.Equal(t, "util", s.Name)
	assert.Empty(t, s.NodeType)
	require.Len(t, s.Functions, 1)
}

func TestParseUserModuleCall(t *testing.T) {
	src := `
extends Node

fn go() {
	var x = util.double(2)
}
`
	p := &Parser{UserModules: map[string]bool{"util": true}}
	s, err := p.ParseScript([]byte(src), "a.paw")
	require.NoError(t, err)
	assert.Equal(t, []string{"util"}, s.UsesModules)

	decl := s.Functions[0].Body[0].(*ast.VarDeclStmt)
	mc, ok := decl.Init.(*ast.ModuleCall)
	require.True(t, ok)
	assert.Equal(t, "util", mc.Module)
	assert.Equal(t, "double", mc.Func)
}

func TestParseErrors(t *testing.T) {
	p := &Parser{}
	cases := []string{
		"var x = 1",                        // missing header
		"extends Node\nfn f( {",            // bad params
		"extends Node\nfn f() { var x }",   // no type, no initializer
		"extends Node\nfn f() { math.nope() }", // unknown module function
		`extends Node
fn f() { var s = "unterminated }`,
	}
	for _, src := range cases {
		_, err := p.ParseScript([]byte(src), "bad.paw")
		require.Error(t, err, src)
		var pe *frontend.ParseError
		assert.ErrorAs(t, err, &pe, src)
	}
}

func TestLifecycleHooksRequireEntity(t *testing.T) {
	p := &Parser{}
	_, err := p.ParseScript([]byte("module m\non init() {}\n"), "m.paw")
	assert.Error(t, err)
}
