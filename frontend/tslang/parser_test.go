package tslang

import (
	"testing"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardSrc = `
import { expose, skip } from "paw";

interface Stats {
	strength: number;
	agility: number;
}

export class Guard extends Sprite {
	@expose
	speed: f32;

	public health: i32 = 100;
	private name = "guard";
	patrol: string[] = [];

	init(): void {
		let door = scene.getChildByName("Door");
		let parent = scene.getParent() as Sprite;
		this.x = 5;
	}

	update(dt: number) {
		this.health += 1;
		this.move(dt);
	}

	fixedUpdate(dt: number) {
	}

	onDoorOpened() {
		console.log("opened");
	}

	move(dt: number) {
		let v = Math.sqrt(dt) * 2.0;
		if (v > 1.0) {
			v = 1.0;
		} else if (v < 0.0) {
			v = 0.0;
		}
		for (let i = 0; i < 3; i++) {
			v += 0.1;
		}
		for (const p of this.patrol) {
			v += 0.01;
		}
	}

	@skip
	helper(items: string[]): i64 {
		return str.len(items[0]);
	}
}
`

func parseGuard(t *testing.T) *ast.Script {
	t.Helper()
	p := &Parser{}
	s, err := p.ParseScript([]byte(guardSrc), "guard.ts")
	require.NoError(t, err)
	return s
}

func TestParseClassHeader(t *testing.T) {
	s := parseGuard(t)
	assert.Equal(t, "Guard", s.Name)
	assert.Equal(t, "Sprite", s.NodeType)
	assert.False(t, s.IsModule)
	assert.Equal(t, "ts", s.Language)
}

func TestParseFields(t *testing.T) {
	s := parseGuard(t)
	require.Len(t, s.Variables, 4)

	speed := s.Variables[0]
	assert.Equal(t, "speed", speed.Name)
	assert.True(t, speed.Exposed)
	require.NotNil(t, speed.Type)
	assert.True(t, speed.Type.Equal(types.Float(32)))

	health := s.Variables[1]
	assert.True(t, health.Public)
	assert.True(t, health.Type.Equal(types.Int(32)))

	// inferred from initializer
	name := s.Variables[2]
	assert.False(t, name.Public)
	require.NotNil(t, name.Type)
	assert.True(t, name.Type.Equal(types.String()))

	patrol := s.Variables[3]
	assert.True(t, patrol.Type.Equal(types.Array(types.String())))
}

func TestParseLifecycleFolding(t *testing.T) {
	s := parseGuard(t)
	byName := map[string]*ast.Function{}
	for _, f := range s.Functions {
		byName[f.Name] = f
	}

	require.Contains(t, byName, "init")
	assert.True(t, byName["init"].IsLifecycle)
	assert.True(t, byName["update"].IsLifecycle)

	// fixedUpdate folds to the canonical hook name
	require.Contains(t, byName, "fixed_update")
	assert.True(t, byName["fixed_update"].IsLifecycle)

	sig := byName["on_door_opened"]
	require.NotNil(t, sig)
	assert.False(t, sig.IsLifecycle)
	assert.Equal(t, "door_opened", sig.SignalName)

	assert.True(t, byName["helper"].HasAttribute("skip"))
	assert.Contains(t, s.Attributes, "helper()")
}

func TestParseInterfaceAsRecord(t *testing.T) {
	s := parseGuard(t)
	require.Len(t, s.Records, 1)
	rec := s.Records[0]
	assert.Equal(t, "Stats", rec.Name)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "strength", rec.Fields[0].Name)
	assert.True(t, rec.Fields[0].Type.Equal(types.Float(64)))
}

func TestModuleAliasFolding(t *testing.T) {
	s := parseGuard(t)
	var initFn *ast.Function
	for _, f := range s.Functions {
		if f.Name == "init" {
			initFn = f
		}
	}
	require.NotNil(t, initFn)

	decl := initFn.Body[0].(*ast.VarDeclStmt)
	hc, ok := decl.Init.(*ast.HostCall)
	require.True(t, ok)
	assert.Equal(t, "scene", hc.Module)
	assert.Equal(t, "get_child_by_name", hc.Func)

	decl = initFn.Body[1].(*ast.VarDeclStmt)
	cast, ok := decl.Init.(*ast.Cast)
	require.True(t, ok)
	hc, ok = cast.X.(*ast.HostCall)
	require.True(t, ok)
	assert.Equal(t, "get_parent", hc.Func)

	ma, ok := initFn.Body[2].(*ast.MemberAssignStmt)
	require.True(t, ok)
	_, ok = ma.Object.(*ast.SelfExpr)
	assert.True(t, ok)
}

func TestConsoleFoldsToLog(t *testing.T) {
	s := parseGuard(t)
	for _, f := range s.Functions {
		if f.SignalName != "door_opened" {
			continue
		}
		es := f.Body[0].(*ast.ExprStmt)
		hc, ok := es.X.(*ast.HostCall)
		require.True(t, ok)
		assert.Equal(t, "log", hc.Module)
		assert.Equal(t, "info", hc.Func)
		return
	}
	t.Fatal("signal handler not found")
}

func TestSelfCallRewrite(t *testing.T) {
	s := parseGuard(t)
	for _, f := range s.Functions {
		if f.Name != "update" {
			continue
		}
		// this.move(dt) becomes a bare call so the call graph sees it
		es, ok := f.Body[1].(*ast.ExprStmt)
		require.True(t, ok)
		call, ok := es.X.(*ast.Call)
		require.True(t, ok)
		assert.Equal(t, "move", call.Name)
		return
	}
	t.Fatal("update not found")
}

func TestParseLoops(t *testing.T) {
	s := parseGuard(t)
	var move *ast.Function
	for _, f := range s.Functions {
		if f.Name == "move" {
			move = f
		}
	}
	require.NotNil(t, move)
	require.Len(t, move.Body, 4)

	ifStmt, ok := move.Body[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.ElseIfs, 1)
	assert.Empty(t, ifStmt.Else)

	forStmt, ok := move.Body[2].(*ast.ForStmt)
	require.True(t, ok)
	// i++ desugars to a compound assignment
	post, ok := forStmt.Post.(*ast.AssignOpStmt)
	require.True(t, ok)
	assert.Equal(t, "+", post.Op)

	_, ok = move.Body[3].(*ast.ForInStmt)
	assert.True(t, ok)
}

func TestParseModuleFile(t *testing.T) {
	src := `
export function double(x: i64): i64 {
	return x * 2;
}

export const limit: i64 = 10;
`
	p := &Parser{}
	s, err := p.ParseScript([]byte(src), "scripts/util.ts")
	require.NoError(t, err)
	assert.True(t, s.IsModule)
	assert.Equal(t, "util", s.Name)
	require.Len(t, s.Functions, 1)
	require.Len(t, s.Variables, 1)
}

func TestParseUserModuleReference(t *testing.T) {
	src := `
export class A extends Node {
	run() {
		let x = util.double(2);
	}
}
`
	p := &Parser{UserModules: map[string]bool{"util": true}}
	s, err := p.ParseScript([]byte(src), "a.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"util"}, s.UsesModules)

	decl := s.Functions[0].Body[0].(*ast.VarDeclStmt)
	mc, ok := decl.Init.(*ast.ModuleCall)
	require.True(t, ok)
	assert.Equal(t, "util", mc.Module)
	assert.Equal(t, "double", mc.Func)
}

func TestOptionalTypeForms(t *testing.T) {
	src := `
export class A extends Node {
	target: Sprite | null;
	backup: Sprite?;
}
`
	p := &Parser{}
	s, err := p.ParseScript([]byte(src), "a.ts")
	require.NoError(t, err)
	require.Len(t, s.Variables, 2)
	want := types.Optional(types.Node("Sprite"))
	assert.True(t, s.Variables[0].Type.Equal(want))
	assert.True(t, s.Variables[1].Type.Equal(want))
}

func TestParseErrorsTS(t *testing.T) {
	p := &Parser{}
	cases := []string{
		"export class A {",                            // missing extends
		"export class A extends Node { f( { } }",      // bad params
		"export class A extends Node { f() { let x; } }", // no type, no initializer
		"export class A extends Node { f() { Math.nope(); } }",
		"export class A extends Node { f() { let s = \"unterminated; } }",
	}
	for _, src := range cases {
		_, err := p.ParseScript([]byte(src), "bad.ts")
		require.Error(t, err, src)
		var pe *frontend.ParseError
		assert.ErrorAs(t, err, &pe, src)
	}
}
