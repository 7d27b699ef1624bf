package cslang

import (
	"testing"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turretSrc = `
using Paw;

namespace Game;

struct Stats {
	public int Strength;
	public int Agility;
}

public class Turret : Sprite {
	[Expose]
	float Range;

	public int Health = 100;
	private string Name = "turret";
	List<string> Targets;

	void Init() {
		var door = Scene.GetChildByName("Door");
		var parent = (Sprite)Scene.GetParent();
		this.x = 5;
	}

	void Update(double dt) {
		Health += 1;
		this.Aim(dt);
	}

	void FixedUpdate(double dt) {
	}

	void OnDoorOpened() {
		Console.WriteLine("opened");
	}

	void Aim(double dt) {
		double v = Math.Sqrt(dt) * 2.0;
		if (v > 1.0) {
			v = 1.0;
		} else if (v < 0.0) {
			v = 0.0;
		}
		for (var i = 0; i < 3; i++) {
			v += 0.1;
		}
		foreach (var t in Targets) {
			v += 0.01;
		}
	}

	[Skip]
	long Helper(string[] items) {
		return Str.Len(items[0]);
	}
}
`

func parseTurret(t *testing.T) *ast.Script {
	t.Helper()
	p := &Parser{}
	s, err := p.ParseScript([]byte(turretSrc), "turret.cs")
	require.NoError(t, err)
	return s
}

func TestParseClassHeader(t *testing.T) {
	s := parseTurret(t)
	assert.Equal(t, "Turret", s.Name)
	assert.Equal(t, "Sprite", s.NodeType)
	assert.False(t, s.IsModule)
	assert.Equal(t, "cs", s.Language)
}

func TestParseFields(t *testing.T) {
	s := parseTurret(t)
	require.Len(t, s.Variables, 4)

	rng := s.Variables[0]
	assert.Equal(t, "Range", rng.Name)
	assert.True(t, rng.Exposed)
	assert.True(t, rng.Type.Equal(types.Float(32)))

	health := s.Variables[1]
	assert.True(t, health.Public)
	assert.True(t, health.Type.Equal(types.Int(32)))
	require.NotNil(t, health.Init)

	name := s.Variables[2]
	assert.False(t, name.Public)
	assert.True(t, name.Type.Equal(types.String()))

	targets := s.Variables[3]
	assert.True(t, targets.Type.Equal(types.Array(types.String())))
}

func TestLifecycleFolding(t *testing.T) {
	s := parseTurret(t)
	byName := map[string]*ast.Function{}
	for _, f := range s.Functions {
		byName[f.Name] = f
	}

	assert.True(t, byName["init"].IsLifecycle)
	assert.True(t, byName["update"].IsLifecycle)
	require.Contains(t, byName, "fixed_update")
	assert.True(t, byName["fixed_update"].IsLifecycle)

	sig := byName["on_door_opened"]
	require.NotNil(t, sig)
	assert.Equal(t, "door_opened", sig.SignalName)

	// authored casing survives for plain methods
	require.Contains(t, byName, "Aim")
	assert.True(t, byName["Helper"].HasAttribute("skip"))
	assert.Contains(t, s.Attributes, "Helper()")
}

func TestParseStructAsRecord(t *testing.T) {
	s := parseTurret(t)
	require.Len(t, s.Records, 1)
	rec := s.Records[0]
	assert.Equal(t, "Stats", rec.Name)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "Strength", rec.Fields[0].Name)
	assert.True(t, rec.Fields[0].Type.Equal(types.Int(32)))
}

func TestStaticClassFolding(t *testing.T) {
	s := parseTurret(t)
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

	// prefix cast wraps the parent lookup
	decl = initFn.Body[1].(*ast.VarDeclStmt)
	cast, ok := decl.Init.(*ast.Cast)
	require.True(t, ok)
	assert.True(t, cast.Target.Equal(types.Node("Sprite")))
	hc, ok = cast.X.(*ast.HostCall)
	require.True(t, ok)
	assert.Equal(t, "get_parent", hc.Func)

	ma, ok := initFn.Body[2].(*ast.MemberAssignStmt)
	require.True(t, ok)
	_, ok = ma.Object.(*ast.SelfExpr)
	assert.True(t, ok)
}

func TestConsoleWriteLineFoldsToLog(t *testing.T) {
	s := parseTurret(t)
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
	s := parseTurret(t)
	for _, f := range s.Functions {
		if f.Name != "update" {
			continue
		}
		es, ok := f.Body[1].(*ast.ExprStmt)
		require.True(t, ok)
		call, ok := es.X.(*ast.Call)
		require.True(t, ok)
		assert.Equal(t, "Aim", call.Name)
		return
	}
	t.Fatal("update not found")
}

func TestParseStatements(t *testing.T) {
	s := parseTurret(t)
	var aim *ast.Function
	for _, f := range s.Functions {
		if f.Name == "Aim" {
			aim = f
		}
	}
	require.NotNil(t, aim)
	require.Len(t, aim.Body, 4)

	// typed local declaration
	decl, ok := aim.Body[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	require.NotNil(t, decl.DeclType)
	assert.True(t, decl.DeclType.Equal(types.Float(64)))

	ifStmt, ok := aim.Body[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.ElseIfs, 1)

	forStmt, ok := aim.Body[2].(*ast.ForStmt)
	require.True(t, ok)
	post, ok := forStmt.Post.(*ast.AssignOpStmt)
	require.True(t, ok)
	assert.Equal(t, "+", post.Op)

	_, ok = aim.Body[3].(*ast.ForInStmt)
	assert.True(t, ok)
}

func TestParseStaticClassModule(t *testing.T) {
	src := `
public static class Util {
	public static long Double(long x) {
		return x * 2;
	}
}
`
	p := &Parser{}
	s, err := p.ParseScript([]byte(src), "Util.cs")
	require.NoError(t, err)
	assert.True(t, s.IsModule)
	assert.Equal(t, "util", s.Name)
	assert.Empty(t, s.NodeType)
	require.Len(t, s.Functions, 1)
	assert.Equal(t, "Double", s.Functions[0].Name)
}

func TestUserModuleReference(t *testing.T) {
	src := `
public class A : Node {
	void Run() {
		var x = Util.Double(2);
	}
}
`
	p := &Parser{UserModules: map[string]bool{"util": true}}
	s, err := p.ParseScript([]byte(src), "a.cs")
	require.NoError(t, err)
	assert.Equal(t, []string{"util"}, s.UsesModules)

	decl := s.Functions[0].Body[0].(*ast.VarDeclStmt)
	mc, ok := decl.Init.(*ast.ModuleCall)
	require.True(t, ok)
	assert.Equal(t, "util", mc.Module)
	assert.Equal(t, "Double", mc.Func)
}

func TestRecordConstruction(t *testing.T) {
	src := `
public class A : Node {
	void Run() {
		var s = new Stats { Strength = 5, Agility = 3 };
		var xs = new List<int>();
	}
}
`
	p := &Parser{}
	s, err := p.ParseScript([]byte(src), "a.cs")
	require.NoError(t, err)

	body := s.Functions[0].Body
	rn, ok := body[0].(*ast.VarDeclStmt).Init.(*ast.RecordNew)
	require.True(t, ok)
	assert.Equal(t, "Stats", rn.Record)
	require.Len(t, rn.Fields, 2)
	assert.Equal(t, "Strength", rn.Fields[0].Name)

	_, ok = body[1].(*ast.VarDeclStmt).Init.(*ast.ArrayLit)
	assert.True(t, ok)
}

func TestParseErrorsCS(t *testing.T) {
	p := &Parser{}
	cases := []string{
		"public class A {",                       // missing base
		"public class A : Node { void F( { } }",  // bad params
		"public class A : Node { void F() { Math.Nope(); } }",
		`public class A : Node { void F() { var s = "unterminated; } }`,
		"int x = 1;", // no class at all
	}
	for _, src := range cases {
		_, err := p.ParseScript([]byte(src), "bad.cs")
		require.Error(t, err, src)
		var pe *frontend.ParseError
		assert.ErrorAs(t, err, &pe, src)
	}
}

func TestModuleLifecycleRejected(t *testing.T) {
	p := &Parser{}
	src := `
public static class M {
	public static void Init() {
	}
}
`
	_, err := p.ParseScript([]byte(src), "m.cs")
	assert.Error(t, err)
}
