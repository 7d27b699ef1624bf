package analysis

import (
	"testing"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	_ "github.com/pawlang/paw/frontend/paw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Script {
	t.Helper()
	p, ok := frontend.ForExtension("paw")
	require.True(t, ok)
	s, err := p.ParseScript([]byte(src), "t.paw")
	require.NoError(t, err)
	return s
}

func fn(t *testing.T, s *ast.Script, name string) *ast.Function {
	t.Helper()
	for _, f := range s.Functions {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestSelfFieldWriteNeedsHost(t *testing.T) {
	s := parse(t, `
extends Sprite

on update(dt: f64) {
	self.x = 5
}
`)
	Run(s)
	assert.True(t, fn(t, s, "update").UsesHostEntity)
}

func TestScriptLocalStateDoesNot(t *testing.T) {
	s := parse(t, `
extends Sprite

var health: i32 = 100

on update(dt: f64) {
	health += 1
	var v = health * 2
}
`)
	Run(s)
	assert.False(t, fn(t, s, "update").UsesHostEntity)
}

func TestSelfScriptFieldReadDoesNot(t *testing.T) {
	// self.health where health is a script field is still script state
	s := parse(t, `
extends Sprite

var health: i32 = 100

on update(dt: f64) {
	var v = self.health
}
`)
	Run(s)
	assert.False(t, fn(t, s, "update").UsesHostEntity)
}

func TestInlinedBuiltinsDoNotNeedHost(t *testing.T) {
	s := parse(t, `
extends Sprite

fn calc(x: f64) -> f64 {
	return math.sqrt(x)
}
`)
	Run(s)
	assert.False(t, fn(t, s, "calc").UsesHostEntity)
}

func TestHostRoutedBuiltinNeedsHost(t *testing.T) {
	s := parse(t, `
extends Sprite

fn shout() {
	log.info("hello")
}
`)
	Run(s)
	assert.True(t, fn(t, s, "shout").UsesHostEntity)
}

func TestPurityFollowsRegistryCallKind(t *testing.T) {
	// str and time both resolve through the registry; only the
	// host-routed kind marks the caller.
	s := parse(t, `
extends Sprite

fn tag(n: str) -> str {
	return str.upper(n)
}

fn tick() -> f64 {
	return time.delta()
}
`)
	Run(s)
	assert.False(t, fn(t, s, "tag").UsesHostEntity)
	assert.True(t, fn(t, s, "tick").UsesHostEntity)
}

func TestTransitiveClosure(t *testing.T) {
	// a -> b -> c, only c touches the entity; all three need the handle
	s := parse(t, `
extends Sprite

fn a() {
	b()
}

fn b() {
	c()
}

fn c() {
	self.x = 1
}

fn pure(n: i64) -> i64 {
	return n + 1
}
`)
	Run(s)
	assert.True(t, fn(t, s, "a").UsesHostEntity)
	assert.True(t, fn(t, s, "b").UsesHostEntity)
	assert.True(t, fn(t, s, "c").UsesHostEntity)
	assert.False(t, fn(t, s, "pure").UsesHostEntity)
}

func TestRecursiveCallsTerminate(t *testing.T) {
	s := parse(t, `
extends Sprite

fn ping(n: i64) {
	if n > 0 {
		pong(n - 1)
	}
}

fn pong(n: i64) {
	if n > 0 {
		ping(n - 1)
	}
	self.x = 0
}
`)
	Run(s)
	assert.True(t, fn(t, s, "ping").UsesHostEntity)
	assert.True(t, fn(t, s, "pong").UsesHostEntity)
}

func TestMethodCallsProduceNoEdges(t *testing.T) {
	// door.open() is not a bare-identifier call; it must not pull in
	// the callee named open even if one exists
	s := parse(t, `
extends Sprite

var door: str = "d"

fn a(x: {str: i64}) {
	var n = x.open()
}

fn open() {
	self.x = 1
}
`)
	Run(s)
	assert.False(t, fn(t, s, "a").UsesHostEntity)
	assert.True(t, fn(t, s, "open").UsesHostEntity)
}

func TestClonedHandleDetection(t *testing.T) {
	s := parse(t, `
extends Sprite

on init() {
	var door = $Door
	var parent = scene.get_parent() as Sprite
	var plain = 5
	if true {
		var nested = $Deep
	}
}
`)
	Run(s)
	initFn := fn(t, s, "init")
	assert.Equal(t, []string{"door", "parent", "nested"}, initFn.ClonedChildHandles)
}

func TestLookupInsideLoopsDetected(t *testing.T) {
	s := parse(t, `
extends Sprite

on update(dt: f64) {
	for i in 0..3 {
		var child = $Spawn
	}
}
`)
	Run(s)
	assert.Equal(t, []string{"child"}, fn(t, s, "update").ClonedChildHandles)
}
