package codegen

import (
	"fmt"
	"testing"

	"github.com/pawlang/paw/analysis"
	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	pawlang "github.com/pawlang/paw/frontend/paw"
	"github.com/pawlang/paw/scriptrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePaw(t *testing.T, src string) *ast.Script {
	t.Helper()
	p, ok := frontend.ForExtension("paw")
	require.True(t, ok)
	s, err := p.ParseScript([]byte(src), "res://t.paw")
	require.NoError(t, err)
	analysis.Run(s)
	return s
}

func compile(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Generate(parsePaw(t, src), "t_paw", Options{})
	require.NoError(t, err)
	return res
}

const playerSrc = `extends Sprite

pub var health: i32 = 100
@expose var speed: f32
var name: str = "player"

on init() {
	self.visible = true
}

on update(dt: f64) {
	health += 1
}

on door_opened() {
	log.info("opened")
}

fn heal(amount: i32) {
	health += amount
}

@skip
fn helper() -> i32 {
	return 1
}
`

func TestStructAndConstructor(t *testing.T) {
	res := compile(t, playerSrc)

	assert.Contains(t, res.Source, "type Script_t_paw struct {")
	assert.Contains(t, res.Source, "self scriptrt.EntityID")
	assert.Contains(t, res.Source, "pv_health int32")
	assert.Contains(t, res.Source, "pv_speed float32")
	assert.Contains(t, res.Source, "func New_t_paw() scriptrt.ScriptObject {")
	assert.Contains(t, res.Source, "s.pv_health = int32(100)")
	// untyped-by-initializer field falls back to the type default
	assert.Contains(t, res.Source, "s.pv_speed = 0")
	assert.Contains(t, res.Source, `s.pv_name = "player"`)
}

func TestLifecycleMethodsAndFlags(t *testing.T) {
	res := compile(t, playerSrc)

	assert.Contains(t, res.Source, "func (s *Script_t_paw) Init(h scriptrt.Host) {")
	assert.Contains(t, res.Source, "func (s *Script_t_paw) Update(h scriptrt.Host, dt float64) {")
	assert.Contains(t, res.Source, "defer scriptrt.Intercept()")
	// undeclared hooks get empty stubs so the interface is always satisfied
	assert.Contains(t, res.Source, "func (s *Script_t_paw) FixedUpdate(h scriptrt.Host, _ float64) {")
	assert.Contains(t, res.Source, "func (s *Script_t_paw) Draw(h scriptrt.Host) {")
	assert.Contains(t, res.Source, "return scriptrt.FlagInit | scriptrt.FlagUpdate")
}

func TestHostWriteGoesThroughHandle(t *testing.T) {
	res := compile(t, playerSrc)
	// self.visible is not a script field, so init writes the entity graph
	assert.Contains(t, res.Source, `h.SetField(s.self, "visible", scriptrt.Bool(true))`)
}

func TestDispatchTables(t *testing.T) {
	res := compile(t, playerSrc)

	healthKey := fmt.Sprintf("0x%x", scriptrt.NameHash("health"))
	speedKey := fmt.Sprintf("0x%x", scriptrt.NameHash("speed"))
	healKey := fmt.Sprintf("0x%x", scriptrt.NameHash("heal"))
	helperKey := fmt.Sprintf("0x%x", scriptrt.NameHash("helper"))
	signalKey := fmt.Sprintf("0x%x", scriptrt.NameHash("on_door_opened"))

	// pub fields land in read and write, exposed ones in apply
	assert.Contains(t, res.Source, "var readTable_t_paw = map[uint64]func(s *Script_t_paw) scriptrt.Value{\n\t"+healthKey)
	assert.Contains(t, res.Source, "var writeTable_t_paw = map[uint64]func(s *Script_t_paw, v scriptrt.Value) bool{\n\t"+healthKey)
	assert.Contains(t, res.Source, "var applyTable_t_paw = map[uint64]func(s *Script_t_paw, v scriptrt.Value){\n\t"+speedKey)

	assert.Contains(t, res.Source, healKey+": func(s *Script_t_paw, args []scriptrt.Value, h scriptrt.Host) {")
	assert.Contains(t, res.Source, signalKey+": func(s *Script_t_paw")
	// @skip keeps the function callable internally but out of the table
	assert.NotContains(t, res.Source, helperKey+":")
	assert.Contains(t, res.Source, "func (s *Script_t_paw) fn_helper() int32 {")
}

func TestCallArgDefaultSubstitution(t *testing.T) {
	res := compile(t, playerSrc)
	// a missing or malformed argument is replaced by its type's default
	assert.Contains(t, res.Source, "var p0 int32 = 0")
	assert.Contains(t, res.Source, "if len(args) > 0 {")
	assert.Contains(t, res.Source, "p0 = out")
	assert.Contains(t, res.Source, "s.fn_heal(p0)")
}

func TestWritePolicyRefusesWithoutMutation(t *testing.T) {
	res := compile(t, playerSrc)
	assert.Contains(t, res.Source, "if !ok {\n\t\t\treturn false\n\t\t}")
}

func TestAttributeMaps(t *testing.T) {
	res := compile(t, playerSrc)
	assert.Contains(t, res.Source, `"expose"`)
	assert.Contains(t, res.Source, `"helper()": []string{"skip"}`)
	assert.Contains(t, res.Source, "func (s *Script_t_paw) MemberAttributes() map[string][]string {")
	assert.Contains(t, res.Source, "func (s *Script_t_paw) AttributeMembers() map[string][]string {")
}

func TestHostAccessThreading(t *testing.T) {
	res := compile(t, `extends Sprite

var count: i32 = 0

fn pure(x: i32) -> i32 {
	return x + 1
}

fn shout() {
	log.info("hi")
}
`)
	assert.Contains(t, res.Source, "func (s *Script_t_paw) fn_pure(x int32) int32 {")
	assert.Contains(t, res.Source, "func (s *Script_t_paw) fn_shout(h scriptrt.Host) {")
	assert.Contains(t, res.Source, `h.CallHost("log", "info", []scriptrt.Value{scriptrt.Str("hi")})`)
}

func TestInlineBuiltins(t *testing.T) {
	res := compile(t, `extends Sprite

fn dist(x: f64) -> f64 {
	return math.sqrt(x)
}
`)
	assert.Contains(t, res.Source, "math.Sqrt(x)")
	assert.Contains(t, res.Source, "\"math\"")
}

func TestChildAndParentLookup(t *testing.T) {
	res := compile(t, `extends Sprite

on init() {
	var door = scene.get_child_by_name("door")
	var root = scene.get_parent()
	door.open = true
}
`)
	assert.Contains(t, res.Source, `h.GetChildByName(s.self, "door")`)
	assert.Contains(t, res.Source, "h.GetParent(s.self)")
	assert.Contains(t, res.Source, `h.SetField(door, "open", scriptrt.Bool(true))`)
}

func TestRecordBaseChain(t *testing.T) {
	res := compile(t, `extends Sprite

record Stats {
	power: f64
}

record Hero extends Stats {
	level: i64
}

fn make() -> Hero {
	return new Hero { power: 2.5, level: 3 }
}
`)
	assert.Contains(t, res.Source, "type rec_Stats_t_paw struct {")
	assert.Contains(t, res.Source, "type rec_Hero_t_paw struct {\n\trec_Stats_t_paw\n\tlevel int64\n}")
	// the inherited field is promoted, so it is assigned after construction
	assert.Contains(t, res.Source, "r := rec_Hero_t_paw{level: 3}")
	assert.Contains(t, res.Source, "r.power = 2.5")
}

func TestRangeLoop(t *testing.T) {
	res := compile(t, `extends Sprite

var total: i64 = 0

fn sum() {
	for i in 0..10 {
		total += i
	}
}
`)
	assert.Contains(t, res.Source, "for i := 0; i < 10; i++ {")
	assert.Contains(t, res.Source, "s.pv_total += i")
}

func TestModuleGeneration(t *testing.T) {
	s := parsePaw(t, `module util

var factor: f64 = 2

fn double(x: f64) -> f64 {
	return x * factor
}
`)
	res, err := Generate(s, "scripts_util_paw", Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Source, "var pv_scripts_util_paw_factor float64 = float64(2)")
	assert.Contains(t, res.Source, "func fn_scripts_util_paw_double(x float64) float64 {")
	assert.Contains(t, res.Source, "return x * pv_scripts_util_paw_factor")
	// modules carry no entity state and no dispatch tables
	assert.NotContains(t, res.Source, "type Script_")
	assert.NotContains(t, res.Source, "readTable_")
}

func TestModuleCallFromEntity(t *testing.T) {
	p, ok := frontend.ForExtension("paw")
	require.True(t, ok)
	pp, ok := p.(*pawlang.Parser)
	require.True(t, ok)
	pp.UserModules = map[string]bool{"util": true}
	defer func() { pp.UserModules = nil }()

	mod := parsePaw(t, `module util

fn double(x: f64) -> f64 {
	return x * 2
}
`)
	src := `extends Sprite

var v: f64 = 0

on update(dt: f64) {
	v = util.double(dt)
}
`
	s := parsePaw(t, src)
	res, err := Generate(s, "t_paw", Options{
		Modules:   map[string]*ast.Script{"util": mod},
		ModuleIDs: map[string]string{"util": "scripts_util_paw"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Source, "s.pv_v = fn_scripts_util_paw_double(dt)")
}

func TestFieldInitCannotTouchHost(t *testing.T) {
	s := parsePaw(t, `extends Sprite

var door = scene.get_child_by_name("door")
`)
	_, err := Generate(s, "t_paw", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initializers cannot use the host entity")
}

func TestHashKeyCollision(t *testing.T) {
	_, err := hashKeys("call", []string{"move", "move"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash collision")

	keys, err := hashKeys("call", []string{"move", "stop"})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestSourceMapOutput(t *testing.T) {
	res := compile(t, playerSrc)
	require.NotNil(t, res.Map)

	assert.Equal(t, "res://t.paw", res.Map.Src)
	assert.Equal(t, "paw", res.Map.Lang)
	assert.Equal(t, "health", res.Map.Names["pv_health"])
	assert.Equal(t, "heal", res.Map.Names["fn_heal"])
	assert.NotEmpty(t, res.Map.Lines)
}

func TestKeywordLocalEscaped(t *testing.T) {
	res := compile(t, `extends Sprite

fn f() -> i64 {
	var range = 4
	return range
}
`)
	assert.Contains(t, res.Source, "range_ := 4")
	assert.Contains(t, res.Source, "return range_")
}

func TestGeneratedHeader(t *testing.T) {
	res := compile(t, playerSrc)
	assert.Contains(t, res.Source, "// Code generated by paw. DO NOT EDIT.")
	assert.Contains(t, res.Source, "package scripts")
}
