package project

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/pawlang/paw/frontend/cslang"
	_ "github.com/pawlang/paw/frontend/paw"
	_ "github.com/pawlang/paw/frontend/tslang"
	"github.com/pawlang/paw/sourcemap"
)

const playerSrc = `extends Sprite

pub var health: i32 = 100

on update(dt: f64) {
	health += 1
	var v: f64 = util.double(dt)
}
`

const utilSrc = `module util

var factor: f64 = 2.0

fn double(x: f64) -> f64 {
	return x * factor
}
`

// writeProject lays out a throwaway project from resPath -> source.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, src := range files {
		p := filepath.Join(root, "res", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(src), 0644))
	}
	return root
}

func testCompiler(root string) (*Compiler, *bytes.Buffer) {
	var out bytes.Buffer
	c := New(root)
	c.NoPlugin = true
	c.Stdout = &out
	c.Stderr = &out
	return c, &out
}

func TestScriptPathToIdentifier(t *testing.T) {
	cases := map[string]string{
		"res://bob.paw":           "bob_paw",
		"res://scripts/bob.paw":   "scripts_bob_paw",
		"user://save.ts":          "save_ts",
		"/home/me/game/res/a/b.cs": "a_b_cs",
		"res://My Dir/Hero-2.paw": "my_dir_hero_2_paw",
	}
	for in, want := range cases {
		assert.Equal(t, want, ScriptPathToIdentifier(in), in)
	}
}

func TestBuildWritesGeneratedSources(t *testing.T) {
	root := writeProject(t, map[string]string{
		"player.paw":       playerSrc,
		"scripts/util.paw": utilSrc,
	})
	c, _ := testCompiler(root)
	require.NoError(t, c.Build())

	player, err := os.ReadFile(filepath.Join(root, ".paw", "scripts", "player_paw.go"))
	require.NoError(t, err)
	assert.Contains(t, string(player), "type Script_player_paw struct")
	assert.Contains(t, string(player), "fn_scripts_util_paw_double(dt)")

	util, err := os.ReadFile(filepath.Join(root, ".paw", "scripts", "scripts_util_paw.go"))
	require.NoError(t, err)
	assert.Contains(t, string(util), "func fn_scripts_util_paw_double(")

	registry, err := os.ReadFile(filepath.Join(root, ".paw", "scripts", "registry.go"))
	require.NoError(t, err)
	assert.Contains(t, string(registry), `"player_paw": New_player_paw,`)
	assert.Contains(t, string(registry), "scriptrt.InstallTrace(")
	// Modules have no constructor and stay out of the registry.
	assert.NotContains(t, string(registry), "scripts_util_paw")
}

func TestBuildWritesSourceMap(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, _ := testCompiler(root)
	require.NoError(t, c.Build())

	sm, err := sourcemap.Load(filepath.Join(root, ".paw", "sourcemap.yaml"))
	require.NoError(t, err)
	require.Contains(t, sm.Scripts, "player_paw")
	require.Contains(t, sm.Scripts, "scripts_util_paw")
	assert.Equal(t, "res://player.paw", sm.Scripts["player_paw"].Src)
	assert.Equal(t, "paw", sm.Scripts["player_paw"].Lang)
}

func TestUpToDateSkip(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, out := testCompiler(root)
	require.NoError(t, c.Build())

	out.Reset()
	require.NoError(t, c.Build())
	assert.Contains(t, out.String(), "up to date")

	out.Reset()
	c.Force = true
	require.NoError(t, c.Build())
	assert.Contains(t, out.String(), "compiled 2 scripts")
}

func TestDigestChangesOnEditAndRename(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, _ := testCompiler(root)
	before, _, err := c.Digest()
	require.NoError(t, err)

	playerPath := filepath.Join(root, "res", "player.paw")
	require.NoError(t, os.WriteFile(playerPath, []byte(playerSrc+"\n"), 0644))
	afterEdit, _, err := c.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, before, afterEdit)

	require.NoError(t, os.WriteFile(playerPath, []byte(playerSrc), 0644))
	require.NoError(t, os.Rename(playerPath, filepath.Join(root, "res", "hero.paw")))
	afterRename, _, err := c.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, before, afterRename)
}

func TestIdentifierCollision(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a-b.paw": "extends Node\n",
		"a_b.paw": "extends Node\n",
	})
	c, _ := testCompiler(root)
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a_b_paw")
}

func TestOrphanPruning(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, _ := testCompiler(root)
	require.NoError(t, c.Build())

	stale := filepath.Join(root, ".paw", "scripts", "gone_paw.go")
	require.NoError(t, os.WriteFile(stale, []byte("package scripts\n"), 0644))

	c.Force = true
	require.NoError(t, c.Build())
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, ".paw", "scripts", "registry.go"))
	assert.NoError(t, err)
}

func TestEmitSingleScript(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, _ := testCompiler(root)

	src, err := c.Emit(filepath.Join(root, "res", "player.paw"))
	require.NoError(t, err)
	assert.Contains(t, src, "package scripts")
	assert.Contains(t, src, "type Script_player_paw struct")
	// Emit writes nothing.
	_, statErr := os.Stat(filepath.Join(root, ".paw"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanRemovesOutput(t *testing.T) {
	root := writeProject(t, map[string]string{"player.paw": playerSrc, "scripts/util.paw": utilSrc})
	c, _ := testCompiler(root)
	require.NoError(t, c.Build())
	require.NoError(t, c.Clean())
	_, err := os.Stat(filepath.Join(root, ".paw"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseErrorNamesFile(t *testing.T) {
	root := writeProject(t, map[string]string{"broken.paw": "extends Sprite\n\nfn {\n"})
	c, _ := testCompiler(root)
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "res://broken.paw")
}

func TestParseErrorsGatherAcrossFiles(t *testing.T) {
	// Every file is parsed before failing; the first entry of the
	// gathered list is the one surfaced.
	root := writeProject(t, map[string]string{
		"alpha.paw": "extends Sprite\n\nfn {\n",
		"zeta.paw":  "extends Sprite\n\nfn {\n",
	})
	c, _ := testCompiler(root)
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "res://alpha.paw")
	assert.NotContains(t, err.Error(), "res://zeta.paw")
}

func TestDuplicateModuleName(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a/util.paw": utilSrc,
		"b/util.paw": utilSrc,
	})
	c, _ := testCompiler(root)
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module util")
}

func TestEmptyProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "res"), 0755))
	c, _ := testCompiler(root)
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripts found")
}
