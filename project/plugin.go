package project

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const scriptsGoModTemplate = `module paw_scripts

go 1.25

require github.com/pawlang/paw v0.0.0

replace github.com/pawlang/paw => %s
`

const pluginGoModTemplate = `module paw_plugin

go 1.25

require (
	github.com/pawlang/paw v0.0.0
	paw_scripts v0.0.0
)

replace github.com/pawlang/paw => %s

replace paw_scripts => ../scripts
`

// pluginMain re-exports the registry from a main package because
// -buildmode=plugin only accepts package main.
const pluginMain = `// Code generated by paw. DO NOT EDIT.

package main

import (
	"github.com/pawlang/paw/scriptrt"

	scripts "paw_scripts"
)

// Scripts is the symbol the host looks up after plugin.Open.
var Scripts map[string]scriptrt.CreateFn = scripts.Scripts

func main() {}
`

// buildPlugin compiles the generated scripts into a Go plugin at
// <outDir>/scripts.so. The runtime support packages are resolved
// through a replace directive pointing at the runtime source cache.
func (c *Compiler) buildPlugin(outDir string) error {
	cacheDir, err := EnsureRuntimeCache()
	if err != nil {
		return fmt.Errorf("preparing runtime cache: %w", err)
	}

	scriptsDir := filepath.Join(outDir, "scripts")
	scriptsGoMod := fmt.Sprintf(scriptsGoModTemplate, cacheDir)
	if err := os.WriteFile(filepath.Join(scriptsDir, "go.mod"), []byte(scriptsGoMod), 0644); err != nil {
		return fmt.Errorf("writing scripts go.mod: %w", err)
	}

	pluginDir := filepath.Join(outDir, "plugin")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		return fmt.Errorf("creating plugin dir: %w", err)
	}
	pluginGoMod := fmt.Sprintf(pluginGoModTemplate, cacheDir)
	if err := os.WriteFile(filepath.Join(pluginDir, "go.mod"), []byte(pluginGoMod), 0644); err != nil {
		return fmt.Errorf("writing plugin go.mod: %w", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "main.go"), []byte(pluginMain), 0644); err != nil {
		return fmt.Errorf("writing plugin main.go: %w", err)
	}

	soFile := filepath.Join(outDir, "scripts.so")
	cmd := exec.Command("go", "build", "-mod=mod", "-buildmode=plugin", "-o", soFile, ".")
	cmd.Dir = pluginDir
	cmd.Env = appendGoNoSumCheck(os.Environ())
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("plugin build failed: %w", err)
	}
	return nil
}

// appendGoNoSumCheck adds GONOSUMCHECK=* to the environment if not already set,
// allowing the plugin build directory to resolve module dependencies without
// requiring a pre-populated go.sum.
func appendGoNoSumCheck(env []string) []string {
	for _, e := range env {
		if strings.HasPrefix(e, "GONOSUMCHECK=") {
			return env
		}
	}
	return append(env, "GONOSUMCHECK=*")
}
