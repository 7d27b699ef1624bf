// Package project drives whole-project builds: it discovers scripts
// under res/, compiles each through its front end, writes the generated
// Go sources plus registry and source map under .paw/, and finally
// builds the plugin that the host process loads.
package project

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
	"modernc.org/scanner"

	"github.com/pawlang/paw/analysis"
	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/codegen"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/sourcemap"
)

// Compiler builds one project rooted at a directory containing res/.
type Compiler struct {
	// Root is the project directory. Scripts are discovered under
	// <Root>/res and output lands under OutDir.
	Root string

	// OutDir defaults to <Root>/.paw.
	OutDir string

	// Force rebuilds even when the project digest is unchanged.
	Force bool

	// NoPlugin stops after writing the generated sources.
	NoPlugin bool

	Stdout io.Writer
	Stderr io.Writer
}

// New returns a compiler for the given project root.
func New(root string) *Compiler {
	return &Compiler{
		Root:   root,
		OutDir: filepath.Join(root, ".paw"),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type scriptFile struct {
	path    string
	resPath string
	ext     string
	id      string
	content []byte
	script  *ast.Script
}

// Build compiles every script in the project. An unchanged project is
// skipped entirely unless Force is set.
func (c *Compiler) Build() error {
	start := time.Now()

	files, err := c.discover()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scripts found under %s", filepath.Join(c.Root, "res"))
	}

	digest := computeDigest(files)
	statePath := filepath.Join(c.OutDir, "build.yaml")
	if !c.Force && digest == loadDigest(statePath) {
		c.printf("%sscripts up to date%s\n", c.green(), c.reset())
		return nil
	}

	if err := c.assignIdentifiers(files); err != nil {
		return err
	}
	if err := c.parseAll(files); err != nil {
		return err
	}

	scriptsDir := filepath.Join(c.OutDir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	sm := sourcemap.New()
	mapPath, err := filepath.Abs(filepath.Join(c.OutDir, "sourcemap.yaml"))
	if err != nil {
		return fmt.Errorf("resolving source map path: %w", err)
	}

	modules, moduleIDs := moduleTables(files)
	var entityIDs []string
	for _, f := range files {
		genStart := time.Now()
		res, err := codegen.Generate(f.script, f.id, codegen.Options{
			Modules:   modules,
			ModuleIDs: moduleIDs,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(scriptsDir, f.id+".go"), []byte(res.Source), 0644); err != nil {
			return fmt.Errorf("writing %s.go: %w", f.id, err)
		}
		sm.Scripts[f.id] = res.Map
		if !f.script.IsModule {
			entityIDs = append(entityIDs, f.id)
		}
		c.printf("%s%s%s -> %s.go (%s)\n", c.cyan(), f.resPath, c.reset(), f.id, time.Since(genStart).Round(100*time.Microsecond))
	}

	sort.Strings(entityIDs)
	registry := registrySource(entityIDs, mapPath)
	if err := os.WriteFile(filepath.Join(scriptsDir, "registry.go"), []byte(registry), 0644); err != nil {
		return fmt.Errorf("writing registry.go: %w", err)
	}

	if err := pruneOrphans(scriptsDir, files); err != nil {
		return err
	}
	if err := sourcemap.Save(mapPath, sm); err != nil {
		return err
	}
	if err := saveDigest(statePath, digest); err != nil {
		return err
	}

	if !c.NoPlugin {
		if err := c.buildPlugin(c.OutDir); err != nil {
			return err
		}
	}

	c.printf("%scompiled %d scripts in %s%s\n", c.green(), len(files), time.Since(start).Round(time.Millisecond), c.reset())
	return nil
}

// Emit compiles a single script and returns its generated Go source
// without writing anything. Sibling modules under the same res/ tree
// are still visible to it.
func (c *Compiler) Emit(scriptPath string) (string, error) {
	files, err := c.discover()
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", scriptPath, err)
	}
	var target *scriptFile
	for _, f := range files {
		fabs, err := filepath.Abs(f.path)
		if err != nil {
			continue
		}
		if fabs == abs {
			target = f
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("%s is not part of the project at %s", scriptPath, c.Root)
	}

	if err := c.assignIdentifiers(files); err != nil {
		return "", err
	}
	if err := c.parseAll(files); err != nil {
		return "", err
	}

	modules, moduleIDs := moduleTables(files)
	res, err := codegen.Generate(target.script, target.id, codegen.Options{
		Modules:   modules,
		ModuleIDs: moduleIDs,
	})
	if err != nil {
		return "", err
	}
	return res.Source, nil
}

// Clean removes the output directory.
func (c *Compiler) Clean() error {
	if err := os.RemoveAll(c.OutDir); err != nil {
		return fmt.Errorf("removing %s: %w", c.OutDir, err)
	}
	return nil
}

// Digest returns the current project digest and the digest of the last
// completed build ("" when none exists).
func (c *Compiler) Digest() (current, stored string, err error) {
	files, err := c.discover()
	if err != nil {
		return "", "", err
	}
	return computeDigest(files), loadDigest(filepath.Join(c.OutDir, "build.yaml")), nil
}

// discover walks <Root>/res for files whose extension has a registered
// front end and reads their contents. Results are ordered by res path.
func (c *Compiler) discover() ([]*scriptFile, error) {
	resDir := filepath.Join(c.Root, "res")
	if fi, err := os.Stat(resDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("project at %s has no res directory", c.Root)
	}

	known := make(map[string]bool)
	for _, e := range frontend.Extensions() {
		known[e] = true
	}

	var files []*scriptFile
	err := filepath.WalkDir(resDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(p), ".")
		if !known[ext] {
			return nil
		}
		rel, err := filepath.Rel(resDir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, &scriptFile{
			path:    p,
			resPath: "res://" + filepath.ToSlash(rel),
			ext:     ext,
			content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].resPath < files[j].resPath })
	return files, nil
}

// assignIdentifiers derives each script's flat identifier and fails the
// build on a collision rather than silently shadowing one script.
func (c *Compiler) assignIdentifiers(files []*scriptFile) error {
	seen := make(map[string]string)
	for _, f := range files {
		f.id = ScriptPathToIdentifier(f.resPath)
		if other, ok := seen[f.id]; ok {
			return fmt.Errorf("script identifier %s produced by both %s and %s", f.id, other, f.resPath)
		}
		seen[f.id] = f.resPath
	}
	return nil
}

// parseAll runs two passes: the first discovers which scripts are
// modules, the second re-parses everything with the module names
// installed so calls like util.double() resolve, then analyzes each
// script. Failures from every file of a pass are gathered into one
// scanner.ErrList and the first entry is surfaced.
func (c *Compiler) parseAll(files []*scriptFile) error {
	var errs scanner.ErrList
	for _, f := range files {
		p, ok := frontend.ForExtension(f.ext)
		if !ok {
			return fmt.Errorf("no front end registered for .%s", f.ext)
		}
		s, err := p.ParseScript(f.content, f.resPath)
		if err != nil {
			collectParseError(&errs, f.resPath, err)
			continue
		}
		f.script = s
	}
	if err := errs.Err(); err != nil {
		return firstParseError(err)
	}

	userModules := make(map[string]bool)
	moduleOwner := make(map[string]string)
	for _, f := range files {
		if !f.script.IsModule {
			continue
		}
		if other, ok := moduleOwner[f.script.Name]; ok {
			return fmt.Errorf("module %s declared by both %s and %s", f.script.Name, other, f.resPath)
		}
		moduleOwner[f.script.Name] = f.resPath
		userModules[f.script.Name] = true
	}

	for _, ext := range frontend.Extensions() {
		p, _ := frontend.ForExtension(ext)
		if ma, ok := p.(frontend.ModuleAware); ok {
			ma.SetUserModules(userModules)
			defer ma.SetUserModules(nil)
		}
	}

	errs = nil
	for _, f := range files {
		p, _ := frontend.ForExtension(f.ext)
		s, err := p.ParseScript(f.content, f.resPath)
		if err != nil {
			collectParseError(&errs, f.resPath, err)
			continue
		}
		analysis.Run(s)
		f.script = s
	}
	if err := errs.Err(); err != nil {
		return firstParseError(err)
	}
	return nil
}

// moduleTables collects the parsed module scripts and their identifiers
// for cross-script call resolution during generation.
func moduleTables(files []*scriptFile) (map[string]*ast.Script, map[string]string) {
	modules := make(map[string]*ast.Script)
	ids := make(map[string]string)
	for _, f := range files {
		if f.script != nil && f.script.IsModule {
			modules[f.script.Name] = f.script
			ids[f.script.Name] = f.id
		}
	}
	return modules, ids
}

// pruneOrphans deletes generated .go files whose stem no longer matches
// an active script, keeping registry.go.
func pruneOrphans(scriptsDir string, files []*scriptFile) error {
	active := make(map[string]bool)
	for _, f := range files {
		active[f.id] = true
	}
	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		return fmt.Errorf("reading output dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || name == "registry.go" {
			continue
		}
		stem := strings.TrimSuffix(name, ".go")
		if active[stem] {
			continue
		}
		if err := os.Remove(filepath.Join(scriptsDir, name)); err != nil {
			return fmt.Errorf("removing stale %s: %w", name, err)
		}
	}
	return nil
}

// registrySource renders the registry file: the constructor table for
// every entity script plus the init hook that points the failure
// translator at this build's source map.
func registrySource(ids []string, mapPath string) string {
	var b strings.Builder
	b.WriteString("// Code generated by paw. DO NOT EDIT.\n\n")
	b.WriteString("package scripts\n\n")
	b.WriteString("import \"github.com/pawlang/paw/scriptrt\"\n\n")
	b.WriteString("// Scripts maps every compiled script identifier to its constructor.\n")
	b.WriteString("var Scripts = map[string]scriptrt.CreateFn{\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "\t%q: New_%s,\n", id, id)
	}
	b.WriteString("}\n\n")
	b.WriteString("func init() {\n")
	b.WriteString("\tscriptrt.InstallTrace(" + strconv.Quote(mapPath) + ")\n")
	b.WriteString("}\n")
	return b.String()
}

func (c *Compiler) printf(format string, args ...any) {
	if c.Stdout != nil {
		fmt.Fprintf(c.Stdout, format, args...)
	}
}

func (c *Compiler) colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := c.Stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Compiler) cyan() string {
	if c.colorEnabled() {
		return "\033[36m"
	}
	return ""
}

func (c *Compiler) green() string {
	if c.colorEnabled() {
		return "\033[32m"
	}
	return ""
}

func (c *Compiler) reset() string {
	if c.colorEnabled() {
		return "\033[0m"
	}
	return ""
}
