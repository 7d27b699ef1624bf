// Package hostmod holds the closed registry of host-provided built-in
// modules. Front-ends resolve module calls (module.fn(...)) against it
// at parse time; codegen uses the function definitions to emit either
// inline Go or a routed host call.
package hostmod

import (
	"sort"

	"github.com/pawlang/paw/types"
)

// CallKind selects how a module function is generated.
type CallKind int

const (
	// Inline functions expand to a Go expression template.
	Inline CallKind = iota
	// HostRouted functions go through the host capability handle.
	HostRouted
	// ChildLookup is the get-child-by-name sugar accessor. It is
	// significant to cloned-handle analysis.
	ChildLookup
	// ParentLookup is the get-parent sugar accessor, likewise tracked
	// by cloned-handle analysis.
	ParentLookup
)

// FuncDef describes one function a module exposes.
type FuncDef struct {
	// Name is the surface function name (e.g. "sqrt").
	Name string
	// Args lists the declared argument types.
	Args []types.Type
	// Ret is the return type; Void for none.
	Ret types.Type
	// Kind selects the generation strategy.
	Kind CallKind
	// GoTemplate is the Go expression template for Inline functions,
	// with one %s per argument.
	GoTemplate string
	// GoImports lists Go imports the template needs.
	GoImports []string
}

// Module is one host built-in module.
type Module struct {
	// Name is the surface import name (e.g. "math", "scene").
	Name  string
	Funcs []FuncDef
}

var registry = make(map[string]*Module)

// Register adds a module to the registry.
func Register(m *Module) {
	registry[m.Name] = m
}

// Get returns a registered module by name.
func Get(name string) (*Module, bool) {
	m, ok := registry[name]
	return m, ok
}

// IsModule returns true if name is a registered module.
func IsModule(name string) bool {
	_, ok := registry[name]
	return ok
}

// LookupFunc resolves a module function definition.
func LookupFunc(module, funcName string) (*FuncDef, bool) {
	m, ok := registry[module]
	if !ok {
		return nil, false
	}
	for i := range m.Funcs {
		if m.Funcs[i].Name == funcName {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}

// Names returns sorted names of all registered modules.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
