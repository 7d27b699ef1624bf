// Package ast defines the shared intermediate representation every
// front-end parses into and every downstream pass consumes: the Script
// unit, its variables, functions, and record definitions, plus the
// statement and expression trees.
package ast

import "github.com/pawlang/paw/types"

// Script is one source file's compiled semantic unit. A front-end
// produces exactly one Script per file; it is immutable afterwards
// except for the two analysis-computed Function fields.
type Script struct {
	// Name is the optional declared script name.
	Name string
	// NodeType is the host-entity kind the script attaches to. Empty
	// for modules.
	NodeType string
	// IsModule marks a host-entity-free unit exporting only functions
	// and constants.
	IsModule bool

	Variables []*Variable
	Functions []*Function
	Records   []*RecordDef

	// SourceFile is the originating path, Language the surface-language
	// tag ("paw", "ts", "cs").
	SourceFile string
	Language   string

	// Attributes maps a member (variables by name, functions by
	// "name()") to its attribute names.
	Attributes map[string][]string

	// UsesModules lists the module identifiers the script references.
	UsesModules []string
}

// Variable is a script-level field.
type Variable struct {
	Name string
	// Type is the declared or inferred type. Nil until resolution; a
	// variable with neither a declared type nor an initializer fails
	// resolution fatally.
	Type *types.Type
	Init *TypedExpr

	// Public exposes the variable for bidirectional external
	// read/write. Exposed additionally opts into one-directional
	// designer-override application.
	Public  bool
	Exposed bool

	Attributes []string
	Line       int
}

// Param is a function parameter.
type Param struct {
	Name string
	Type types.Type
}

// Function is one script function. UsesHostEntity and
// ClonedChildHandles are computed exactly once by the analysis pass.
type Function struct {
	Name   string
	Params []Param
	Body   []Stmt

	// IsLifecycle is true for the reserved hook names (init, update,
	// fixed_update, draw).
	IsLifecycle bool
	// SignalName binds the function to an external event when the
	// front-end declared one.
	SignalName string

	// UsesHostEntity records whether invoking the function requires
	// acquiring the host-entity handle, directly or transitively.
	UsesHostEntity bool
	// ClonedChildHandles lists locals holding a handle to an entity
	// other than the script's own; such handles must be re-fetched at
	// point of use rather than assumed valid across re-acquisition.
	ClonedChildHandles []string

	Return     types.Type
	Attributes []string

	Line    int
	EndLine int
}

// HasAttribute reports whether the function carries the named attribute.
func (f *Function) HasAttribute(name string) bool {
	for _, a := range f.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// RecordDef is a user-defined record type. One record may extend at
// most one other.
type RecordDef struct {
	Name    string
	Base    string // empty when the record has no base
	Fields  []Field
	Methods []*Function
}

// Field is one record field.
type Field struct {
	Name       string
	Type       types.Type
	Attributes []string
}

// Span is a source location range.
type Span struct {
	Line     int
	ColStart int
	ColEnd   int
}

// TypedExpr pairs an expression with its inferred type and span.
// Front-ends fill Inferred when they can resolve the expression
// lexically; a nil Inferred left unresolved at generation time is a
// fatal error.
type TypedExpr struct {
	X        Expr
	Inferred *types.Type
	Span     Span
}

// VariableNames returns the script's field names, used by analysis to
// disambiguate entity-graph members from script-local state.
func (s *Script) VariableNames() map[string]bool {
	out := make(map[string]bool, len(s.Variables))
	for _, v := range s.Variables {
		out[v.Name] = true
	}
	return out
}

// FunctionNames returns the script's function names.
func (s *Script) FunctionNames() map[string]bool {
	out := make(map[string]bool, len(s.Functions))
	for _, f := range s.Functions {
		out[f.Name] = true
	}
	return out
}

// LifecycleNames is the closed set of reserved hook names.
var LifecycleNames = map[string]bool{
	"init":         true,
	"update":       true,
	"fixed_update": true,
	"draw":         true,
}
