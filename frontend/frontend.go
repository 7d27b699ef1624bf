// Package frontend holds the front-end registry. Each surface language
// registers a Parser keyed by its file extension; the project compiler
// selects front-ends by extension during discovery.
package frontend

import (
	"fmt"
	"sort"

	"github.com/pawlang/paw/ast"
)

// Parser turns raw source text into one Script (or module variant).
type Parser interface {
	ParseScript(src []byte, filename string) (*ast.Script, error)
}

// ModuleAware parsers accept the set of user-module names discovered by
// the project pre-pass, so module calls resolve during parsing.
type ModuleAware interface {
	SetUserModules(mods map[string]bool)
}

var registry = make(map[string]Parser)

// Register binds a parser to a file extension (without the dot).
func Register(ext string, p Parser) {
	registry[ext] = p
}

// ForExtension returns the parser registered for ext.
func ForExtension(ext string) (Parser, bool) {
	p, ok := registry[ext]
	return p, ok
}

// Extensions returns the sorted list of recognized extensions.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for e := range registry {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

// ParseError names the offending token and position of a parse
// failure.
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
	Tok  string
}

func (e *ParseError) Error() string {
	if e.Tok != "" {
		return fmt.Sprintf("%s:%d:%d: %s (near %q)", e.File, e.Line, e.Col, e.Msg, e.Tok)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}
