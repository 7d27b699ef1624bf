package codegen

import "go/token"

// Renamer maps authored member names onto generated Go identifiers and
// records every pair for the source map's name table. The scheme:
// script fields get a pv_ prefix, functions fn_, record types
// rec_<name>_<id>, and the script struct itself Script_<id>.
type Renamer struct {
	id    string
	names map[string]string // generated -> authored
}

// NewRenamer creates a renamer for one script identifier.
func NewRenamer(id string) *Renamer {
	return &Renamer{id: id, names: make(map[string]string)}
}

// Struct returns the script struct name.
func (r *Renamer) Struct() string {
	return "Script_" + r.id
}

// Constructor returns the script constructor name.
func (r *Renamer) Constructor() string {
	return "New_" + r.id
}

// Field renames a script variable.
func (r *Renamer) Field(name string) string {
	gen := "pv_" + name
	r.names[gen] = name
	return gen
}

// Func renames a script function.
func (r *Renamer) Func(name string) string {
	gen := "fn_" + name
	r.names[gen] = name
	return gen
}

// Record renames a user record type.
func (r *Renamer) Record(name string) string {
	gen := "rec_" + name + "_" + r.id
	r.names[gen] = name
	return gen
}

// Local keeps authored local names, escaping Go keywords.
func (r *Renamer) Local(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}

// Names returns the generated-to-authored table accumulated so far.
func (r *Renamer) Names() map[string]string {
	return r.names
}
