// Package sourcemap maps locations in generated Go back to the authored
// scripts. The compiler persists one map per build; the runtime side
// loads it to re-present failures in original-script terms.
package sourcemap

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LineRange maps a contiguous span of authored lines onto a contiguous
// span of generated lines.
type LineRange struct {
	SrcStart int `yaml:"ss"`
	SrcEnd   int `yaml:"se"`
	GenStart int `yaml:"gs"`
	GenEnd   int `yaml:"ge"`
}

// ScriptMap is the map for one compiled script.
type ScriptMap struct {
	// Src is the authored file path, Lang its surface language tag.
	Src  string      `yaml:"src"`
	Lang string      `yaml:"lang"`
	Lines []LineRange `yaml:"lines,omitempty"`
	// Names maps generated identifiers back to authored ones.
	Names map[string]string `yaml:"names,omitempty"`
}

// SourceMap covers every script of one build, keyed by the script
// identifier (the generated file's stem).
type SourceMap struct {
	Scripts map[string]*ScriptMap `yaml:"scripts"`
}

// New returns an empty source map.
func New() *SourceMap {
	return &SourceMap{Scripts: make(map[string]*ScriptMap)}
}

// Load reads a persisted source map.
func Load(path string) (*SourceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source map: %w", err)
	}
	var sm SourceMap
	if err := yaml.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("parsing source map: %w", err)
	}
	if sm.Scripts == nil {
		sm.Scripts = make(map[string]*ScriptMap)
	}
	return &sm, nil
}

// Save persists the source map.
func Save(path string, sm *SourceMap) error {
	data, err := yaml.Marshal(sm)
	if err != nil {
		return fmt.Errorf("encoding source map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing source map: %w", err)
	}
	return nil
}

// FindSourceLine resolves a generated line to an estimated authored
// line by locating the containing range and interpolating linearly
// inside it.
func (m *ScriptMap) FindSourceLine(genLine int) (int, bool) {
	for _, r := range m.Lines {
		if genLine < r.GenStart || genLine > r.GenEnd {
			continue
		}
		genSpan := r.GenEnd - r.GenStart
		srcSpan := r.SrcEnd - r.SrcStart
		if genSpan <= 0 || srcSpan <= 0 {
			return r.SrcStart, true
		}
		offset := (genLine - r.GenStart) * srcSpan / genSpan
		return r.SrcStart + offset, true
	}
	return 0, false
}

// RestoreName maps a generated identifier back to the authored one. If
// the name table has no entry, the renamer's prefixes and identifier
// suffix are stripped mechanically.
func (m *ScriptMap) RestoreName(gen string) string {
	if m.Names != nil {
		if orig, ok := m.Names[gen]; ok {
			return orig
		}
	}
	name := gen
	switch {
	case strings.HasPrefix(name, "pv_"):
		name = name[len("pv_"):]
	case strings.HasPrefix(name, "fn_"):
		name = name[len("fn_"):]
	case strings.HasPrefix(name, "rec_"):
		name = name[len("rec_"):]
	}
	return name
}

// ConvertMessage rewrites generated identifiers appearing in a
// diagnostic message back to their authored names, whole-word only.
func (m *ScriptMap) ConvertMessage(msg string) string {
	if len(m.Names) == 0 {
		return msg
	}
	return identRe.ReplaceAllStringFunc(msg, func(word string) string {
		if orig, ok := m.Names[word]; ok {
			return orig
		}
		return word
	})
}

var identRe = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
