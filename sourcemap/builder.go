package sourcemap

import (
	"regexp"
	"strings"
)

// Builder accumulates one script's map during code generation.
type Builder struct {
	m       ScriptMap
	open    bool
	curSrc  int
	curGen  int
}

// NewBuilder starts a map for one script.
func NewBuilder(src, lang string) *Builder {
	return &Builder{m: ScriptMap{Src: src, Lang: lang, Names: make(map[string]string)}}
}

// StartRange opens a mapping at the given authored and generated lines.
// An already-open range is closed first at the preceding line pair.
func (b *Builder) StartRange(srcLine, genLine int) {
	if b.open {
		b.EndRange(srcLine-1, genLine-1)
	}
	b.open = true
	b.curSrc = srcLine
	b.curGen = genLine
}

// EndRange closes the open mapping at the given end lines.
func (b *Builder) EndRange(srcEnd, genEnd int) {
	if !b.open {
		return
	}
	b.open = false
	if srcEnd < b.curSrc {
		srcEnd = b.curSrc
	}
	if genEnd < b.curGen {
		genEnd = b.curGen
	}
	b.m.Lines = append(b.m.Lines, LineRange{
		SrcStart: b.curSrc,
		SrcEnd:   srcEnd,
		GenStart: b.curGen,
		GenEnd:   genEnd,
	})
}

// AddLines records a complete mapping directly.
func (b *Builder) AddLines(srcStart, srcEnd, genStart, genEnd int) {
	b.m.Lines = append(b.m.Lines, LineRange{
		SrcStart: srcStart,
		SrcEnd:   srcEnd,
		GenStart: genStart,
		GenEnd:   genEnd,
	})
}

// Name records one generated-to-authored identifier pair.
func (b *Builder) Name(gen, orig string) {
	b.m.Names[gen] = orig
}

// FuncSpan is a function's authored line extent.
type FuncSpan struct {
	SrcStart int
	SrcEnd   int
}

var (
	methodRe = regexp.MustCompile(`^func \([A-Za-z0-9_]+ \*[A-Za-z0-9_]+\) ([A-Za-z0-9_]+)\(`)
	funcRe   = regexp.MustCompile(`^func ([A-Za-z0-9_]+)\(`)
)

// ApproximateFromSource fills in ranges for functions that produced no
// explicit spans by scanning the generated source for method and
// function declarations and brace-counting to their closing line. spans
// is keyed by generated method or function name.
func (b *Builder) ApproximateFromSource(goSrc string, spans map[string]FuncSpan) {
	mapped := make(map[int]bool)
	for _, r := range b.m.Lines {
		for g := r.GenStart; g <= r.GenEnd; g++ {
			mapped[g] = true
		}
	}

	lines := strings.Split(goSrc, "\n")
	for i := 0; i < len(lines); i++ {
		match := methodRe.FindStringSubmatch(lines[i])
		if match == nil {
			match = funcRe.FindStringSubmatch(lines[i])
		}
		if match == nil {
			continue
		}
		span, ok := spans[match[1]]
		if !ok {
			continue
		}
		genStart := i + 1 // line numbers are 1-based
		if mapped[genStart] {
			continue
		}
		depth := 0
		genEnd := genStart
		for j := i; j < len(lines); j++ {
			depth += strings.Count(lines[j], "{") - strings.Count(lines[j], "}")
			if j > i && depth <= 0 {
				genEnd = j + 1
				break
			}
		}
		b.AddLines(span.SrcStart, span.SrcEnd, genStart, genEnd)
	}
}

// Map finalizes and returns the script map. An open range is closed at
// its start lines.
func (b *Builder) Map() *ScriptMap {
	if b.open {
		b.EndRange(b.curSrc, b.curGen)
	}
	m := b.m
	return &m
}
