package codegen

import (
	"fmt"
	"strings"
)

// PrintGoFile serializes a GoFile tree to formatted Go source.
func PrintGoFile(f *GoFile) string {
	p := &goPrinter{}
	p.printFile(f)
	return p.sb.String()
}

type goPrinter struct {
	sb     strings.Builder
	indent int
}

func (p *goPrinter) line(format string, args ...any) {
	p.writeIndent()
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *goPrinter) blank() {
	p.sb.WriteByte('\n')
}

func (p *goPrinter) writeIndent() {
	for range p.indent {
		p.sb.WriteByte('\t')
	}
}

func (p *goPrinter) printFile(f *GoFile) {
	p.line("package %s", f.Package)
	p.blank()

	if len(f.Imports) > 0 {
		p.line("import (")
		p.indent++
		for _, imp := range f.Imports {
			if imp.Alias != "" {
				p.line("%s %q", imp.Alias, imp.Path)
			} else {
				p.line("%q", imp.Path)
			}
		}
		p.indent--
		p.line(")")
		p.blank()
	}

	for _, d := range f.Decls {
		p.printDecl(d)
	}
}

func (p *goPrinter) printDecl(d GoDecl) {
	switch dt := d.(type) {
	case GoStructDecl:
		p.line("type %s struct {", dt.Name)
		p.indent++
		for _, fld := range dt.Fields {
			if fld.Name == "" {
				p.line("%s", fld.Type)
			} else {
				p.line("%s %s", fld.Name, fld.Type)
			}
		}
		p.indent--
		p.line("}")
		p.blank()
	case GoVarDecl:
		if dt.Value != nil {
			if dt.Type != "" {
				p.line("var %s %s = %s", dt.Name, dt.Type, p.exprStr(dt.Value))
			} else {
				p.line("var %s = %s", dt.Name, p.exprStr(dt.Value))
			}
		} else {
			p.line("var %s %s", dt.Name, dt.Type)
		}
		p.blank()
	case GoFuncDecl:
		sig := fmt.Sprintf("func %s(%s)", dt.Name, p.paramStr(dt.Params))
		if dt.Return != "" {
			sig += " " + dt.Return
		}
		p.printBraced(sig, dt.Body)
	case GoMethodDecl:
		sig := fmt.Sprintf("func (%s *%s) %s(%s)", dt.Recv, dt.RecvType, dt.Name, p.paramStr(dt.Params))
		if dt.Return != "" {
			sig += " " + dt.Return
		}
		p.printBraced(sig, dt.Body)
	case GoRawDecl:
		p.sb.WriteString(dt.Code)
	case GoBlankLine:
		p.blank()
	case GoComment:
		p.line("// %s", dt.Text)
	}
}

func (p *goPrinter) paramStr(params []GoParam) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = fmt.Sprintf("%s %s", param.Name, param.Type)
	}
	return strings.Join(parts, ", ")
}

func (p *goPrinter) printBraced(sig string, body []GoStmt) {
	p.line("%s {", sig)
	p.indent++
	for _, s := range body {
		p.printStmt(s)
	}
	p.indent--
	p.line("}")
	p.blank()
}

func (p *goPrinter) printStmt(s GoStmt) {
	switch st := s.(type) {
	case GoExprStmt:
		p.line("%s", p.exprStr(st.Expr))
	case GoAssignStmt:
		p.line("%s %s %s", st.Target, st.Op, p.exprStr(st.Value))
	case GoMultiAssignStmt:
		p.line("%s %s %s", strings.Join(st.Targets, ", "), st.Op, p.exprStr(st.Value))
	case GoReturnStmt:
		if st.Value != nil {
			p.line("return %s", p.exprStr(st.Value))
		} else {
			p.line("return")
		}
	case GoVarStmt:
		if st.Value != nil {
			p.line("var %s %s = %s", st.Name, st.Type, p.exprStr(st.Value))
		} else {
			p.line("var %s %s", st.Name, st.Type)
		}
	case GoIfStmt:
		p.printIf(st)
	case GoForStmt:
		p.printFor(st)
	case GoForRangeStmt:
		p.printForRange(st)
	case GoDeferStmt:
		p.line("defer %s", p.exprStr(st.Call))
	case GoBlankLine:
		p.blank()
	case GoComment:
		p.line("// %s", st.Text)
	case GoRawStmt:
		for _, ln := range strings.Split(strings.TrimRight(st.Code, "\n"), "\n") {
			if ln == "" {
				p.blank()
			} else {
				p.writeIndent()
				p.sb.WriteString(strings.TrimLeft(ln, "\t"))
				p.sb.WriteByte('\n')
			}
		}
	}
}

func (p *goPrinter) printIf(st GoIfStmt) {
	p.line("if %s {", p.exprStr(st.Cond))
	p.indent++
	for _, s := range st.Body {
		p.printStmt(s)
	}
	p.indent--
	for _, ei := range st.ElseIf {
		p.line("} else if %s {", p.exprStr(ei.Cond))
		p.indent++
		for _, s := range ei.Body {
			p.printStmt(s)
		}
		p.indent--
	}
	if len(st.Else) > 0 {
		p.line("} else {")
		p.indent++
		for _, s := range st.Else {
			p.printStmt(s)
		}
		p.indent--
	}
	p.line("}")
}

func (p *goPrinter) printFor(st GoForStmt) {
	if st.Init != "" {
		p.line("for %s; %s; %s {", st.Init, st.Cond, st.Post)
	} else if st.Cond != "" {
		p.line("for %s {", st.Cond)
	} else {
		p.line("for {")
	}
	p.indent++
	for _, s := range st.Body {
		p.printStmt(s)
	}
	p.indent--
	p.line("}")
}

func (p *goPrinter) printForRange(st GoForRangeStmt) {
	if st.Value != "" {
		p.line("for %s, %s := range %s {", st.Key, st.Value, p.exprStr(st.Collection))
	} else {
		p.line("for %s := range %s {", st.Key, p.exprStr(st.Collection))
	}
	p.indent++
	for _, s := range st.Body {
		p.printStmt(s)
	}
	p.indent--
	p.line("}")
}

func (p *goPrinter) exprStr(e GoExpr) string {
	switch ex := e.(type) {
	case GoRawExpr:
		return ex.Code
	case GoIdentExpr:
		return ex.Name
	case GoIntLit:
		return ex.Value
	case GoFloatLit:
		return ex.Value
	case GoStringLit:
		return fmt.Sprintf("%q", ex.Value)
	case GoBoolLit:
		if ex.Value {
			return "true"
		}
		return "false"
	case GoNilExpr:
		return "nil"
	case GoBinaryExpr:
		return fmt.Sprintf("%s %s %s", p.exprStr(ex.Left), ex.Op, p.exprStr(ex.Right))
	case GoUnaryExpr:
		return fmt.Sprintf("%s%s", ex.Op, p.exprStr(ex.Operand))
	case GoCastExpr:
		return fmt.Sprintf("%s(%s)", ex.Type, p.exprStr(ex.Value))
	case GoCallExpr:
		return fmt.Sprintf("%s(%s)", ex.Func, p.argStr(ex.Args))
	case GoMethodCallExpr:
		return fmt.Sprintf("%s.%s(%s)", p.exprStr(ex.Object), ex.Method, p.argStr(ex.Args))
	case GoDotExpr:
		return fmt.Sprintf("%s.%s", p.exprStr(ex.Object), ex.Field)
	case GoSliceLit:
		return fmt.Sprintf("%s{%s}", ex.Type, p.argStr(ex.Elements))
	case GoMapLit:
		return p.mapLitStr(ex)
	case GoCompositeLit:
		parts := make([]string, len(ex.Fields))
		for i, f := range ex.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, p.exprStr(f.Value))
		}
		return fmt.Sprintf("%s{%s}", ex.Type, strings.Join(parts, ", "))
	case GoFuncLit:
		return p.funcLitStr(ex.Params, ex.Return, ex.Body, nil, false)
	case GoIIFEExpr:
		return p.funcLitStr(nil, ex.Return, ex.Body, ex.Result, true)
	case GoIndexExpr:
		return fmt.Sprintf("%s[%s]", p.exprStr(ex.Object), p.exprStr(ex.Index))
	case GoParenExpr:
		return fmt.Sprintf("(%s)", p.exprStr(ex.Inner))
	default:
		return "<unknown expr>"
	}
}

func (p *goPrinter) argStr(args []GoExpr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = p.exprStr(a)
	}
	return strings.Join(parts, ", ")
}

// mapLitStr prints hash-keyed dispatch tables one entry per line so the
// generated file diffs cleanly between builds.
func (p *goPrinter) mapLitStr(ex GoMapLit) string {
	if len(ex.Pairs) == 0 {
		return fmt.Sprintf("map[%s]%s{}", ex.KeyType, ex.ValType)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "map[%s]%s{\n", ex.KeyType, ex.ValType)
	inner := &goPrinter{indent: p.indent + 1}
	for _, pair := range ex.Pairs {
		inner.line("%s: %s,", inner.exprStr(pair.Key), inner.exprStr(pair.Value))
	}
	sb.WriteString(inner.sb.String())
	sb.WriteString(strings.Repeat("\t", p.indent))
	sb.WriteString("}")
	return sb.String()
}

func (p *goPrinter) funcLitStr(params []GoParam, ret string, body []GoStmt, result GoExpr, call bool) string {
	var sb strings.Builder
	sig := fmt.Sprintf("func(%s)", p.paramStr(params))
	if ret != "" {
		sig += " " + ret
	}
	fmt.Fprintf(&sb, "%s {\n", sig)
	inner := &goPrinter{indent: p.indent + 1}
	for _, s := range body {
		inner.printStmt(s)
	}
	if result != nil {
		inner.line("return %s", inner.exprStr(result))
	}
	sb.WriteString(inner.sb.String())
	sb.WriteString(strings.Repeat("\t", p.indent))
	sb.WriteString("}")
	if call {
		sb.WriteString("()")
	}
	return sb.String()
}
