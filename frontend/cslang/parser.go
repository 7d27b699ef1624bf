package cslang

import (
	"strconv"
	"strings"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/types"
)

// Parser is the C#-subset front-end.
type Parser struct {
	UserModules map[string]bool
}

// SetUserModules installs the user-module set from the project pre-pass.
func (pp *Parser) SetUserModules(mods map[string]bool) {
	pp.UserModules = mods
}

func init() {
	frontend.Register("cs", &Parser{})
}

// moduleAliases maps surface static classes onto host modules.
var moduleAliases = map[string]string{
	"Math":    "math",
	"Console": "log",
	"Scene":   "scene",
	"Input":   "input",
	"Time":    "time",
	"Str":     "str",
	"Log":     "log",
}

// consoleFuncs folds Console methods onto the log module.
var consoleFuncs = map[string]string{
	"WriteLine": "info",
	"Write":     "info",
	"Warn":      "warn",
	"Error":     "error",
}

// ParseScript parses a C#-subset source file. A regular class produces
// an entity script; a static class produces a module named after the
// class, lowercased.
func (pp *Parser) ParseScript(src []byte, filename string) (*ast.Script, error) {
	toks, err := newLexer(string(src)).tokens()
	if err != nil {
		return nil, &frontend.ParseError{File: filename, Line: 1, Col: 1, Msg: err.Error()}
	}
	p := &parser{
		toks:    toks,
		file:    filename,
		modules: pp.UserModules,
		script: &ast.Script{
			SourceFile: filename,
			Language:   "cs",
			Attributes: make(map[string][]string),
		},
	}
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	if p.script.Name == "" {
		return nil, &frontend.ParseError{File: filename, Line: 1, Col: 1, Msg: "no class declaration found"}
	}
	p.rewriteSelfCalls()
	return p.script, nil
}

type parser struct {
	toks    []token
	i       int
	file    string
	script  *ast.Script
	modules map[string]bool
}

func (p *parser) cur() token { return p.toks[p.i] }

func (p *parser) peek() token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) at(kind tokKind) bool { return p.cur().kind == kind }

func (p *parser) atKw(kw string) bool {
	return p.cur().kind == tokIdent && p.cur().text == kw
}

func (p *parser) errf(msg string) error {
	t := p.cur()
	return &frontend.ParseError{File: p.file, Line: t.line, Col: t.col, Msg: msg, Tok: t.String()}
}

func (p *parser) expect(kind tokKind, what string) (token, error) {
	if !p.at(kind) {
		return token{}, p.errf("expected " + what)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent(what string) (token, error) {
	if !p.at(tokIdent) {
		return token{}, p.errf("expected " + what)
	}
	return p.advance(), nil
}

func (p *parser) eat(kind tokKind) bool {
	if p.at(kind) {
		p.advance()
		return true
	}
	return false
}

// --- File level ---

func (p *parser) parseFile() error {
	for !p.at(tokEOF) {
		switch {
		case p.atKw("using"):
			for !p.at(tokSemicolon) && !p.at(tokEOF) {
				p.advance()
			}
			p.eat(tokSemicolon)
		case p.atKw("namespace"):
			p.advance()
			for p.at(tokIdent) || p.at(tokDot) {
				p.advance()
			}
			// both file-scoped (;) and block namespaces are accepted; a
			// block namespace simply opens a brace we ignore
			p.eat(tokSemicolon)
			p.eat(tokLBrace)
		case p.at(tokRBrace):
			p.advance() // closing a block namespace
		default:
			if err := p.parseTopDecl(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) parseTopDecl() error {
	attrs, err := p.parseAttributes()
	if err != nil {
		return err
	}
	static := false
	for p.atKw("public") || p.atKw("internal") || p.atKw("static") || p.atKw("sealed") {
		if p.atKw("static") {
			static = true
		}
		p.advance()
	}
	switch {
	case p.atKw("class"):
		return p.parseClass(static, attrs)
	case p.atKw("struct"):
		return p.parseStruct()
	}
	return p.errf("expected class or struct declaration")
}

func (p *parser) parseClass(static bool, _ []string) error {
	p.advance() // class
	name, err := p.expectIdent("class name")
	if err != nil {
		return err
	}
	if p.script.Name != "" {
		return p.errf("only one class per file")
	}
	if static {
		p.script.IsModule = true
		p.script.Name = strings.ToLower(name.text)
	} else {
		p.script.Name = name.text
		if _, err := p.expect(tokColon, "':' and a base entity kind"); err != nil {
			return err
		}
		base, err := p.expectIdent("base entity kind")
		if err != nil {
			return err
		}
		p.script.NodeType = base.text
	}

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		if err := p.parseMember(); err != nil {
			return err
		}
	}
	_, err = p.expect(tokRBrace, "'}'")
	return err
}

// parseAttributes parses zero or more bracketed attribute lists.
// Attribute names are folded to lowercase so [Expose] and paw's @expose
// read the same downstream.
func (p *parser) parseAttributes() ([]string, error) {
	var attrs []string
	for p.at(tokLBracket) {
		p.advance()
		for {
			name, err := p.expectIdent("attribute name")
			if err != nil {
				return nil, err
			}
			attr := strings.ToLower(name.text)
			if p.at(tokLParen) {
				p.advance()
				var args []string
				for !p.at(tokRParen) && !p.at(tokEOF) {
					args = append(args, p.advance().String())
					p.eat(tokComma)
				}
				if _, err := p.expect(tokRParen, "')'"); err != nil {
					return nil, err
				}
				attr += "(" + strings.Join(args, ",") + ")"
			}
			attrs = append(attrs, attr)
			if !p.eat(tokComma) {
				break
			}
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func (p *parser) parseMember() error {
	attrs, err := p.parseAttributes()
	if err != nil {
		return err
	}
	public := false
	for p.atKw("public") || p.atKw("private") || p.atKw("protected") || p.atKw("static") || p.atKw("readonly") {
		if p.atKw("public") {
			public = true
		}
		p.advance()
	}

	t, err := p.parseType()
	if err != nil {
		return err
	}
	name, err := p.expectIdent("member name")
	if err != nil {
		return err
	}

	if p.at(tokLParen) {
		fn, err := p.parseMethod(name, t, attrs)
		if err != nil {
			return err
		}
		p.script.Functions = append(p.script.Functions, fn)
		if len(attrs) > 0 {
			p.script.Attributes[fn.Name+"()"] = attrs
		}
		return nil
	}

	v := &ast.Variable{
		Name:       name.text,
		Type:       &t,
		Public:     public,
		Attributes: attrs,
		Line:       name.line,
	}
	for _, a := range attrs {
		if a == "expose" || strings.HasPrefix(a, "expose(") {
			v.Exposed = true
		}
	}
	if p.eat(tokAssign) {
		start := p.cur()
		x, err := p.parseExpr(0)
		if err != nil {
			return err
		}
		v.Init = &ast.TypedExpr{
			X:        x,
			Inferred: frontend.Infer(x, p.script.NodeType),
			Span:     ast.Span{Line: start.line, ColStart: start.col, ColEnd: p.cur().col},
		}
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	p.script.Variables = append(p.script.Variables, v)
	if len(attrs) > 0 {
		p.script.Attributes[v.Name] = attrs
	}
	return nil
}

// lifecycleNames folds C# method names onto the canonical hook names.
var lifecycleNames = map[string]string{
	"Init":        "init",
	"Update":      "update",
	"FixedUpdate": "fixed_update",
	"Draw":        "draw",
}

func (p *parser) parseMethod(name token, ret types.Type, attrs []string) (*ast.Function, error) {
	fn := &ast.Function{
		Name:       name.text,
		Attributes: attrs,
		Return:     ret,
		Line:       name.line,
	}
	if canonical, ok := lifecycleNames[name.text]; ok {
		if p.script.IsModule {
			return nil, p.errf("lifecycle hooks require an entity script")
		}
		fn.Name = canonical
		fn.IsLifecycle = true
	} else if sig, ok := signalName(name.text); ok {
		fn.Name = "on_" + sig
		fn.SignalName = sig
	}

	if err := p.parseParams(fn); err != nil {
		return nil, err
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.EndLine = end
	return fn, nil
}

// signalName recognizes OnSomeSignal methods and returns the
// snake_case signal name.
func signalName(method string) (string, bool) {
	if len(method) < 3 || !strings.HasPrefix(method, "On") {
		return "", false
	}
	c := method[2]
	if c < 'A' || c > 'Z' {
		return "", false
	}
	return camelToSnake(method[2:]), true
}

func camelToSnake(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteByte(c - 'A' + 'a')
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (p *parser) parseParams(fn *ast.Function) error {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return err
	}
	for !p.at(tokRParen) {
		t, err := p.parseType()
		if err != nil {
			return err
		}
		name, err := p.expectIdent("parameter name")
		if err != nil {
			return err
		}
		fn.Params = append(fn.Params, ast.Param{Name: name.text, Type: t})
		if !p.eat(tokComma) {
			break
		}
	}
	_, err := p.expect(tokRParen, "')'")
	return err
}

func (p *parser) parseStruct() error {
	p.advance() // struct
	name, err := p.expectIdent("struct name")
	if err != nil {
		return err
	}
	rec := &ast.RecordDef{Name: name.text}
	if p.eat(tokColon) {
		base, err := p.expectIdent("base struct name")
		if err != nil {
			return err
		}
		rec.Base = base.text
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		for p.atKw("public") || p.atKw("private") {
			p.advance()
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		fname, err := p.expectIdent("field name")
		if err != nil {
			return err
		}
		rec.Fields = append(rec.Fields, ast.Field{Name: fname.text, Type: t})
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return err
		}
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return err
	}
	p.script.Records = append(p.script.Records, rec)
	return nil
}

// --- Types ---

// typeNames maps C# type names onto the shared type system.
var typeNames = map[string]string{
	"sbyte":      "i8",
	"short":      "i16",
	"int":        "i32",
	"long":       "i64",
	"byte":       "u8",
	"ushort":     "u16",
	"uint":       "u32",
	"ulong":      "u64",
	"float":      "f32",
	"double":     "f64",
	"decimal":    "decimal",
	"BigInteger": "bigint",
	"bool":       "bool",
	"string":     "str",
	"object":     "any",
	"void":       "void",
	"var":        "", // handled by the caller
}

func isTypeStart(t token) bool { return t.kind == tokIdent && t.text != "var" }

func (p *parser) parseType() (types.Type, error) {
	var t types.Type
	name, err := p.expectIdent("type")
	if err != nil {
		return t, err
	}

	switch name.text {
	case "List":
		if _, err := p.expect(tokLt, "'<'"); err != nil {
			return t, err
		}
		elem, err := p.parseType()
		if err != nil {
			return t, err
		}
		if _, err := p.expect(tokGt, "'>'"); err != nil {
			return t, err
		}
		t = types.Array(elem)
	case "Dictionary":
		if _, err := p.expect(tokLt, "'<'"); err != nil {
			return t, err
		}
		key, err := p.parseType()
		if err != nil {
			return t, err
		}
		if _, err := p.expect(tokComma, "','"); err != nil {
			return t, err
		}
		val, err := p.parseType()
		if err != nil {
			return t, err
		}
		if _, err := p.expect(tokGt, "'>'"); err != nil {
			return t, err
		}
		t = types.Map(key, val)
	default:
		mapped := name.text
		if m, ok := typeNames[name.text]; ok {
			mapped = m
		}
		parsed, err := types.Parse(mapped)
		if err != nil {
			return t, p.errf(err.Error())
		}
		t = parsed
	}

	for {
		switch {
		case p.at(tokLBracket) && p.peek().kind == tokRBracket:
			p.advance()
			p.advance()
			t = types.Array(t)
		case p.at(tokQuestion):
			p.advance()
			t = types.Optional(t)
		default:
			return t, nil
		}
	}
}

// --- Statements ---

func (p *parser) parseBlock() ([]ast.Stmt, int, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, 0, err
	}
	var stmts []ast.Stmt
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, 0, err
		}
		stmts = append(stmts, s)
	}
	end, err := p.expect(tokRBrace, "'}'")
	if err != nil {
		return nil, 0, err
	}
	return stmts, end.line, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	line := p.cur().line
	base := ast.BaseStmt{SourceLine: line, EndLine: line}

	switch {
	case p.atKw("var"):
		p.advance()
		name, err := p.expectIdent("variable name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAssign, "'=' after var declaration"); err != nil {
			return nil, err
		}
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.VarDeclStmt{BaseStmt: base, Name: name.text, Init: x}, nil

	case p.atKw("return"):
		p.advance()
		st := &ast.ReturnStmt{BaseStmt: base}
		if !p.at(tokSemicolon) {
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			st.Value = x
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return st, nil

	case p.atKw("if"):
		return p.parseIf()

	case p.atKw("for"):
		return p.parseFor()

	case p.atKw("foreach"):
		return p.parseForeach()
	}

	// Speculatively parse "Type name = expr;" declarations; anything
	// that does not fit falls back to an expression statement.
	if isTypeStart(p.cur()) {
		save := p.i
		if t, err := p.parseType(); err == nil && p.at(tokIdent) && p.peek().kind == tokAssign {
			name := p.advance()
			p.advance() // =
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokSemicolon, "';'"); err != nil {
				return nil, err
			}
			return &ast.VarDeclStmt{BaseStmt: base, Name: name.text, DeclType: &t, Init: x}, nil
		}
		p.i = save
	}

	lhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	st, err := p.finishAssign(base, lhs)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *parser) finishAssign(base ast.BaseStmt, lhs ast.Expr) (ast.Stmt, error) {
	var op string
	switch p.cur().kind {
	case tokAssign:
		op = "="
	case tokPlusEq:
		op = "+"
	case tokMinusEq:
		op = "-"
	case tokStarEq:
		op = "*"
	case tokSlashEq:
		op = "/"
	case tokInc, tokDec:
		binOp := "+"
		if p.cur().kind == tokDec {
			binOp = "-"
		}
		p.advance()
		return p.buildAssign(base, lhs, binOp, &ast.IntLit{Value: 1, Text: "1"})
	default:
		return &ast.ExprStmt{BaseStmt: base, X: lhs}, nil
	}
	p.advance()
	rhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if op == "=" {
		switch target := lhs.(type) {
		case *ast.Ident:
			return &ast.AssignStmt{BaseStmt: base, Name: target.Name, Value: rhs}, nil
		case *ast.Member:
			return &ast.MemberAssignStmt{BaseStmt: base, Object: target.Object, Member: target.Name, Value: rhs}, nil
		case *ast.Index:
			return &ast.IndexAssignStmt{BaseStmt: base, Object: target.Object, Index: target.Key, Value: rhs}, nil
		}
		return nil, p.errf("invalid assignment target")
	}
	return p.buildAssign(base, lhs, op, rhs)
}

func (p *parser) buildAssign(base ast.BaseStmt, lhs ast.Expr, op string, rhs ast.Expr) (ast.Stmt, error) {
	switch target := lhs.(type) {
	case *ast.Ident:
		return &ast.AssignOpStmt{BaseStmt: base, Name: target.Name, Op: op, Value: rhs}, nil
	case *ast.Member:
		value := &ast.Binary{Op: op, Left: &ast.Member{Object: target.Object, Name: target.Name}, Right: rhs}
		return &ast.MemberAssignStmt{BaseStmt: base, Object: target.Object, Member: target.Name, Value: value}, nil
	case *ast.Index:
		value := &ast.Binary{Op: op, Left: &ast.Index{Object: target.Object, Key: target.Key}, Right: rhs}
		return &ast.IndexAssignStmt{BaseStmt: base, Object: target.Object, Index: target.Key, Value: value}, nil
	}
	return nil, p.errf("invalid assignment target")
}

func (p *parser) parseIf() (ast.Stmt, error) {
	line := p.cur().line
	p.advance() // if
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	then, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	st := &ast.IfStmt{
		BaseStmt: ast.BaseStmt{SourceLine: line, EndLine: end},
		Cond:     cond,
		Then:     then,
	}
	for p.atKw("else") {
		p.advance()
		if p.atKw("if") {
			p.advance()
			if _, err := p.expect(tokLParen, "'('"); err != nil {
				return nil, err
			}
			c, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
			body, e2, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			st.ElseIfs = append(st.ElseIfs, ast.ElseIf{Cond: c, Body: body})
			st.EndLine = e2
			continue
		}
		body, e2, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		st.Else = body
		st.EndLine = e2
		break
	}
	return st, nil
}

func (p *parser) parseFor() (ast.Stmt, error) {
	line := p.cur().line
	p.advance() // for
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	initStmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}
	postLhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	post, err := p.finishAssign(ast.BaseStmt{SourceLine: line, EndLine: line}, postLhs)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{
		BaseStmt: ast.BaseStmt{SourceLine: line, EndLine: end},
		Init:     initStmt,
		Cond:     cond,
		Post:     post,
		Body:     body,
	}, nil
}

func (p *parser) parseForeach() (ast.Stmt, error) {
	line := p.cur().line
	p.advance() // foreach
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	if p.atKw("var") {
		p.advance()
	} else if _, err := p.parseType(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("loop variable")
	if err != nil {
		return nil, err
	}
	if !p.atKw("in") {
		return nil, p.errf("expected 'in'")
	}
	p.advance()
	iter, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForInStmt{
		BaseStmt: ast.BaseStmt{SourceLine: line, EndLine: end},
		Var:      name.text,
		Iter:     iter,
		Body:     body,
	}, nil
}

// --- Expressions ---

func (p *parser) binaryPrec() (int, string) {
	switch p.cur().kind {
	case tokOrOr:
		return 1, "||"
	case tokAndAnd:
		return 2, "&&"
	case tokEq:
		return 3, "=="
	case tokNeq:
		return 3, "!="
	case tokLt:
		return 3, "<"
	case tokGt:
		return 3, ">"
	case tokLe:
		return 3, "<="
	case tokGe:
		return 3, ">="
	case tokPlus:
		return 5, "+"
	case tokMinus:
		return 5, "-"
	case tokStar:
		return 6, "*"
	case tokSlash:
		return 6, "/"
	case tokPercent:
		return 6, "%"
	}
	return 0, ""
}

func (p *parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, op := p.binaryPrec()
		if prec == 0 || prec <= minPrec {
			break
		}
		p.advance()
		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	switch p.cur().kind {
	case tokMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "-", X: x}, nil
	case tokNot:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "!", X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(tokDot):
			p.advance()
			name, err := p.expectIdent("member name after '.'")
			if err != nil {
				return nil, err
			}
			if p.at(tokLParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				call, err := p.resolveCall(x, name.text, args)
				if err != nil {
					return nil, err
				}
				x = call
			} else {
				x = &ast.Member{Object: x, Name: name.text}
			}
		case p.at(tokLBracket):
			p.advance()
			key, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			x = &ast.Index{Object: x, Key: key}
		default:
			return x, nil
		}
	}
}

// resolveCall classifies Obj.Name(args) against the host module
// registry (with surface aliases, PascalCase folded) and the user
// modules from the pre-pass.
func (p *parser) resolveCall(obj ast.Expr, name string, args []ast.Expr) (ast.Expr, error) {
	ident, isIdent := obj.(*ast.Ident)
	if !isIdent {
		return &ast.MethodCall{Object: obj, Name: name, Args: args}, nil
	}
	if mod, ok := moduleAliases[ident.Name]; ok {
		fn := camelToSnake(name)
		if mod == "log" {
			if folded, ok := consoleFuncs[name]; ok {
				fn = folded
			}
		}
		if _, ok := hostmod.LookupFunc(mod, fn); !ok {
			return nil, p.errf("module '" + ident.Name + "' has no function '" + name + "'")
		}
		return &ast.HostCall{Module: mod, Func: fn, Args: args}, nil
	}
	if lower := strings.ToLower(ident.Name); p.modules[lower] {
		p.addModuleUse(lower)
		return &ast.ModuleCall{Module: lower, Func: name, Args: args}, nil
	}
	return &ast.MethodCall{Object: obj, Name: name, Args: args}, nil
}

func (p *parser) addModuleUse(name string) {
	for _, m := range p.script.UsesModules {
		if m == name {
			return
		}
	}
	p.script.UsesModules = append(p.script.UsesModules, name)
}

func (p *parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.at(tokRParen) {
		a, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.eat(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, p.errf("bad integer literal")
		}
		return &ast.IntLit{Value: v, Text: t.text}, nil
	case tokFloat:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errf("bad float literal")
		}
		return &ast.FloatLit{Value: v, Text: t.text}, nil
	case tokString:
		p.advance()
		return &ast.StringLit{Value: t.text}, nil
	case tokLParen:
		// (Type)expr prefix cast, or a parenthesized expression
		if cast, ok, err := p.tryPrefixCast(); err != nil {
			return nil, err
		} else if ok {
			return cast, nil
		}
		p.advance()
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return &ast.BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return &ast.BoolLit{Value: false}, nil
		case "null":
			p.advance()
			return &ast.NilLit{}, nil
		case "this":
			p.advance()
			return &ast.SelfExpr{}, nil
		case "new":
			return p.parseNew()
		}
		p.advance()
		if p.at(tokLParen) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Name: t.text, Args: args}, nil
		}
		return &ast.Ident{Name: t.text}, nil
	}
	return nil, p.errf("unexpected token in expression")
}

// tryPrefixCast speculatively parses (Type)expr. The open paren is not
// consumed on failure.
func (p *parser) tryPrefixCast() (ast.Expr, bool, error) {
	save := p.i
	p.advance() // (
	if !p.at(tokIdent) {
		p.i = save
		return nil, false, nil
	}
	t, err := p.parseType()
	if err != nil || !p.at(tokRParen) {
		p.i = save
		return nil, false, nil
	}
	p.advance() // )
	next := p.cur()
	castable := next.kind == tokIdent || next.kind == tokInt || next.kind == tokFloat ||
		next.kind == tokString || next.kind == tokLParen
	if !castable {
		p.i = save
		return nil, false, nil
	}
	x, err := p.parsePostfix()
	if err != nil {
		return nil, false, err
	}
	return &ast.Cast{X: x, Target: t}, true, nil
}

// parseNew parses new Name { Field = value, ... } record construction,
// and empty List/Dictionary constructions as container literals.
func (p *parser) parseNew() (ast.Expr, error) {
	p.advance() // new
	name, err := p.expectIdent("type name after 'new'")
	if err != nil {
		return nil, err
	}
	switch name.text {
	case "List", "Dictionary":
		// type arguments carry no extra information here
		if p.eat(tokLt) {
			depth := 1
			for depth > 0 && !p.at(tokEOF) {
				switch p.cur().kind {
				case tokLt:
					depth++
				case tokGt:
					depth--
				}
				p.advance()
			}
		}
		if p.eat(tokLParen) {
			if _, err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
		}
		if name.text == "List" {
			return &ast.ArrayLit{}, nil
		}
		return &ast.MapLit{}, nil
	}

	rn := &ast.RecordNew{Record: name.text}
	if p.eat(tokLParen) {
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
	}
	if p.eat(tokLBrace) {
		for !p.at(tokRBrace) && !p.at(tokEOF) {
			fname, err := p.expectIdent("field name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokAssign, "'='"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			rn.Fields = append(rn.Fields, ast.FieldInit{Name: fname.text, Value: val})
			if !p.eat(tokComma) {
				break
			}
		}
		if _, err := p.expect(tokRBrace, "'}'"); err != nil {
			return nil, err
		}
	}
	return rn, nil
}

// rewriteSelfCalls converts this.Method(...) into bare calls when the
// method is script-local, so the call graph sees the edge.
func (p *parser) rewriteSelfCalls() {
	fns := p.script.FunctionNames()
	for _, f := range p.script.Functions {
		rewriteStmts(f.Body, fns)
	}
}

func rewriteStmts(stmts []ast.Stmt, fns map[string]bool) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.ExprStmt:
			st.X = rewriteExpr(st.X, fns)
		case *ast.VarDeclStmt:
			st.Init = rewriteExpr(st.Init, fns)
		case *ast.AssignStmt:
			st.Value = rewriteExpr(st.Value, fns)
		case *ast.AssignOpStmt:
			st.Value = rewriteExpr(st.Value, fns)
		case *ast.MemberAssignStmt:
			st.Object = rewriteExpr(st.Object, fns)
			st.Value = rewriteExpr(st.Value, fns)
		case *ast.IndexAssignStmt:
			st.Object = rewriteExpr(st.Object, fns)
			st.Index = rewriteExpr(st.Index, fns)
			st.Value = rewriteExpr(st.Value, fns)
		case *ast.IfStmt:
			st.Cond = rewriteExpr(st.Cond, fns)
			rewriteStmts(st.Then, fns)
			for i := range st.ElseIfs {
				st.ElseIfs[i].Cond = rewriteExpr(st.ElseIfs[i].Cond, fns)
				rewriteStmts(st.ElseIfs[i].Body, fns)
			}
			rewriteStmts(st.Else, fns)
		case *ast.ForInStmt:
			st.Iter = rewriteExpr(st.Iter, fns)
			rewriteStmts(st.Body, fns)
		case *ast.ForStmt:
			if st.Init != nil {
				rewriteStmts([]ast.Stmt{st.Init}, fns)
			}
			st.Cond = rewriteExpr(st.Cond, fns)
			if st.Post != nil {
				rewriteStmts([]ast.Stmt{st.Post}, fns)
			}
			rewriteStmts(st.Body, fns)
		case *ast.ReturnStmt:
			st.Value = rewriteExpr(st.Value, fns)
		}
	}
}

func rewriteExpr(e ast.Expr, fns map[string]bool) ast.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ast.MethodCall:
		x.Object = rewriteExpr(x.Object, fns)
		for i := range x.Args {
			x.Args[i] = rewriteExpr(x.Args[i], fns)
		}
		if _, isSelf := x.Object.(*ast.SelfExpr); isSelf && fns[x.Name] {
			return &ast.Call{Name: x.Name, Args: x.Args}
		}
		return x
	case *ast.Binary:
		x.Left = rewriteExpr(x.Left, fns)
		x.Right = rewriteExpr(x.Right, fns)
	case *ast.Unary:
		x.X = rewriteExpr(x.X, fns)
	case *ast.Member:
		x.Object = rewriteExpr(x.Object, fns)
	case *ast.Call:
		for i := range x.Args {
			x.Args[i] = rewriteExpr(x.Args[i], fns)
		}
	case *ast.HostCall:
		for i := range x.Args {
			x.Args[i] = rewriteExpr(x.Args[i], fns)
		}
	case *ast.ModuleCall:
		for i := range x.Args {
			x.Args[i] = rewriteExpr(x.Args[i], fns)
		}
	case *ast.Cast:
		x.X = rewriteExpr(x.X, fns)
	case *ast.Index:
		x.Object = rewriteExpr(x.Object, fns)
		x.Key = rewriteExpr(x.Key, fns)
	case *ast.ArrayLit:
		for i := range x.Elems {
			x.Elems[i] = rewriteExpr(x.Elems[i], fns)
		}
	case *ast.MapLit:
		for i := range x.Pairs {
			x.Pairs[i].Value = rewriteExpr(x.Pairs[i].Value, fns)
		}
	case *ast.RecordNew:
		for i := range x.Fields {
			x.Fields[i].Value = rewriteExpr(x.Fields[i].Value, fns)
		}
	}
	return e
}
