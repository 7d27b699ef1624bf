package tslang

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/types"
)

// Parser is the TypeScript-subset front-end.
type Parser struct {
	UserModules map[string]bool
}

// SetUserModules installs the user-module set from the project pre-pass.
func (pp *Parser) SetUserModules(mods map[string]bool) {
	pp.UserModules = mods
}

func init() {
	frontend.Register("ts", &Parser{})
}

// moduleAliases maps surface global objects onto host modules.
var moduleAliases = map[string]string{
	"Math":    "math",
	"console": "log",
	"scene":   "scene",
	"input":   "input",
	"time":    "time",
	"str":     "str",
	"log":     "log",
	"math":    "math",
}

// consoleFuncs folds console methods onto the log module.
var consoleFuncs = map[string]string{
	"log":   "info",
	"info":  "info",
	"warn":  "warn",
	"error": "error",
}

// ParseScript parses a TypeScript-subset source file. A file declaring
// a class produces an entity script; a file of exported functions
// produces a module named after the file stem.
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
			Language:   "ts",
			Attributes: make(map[string][]string),
		},
	}
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	if p.script.Name == "" && !p.sawClass {
		p.script.IsModule = true
		stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		p.script.Name = stem
	}
	p.rewriteSelfCalls()
	return p.script, nil
}

type parser struct {
	toks     []token
	i        int
	file     string
	script   *ast.Script
	modules  map[string]bool
	sawClass bool
}

func (p *parser) cur() token { return p.toks[p.i] }

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
		// Skip import statements entirely.
		if p.atKw("import") {
			for !p.at(tokSemicolon) && !p.at(tokEOF) {
				p.advance()
			}
			p.eat(tokSemicolon)
			continue
		}
		if _, err := p.parseDecorators(); err != nil { // class-level decorators are ignored
			return err
		}
		if p.atKw("export") {
			p.advance()
			if p.atKw("default") {
				p.advance()
			}
		}
		switch {
		case p.atKw("class"):
			if p.sawClass {
				return p.errf("only one class per file")
			}
			p.sawClass = true
			if err := p.parseClass(); err != nil {
				return err
			}
		case p.atKw("interface"):
			if err := p.parseInterface(); err != nil {
				return err
			}
		case p.atKw("function"):
			fn, err := p.parseFunctionDecl()
			if err != nil {
				return err
			}
			p.script.Functions = append(p.script.Functions, fn)
		case p.atKw("const"), p.atKw("let"):
			p.advance()
			v, err := p.parseTopLevelConst()
			if err != nil {
				return err
			}
			p.script.Variables = append(p.script.Variables, v)
		default:
			return p.errf("expected class, interface, or function declaration")
		}
	}
	return nil
}

func (p *parser) parseClass() error {
	p.advance() // class
	name, err := p.expectIdent("class name")
	if err != nil {
		return err
	}
	p.script.Name = name.text
	if err := p.kw("extends"); err != nil {
		return err
	}
	base, err := p.expectIdent("base entity kind")
	if err != nil {
		return err
	}
	p.script.NodeType = base.text

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		if err := p.parseClassMember(); err != nil {
			return err
		}
	}
	_, err = p.expect(tokRBrace, "'}'")
	return err
}

func (p *parser) kw(kw string) error {
	if !p.atKw(kw) {
		return p.errf("expected '" + kw + "'")
	}
	p.advance()
	return nil
}

func (p *parser) parseDecorators() ([]string, error) {
	var attrs []string
	for p.at(tokAt) {
		p.advance()
		name, err := p.expectIdent("decorator name")
		if err != nil {
			return nil, err
		}
		attr := name.text
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
	}
	return attrs, nil
}

func (p *parser) parseClassMember() error {
	attrs, err := p.parseDecorators()
	if err != nil {
		return err
	}

	public := false
	for p.atKw("public") || p.atKw("private") || p.atKw("protected") || p.atKw("readonly") || p.atKw("static") {
		if p.atKw("public") {
			public = true
		}
		p.advance()
	}

	name, err := p.expectIdent("member name")
	if err != nil {
		return err
	}

	if p.at(tokLParen) {
		fn, err := p.parseMethod(name, attrs)
		if err != nil {
			return err
		}
		p.script.Functions = append(p.script.Functions, fn)
		if len(attrs) > 0 {
			p.script.Attributes[fn.Name+"()"] = attrs
		}
		return nil
	}

	// Field declaration.
	v := &ast.Variable{
		Name:       name.text,
		Public:     public,
		Attributes: attrs,
		Line:       name.line,
	}
	for _, a := range attrs {
		if a == "expose" || strings.HasPrefix(a, "expose(") {
			v.Exposed = true
		}
	}
	if p.eat(tokColon) {
		t, err := p.parseType()
		if err != nil {
			return err
		}
		v.Type = &t
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
		if v.Type == nil {
			v.Type = v.Init.Inferred
		}
	}
	p.eat(tokSemicolon)
	p.script.Variables = append(p.script.Variables, v)
	if len(attrs) > 0 {
		p.script.Attributes[v.Name] = attrs
	}
	return nil
}

// lifecycleNames folds TypeScript method names onto the canonical hook
// names.
var lifecycleNames = map[string]string{
	"init":        "init",
	"update":      "update",
	"fixedUpdate": "fixed_update",
	"draw":        "draw",
}

func (p *parser) parseMethod(name token, attrs []string) (*ast.Function, error) {
	fn := &ast.Function{
		Name:       name.text,
		Attributes: attrs,
		Return:     types.Void(),
		Line:       name.line,
	}
	if canonical, ok := lifecycleNames[name.text]; ok {
		fn.Name = canonical
		fn.IsLifecycle = true
	} else if sig, ok := signalName(name.text); ok {
		fn.Name = "on_" + sig
		fn.SignalName = sig
	}

	if err := p.parseParams(fn); err != nil {
		return nil, err
	}
	if p.eat(tokColon) {
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fn.Return = ret
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.EndLine = end
	return fn, nil
}

// signalName recognizes onSomeSignal methods and returns the snake_case
// signal name.
func signalName(method string) (string, bool) {
	if len(method) < 3 || !strings.HasPrefix(method, "on") {
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
		name, err := p.expectIdent("parameter name")
		if err != nil {
			return err
		}
		if _, err := p.expect(tokColon, "':' after parameter name"); err != nil {
			return err
		}
		t, err := p.parseType()
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

func (p *parser) parseInterface() error {
	p.advance() // interface
	name, err := p.expectIdent("interface name")
	if err != nil {
		return err
	}
	rec := &ast.RecordDef{Name: name.text}
	if p.atKw("extends") {
		p.advance()
		base, err := p.expectIdent("base interface name")
		if err != nil {
			return err
		}
		rec.Base = base.text
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		fname, err := p.expectIdent("field name")
		if err != nil {
			return err
		}
		if _, err := p.expect(tokColon, "':' after field name"); err != nil {
			return err
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		rec.Fields = append(rec.Fields, ast.Field{Name: fname.text, Type: t})
		p.eat(tokSemicolon)
		p.eat(tokComma)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return err
	}
	p.script.Records = append(p.script.Records, rec)
	return nil
}

func (p *parser) parseFunctionDecl() (*ast.Function, error) {
	p.advance() // function
	name, err := p.expectIdent("function name")
	if err != nil {
		return nil, err
	}
	fn := &ast.Function{Name: name.text, Return: types.Void(), Line: name.line}
	if err := p.parseParams(fn); err != nil {
		return nil, err
	}
	if p.eat(tokColon) {
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fn.Return = ret
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.EndLine = end
	return fn, nil
}

func (p *parser) parseTopLevelConst() (*ast.Variable, error) {
	name, err := p.expectIdent("constant name")
	if err != nil {
		return nil, err
	}
	v := &ast.Variable{Name: name.text, Line: name.line}
	if p.eat(tokColon) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		v.Type = &t
	}
	if _, err := p.expect(tokAssign, "'=' in constant declaration"); err != nil {
		return nil, err
	}
	start := p.cur()
	x, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	v.Init = &ast.TypedExpr{
		X:        x,
		Inferred: frontend.Infer(x, p.script.NodeType),
		Span:     ast.Span{Line: start.line, ColStart: start.col, ColEnd: p.cur().col},
	}
	if v.Type == nil {
		v.Type = v.Init.Inferred
	}
	p.eat(tokSemicolon)
	return v, nil
}

// --- Types ---

// typeNames maps TypeScript type names onto the shared type system.
var typeNames = map[string]string{
	"number":  "f64",
	"string":  "str",
	"boolean": "bool",
	"bigint":  "bigint",
	"any":     "any",
	"void":    "void",
	"object":  "any",
}

func (p *parser) parseType() (types.Type, error) {
	var t types.Type
	name, err := p.expectIdent("type")
	if err != nil {
		return t, err
	}

	switch name.text {
	case "Array":
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
	case "Map":
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
		case p.at(tokLBracket):
			p.advance()
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return t, err
			}
			t = types.Array(t)
		case p.at(tokQuestion):
			p.advance()
			t = types.Optional(t)
		case p.at(tokPipe):
			// T | null folds to an optional
			p.advance()
			if !p.atKw("null") && !p.atKw("undefined") {
				return t, p.errf("union types beyond '| null' are not supported")
			}
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
	case p.atKw("let"), p.atKw("const"):
		p.advance()
		name, err := p.expectIdent("variable name")
		if err != nil {
			return nil, err
		}
		st := &ast.VarDeclStmt{BaseStmt: base, Name: name.text}
		if p.eat(tokColon) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			st.DeclType = &t
		}
		if p.eat(tokAssign) {
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			st.Init = x
		}
		if st.DeclType == nil && st.Init == nil {
			return nil, p.errf("variable needs a type or an initializer")
		}
		p.eat(tokSemicolon)
		return st, nil

	case p.atKw("return"):
		p.advance()
		st := &ast.ReturnStmt{BaseStmt: base}
		if !p.at(tokSemicolon) && !p.at(tokRBrace) {
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			st.Value = x
		}
		p.eat(tokSemicolon)
		return st, nil

	case p.atKw("if"):
		return p.parseIf()

	case p.atKw("for"):
		return p.parseFor()
	}

	lhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	st, err := p.finishAssign(base, lhs)
	if err != nil {
		return nil, err
	}
	p.eat(tokSemicolon)
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

	// for (const x of expr) { ... }
	if p.atKw("const") || p.atKw("let") {
		save := p.i
		p.advance()
		name, err := p.expectIdent("loop variable")
		if err != nil {
			return nil, err
		}
		if p.atKw("of") {
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
		p.i = save
	}

	// for (let i = 0; i < n; i++) { ... }
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
		case p.atKw("as"):
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			x = &ast.Cast{X: x, Target: t}
		default:
			return x, nil
		}
	}
}

// resolveCall classifies obj.name(args) against the host module
// registry (with surface aliases) and the user modules from the
// pre-pass.
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
	if p.modules[ident.Name] {
		p.addModuleUse(ident.Name)
		return &ast.ModuleCall{Module: ident.Name, Func: name, Args: args}, nil
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
		p.advance()
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case tokLBracket:
		p.advance()
		lit := &ast.ArrayLit{}
		for !p.at(tokRBracket) {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			lit.Elems = append(lit.Elems, e)
			if !p.eat(tokComma) {
				break
			}
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return lit, nil
	case tokLBrace:
		return p.parseObjectLit()
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return &ast.BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return &ast.BoolLit{Value: false}, nil
		case "null", "undefined":
			p.advance()
			return &ast.NilLit{}, nil
		case "this":
			p.advance()
			return &ast.SelfExpr{}, nil
		case "new":
			return p.parseRecordNew()
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

func (p *parser) parseObjectLit() (ast.Expr, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	lit := &ast.MapLit{}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		var key ast.Expr
		switch p.cur().kind {
		case tokIdent, tokString:
			key = &ast.StringLit{Value: p.advance().text}
		default:
			return nil, p.errf("expected key in object literal")
		}
		if _, err := p.expect(tokColon, "':' after key"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		lit.Pairs = append(lit.Pairs, ast.MapPair{Key: key, Value: val})
		if !p.eat(tokComma) {
			break
		}
	}
	_, err := p.expect(tokRBrace, "'}'")
	return lit, err
}

// parseRecordNew parses new Name({ field: value, ... }).
func (p *parser) parseRecordNew() (ast.Expr, error) {
	p.advance() // new
	name, err := p.expectIdent("record name after 'new'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	rn := &ast.RecordNew{Record: name.text}
	if p.at(tokLBrace) {
		obj, err := p.parseObjectLit()
		if err != nil {
			return nil, err
		}
		for _, pair := range obj.(*ast.MapLit).Pairs {
			key := pair.Key.(*ast.StringLit)
			rn.Fields = append(rn.Fields, ast.FieldInit{Name: key.Value, Value: pair.Value})
		}
	}
	_, err = p.expect(tokRParen, "')'")
	return rn, err
}

// rewriteSelfCalls converts this.method(...) into bare calls when the
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
