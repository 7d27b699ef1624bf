package paw

import (
	"strconv"
	"strings"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/types"
)

// Parser is the Paw DSL front-end.
type Parser struct {
	// UserModules names the reusable module files identified by the
	// project pre-pass, so scripts may call into them.
	UserModules map[string]bool
}

// SetUserModules installs the user-module set from the project pre-pass.
func (pp *Parser) SetUserModules(mods map[string]bool) {
	pp.UserModules = mods
}

func init() {
	frontend.Register("paw", &Parser{})
}

// ParseScript parses Paw source into a Script.
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
			Language:   "paw",
			Attributes: make(map[string][]string),
		},
	}
	if err := p.parseScript(); err != nil {
		return nil, err
	}
	return p.script, nil
}

type parser struct {
	toks    []token
	i       int
	file    string
	script  *ast.Script
	modules map[string]bool
}

func (p *parser) cur() token  { return p.toks[p.i] }
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
	if !p.at(tokIdent) || keywords[p.cur().text] {
		return token{}, p.errf("expected " + what)
	}
	return p.advance(), nil
}

func (p *parser) expectKw(kw string) error {
	if !p.atKw(kw) {
		return p.errf("expected '" + kw + "'")
	}
	p.advance()
	return nil
}

// --- Script level ---

func (p *parser) parseScript() error {
	switch {
	case p.atKw("extends"):
		p.advance()
		name, err := p.expectIdent("entity kind after 'extends'")
		if err != nil {
			return err
		}
		p.script.NodeType = name.text
	case p.atKw("module"):
		p.advance()
		name, err := p.expectIdent("module name after 'module'")
		if err != nil {
			return err
		}
		p.script.IsModule = true
		p.script.Name = name.text
	default:
		return p.errf("script must start with 'extends <Kind>' or 'module <name>'")
	}

	for !p.at(tokEOF) {
		attrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		switch {
		case p.atKw("pub"), p.atKw("var"):
			pub := false
			if p.atKw("pub") {
				pub = true
				p.advance()
			}
			if err := p.expectKw("var"); err != nil {
				return err
			}
			v, err := p.parseVariable(pub, attrs)
			if err != nil {
				return err
			}
			p.script.Variables = append(p.script.Variables, v)
			if len(attrs) > 0 {
				p.script.Attributes[v.Name] = attrs
			}
		case p.atKw("fn"):
			p.advance()
			fn, err := p.parseFunction(attrs)
			if err != nil {
				return err
			}
			p.script.Functions = append(p.script.Functions, fn)
			if len(attrs) > 0 {
				p.script.Attributes[fn.Name+"()"] = attrs
			}
		case p.atKw("on"):
			if p.script.IsModule {
				return p.errf("modules cannot declare hooks or signal handlers")
			}
			p.advance()
			fn, err := p.parseHook(attrs)
			if err != nil {
				return err
			}
			p.script.Functions = append(p.script.Functions, fn)
			if len(attrs) > 0 {
				p.script.Attributes[fn.Name+"()"] = attrs
			}
		case p.atKw("record"):
			p.advance()
			rec, err := p.parseRecord()
			if err != nil {
				return err
			}
			p.script.Records = append(p.script.Records, rec)
		default:
			return p.errf("expected var, fn, on, or record declaration")
		}
	}
	return nil
}

// parseAttributes consumes a run of @name or @name(args) markers.
func (p *parser) parseAttributes() ([]string, error) {
	var attrs []string
	for p.at(tokAt) {
		p.advance()
		name, err := p.expectIdent("attribute name after '@'")
		if err != nil {
			return nil, err
		}
		attr := name.text
		if p.at(tokLParen) {
			p.advance()
			var args []string
			for !p.at(tokRParen) {
				args = append(args, p.advance().String())
				if p.at(tokComma) {
					p.advance()
				}
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

func (p *parser) parseVariable(pub bool, attrs []string) (*ast.Variable, error) {
	name, err := p.expectIdent("variable name")
	if err != nil {
		return nil, err
	}
	v := &ast.Variable{
		Name:       name.text,
		Public:     pub,
		Attributes: attrs,
		Line:       name.line,
	}
	for _, a := range attrs {
		if a == "expose" || strings.HasPrefix(a, "expose(") {
			v.Exposed = true
		}
	}

	if p.at(tokColon) {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		v.Type = &t
	}
	if p.at(tokAssign) {
		p.advance()
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
	}
	return v, nil
}

func (p *parser) parseFunction(attrs []string) (*ast.Function, error) {
	name, err := p.expectIdent("function name")
	if err != nil {
		return nil, err
	}
	fn := &ast.Function{
		Name:       name.text,
		Attributes: attrs,
		Return:     types.Void(),
		Line:       name.line,
	}
	if err := p.parseParams(fn); err != nil {
		return nil, err
	}
	if p.at(tokArrow) {
		p.advance()
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

// parseHook parses 'on <name>(params) { ... }'. Reserved names become
// lifecycle hooks; anything else binds a signal handler.
func (p *parser) parseHook(attrs []string) (*ast.Function, error) {
	name, err := p.expectIdent("hook or signal name after 'on'")
	if err != nil {
		return nil, err
	}
	fn := &ast.Function{
		Attributes: attrs,
		Return:     types.Void(),
		Line:       name.line,
	}
	if ast.LifecycleNames[name.text] {
		fn.Name = name.text
		fn.IsLifecycle = true
	} else {
		fn.Name = "on_" + name.text
		fn.SignalName = name.text
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
		if p.at(tokComma) {
			p.advance()
		} else {
			break
		}
	}
	_, err := p.expect(tokRParen, "')'")
	return err
}

func (p *parser) parseRecord() (*ast.RecordDef, error) {
	name, err := p.expectIdent("record name")
	if err != nil {
		return nil, err
	}
	rec := &ast.RecordDef{Name: name.text}
	if p.atKw("extends") {
		p.advance()
		base, err := p.expectIdent("base record name after 'extends'")
		if err != nil {
			return nil, err
		}
		rec.Base = base.text
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		if p.atKw("fn") {
			p.advance()
			m, err := p.parseFunction(nil)
			if err != nil {
				return nil, err
			}
			rec.Methods = append(rec.Methods, m)
			continue
		}
		attrs, err := p.parseAttributes()
		if err != nil {
			return nil, err
		}
		fname, err := p.expectIdent("field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "':' after field name"); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, ast.Field{Name: fname.text, Type: t, Attributes: attrs})
		if p.at(tokComma) {
			p.advance()
		}
	}
	_, err = p.expect(tokRBrace, "'}'")
	return rec, err
}

// --- Types ---

func (p *parser) parseType() (types.Type, error) {
	var t types.Type
	switch {
	case p.at(tokLBracket):
		p.advance()
		elem, err := p.parseType()
		if err != nil {
			return t, err
		}
		if p.at(tokSemicolon) {
			p.advance()
			n, err := p.expect(tokInt, "fixed array length")
			if err != nil {
				return t, err
			}
			length, _ := strconv.Atoi(n.text)
			if length <= 0 {
				return t, p.errf("fixed array length must be positive")
			}
			t = types.FixedArray(elem, length)
		} else {
			t = types.Array(elem)
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return t, err
		}
	case p.at(tokLBrace):
		p.advance()
		key, err := p.parseType()
		if err != nil {
			return t, err
		}
		if _, err := p.expect(tokColon, "':' in map type"); err != nil {
			return t, err
		}
		val, err := p.parseType()
		if err != nil {
			return t, err
		}
		if _, err := p.expect(tokRBrace, "'}'"); err != nil {
			return t, err
		}
		t = types.Map(key, val)
	case p.at(tokIdent):
		name := p.advance()
		parsed, err := types.Parse(name.text)
		if err != nil {
			return t, p.errf(err.Error())
		}
		t = parsed
	default:
		return t, p.errf("expected type")
	}
	for p.at(tokQuestion) {
		p.advance()
		t = types.Optional(t)
	}
	return t, nil
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
		st := &ast.VarDeclStmt{BaseStmt: base, Name: name.text}
		if p.at(tokColon) {
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			st.DeclType = &t
		}
		if p.at(tokAssign) {
			p.advance()
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			st.Init = x
		}
		if st.DeclType == nil && st.Init == nil {
			return nil, p.errf("variable needs a type or an initializer")
		}
		return st, nil

	case p.atKw("pass"):
		p.advance()
		return &ast.PassStmt{BaseStmt: base}, nil

	case p.atKw("return"):
		p.advance()
		st := &ast.ReturnStmt{BaseStmt: base}
		if !p.at(tokRBrace) {
			x, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			st.Value = x
		}
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
	return p.finishAssign(base, lhs)
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
	default:
		return &ast.ExprStmt{BaseStmt: base, X: lhs}, nil
	}
	p.advance()
	rhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	switch target := lhs.(type) {
	case *ast.Ident:
		if op == "=" {
			return &ast.AssignStmt{BaseStmt: base, Name: target.Name, Value: rhs}, nil
		}
		return &ast.AssignOpStmt{BaseStmt: base, Name: target.Name, Op: op, Value: rhs}, nil
	case *ast.Member:
		if op != "=" {
			rhs = &ast.Binary{Op: op, Left: &ast.Member{Object: target.Object, Name: target.Name}, Right: rhs}
		}
		return &ast.MemberAssignStmt{BaseStmt: base, Object: target.Object, Member: target.Name, Value: rhs}, nil
	case *ast.Index:
		if op != "=" {
			rhs = &ast.Binary{Op: op, Left: &ast.Index{Object: target.Object, Key: target.Key}, Right: rhs}
		}
		return &ast.IndexAssignStmt{BaseStmt: base, Object: target.Object, Index: target.Key, Value: rhs}, nil
	}
	return nil, p.errf("invalid assignment target")
}

func (p *parser) parseIf() (ast.Stmt, error) {
	line := p.cur().line
	p.advance() // if
	cond, err := p.parseExpr(0)
	if err != nil {
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
	for p.atKw("elif") {
		p.advance()
		c, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		body, e2, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		st.ElseIfs = append(st.ElseIfs, ast.ElseIf{Cond: c, Body: body})
		st.EndLine = e2
	}
	if p.atKw("else") {
		p.advance()
		body, e2, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		st.Else = body
		st.EndLine = e2
	}
	return st, nil
}

func (p *parser) parseFor() (ast.Stmt, error) {
	line := p.cur().line
	p.advance() // for
	name, err := p.expectIdent("loop variable")
	if err != nil {
		return nil, err
	}

	if p.atKw("in") {
		p.advance()
		iter, err := p.parseExpr(0)
		if err != nil {
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

	// Traditional form: for i = 0; i < n; i += 1 { ... }
	if _, err := p.expect(tokAssign, "'in' or '=' in for"); err != nil {
		return nil, err
	}
	initVal, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
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
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{
		BaseStmt: ast.BaseStmt{SourceLine: line, EndLine: end},
		Init:     &ast.AssignStmt{BaseStmt: ast.BaseStmt{SourceLine: line, EndLine: line}, Name: name.text, Value: initVal},
		Cond:     cond,
		Post:     post,
		Body:     body,
	}, nil
}

// --- Expressions ---

// binaryPrec returns the binding power of the operator at the current
// token, 0 for non-operators.
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
	case tokDotDot:
		return 4, ".."
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
		if op == ".." {
			left = &ast.RangeExpr{Start: left, End: right}
		} else {
			left = &ast.Binary{Op: op, Left: left, Right: right}
		}
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

// resolveCall classifies obj.name(args): a host built-in module call, a
// user module call, or a plain method call.
func (p *parser) resolveCall(obj ast.Expr, name string, args []ast.Expr) (ast.Expr, error) {
	ident, isIdent := obj.(*ast.Ident)
	if !isIdent {
		return &ast.MethodCall{Object: obj, Name: name, Args: args}, nil
	}
	if hostmod.IsModule(ident.Name) {
		if _, ok := hostmod.LookupFunc(ident.Name, name); !ok {
			return nil, p.errf("module '" + ident.Name + "' has no function '" + name + "'")
		}
		return &ast.HostCall{Module: ident.Name, Func: name, Args: args}, nil
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
		if p.at(tokComma) {
			p.advance()
		} else {
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
	case tokDollar:
		p.advance()
		name, err := p.expectIdent("node name after '$'")
		if err != nil {
			return nil, err
		}
		return &ast.HostCall{
			Module: "scene",
			Func:   "get_child_by_name",
			Args:   []ast.Expr{&ast.StringLit{Value: name.text}},
		}, nil
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
			if p.at(tokComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return lit, nil
	case tokLBrace:
		return p.parseMapLit()
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return &ast.BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return &ast.BoolLit{Value: false}, nil
		case "nil":
			p.advance()
			return &ast.NilLit{}, nil
		case "self":
			p.advance()
			return &ast.SelfExpr{}, nil
		case "new":
			return p.parseRecordNew()
		}
		if keywords[t.text] {
			return nil, p.errf("unexpected keyword")
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

func (p *parser) parseMapLit() (ast.Expr, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	lit := &ast.MapLit{}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		var key ast.Expr
		switch p.cur().kind {
		case tokIdent:
			key = &ast.StringLit{Value: p.advance().text}
		case tokString:
			key = &ast.StringLit{Value: p.advance().text}
		default:
			return nil, p.errf("expected key in map literal")
		}
		if _, err := p.expect(tokColon, "':' after key"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		lit.Pairs = append(lit.Pairs, ast.MapPair{Key: key, Value: val})
		if p.at(tokComma) {
			p.advance()
		} else {
			break
		}
	}
	_, err := p.expect(tokRBrace, "'}'")
	return lit, err
}

func (p *parser) parseRecordNew() (ast.Expr, error) {
	p.advance() // new
	name, err := p.expectIdent("record name after 'new'")
	if err != nil {
		return nil, err
	}
	rn := &ast.RecordNew{Record: name.text}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		fname, err := p.expectIdent("field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "':' after field name"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		rn.Fields = append(rn.Fields, ast.FieldInit{Name: fname.text, Value: val})
		if p.at(tokComma) {
			p.advance()
		} else {
			break
		}
	}
	_, err = p.expect(tokRBrace, "'}'")
	return rn, err
}
