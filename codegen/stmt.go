package codegen

import (
	"fmt"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/types"
)

func (g *generator) genBlock(stmts []ast.Stmt, sc *scope) ([]GoStmt, error) {
	var out []GoStmt
	for _, st := range stmts {
		gs, err := g.genStmt(st, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, gs...)
	}
	return out, nil
}

func (g *generator) genStmt(st ast.Stmt, sc *scope) ([]GoStmt, error) {
	switch x := st.(type) {
	case *ast.ExprStmt:
		e, err := g.genExpr(x.X, sc)
		if err != nil {
			return nil, err
		}
		if isCallLike(e) {
			return []GoStmt{GoExprStmt{Expr: e}}, nil
		}
		return []GoStmt{GoAssignStmt{Target: "_", Op: "=", Value: e}}, nil

	case *ast.VarDeclStmt:
		return g.genVarDecl(x, sc)

	case *ast.AssignStmt:
		return g.genAssign(x, sc)

	case *ast.AssignOpStmt:
		return g.genAssignOp(x, sc)

	case *ast.MemberAssignStmt:
		return g.genMemberAssign(x, sc)

	case *ast.IndexAssignStmt:
		return g.genIndexAssign(x, sc)

	case *ast.IfStmt:
		return g.genIf(x, sc)

	case *ast.ForInStmt:
		return g.genForIn(x, sc)

	case *ast.ForStmt:
		return g.genFor(x, sc)

	case *ast.ReturnStmt:
		if x.Value == nil {
			return []GoStmt{GoReturnStmt{}}, nil
		}
		v, err := g.genExpr(x.Value, sc)
		if err != nil {
			return nil, err
		}
		if g.curReturn.Kind != types.KindVoid {
			v = g.convertIfNeeded(v, g.inferType(x.Value, sc), g.curReturn)
		}
		return []GoStmt{GoReturnStmt{Value: v}}, nil

	case *ast.PassStmt:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported statement %T", st)
}

func (g *generator) genVarDecl(x *ast.VarDeclStmt, sc *scope) ([]GoStmt, error) {
	local := g.rn.Local(x.Name)

	var t types.Type
	switch {
	case x.DeclType != nil:
		t = *x.DeclType
	case x.Init != nil:
		it := g.inferType(x.Init, sc)
		if it == nil {
			return nil, fmt.Errorf("cannot infer a type for %q", x.Name)
		}
		t = *it
	default:
		return nil, fmt.Errorf("variable %q needs a type or an initializer", x.Name)
	}
	sc.declare(x.Name, t)

	// The discard assignment keeps write-only locals compiling.
	discard := GoAssignStmt{Target: "_", Op: "=", Value: GoIdentExpr{Name: local}}

	if x.Init == nil {
		def, err := types.Default(t)
		if err != nil {
			return nil, err
		}
		g.noteDefaultImports(t)
		return []GoStmt{
			GoVarStmt{Name: local, Type: g.goType(t), Value: GoRawExpr{Code: def}},
			discard,
		}, nil
	}

	v, err := g.genExpr(x.Init, sc)
	if err != nil {
		return nil, err
	}
	it := g.inferType(x.Init, sc)
	if x.DeclType != nil {
		if t.Kind == types.KindAny && (it == nil || it.Kind != types.KindAny) {
			v, err = g.wrapValue(it, v)
			if err != nil {
				return nil, err
			}
		} else {
			v = g.convertIfNeeded(v, it, t)
		}
		return []GoStmt{
			GoVarStmt{Name: local, Type: g.goType(t), Value: v},
			discard,
		}, nil
	}
	return []GoStmt{
		GoAssignStmt{Target: local, Op: ":=", Value: v},
		discard,
	}, nil
}

// assignTarget resolves a bare assignment name to its Go lvalue and
// declared type.
func (g *generator) assignTarget(name string, sc *scope) (string, *types.Type) {
	if t, ok := sc.lookup(name); ok {
		return g.rn.Local(name), &t
	}
	if v, ok := g.fields[name]; ok {
		return exprString(g.fieldRef(name)), v.Type
	}
	return g.rn.Local(name), nil
}

func (g *generator) genAssign(x *ast.AssignStmt, sc *scope) ([]GoStmt, error) {
	target, tt := g.assignTarget(x.Name, sc)
	v, err := g.genExpr(x.Value, sc)
	if err != nil {
		return nil, err
	}
	it := g.inferType(x.Value, sc)
	if tt != nil {
		if tt.Kind == types.KindAny && (it == nil || it.Kind != types.KindAny) {
			v, err = g.wrapValue(it, v)
			if err != nil {
				return nil, err
			}
		} else {
			v = g.convertIfNeeded(v, it, *tt)
		}
	}
	return []GoStmt{GoAssignStmt{Target: target, Op: "=", Value: v}}, nil
}

func (g *generator) genAssignOp(x *ast.AssignOpStmt, sc *scope) ([]GoStmt, error) {
	target, tt := g.assignTarget(x.Name, sc)
	v, err := g.genExpr(x.Value, sc)
	if err != nil {
		return nil, err
	}
	if tt != nil {
		switch tt.Kind {
		case types.KindDecimal:
			full, err := g.genDecimalOp(x.Op, GoRawExpr{Code: target}, v)
			if err != nil {
				return nil, err
			}
			return []GoStmt{GoAssignStmt{Target: target, Op: "=", Value: full}}, nil
		case types.KindBigInt:
			full, err := g.genBigIntOp(x.Op, GoRawExpr{Code: target}, v)
			if err != nil {
				return nil, err
			}
			return []GoStmt{GoAssignStmt{Target: target, Op: "=", Value: full}}, nil
		}
		v = g.convertIfNeeded(v, g.inferType(x.Value, sc), *tt)
	}
	return []GoStmt{GoAssignStmt{Target: target, Op: x.Op + "=", Value: v}}, nil
}

func (g *generator) genMemberAssign(x *ast.MemberAssignStmt, sc *scope) ([]GoStmt, error) {
	v, err := g.genExpr(x.Value, sc)
	if err != nil {
		return nil, err
	}
	vt := g.inferType(x.Value, sc)

	if _, isSelf := x.Object.(*ast.SelfExpr); isSelf {
		if g.curRecord != "" {
			f, _, ok := g.recordField(g.curRecord, x.Member)
			if !ok {
				return nil, fmt.Errorf("record %s has no field %s", g.curRecord, x.Member)
			}
			v = g.convertIfNeeded(v, vt, f.Type)
			return []GoStmt{GoAssignStmt{Target: "r." + x.Member, Op: "=", Value: v}}, nil
		}
		if fld, ok := g.fields[x.Member]; ok {
			if fld.Type != nil {
				if fld.Type.Kind == types.KindAny && (vt == nil || vt.Kind != types.KindAny) {
					v, err = g.wrapValue(vt, v)
					if err != nil {
						return nil, err
					}
				} else {
					v = g.convertIfNeeded(v, vt, *fld.Type)
				}
			}
			return []GoStmt{GoAssignStmt{Target: exprString(g.fieldRef(x.Member)), Op: "=", Value: v}}, nil
		}
		return g.hostFieldWrite(GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: "self"}, x.Member, vt, v)
	}

	obj, err := g.genExpr(x.Object, sc)
	if err != nil {
		return nil, err
	}
	ot := g.inferType(x.Object, sc)
	if ot != nil {
		switch ot.Kind {
		case types.KindNode, types.KindDynNode, types.KindEntityID:
			return g.hostFieldWrite(obj, x.Member, vt, v)
		case types.KindRecord:
			f, _, ok := g.recordField(ot.Name, x.Member)
			if !ok {
				return nil, fmt.Errorf("record %s has no field %s", ot.Name, x.Member)
			}
			v = g.convertIfNeeded(v, vt, f.Type)
			return []GoStmt{GoAssignStmt{Target: exprString(obj) + "." + x.Member, Op: "=", Value: v}}, nil
		case types.KindHostRecord:
			return []GoStmt{GoAssignStmt{Target: exprString(obj) + "." + exportName(x.Member), Op: "=", Value: v}}, nil
		}
	}
	return []GoStmt{GoAssignStmt{Target: exprString(obj) + "." + x.Member, Op: "=", Value: v}}, nil
}

func (g *generator) hostFieldWrite(target GoExpr, member string, vt *types.Type, v GoExpr) ([]GoStmt, error) {
	w, err := g.wrapValue(vt, v)
	if err != nil {
		return nil, err
	}
	call := GoMethodCallExpr{
		Object: GoIdentExpr{Name: "h"},
		Method: "SetField",
		Args:   []GoExpr{target, GoStringLit{Value: member}, w},
	}
	return []GoStmt{GoExprStmt{Expr: call}}, nil
}

func (g *generator) genIndexAssign(x *ast.IndexAssignStmt, sc *scope) ([]GoStmt, error) {
	obj, err := g.genExpr(x.Object, sc)
	if err != nil {
		return nil, err
	}
	idx, err := g.genExpr(x.Index, sc)
	if err != nil {
		return nil, err
	}
	v, err := g.genExpr(x.Value, sc)
	if err != nil {
		return nil, err
	}
	vt := g.inferType(x.Value, sc)
	ot := g.inferType(x.Object, sc)
	if ot != nil && ot.Elem != nil {
		if ot.Elem.Kind == types.KindAny && (vt == nil || vt.Kind != types.KindAny) {
			v, err = g.wrapValue(vt, v)
			if err != nil {
				return nil, err
			}
		} else {
			v = g.convertIfNeeded(v, vt, *ot.Elem)
		}
	}
	target := fmt.Sprintf("%s[%s]", exprString(obj), exprString(idx))
	return []GoStmt{GoAssignStmt{Target: target, Op: "=", Value: v}}, nil
}

func (g *generator) genIf(x *ast.IfStmt, sc *scope) ([]GoStmt, error) {
	cond, err := g.genExpr(x.Cond, sc)
	if err != nil {
		return nil, err
	}
	body, err := g.genBlock(x.Then, newScope(sc))
	if err != nil {
		return nil, err
	}
	out := GoIfStmt{Cond: cond, Body: body}
	for _, ei := range x.ElseIfs {
		c, err := g.genExpr(ei.Cond, sc)
		if err != nil {
			return nil, err
		}
		b, err := g.genBlock(ei.Body, newScope(sc))
		if err != nil {
			return nil, err
		}
		out.ElseIf = append(out.ElseIf, GoElseIf{Cond: c, Body: b})
	}
	if len(x.Else) > 0 {
		b, err := g.genBlock(x.Else, newScope(sc))
		if err != nil {
			return nil, err
		}
		out.Else = b
	}
	return []GoStmt{out}, nil
}

func (g *generator) genForIn(x *ast.ForInStmt, sc *scope) ([]GoStmt, error) {
	inner := newScope(sc)
	local := g.rn.Local(x.Var)

	if rng, ok := x.Iter.(*ast.RangeExpr); ok {
		start, err := g.genExpr(rng.Start, sc)
		if err != nil {
			return nil, err
		}
		end, err := g.genExpr(rng.End, sc)
		if err != nil {
			return nil, err
		}
		inner.declare(x.Var, types.Int(64))
		body, err := g.genBlock(x.Body, inner)
		if err != nil {
			return nil, err
		}
		return []GoStmt{GoForStmt{
			Init: fmt.Sprintf("%s := %s", local, exprString(start)),
			Cond: fmt.Sprintf("%s < %s", local, exprString(end)),
			Post: local + "++",
			Body: body,
		}}, nil
	}

	coll, err := g.genExpr(x.Iter, sc)
	if err != nil {
		return nil, err
	}
	it := g.inferType(x.Iter, sc)
	if it == nil {
		return nil, fmt.Errorf("cannot infer the iterable type for %q", x.Var)
	}
	switch it.Kind {
	case types.KindArray, types.KindFixedArray:
		inner.declare(x.Var, *it.Elem)
		body, err := g.genBlock(x.Body, inner)
		if err != nil {
			return nil, err
		}
		return []GoStmt{GoForRangeStmt{Key: "_", Value: local, Collection: coll, Body: body}}, nil
	case types.KindMap:
		inner.declare(x.Var, *it.Key)
		body, err := g.genBlock(x.Body, inner)
		if err != nil {
			return nil, err
		}
		return []GoStmt{GoForRangeStmt{Key: local, Collection: coll, Body: body}}, nil
	}
	return nil, fmt.Errorf("type %s is not iterable", it)
}

func (g *generator) genFor(x *ast.ForStmt, sc *scope) ([]GoStmt, error) {
	inner := newScope(sc)

	var init string
	if x.Init != nil {
		var err error
		init, err = g.stmtClause(x.Init, inner)
		if err != nil {
			return nil, err
		}
	}
	var cond string
	if x.Cond != nil {
		c, err := g.genExpr(x.Cond, inner)
		if err != nil {
			return nil, err
		}
		cond = exprString(c)
	}
	var post string
	if x.Post != nil {
		var err error
		post, err = g.stmtClause(x.Post, inner)
		if err != nil {
			return nil, err
		}
	}
	body, err := g.genBlock(x.Body, inner)
	if err != nil {
		return nil, err
	}
	return []GoStmt{GoForStmt{Init: init, Cond: cond, Post: post, Body: body}}, nil
}

// stmtClause renders a loop init or post statement as a single-line
// clause.
func (g *generator) stmtClause(st ast.Stmt, sc *scope) (string, error) {
	switch x := st.(type) {
	case *ast.VarDeclStmt:
		if x.Init == nil {
			return "", fmt.Errorf("a loop init variable needs an initializer")
		}
		v, err := g.genExpr(x.Init, sc)
		if err != nil {
			return "", err
		}
		t := x.DeclType
		if t == nil {
			t = g.inferType(x.Init, sc)
		}
		if t == nil {
			return "", fmt.Errorf("cannot infer a type for %q", x.Name)
		}
		sc.declare(x.Name, *t)
		return fmt.Sprintf("%s := %s", g.rn.Local(x.Name), exprString(v)), nil
	case *ast.AssignStmt:
		target, _ := g.assignTarget(x.Name, sc)
		v, err := g.genExpr(x.Value, sc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", target, exprString(v)), nil
	case *ast.AssignOpStmt:
		target, _ := g.assignTarget(x.Name, sc)
		if lit, ok := x.Value.(*ast.IntLit); ok && lit.Text == "1" {
			if x.Op == "+" {
				return target + "++", nil
			}
			if x.Op == "-" {
				return target + "--", nil
			}
		}
		v, err := g.genExpr(x.Value, sc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s= %s", target, x.Op, exprString(v)), nil
	}
	return "", fmt.Errorf("unsupported loop clause %T", st)
}

func isCallLike(e GoExpr) bool {
	switch e.(type) {
	case GoCallExpr, GoMethodCallExpr, GoIIFEExpr, GoRawExpr:
		return true
	}
	return false
}
