package codegen

import (
	"fmt"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/frontend"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/types"
)

// generator carries the per-script state while lowering IR to the Go
// output tree.
type generator struct {
	script *ast.Script
	id     string
	rn     *Renamer

	// arena maps record names to their definitions; base-chain lookups
	// walk it.
	arena map[string]*ast.RecordDef

	fields map[string]*ast.Variable
	funcs  map[string]*ast.Function

	// modules maps referenced user-module names to their analyzed
	// scripts and generated identifiers.
	modules   map[string]*ast.Script
	moduleIDs map[string]string

	imports map[string]bool

	// curRecord is non-empty while generating a record method; self
	// then means the record receiver, not the script entity.
	curRecord string

	// curReturn is the enclosing function's declared return type.
	curReturn types.Type
}

// scope tracks local variable types within one function body.
type scope struct {
	vars   map[string]types.Type
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]types.Type), parent: parent}
}

func (sc *scope) lookup(name string) (types.Type, bool) {
	for s := sc; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

func (sc *scope) declare(name string, t types.Type) {
	sc.vars[name] = t
}

// fieldRef returns the Go expression referencing a script variable.
// Entity scripts hold state on the receiver; modules hold it in
// package-level vars.
func (g *generator) fieldRef(name string) GoExpr {
	if g.script.IsModule {
		return GoIdentExpr{Name: "pv_" + g.id + "_" + name}
	}
	return GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: g.rn.Field(name)}
}

// funcRef returns the Go call target for a script function.
func (g *generator) funcRef(name string) string {
	if g.script.IsModule {
		return "fn_" + g.id + "_" + name
	}
	return "s." + g.rn.Func(name)
}

// recordGoName resolves a user record name to its generated struct
// name, consulting the arena so unknown records fail loudly.
func (g *generator) recordGoName(name string) string {
	return g.rn.Record(name)
}

// goType is types.GoType with this script's record naming. It records
// the imports the rendered type needs.
func (g *generator) goType(t types.Type) string {
	g.noteDefaultImports(t)
	return types.GoTypeWith(t, g.recordGoName)
}

// recordField resolves a field through the single-base chain.
func (g *generator) recordField(rec string, field string) (*ast.Field, *ast.RecordDef, bool) {
	for name := rec; name != ""; {
		def, ok := g.arena[name]
		if !ok {
			return nil, nil, false
		}
		for i := range def.Fields {
			if def.Fields[i].Name == field {
				return &def.Fields[i], def, true
			}
		}
		name = def.Base
	}
	return nil, nil, false
}

// recordMethod resolves a method through the single-base chain.
func (g *generator) recordMethod(rec string, method string) (*ast.Function, bool) {
	for name := rec; name != ""; {
		def, ok := g.arena[name]
		if !ok {
			return nil, false
		}
		for _, m := range def.Methods {
			if m.Name == method {
				return m, true
			}
		}
		name = def.Base
	}
	return nil, false
}

// inferType resolves an expression's type using the local scope, the
// script's fields and functions, and the front-end inference rules.
func (g *generator) inferType(e ast.Expr, sc *scope) *types.Type {
	switch x := e.(type) {
	case *ast.Ident:
		if t, ok := sc.lookup(x.Name); ok {
			return &t
		}
		if v, ok := g.fields[x.Name]; ok {
			return v.Type
		}
	case *ast.SelfExpr:
		if g.curRecord != "" {
			t := types.Record(g.curRecord)
			return &t
		}
	case *ast.Member:
		if _, isSelf := x.Object.(*ast.SelfExpr); isSelf && g.curRecord == "" {
			if v, ok := g.fields[x.Name]; ok {
				return v.Type
			}
		}
		obj := g.inferType(x.Object, sc)
		if obj == nil {
			return nil
		}
		switch obj.Kind {
		case types.KindRecord:
			if f, _, ok := g.recordField(obj.Name, x.Name); ok {
				t := f.Type
				return &t
			}
		case types.KindHostRecord:
			t := types.Float(32)
			return &t
		case types.KindNode, types.KindDynNode, types.KindEntityID:
			t := types.Any()
			return &t
		}
	case *ast.Call:
		if f, ok := g.funcs[x.Name]; ok {
			t := f.Return
			return &t
		}
	case *ast.MethodCall:
		obj := g.inferType(x.Object, sc)
		if obj != nil && obj.Kind == types.KindRecord {
			if m, ok := g.recordMethod(obj.Name, x.Name); ok {
				t := m.Return
				return &t
			}
		}
	case *ast.ModuleCall:
		if mod, ok := g.modules[x.Module]; ok {
			for _, f := range mod.Functions {
				if f.Name == x.Func {
					t := f.Return
					return &t
				}
			}
		}
	case *ast.Index:
		obj := g.inferType(x.Object, sc)
		if obj != nil && (obj.Kind == types.KindArray || obj.Kind == types.KindFixedArray || obj.Kind == types.KindMap) {
			return obj.Elem
		}
	}
	return frontend.Infer(e, g.script.NodeType)
}

func (g *generator) addImport(path string) {
	g.imports[path] = true
}

// --- Expressions ---

func (g *generator) genExpr(e ast.Expr, sc *scope) (GoExpr, error) {
	switch x := e.(type) {
	case *ast.Ident:
		if _, ok := sc.lookup(x.Name); ok {
			return GoIdentExpr{Name: g.rn.Local(x.Name)}, nil
		}
		if _, ok := g.fields[x.Name]; ok {
			return g.fieldRef(x.Name), nil
		}
		return GoIdentExpr{Name: g.rn.Local(x.Name)}, nil

	case *ast.IntLit:
		return GoIntLit{Value: x.Text}, nil
	case *ast.FloatLit:
		return GoFloatLit{Value: x.Text}, nil
	case *ast.StringLit:
		return GoStringLit{Value: x.Value}, nil
	case *ast.BoolLit:
		return GoBoolLit{Value: x.Value}, nil
	case *ast.NilLit:
		return GoNilExpr{}, nil

	case *ast.SelfExpr:
		if g.curRecord != "" {
			return GoIdentExpr{Name: "r"}, nil
		}
		if g.script.IsModule {
			return nil, fmt.Errorf("self is not available in a module")
		}
		return GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: "self"}, nil

	case *ast.Binary:
		return g.genBinary(x, sc)

	case *ast.Unary:
		operand, err := g.genExpr(x.X, sc)
		if err != nil {
			return nil, err
		}
		if t := g.inferType(x.X, sc); t != nil && t.Kind == types.KindDecimal && x.Op == "-" {
			return GoMethodCallExpr{Object: operand, Method: "Neg"}, nil
		}
		return GoUnaryExpr{Op: x.Op, Operand: paren(operand)}, nil

	case *ast.Member:
		return g.genMember(x, sc)

	case *ast.Call:
		return g.genCall(x, sc)

	case *ast.MethodCall:
		return g.genMethodCall(x, sc)

	case *ast.HostCall:
		return g.genHostCall(x, sc)

	case *ast.ModuleCall:
		return g.genModuleCall(x, sc)

	case *ast.Cast:
		return g.genCast(x, sc)

	case *ast.RecordNew:
		return g.genRecordNew(x, sc)

	case *ast.ArrayLit:
		return g.genArrayLit(x, sc)

	case *ast.MapLit:
		return g.genMapLit(x, sc)

	case *ast.Index:
		obj, err := g.genExpr(x.Object, sc)
		if err != nil {
			return nil, err
		}
		key, err := g.genExpr(x.Key, sc)
		if err != nil {
			return nil, err
		}
		return GoIndexExpr{Object: obj, Index: key}, nil

	case *ast.RangeExpr:
		return nil, fmt.Errorf("range expression is only valid as a for-in iterable")
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (g *generator) genBinary(x *ast.Binary, sc *scope) (GoExpr, error) {
	left, err := g.genExpr(x.Left, sc)
	if err != nil {
		return nil, err
	}
	right, err := g.genExpr(x.Right, sc)
	if err != nil {
		return nil, err
	}

	lt := g.inferType(x.Left, sc)
	if lt != nil {
		switch lt.Kind {
		case types.KindDecimal:
			return g.genDecimalOp(x.Op, left, right)
		case types.KindBigInt:
			return g.genBigIntOp(x.Op, left, right)
		}
	}
	return GoBinaryExpr{Left: paren(left), Op: x.Op, Right: paren(right)}, nil
}

var decimalOps = map[string]string{
	"+": "Add", "-": "Sub", "*": "Mul", "/": "Div", "%": "Mod",
}

func (g *generator) genDecimalOp(op string, left, right GoExpr) (GoExpr, error) {
	if method, ok := decimalOps[op]; ok {
		return GoMethodCallExpr{Object: left, Method: method, Args: []GoExpr{right}}, nil
	}
	switch op {
	case "==":
		return GoMethodCallExpr{Object: left, Method: "Equal", Args: []GoExpr{right}}, nil
	case "!=":
		return GoUnaryExpr{Op: "!", Operand: GoMethodCallExpr{Object: left, Method: "Equal", Args: []GoExpr{right}}}, nil
	case "<", ">", "<=", ">=":
		cmp := GoMethodCallExpr{Object: left, Method: "Cmp", Args: []GoExpr{right}}
		return GoBinaryExpr{Left: cmp, Op: op, Right: GoIntLit{Value: "0"}}, nil
	}
	return nil, fmt.Errorf("operator %q is not defined for decimal operands", op)
}

func (g *generator) genBigIntOp(op string, left, right GoExpr) (GoExpr, error) {
	g.addImport("math/big")
	if method, ok := decimalOps[op]; ok {
		if op == "%" {
			method = "Mod"
		}
		return GoMethodCallExpr{
			Object: GoCallExpr{Func: "new", Args: []GoExpr{GoIdentExpr{Name: "big.Int"}}},
			Method: method,
			Args:   []GoExpr{left, right},
		}, nil
	}
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		cmp := GoMethodCallExpr{Object: left, Method: "Cmp", Args: []GoExpr{right}}
		return GoBinaryExpr{Left: cmp, Op: op, Right: GoIntLit{Value: "0"}}, nil
	}
	return nil, fmt.Errorf("operator %q is not defined for bigint operands", op)
}

// genMember lowers object.member. Self-rooted accesses split between
// script fields (receiver state) and entity-graph reads through the
// host handle.
func (g *generator) genMember(x *ast.Member, sc *scope) (GoExpr, error) {
	if _, isSelf := x.Object.(*ast.SelfExpr); isSelf {
		if g.curRecord != "" {
			if _, _, ok := g.recordField(g.curRecord, x.Name); !ok {
				return nil, fmt.Errorf("record %s has no field %s", g.curRecord, x.Name)
			}
			return GoDotExpr{Object: GoIdentExpr{Name: "r"}, Field: x.Name}, nil
		}
		if _, ok := g.fields[x.Name]; ok {
			return g.fieldRef(x.Name), nil
		}
		return GoMethodCallExpr{
			Object: GoIdentExpr{Name: "h"},
			Method: "GetField",
			Args: []GoExpr{
				GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: "self"},
				GoStringLit{Value: x.Name},
			},
		}, nil
	}

	obj, err := g.genExpr(x.Object, sc)
	if err != nil {
		return nil, err
	}
	ot := g.inferType(x.Object, sc)
	if ot != nil {
		switch ot.Kind {
		case types.KindNode, types.KindDynNode, types.KindEntityID:
			return GoMethodCallExpr{
				Object: GoIdentExpr{Name: "h"},
				Method: "GetField",
				Args:   []GoExpr{obj, GoStringLit{Value: x.Name}},
			}, nil
		case types.KindRecord:
			if _, _, ok := g.recordField(ot.Name, x.Name); !ok {
				return nil, fmt.Errorf("record %s has no field %s", ot.Name, x.Name)
			}
			return GoDotExpr{Object: obj, Field: x.Name}, nil
		case types.KindHostRecord:
			return GoDotExpr{Object: obj, Field: exportName(x.Name)}, nil
		}
	}
	return GoDotExpr{Object: obj, Field: x.Name}, nil
}

func (g *generator) genCall(x *ast.Call, sc *scope) (GoExpr, error) {
	callee, ok := g.funcs[x.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", x.Name)
	}
	args, err := g.genArgs(x.Args, callee.Params, sc)
	if err != nil {
		return nil, err
	}
	if callee.UsesHostEntity {
		args = append([]GoExpr{GoIdentExpr{Name: "h"}}, args...)
	}
	return GoCallExpr{Func: g.funcRef(x.Name), Args: args}, nil
}

func (g *generator) genMethodCall(x *ast.MethodCall, sc *scope) (GoExpr, error) {
	if _, isSelf := x.Object.(*ast.SelfExpr); isSelf && g.curRecord != "" {
		m, ok := g.recordMethod(g.curRecord, x.Name)
		if !ok {
			return nil, fmt.Errorf("record %s has no method %s", g.curRecord, x.Name)
		}
		args, err := g.genArgs(x.Args, m.Params, sc)
		if err != nil {
			return nil, err
		}
		return GoMethodCallExpr{Object: GoIdentExpr{Name: "r"}, Method: g.rn.Func(x.Name), Args: args}, nil
	}
	ot := g.inferType(x.Object, sc)
	if ot == nil || ot.Kind != types.KindRecord {
		return nil, fmt.Errorf("method call %s on non-record value", x.Name)
	}
	m, ok := g.recordMethod(ot.Name, x.Name)
	if !ok {
		return nil, fmt.Errorf("record %s has no method %s", ot.Name, x.Name)
	}
	obj, err := g.genExpr(x.Object, sc)
	if err != nil {
		return nil, err
	}
	args, err := g.genArgs(x.Args, m.Params, sc)
	if err != nil {
		return nil, err
	}
	return GoMethodCallExpr{Object: obj, Method: g.rn.Func(x.Name), Args: args}, nil
}

// genArgs generates call arguments with implicit numeric conversions
// against the callee's declared parameter types.
func (g *generator) genArgs(args []ast.Expr, params []ast.Param, sc *scope) ([]GoExpr, error) {
	out := make([]GoExpr, 0, len(args))
	for i, a := range args {
		e, err := g.genExpr(a, sc)
		if err != nil {
			return nil, err
		}
		if i < len(params) {
			e = g.convertIfNeeded(e, g.inferType(a, sc), params[i].Type)
		}
		out = append(out, e)
	}
	return out, nil
}

func (g *generator) genHostCall(x *ast.HostCall, sc *scope) (GoExpr, error) {
	def, ok := hostmod.LookupFunc(x.Module, x.Func)
	if !ok {
		return nil, fmt.Errorf("unknown built-in %s.%s", x.Module, x.Func)
	}

	switch def.Kind {
	case hostmod.Inline:
		for _, imp := range def.GoImports {
			g.addImport(imp)
		}
		rendered := make([]any, 0, len(x.Args))
		for i, a := range x.Args {
			e, err := g.genExpr(a, sc)
			if err != nil {
				return nil, err
			}
			if i < len(def.Args) {
				e = g.convertIfNeeded(e, g.inferType(a, sc), def.Args[i])
			}
			rendered = append(rendered, exprString(e))
		}
		return GoRawExpr{Code: fmt.Sprintf(def.GoTemplate, rendered...)}, nil

	case hostmod.ChildLookup:
		arg, err := g.genExpr(x.Args[0], sc)
		if err != nil {
			return nil, err
		}
		return GoMethodCallExpr{
			Object: GoIdentExpr{Name: "h"},
			Method: "GetChildByName",
			Args:   []GoExpr{GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: "self"}, arg},
		}, nil

	case hostmod.ParentLookup:
		return GoMethodCallExpr{
			Object: GoIdentExpr{Name: "h"},
			Method: "GetParent",
			Args:   []GoExpr{GoDotExpr{Object: GoIdentExpr{Name: "s"}, Field: "self"}},
		}, nil
	}

	// Host routed: wrap every argument into the dynamic value form.
	wrapped := make([]GoExpr, 0, len(x.Args))
	for i, a := range x.Args {
		e, err := g.genExpr(a, sc)
		if err != nil {
			return nil, err
		}
		at := g.inferType(a, sc)
		if i < len(def.Args) && def.Args[i].Kind != types.KindAny {
			e = g.convertIfNeeded(e, at, def.Args[i])
			at = &def.Args[i]
		}
		w, err := g.wrapValue(at, e)
		if err != nil {
			return nil, err
		}
		wrapped = append(wrapped, w)
	}
	call := GoMethodCallExpr{
		Object: GoIdentExpr{Name: "h"},
		Method: "CallHost",
		Args: []GoExpr{
			GoStringLit{Value: x.Module},
			GoStringLit{Value: x.Func},
			GoSliceLit{Type: "[]scriptrt.Value", Elements: wrapped},
		},
	}
	if def.Ret.Kind == types.KindVoid {
		return call, nil
	}
	return g.unwrapValue(def.Ret, call)
}

func (g *generator) genModuleCall(x *ast.ModuleCall, sc *scope) (GoExpr, error) {
	mod, ok := g.modules[x.Module]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", x.Module)
	}
	mid, ok := g.moduleIDs[x.Module]
	if !ok {
		return nil, fmt.Errorf("module %q has no generated identifier", x.Module)
	}
	var callee *ast.Function
	for _, f := range mod.Functions {
		if f.Name == x.Func {
			callee = f
			break
		}
	}
	if callee == nil {
		return nil, fmt.Errorf("module %s has no function %s", x.Module, x.Func)
	}
	args, err := g.genArgs(x.Args, callee.Params, sc)
	if err != nil {
		return nil, err
	}
	if callee.UsesHostEntity {
		args = append([]GoExpr{GoIdentExpr{Name: "h"}}, args...)
	}
	return GoCallExpr{Func: "fn_" + mid + "_" + x.Func, Args: args}, nil
}

func (g *generator) genCast(x *ast.Cast, sc *scope) (GoExpr, error) {
	inner, err := g.genExpr(x.X, sc)
	if err != nil {
		return nil, err
	}
	st := g.inferType(x.X, sc)
	target := x.Target

	// Handles share one representation; a handle-to-handle cast only
	// changes the static kind.
	if target.IsHandle() && st != nil && st.IsHandle() {
		return inner, nil
	}
	// Pulling a typed value out of a dynamic one substitutes the default
	// on failure, matching the call-argument policy.
	if st != nil && st.Kind == types.KindAny {
		return g.extractWithDefault(target, inner)
	}
	switch target.Kind {
	case types.KindDecimal:
		g.addImport("github.com/shopspring/decimal")
		if st != nil && st.Kind == types.KindFloat {
			return GoCallExpr{Func: "decimal.NewFromFloat", Args: []GoExpr{GoCastExpr{Type: "float64", Value: inner}}}, nil
		}
		return GoCallExpr{Func: "decimal.NewFromInt", Args: []GoExpr{GoCastExpr{Type: "int64", Value: inner}}}, nil
	case types.KindBigInt:
		g.addImport("math/big")
		return GoCallExpr{Func: "big.NewInt", Args: []GoExpr{GoCastExpr{Type: "int64", Value: inner}}}, nil
	}
	if st != nil && st.Kind == types.KindDecimal && target.Kind == types.KindFloat {
		f64 := GoMethodCallExpr{Object: inner, Method: "InexactFloat64"}
		if target.Bits == 32 {
			return GoCastExpr{Type: "float32", Value: f64}, nil
		}
		return f64, nil
	}
	return GoCastExpr{Type: g.goType(target), Value: paren(inner)}, nil
}

func (g *generator) genRecordNew(x *ast.RecordNew, sc *scope) (GoExpr, error) {
	def, ok := g.arena[x.Record]
	if !ok {
		return nil, fmt.Errorf("unknown record %q", x.Record)
	}
	goName := g.recordGoName(x.Record)

	own := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		own[f.Name] = true
	}

	var ownInits []GoFieldInit
	var inherited []GoFieldInit
	for _, fi := range x.Fields {
		fdef, _, ok := g.recordField(x.Record, fi.Name)
		if !ok {
			return nil, fmt.Errorf("record %s has no field %s", x.Record, fi.Name)
		}
		v, err := g.genExpr(fi.Value, sc)
		if err != nil {
			return nil, err
		}
		v = g.convertIfNeeded(v, g.inferType(fi.Value, sc), fdef.Type)
		if own[fi.Name] {
			ownInits = append(ownInits, GoFieldInit{Name: fi.Name, Value: v})
		} else {
			inherited = append(inherited, GoFieldInit{Name: fi.Name, Value: v})
		}
	}

	lit := GoCompositeLit{Type: goName, Fields: ownInits}
	if len(inherited) == 0 {
		return lit, nil
	}

	// Inherited fields are promoted through embedding but cannot appear
	// in the composite literal; assign them after construction.
	body := []GoStmt{GoAssignStmt{Target: "r", Op: ":=", Value: lit}}
	for _, fi := range inherited {
		body = append(body, GoAssignStmt{Target: "r." + fi.Name, Op: "=", Value: fi.Value})
	}
	return GoIIFEExpr{Return: goName, Body: body, Result: GoIdentExpr{Name: "r"}}, nil
}

func (g *generator) genArrayLit(x *ast.ArrayLit, sc *scope) (GoExpr, error) {
	t := g.inferType(x, sc)
	if t == nil || t.Elem == nil || t.Elem.Kind == types.KindAny {
		elems := make([]GoExpr, 0, len(x.Elems))
		for _, el := range x.Elems {
			e, err := g.genExpr(el, sc)
			if err != nil {
				return nil, err
			}
			w, err := g.wrapValue(g.inferType(el, sc), e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, w)
		}
		return GoSliceLit{Type: "[]scriptrt.Value", Elements: elems}, nil
	}
	elems := make([]GoExpr, 0, len(x.Elems))
	for _, el := range x.Elems {
		e, err := g.genExpr(el, sc)
		if err != nil {
			return nil, err
		}
		elems = append(elems, g.convertIfNeeded(e, g.inferType(el, sc), *t.Elem))
	}
	return GoSliceLit{Type: g.goType(*t), Elements: elems}, nil
}

func (g *generator) genMapLit(x *ast.MapLit, sc *scope) (GoExpr, error) {
	t := g.inferType(x, sc)
	anyVals := t == nil || t.Elem == nil || t.Elem.Kind == types.KindAny

	pairs := make([]GoMapPair, 0, len(x.Pairs))
	for _, pr := range x.Pairs {
		k, err := g.genExpr(pr.Key, sc)
		if err != nil {
			return nil, err
		}
		v, err := g.genExpr(pr.Value, sc)
		if err != nil {
			return nil, err
		}
		if anyVals {
			v, err = g.wrapValue(g.inferType(pr.Value, sc), v)
			if err != nil {
				return nil, err
			}
		} else {
			v = g.convertIfNeeded(v, g.inferType(pr.Value, sc), *t.Elem)
		}
		pairs = append(pairs, GoMapPair{Key: k, Value: v})
	}
	valType := "scriptrt.Value"
	if !anyVals {
		valType = g.goType(*t.Elem)
	}
	return GoMapLit{KeyType: "string", ValType: valType, Pairs: pairs}, nil
}

// wrapValue converts a typed expression into a scriptrt.Value. A nil
// type falls back to the generic structured conversion.
func (g *generator) wrapValue(t *types.Type, e GoExpr) (GoExpr, error) {
	if t == nil {
		return GoCallExpr{Func: "scriptrt.ToValue", Args: []GoExpr{e}}, nil
	}
	code, err := types.WrapValue(*t, exprString(e))
	if err != nil {
		return nil, err
	}
	return GoRawExpr{Code: code}, nil
}

// unwrapValue pulls a typed result out of a Value-producing expression,
// substituting the type's default on extraction failure.
func (g *generator) unwrapValue(t types.Type, e GoExpr) (GoExpr, error) {
	return g.extractWithDefault(t, e)
}

func (g *generator) extractWithDefault(t types.Type, e GoExpr) (GoExpr, error) {
	if t.Kind == types.KindAny {
		return e, nil
	}
	ext, err := types.ExtractFromValueWith(t, "v", g.recordGoName)
	if err != nil {
		return nil, err
	}
	def, err := types.Default(t)
	if err != nil {
		return nil, err
	}
	g.noteDefaultImports(t)
	body := []GoStmt{
		GoAssignStmt{Target: "v", Op: ":=", Value: e},
		GoMultiAssignStmt{Targets: []string{"out", "ok"}, Op: ":=", Value: GoRawExpr{Code: ext.Expr}},
		GoIfStmt{
			Cond: GoRawExpr{Code: "!ok"},
			Body: []GoStmt{GoReturnStmt{Value: GoRawExpr{Code: def}}},
		},
	}
	return GoIIFEExpr{Return: g.goType(t), Body: body, Result: GoIdentExpr{Name: "out"}}, nil
}

// noteDefaultImports records imports a default literal needs.
func (g *generator) noteDefaultImports(t types.Type) {
	switch t.Kind {
	case types.KindDecimal:
		g.addImport("github.com/shopspring/decimal")
	case types.KindBigInt:
		g.addImport("math/big")
	case types.KindOptional, types.KindArray, types.KindFixedArray:
		g.noteDefaultImports(*t.Elem)
	case types.KindMap:
		if t.Key != nil {
			g.noteDefaultImports(*t.Key)
		}
		g.noteDefaultImports(*t.Elem)
	}
}

// convertIfNeeded inserts a Go conversion when the inferred type and
// the expected type use different Go representations and the implicit
// lattice allows the move.
func (g *generator) convertIfNeeded(e GoExpr, from *types.Type, to types.Type) GoExpr {
	if from == nil || from.Equal(to) {
		return e
	}
	if !from.IsNumeric() || !to.IsNumeric() {
		return e
	}
	if to.Kind == types.KindDecimal || to.Kind == types.KindBigInt ||
		from.Kind == types.KindDecimal || from.Kind == types.KindBigInt {
		return e
	}
	fromGo := types.GoType(*from)
	toGo := types.GoType(to)
	if fromGo == toGo {
		return e
	}
	return GoCastExpr{Type: toGo, Value: paren(e)}
}

// paren wraps binary operands so the printed output never relies on
// re-derived precedence.
func paren(e GoExpr) GoExpr {
	if b, ok := e.(GoBinaryExpr); ok {
		return GoParenExpr{Inner: b}
	}
	return e
}

// exprString renders one expression outside a file context (for
// templates and inline for-clauses).
func exprString(e GoExpr) string {
	p := &goPrinter{}
	return p.exprStr(e)
}

// exportName capitalizes a host-record field name (authored x -> Go X).
func exportName(name string) string {
	if name == "" {
		return name
	}
	b := []byte(name)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
