package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/sourcemap"
	"github.com/pawlang/paw/types"
)

// Options carries cross-script context into generation: the analyzed
// user modules the script may call into and their generated
// identifiers.
type Options struct {
	Modules   map[string]*ast.Script
	ModuleIDs map[string]string
}

// Result is one generated script file plus its source map.
type Result struct {
	Source string
	Map    *sourcemap.ScriptMap
}

var lifecycleMethods = map[string]string{
	"init":         "Init",
	"update":       "Update",
	"fixed_update": "FixedUpdate",
	"draw":         "Draw",
}

var lifecycleFlags = map[string]string{
	"init":         "scriptrt.FlagInit",
	"update":       "scriptrt.FlagUpdate",
	"fixed_update": "scriptrt.FlagFixedUpdate",
	"draw":         "scriptrt.FlagDraw",
}

// Generate lowers one analyzed script to Go source in package scripts
// and builds its source map.
func Generate(s *ast.Script, id string, opts Options) (*Result, error) {
	g := &generator{
		script:    s,
		id:        id,
		rn:        NewRenamer(id),
		arena:     make(map[string]*ast.RecordDef, len(s.Records)),
		fields:    make(map[string]*ast.Variable, len(s.Variables)),
		funcs:     make(map[string]*ast.Function, len(s.Functions)),
		modules:   opts.Modules,
		moduleIDs: opts.ModuleIDs,
		imports:   make(map[string]bool),
	}
	for _, r := range s.Records {
		g.arena[r.Name] = r
	}
	for _, v := range s.Variables {
		g.fields[v.Name] = v
	}
	for _, f := range s.Functions {
		g.funcs[f.Name] = f
	}

	spans := make(map[string]sourcemap.FuncSpan)

	var decls []GoDecl
	var err error
	if s.IsModule {
		decls, err = g.moduleDecls(spans)
	} else {
		decls, err = g.entityDecls(spans)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.SourceFile, err)
	}

	// Probe print without imports, then keep only the imports the body
	// actually references.
	probe := PrintGoFile(&GoFile{Package: "scripts", Decls: decls})
	g.addImport("github.com/pawlang/paw/scriptrt")
	imports := usedImports(probe, g.imports)

	src := "// Code generated by paw. DO NOT EDIT.\n\n" +
		PrintGoFile(&GoFile{Package: "scripts", Imports: imports, Decls: decls})

	b := sourcemap.NewBuilder(s.SourceFile, s.Language)
	for gen, orig := range g.names() {
		b.Name(gen, orig)
	}
	b.ApproximateFromSource(src, spans)

	return &Result{Source: src, Map: b.Map()}, nil
}

// names merges the renamer table with the module-prefixed identifiers
// that bypass it.
func (g *generator) names() map[string]string {
	out := g.rn.Names()
	if g.script.IsModule {
		for _, v := range g.script.Variables {
			out["pv_"+g.id+"_"+v.Name] = v.Name
		}
		for _, f := range g.script.Functions {
			out["fn_"+g.id+"_"+f.Name] = f.Name
		}
	}
	return out
}

// usedImports filters candidates down to those whose qualifier appears
// in the printed body, sorted standard library first.
func usedImports(probe string, candidates map[string]bool) []GoImport {
	var keep []string
	for path := range candidates {
		qual := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			qual = path[i+1:]
		}
		if strings.Contains(probe, qual+".") {
			keep = append(keep, path)
		}
	}
	sort.Slice(keep, func(i, j int) bool {
		si := strings.Contains(keep[i], ".")
		sj := strings.Contains(keep[j], ".")
		if si != sj {
			return !si
		}
		return keep[i] < keep[j]
	})
	out := make([]GoImport, len(keep))
	for i, p := range keep {
		out[i] = GoImport{Path: p}
	}
	return out
}

func (g *generator) entityDecls(spans map[string]sourcemap.FuncSpan) ([]GoDecl, error) {
	var decls []GoDecl

	recDecls, err := g.recordDecls(spans)
	if err != nil {
		return nil, err
	}
	decls = append(decls, recDecls...)

	// Script struct: the bound entity handle plus every script field.
	structFields := []GoField{{Name: "self", Type: "scriptrt.EntityID"}}
	for _, v := range g.script.Variables {
		t, err := g.resolveVarType(v)
		if err != nil {
			return nil, err
		}
		structFields = append(structFields, GoField{Name: g.rn.Field(v.Name), Type: g.goType(t)})
	}
	decls = append(decls, GoStructDecl{Name: g.rn.Struct(), Fields: structFields})

	ctor, err := g.constructorDecl()
	if err != nil {
		return nil, err
	}
	decls = append(decls, ctor)

	decls = append(decls, GoMethodDecl{
		Recv: "s", RecvType: g.rn.Struct(), Name: "SetSelf",
		Params: []GoParam{{Name: "id", Type: "scriptrt.EntityID"}},
		Body:   []GoStmt{GoAssignStmt{Target: "s.self", Op: "=", Value: GoIdentExpr{Name: "id"}}},
	})
	decls = append(decls, g.flagsDecl())

	lifeDecls, err := g.lifecycleDecls(spans)
	if err != nil {
		return nil, err
	}
	decls = append(decls, lifeDecls...)

	for _, f := range g.script.Functions {
		if f.IsLifecycle {
			continue
		}
		d, err := g.funcDecl(f)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
		spans[g.rn.Func(f.Name)] = sourcemap.FuncSpan{SrcStart: f.Line, SrcEnd: f.EndLine}
	}

	tableDecls, err := g.dispatchDecls()
	if err != nil {
		return nil, err
	}
	decls = append(decls, tableDecls...)

	return decls, nil
}

func (g *generator) moduleDecls(spans map[string]sourcemap.FuncSpan) ([]GoDecl, error) {
	var decls []GoDecl

	recDecls, err := g.recordDecls(spans)
	if err != nil {
		return nil, err
	}
	decls = append(decls, recDecls...)

	for _, v := range g.script.Variables {
		t, err := g.resolveVarType(v)
		if err != nil {
			return nil, err
		}
		init, err := g.fieldInit(v, t)
		if err != nil {
			return nil, err
		}
		decls = append(decls, GoVarDecl{
			Name:  "pv_" + g.id + "_" + v.Name,
			Type:  g.goType(t),
			Value: init,
		})
	}

	for _, f := range g.script.Functions {
		if f.IsLifecycle {
			return nil, fmt.Errorf("module %s declares lifecycle hook %s", g.script.Name, f.Name)
		}
		name := "fn_" + g.id + "_" + f.Name
		params, sc, err := g.funcParams(f)
		if err != nil {
			return nil, err
		}
		g.curReturn = f.Return
		body, err := g.genBlock(f.Body, sc)
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", f.Name, err)
		}
		ret := ""
		if f.Return.Kind != types.KindVoid {
			ret = g.goType(f.Return)
		}
		decls = append(decls, GoFuncDecl{Name: name, Params: params, Return: ret, Body: body})
		spans[name] = sourcemap.FuncSpan{SrcStart: f.Line, SrcEnd: f.EndLine}
	}

	return decls, nil
}

func (g *generator) recordDecls(spans map[string]sourcemap.FuncSpan) ([]GoDecl, error) {
	var decls []GoDecl
	for _, r := range g.script.Records {
		goName := g.rn.Record(r.Name)
		var fields []GoField
		if r.Base != "" {
			if _, ok := g.arena[r.Base]; !ok {
				return nil, fmt.Errorf("record %s extends unknown record %s", r.Name, r.Base)
			}
			fields = append(fields, GoField{Type: g.rn.Record(r.Base)})
		}
		for _, f := range r.Fields {
			fields = append(fields, GoField{Name: f.Name, Type: g.goType(f.Type)})
		}
		decls = append(decls, GoStructDecl{Name: goName, Fields: fields})

		for _, m := range r.Methods {
			g.curRecord = r.Name
			params, sc, err := g.funcParams(m)
			g.curReturn = m.Return
			if err != nil {
				g.curRecord = ""
				return nil, err
			}
			body, err := g.genBlock(m.Body, sc)
			g.curRecord = ""
			if err != nil {
				return nil, fmt.Errorf("record %s method %s: %w", r.Name, m.Name, err)
			}
			ret := ""
			if m.Return.Kind != types.KindVoid {
				ret = g.goType(m.Return)
			}
			mName := g.rn.Func(m.Name)
			decls = append(decls, GoMethodDecl{
				Recv: "r", RecvType: goName, Name: mName,
				Params: params, Return: ret, Body: body,
			})
			spans[mName] = sourcemap.FuncSpan{SrcStart: m.Line, SrcEnd: m.EndLine}
		}
	}
	return decls, nil
}

func (g *generator) constructorDecl() (GoDecl, error) {
	body := []GoStmt{
		GoAssignStmt{Target: "s", Op: ":=", Value: GoRawExpr{Code: "&" + g.rn.Struct() + "{}"}},
	}
	for _, v := range g.script.Variables {
		t, err := g.resolveVarType(v)
		if err != nil {
			return nil, err
		}
		init, err := g.fieldInit(v, t)
		if err != nil {
			return nil, err
		}
		body = append(body, GoAssignStmt{
			Target: "s." + g.rn.Field(v.Name),
			Op:     "=",
			Value:  init,
		})
	}
	body = append(body, GoReturnStmt{Value: GoIdentExpr{Name: "s"}})
	return GoFuncDecl{
		Name:   g.rn.Constructor(),
		Return: "scriptrt.ScriptObject",
		Body:   body,
	}, nil
}

// fieldInit generates a field's initial value. Initializers run before
// the instance is bound to an entity, so touching the host there is an
// error.
func (g *generator) fieldInit(v *ast.Variable, t types.Type) (GoExpr, error) {
	if v.Init == nil {
		def, err := types.Default(t)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", v.Name, err)
		}
		g.noteDefaultImports(t)
		return GoRawExpr{Code: def}, nil
	}
	if initTouchesHost(g, v.Init.X) {
		return nil, fmt.Errorf("field %s: initializers cannot use the host entity", v.Name)
	}
	e, err := g.genExpr(v.Init.X, newScope(nil))
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", v.Name, err)
	}
	it := v.Init.Inferred
	if t.Kind == types.KindAny && (it == nil || it.Kind != types.KindAny) {
		return g.wrapValue(it, e)
	}
	return g.convertIfNeeded(e, it, t), nil
}

// initTouchesHost reports whether evaluating the expression would need
// the host handle or the bound entity.
func initTouchesHost(g *generator, e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.SelfExpr:
		return true
	case *ast.HostCall:
		if def, ok := hostmod.LookupFunc(x.Module, x.Func); ok && def.Kind != hostmod.Inline {
			return true
		}
		for _, a := range x.Args {
			if initTouchesHost(g, a) {
				return true
			}
		}
	case *ast.Call:
		if f, ok := g.funcs[x.Name]; ok && f.UsesHostEntity {
			return true
		}
		for _, a := range x.Args {
			if initTouchesHost(g, a) {
				return true
			}
		}
	case *ast.ModuleCall:
		if mod, ok := g.modules[x.Module]; ok {
			for _, f := range mod.Functions {
				if f.Name == x.Func && f.UsesHostEntity {
					return true
				}
			}
		}
		for _, a := range x.Args {
			if initTouchesHost(g, a) {
				return true
			}
		}
	case *ast.Member:
		return initTouchesHost(g, x.Object)
	case *ast.MethodCall:
		if initTouchesHost(g, x.Object) {
			return true
		}
		for _, a := range x.Args {
			if initTouchesHost(g, a) {
				return true
			}
		}
	case *ast.Binary:
		return initTouchesHost(g, x.Left) || initTouchesHost(g, x.Right)
	case *ast.Unary:
		return initTouchesHost(g, x.X)
	case *ast.Cast:
		return initTouchesHost(g, x.X)
	case *ast.Index:
		return initTouchesHost(g, x.Object) || initTouchesHost(g, x.Key)
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			if initTouchesHost(g, el) {
				return true
			}
		}
	case *ast.MapLit:
		for _, pr := range x.Pairs {
			if initTouchesHost(g, pr.Key) || initTouchesHost(g, pr.Value) {
				return true
			}
		}
	case *ast.RecordNew:
		for _, f := range x.Fields {
			if initTouchesHost(g, f.Value) {
				return true
			}
		}
	}
	return false
}

func (g *generator) flagsDecl() GoDecl {
	var parts []string
	for _, name := range []string{"init", "update", "fixed_update", "draw"} {
		if f, ok := g.funcs[name]; ok && f.IsLifecycle {
			parts = append(parts, lifecycleFlags[name])
		}
	}
	expr := "0"
	if len(parts) > 0 {
		expr = strings.Join(parts, " | ")
	}
	return GoMethodDecl{
		Recv: "s", RecvType: g.rn.Struct(), Name: "Flags", Return: "uint8",
		Body: []GoStmt{GoReturnStmt{Value: GoRawExpr{Code: expr}}},
	}
}

func (g *generator) lifecycleDecls(spans map[string]sourcemap.FuncSpan) ([]GoDecl, error) {
	var decls []GoDecl
	for _, name := range []string{"init", "update", "fixed_update", "draw"} {
		method := lifecycleMethods[name]
		takesDt := name == "update" || name == "fixed_update"

		f, ok := g.funcs[name]
		if !ok || !f.IsLifecycle {
			params := []GoParam{{Name: "h", Type: "scriptrt.Host"}}
			if takesDt {
				params = append(params, GoParam{Name: "_", Type: "float64"})
			}
			decls = append(decls, GoMethodDecl{
				Recv: "s", RecvType: g.rn.Struct(), Name: method, Params: params,
			})
			continue
		}

		params := []GoParam{{Name: "h", Type: "scriptrt.Host"}}
		sc := newScope(nil)
		if takesDt {
			dtName := "dt"
			if len(f.Params) > 0 {
				dtName = g.rn.Local(f.Params[0].Name)
				sc.declare(f.Params[0].Name, types.Float(64))
			}
			params = append(params, GoParam{Name: dtName, Type: "float64"})
		}

		g.curReturn = types.Void()
		body := []GoStmt{GoDeferStmt{Call: GoCallExpr{Func: "scriptrt.Intercept"}}}
		stmts, err := g.genBlock(f.Body, sc)
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", name, err)
		}
		body = append(body, stmts...)

		decls = append(decls, GoMethodDecl{
			Recv: "s", RecvType: g.rn.Struct(), Name: method, Params: params, Body: body,
		})
		spans[method] = sourcemap.FuncSpan{SrcStart: f.Line, SrcEnd: f.EndLine}
	}
	return decls, nil
}

// funcParams builds the Go parameter list and seeds the body scope. The
// host handle is threaded only through functions that need it.
func (g *generator) funcParams(f *ast.Function) ([]GoParam, *scope, error) {
	sc := newScope(nil)
	var params []GoParam
	if f.UsesHostEntity {
		params = append(params, GoParam{Name: "h", Type: "scriptrt.Host"})
	}
	for _, p := range f.Params {
		params = append(params, GoParam{Name: g.rn.Local(p.Name), Type: g.goType(p.Type)})
		sc.declare(p.Name, p.Type)
	}
	return params, sc, nil
}

func (g *generator) funcDecl(f *ast.Function) (GoDecl, error) {
	params, sc, err := g.funcParams(f)
	if err != nil {
		return nil, err
	}
	g.curReturn = f.Return
	body, err := g.genBlock(f.Body, sc)
	if err != nil {
		return nil, fmt.Errorf("fn %s: %w", f.Name, err)
	}
	ret := ""
	if f.Return.Kind != types.KindVoid {
		ret = g.goType(f.Return)
	}
	return GoMethodDecl{
		Recv: "s", RecvType: g.rn.Struct(), Name: g.rn.Func(f.Name),
		Params: params, Return: ret, Body: body,
	}, nil
}

func (g *generator) resolveVarType(v *ast.Variable) (types.Type, error) {
	if v.Type != nil {
		return *v.Type, nil
	}
	if v.Init != nil && v.Init.Inferred != nil {
		return *v.Init.Inferred, nil
	}
	return types.Void(), fmt.Errorf("variable %s has neither a type nor an initializer", v.Name)
}
