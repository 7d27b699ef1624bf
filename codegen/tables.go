package codegen

import (
	"fmt"
	"sort"

	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/scriptrt"
	"github.com/pawlang/paw/types"
)

// hashKeys assigns a hash literal to each member name of one table,
// failing the build on a collision within that table.
func hashKeys(table string, names []string) (map[string]string, error) {
	seen := make(map[uint64]string, len(names))
	out := make(map[string]string, len(names))
	for _, n := range names {
		h := scriptrt.NameHash(n)
		if prev, dup := seen[h]; dup {
			return nil, fmt.Errorf("%s table: name hash collision between %q and %q", table, prev, n)
		}
		seen[h] = n
		out[n] = fmt.Sprintf("0x%x", h)
	}
	return out, nil
}

// dispatchDecls emits the four hash-keyed dispatch tables, their
// interface methods, and the attribute metadata maps.
func (g *generator) dispatchDecls() ([]GoDecl, error) {
	var decls []GoDecl

	var rwVars []*ast.Variable
	var applyVars []*ast.Variable
	for _, v := range g.script.Variables {
		if v.Public {
			rwVars = append(rwVars, v)
		}
		if v.Exposed {
			applyVars = append(applyVars, v)
		}
	}
	var callFns []*ast.Function
	for _, f := range g.script.Functions {
		if f.IsLifecycle || f.HasAttribute("skip") {
			continue
		}
		callFns = append(callFns, f)
	}

	readDecl, writeDecl, err := g.readWriteTables(rwVars)
	if err != nil {
		return nil, err
	}
	applyDecl, err := g.applyTable(applyVars)
	if err != nil {
		return nil, err
	}
	callDecl, err := g.callTable(callFns)
	if err != nil {
		return nil, err
	}
	decls = append(decls, readDecl, writeDecl, applyDecl, callDecl)

	st := g.rn.Struct()

	decls = append(decls, GoMethodDecl{
		Recv: "s", RecvType: st, Name: "Read",
		Params: []GoParam{{Name: "key", Type: "uint64"}},
		Return: "(scriptrt.Value, bool)",
		Body: []GoStmt{
			GoMultiAssignStmt{Targets: []string{"fn", "ok"}, Op: ":=", Value: GoRawExpr{Code: "readTable_" + g.id + "[key]"}},
			GoIfStmt{Cond: GoRawExpr{Code: "!ok"}, Body: []GoStmt{
				GoReturnStmt{Value: GoRawExpr{Code: "scriptrt.Null(), false"}},
			}},
			GoReturnStmt{Value: GoRawExpr{Code: "fn(s), true"}},
		},
	})

	decls = append(decls, GoMethodDecl{
		Recv: "s", RecvType: st, Name: "Write",
		Params: []GoParam{{Name: "key", Type: "uint64"}, {Name: "v", Type: "scriptrt.Value"}},
		Return: "bool",
		Body: []GoStmt{
			GoMultiAssignStmt{Targets: []string{"fn", "ok"}, Op: ":=", Value: GoRawExpr{Code: "writeTable_" + g.id + "[key]"}},
			GoIfStmt{Cond: GoRawExpr{Code: "!ok"}, Body: []GoStmt{
				GoReturnStmt{Value: GoBoolLit{Value: false}},
			}},
			GoReturnStmt{Value: GoRawExpr{Code: "fn(s, v)"}},
		},
	})

	decls = append(decls, GoMethodDecl{
		Recv: "s", RecvType: st, Name: "Apply",
		Params: []GoParam{{Name: "key", Type: "uint64"}, {Name: "v", Type: "scriptrt.Value"}},
		Body: []GoStmt{
			GoIfStmt{
				Cond: GoRawExpr{Code: "fn, ok := applyTable_" + g.id + "[key]; ok"},
				Body: []GoStmt{GoExprStmt{Expr: GoRawExpr{Code: "fn(s, v)"}}},
			},
		},
	})

	decls = append(decls, GoMethodDecl{
		Recv: "s", RecvType: st, Name: "Call",
		Params: []GoParam{
			{Name: "key", Type: "uint64"},
			{Name: "args", Type: "[]scriptrt.Value"},
			{Name: "h", Type: "scriptrt.Host"},
		},
		Return: "bool",
		Body: []GoStmt{
			GoMultiAssignStmt{Targets: []string{"fn", "ok"}, Op: ":=", Value: GoRawExpr{Code: "callTable_" + g.id + "[key]"}},
			GoIfStmt{Cond: GoRawExpr{Code: "!ok"}, Body: []GoStmt{
				GoReturnStmt{Value: GoBoolLit{Value: false}},
			}},
			GoDeferStmt{Call: GoCallExpr{Func: "scriptrt.Intercept"}},
			GoExprStmt{Expr: GoRawExpr{Code: "fn(s, args, h)"}},
			GoReturnStmt{Value: GoBoolLit{Value: true}},
		},
	})

	attrDecls := g.attributeDecls()
	decls = append(decls, attrDecls...)

	return decls, nil
}

func (g *generator) readWriteTables(vars []*ast.Variable) (GoDecl, GoDecl, error) {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	keys, err := hashKeys("read/write", names)
	if err != nil {
		return nil, nil, err
	}

	st := g.rn.Struct()
	var readPairs, writePairs []GoMapPair
	for _, v := range vars {
		t, err := g.resolveVarType(v)
		if err != nil {
			return nil, nil, err
		}
		fieldExpr := "s." + g.rn.Field(v.Name)

		wrapped, err := types.WrapValue(t, fieldExpr)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", v.Name, err)
		}
		readPairs = append(readPairs, GoMapPair{
			Key: GoRawExpr{Code: keys[v.Name]},
			Value: GoFuncLit{
				Params: []GoParam{{Name: "s", Type: "*" + st}},
				Return: "scriptrt.Value",
				Body:   []GoStmt{GoReturnStmt{Value: GoRawExpr{Code: wrapped}}},
			},
		})

		ext, err := types.ExtractFromValueWith(t, "v", g.recordGoName)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", v.Name, err)
		}
		// A failed extraction mutates nothing and reports the refusal.
		writePairs = append(writePairs, GoMapPair{
			Key: GoRawExpr{Code: keys[v.Name]},
			Value: GoFuncLit{
				Params: []GoParam{{Name: "s", Type: "*" + st}, {Name: "v", Type: "scriptrt.Value"}},
				Return: "bool",
				Body: []GoStmt{
					GoMultiAssignStmt{Targets: []string{"out", "ok"}, Op: ":=", Value: GoRawExpr{Code: ext.Expr}},
					GoIfStmt{Cond: GoRawExpr{Code: "!ok"}, Body: []GoStmt{
						GoReturnStmt{Value: GoBoolLit{Value: false}},
					}},
					GoAssignStmt{Target: fieldExpr, Op: "=", Value: GoIdentExpr{Name: "out"}},
					GoReturnStmt{Value: GoBoolLit{Value: true}},
				},
			},
		})
	}

	readDecl := GoVarDecl{
		Name:  "readTable_" + g.id,
		Value: GoMapLit{KeyType: "uint64", ValType: "func(s *" + st + ") scriptrt.Value", Pairs: readPairs},
	}
	writeDecl := GoVarDecl{
		Name:  "writeTable_" + g.id,
		Value: GoMapLit{KeyType: "uint64", ValType: "func(s *" + st + ", v scriptrt.Value) bool", Pairs: writePairs},
	}
	return readDecl, writeDecl, nil
}

func (g *generator) applyTable(vars []*ast.Variable) (GoDecl, error) {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	keys, err := hashKeys("apply", names)
	if err != nil {
		return nil, err
	}

	st := g.rn.Struct()
	var pairs []GoMapPair
	for _, v := range vars {
		t, err := g.resolveVarType(v)
		if err != nil {
			return nil, err
		}
		ext, err := types.ExtractFromValueWith(t, "v", g.recordGoName)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", v.Name, err)
		}
		// Apply skips silently on a failed extraction.
		pairs = append(pairs, GoMapPair{
			Key: GoRawExpr{Code: keys[v.Name]},
			Value: GoFuncLit{
				Params: []GoParam{{Name: "s", Type: "*" + st}, {Name: "v", Type: "scriptrt.Value"}},
				Body: []GoStmt{
					GoMultiAssignStmt{Targets: []string{"out", "ok"}, Op: ":=", Value: GoRawExpr{Code: ext.Expr}},
					GoIfStmt{Cond: GoRawExpr{Code: "ok"}, Body: []GoStmt{
						GoAssignStmt{Target: "s." + g.rn.Field(v.Name), Op: "=", Value: GoIdentExpr{Name: "out"}},
					}},
				},
			},
		})
	}
	return GoVarDecl{
		Name:  "applyTable_" + g.id,
		Value: GoMapLit{KeyType: "uint64", ValType: "func(s *" + st + ", v scriptrt.Value)", Pairs: pairs},
	}, nil
}

func (g *generator) callTable(fns []*ast.Function) (GoDecl, error) {
	names := make([]string, len(fns))
	for i, f := range fns {
		names[i] = f.Name
	}
	keys, err := hashKeys("call", names)
	if err != nil {
		return nil, err
	}

	st := g.rn.Struct()
	var pairs []GoMapPair
	for _, f := range fns {
		body, err := g.callEntry(f)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, GoMapPair{
			Key: GoRawExpr{Code: keys[f.Name]},
			Value: GoFuncLit{
				Params: []GoParam{
					{Name: "s", Type: "*" + st},
					{Name: "args", Type: "[]scriptrt.Value"},
					{Name: "h", Type: "scriptrt.Host"},
				},
				Body: body,
			},
		})
	}
	return GoVarDecl{
		Name:  "callTable_" + g.id,
		Value: GoMapLit{KeyType: "uint64", ValType: "func(s *" + st + ", args []scriptrt.Value, h scriptrt.Host)", Pairs: pairs},
	}, nil
}

// callEntry builds one call-table body: each argument that is missing
// or fails extraction is replaced by its type's default.
func (g *generator) callEntry(f *ast.Function) ([]GoStmt, error) {
	var body []GoStmt
	argNames := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := fmt.Sprintf("p%d", i)
		argNames[i] = name

		def, err := types.Default(p.Type)
		if err != nil {
			return nil, fmt.Errorf("fn %s param %s: %w", f.Name, p.Name, err)
		}
		g.noteDefaultImports(p.Type)
		ext, err := types.ExtractFromValueWith(p.Type, fmt.Sprintf("args[%d]", i), g.recordGoName)
		if err != nil {
			return nil, fmt.Errorf("fn %s param %s: %w", f.Name, p.Name, err)
		}

		body = append(body,
			GoVarStmt{Name: name, Type: g.goType(p.Type), Value: GoRawExpr{Code: def}},
			GoIfStmt{
				Cond: GoRawExpr{Code: fmt.Sprintf("len(args) > %d", i)},
				Body: []GoStmt{
					GoMultiAssignStmt{Targets: []string{"out", "ok"}, Op: ":=", Value: GoRawExpr{Code: ext.Expr}},
					GoIfStmt{Cond: GoRawExpr{Code: "ok"}, Body: []GoStmt{
						GoAssignStmt{Target: name, Op: "=", Value: GoIdentExpr{Name: "out"}},
					}},
				},
			},
		)
	}

	callArgs := make([]GoExpr, 0, len(argNames)+1)
	if f.UsesHostEntity {
		callArgs = append(callArgs, GoIdentExpr{Name: "h"})
	}
	for _, n := range argNames {
		callArgs = append(callArgs, GoIdentExpr{Name: n})
	}
	body = append(body, GoExprStmt{Expr: GoCallExpr{Func: "s." + g.rn.Func(f.Name), Args: callArgs}})
	return body, nil
}

// attributeDecls emits the member-to-attributes map and its reverse
// index, plus the two accessor methods.
func (g *generator) attributeDecls() []GoDecl {
	members := make([]string, 0, len(g.script.Attributes))
	for m := range g.script.Attributes {
		members = append(members, m)
	}
	sort.Strings(members)

	var memberPairs []GoMapPair
	reverse := make(map[string][]string)
	for _, m := range members {
		attrs := g.script.Attributes[m]
		elems := make([]GoExpr, len(attrs))
		for i, a := range attrs {
			elems[i] = GoStringLit{Value: a}
			reverse[a] = append(reverse[a], m)
		}
		memberPairs = append(memberPairs, GoMapPair{
			Key:   GoStringLit{Value: m},
			Value: GoSliceLit{Type: "[]string", Elements: elems},
		})
	}

	attrs := make([]string, 0, len(reverse))
	for a := range reverse {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	var attrPairs []GoMapPair
	for _, a := range attrs {
		ms := reverse[a]
		sort.Strings(ms)
		elems := make([]GoExpr, len(ms))
		for i, m := range ms {
			elems[i] = GoStringLit{Value: m}
		}
		attrPairs = append(attrPairs, GoMapPair{
			Key:   GoStringLit{Value: a},
			Value: GoSliceLit{Type: "[]string", Elements: elems},
		})
	}

	st := g.rn.Struct()
	return []GoDecl{
		GoVarDecl{
			Name:  "memberAttrs_" + g.id,
			Value: GoMapLit{KeyType: "string", ValType: "[]string", Pairs: memberPairs},
		},
		GoVarDecl{
			Name:  "attrMembers_" + g.id,
			Value: GoMapLit{KeyType: "string", ValType: "[]string", Pairs: attrPairs},
		},
		GoMethodDecl{
			Recv: "s", RecvType: st, Name: "MemberAttributes", Return: "map[string][]string",
			Body: []GoStmt{GoReturnStmt{Value: GoIdentExpr{Name: "memberAttrs_" + g.id}}},
		},
		GoMethodDecl{
			Recv: "s", RecvType: st, Name: "AttributeMembers", Return: "map[string][]string",
			Body: []GoStmt{GoReturnStmt{Value: GoIdentExpr{Name: "attrMembers_" + g.id}}},
		},
	}
}
