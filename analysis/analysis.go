// Package analysis computes the per-function facts code generation
// depends on: whether a function needs the host-entity handle, and
// which locals hold handles to entities other than the script's own.
package analysis

import (
	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/hostmod"
)

// Run annotates every function of the script in place. It is the only
// writer of Function.UsesHostEntity and Function.ClonedChildHandles.
func Run(s *ast.Script) {
	fields := s.VariableNames()
	fns := s.FunctionNames()

	for _, f := range s.Functions {
		f.UsesHostEntity = directHostUse(f.Body, fields)
		f.ClonedChildHandles = clonedHandles(f.Body)
	}

	propagateHostUse(s, fns)
}

// propagateHostUse closes UsesHostEntity over the bare-identifier call
// graph. A function calling one that touches the host entity needs the
// handle itself. The flag set is monotone, so len(functions) passes
// suffice.
func propagateHostUse(s *ast.Script, fns map[string]bool) {
	byName := make(map[string]*ast.Function, len(s.Functions))
	for _, f := range s.Functions {
		byName[f.Name] = f
	}

	for range s.Functions {
		changed := false
		for _, f := range s.Functions {
			if f.UsesHostEntity {
				continue
			}
			for _, callee := range calledNames(f.Body, fns) {
				if target, ok := byName[callee]; ok && target.UsesHostEntity {
					f.UsesHostEntity = true
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}

// directHostUse reports whether the statements touch the host entity
// without going through the call graph: any self reference, member
// access on self that is not a script field or function, or a host
// routed call.
func directHostUse(stmts []ast.Stmt, fields map[string]bool) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.ExprStmt:
			if exprUsesHost(st.X, fields) {
				return true
			}
		case *ast.VarDeclStmt:
			if exprUsesHost(st.Init, fields) {
				return true
			}
		case *ast.AssignStmt:
			if exprUsesHost(st.Value, fields) {
				return true
			}
		case *ast.AssignOpStmt:
			if exprUsesHost(st.Value, fields) {
				return true
			}
		case *ast.MemberAssignStmt:
			if _, isSelf := st.Object.(*ast.SelfExpr); isSelf && !fields[st.Member] {
				return true
			}
			if exprUsesHost(st.Object, fields) || exprUsesHost(st.Value, fields) {
				return true
			}
		case *ast.IndexAssignStmt:
			if exprUsesHost(st.Object, fields) || exprUsesHost(st.Index, fields) || exprUsesHost(st.Value, fields) {
				return true
			}
		case *ast.IfStmt:
			if exprUsesHost(st.Cond, fields) || directHostUse(st.Then, fields) {
				return true
			}
			for _, ei := range st.ElseIfs {
				if exprUsesHost(ei.Cond, fields) || directHostUse(ei.Body, fields) {
					return true
				}
			}
			if directHostUse(st.Else, fields) {
				return true
			}
		case *ast.ForInStmt:
			if exprUsesHost(st.Iter, fields) || directHostUse(st.Body, fields) {
				return true
			}
		case *ast.ForStmt:
			if st.Init != nil && directHostUse([]ast.Stmt{st.Init}, fields) {
				return true
			}
			if exprUsesHost(st.Cond, fields) {
				return true
			}
			if st.Post != nil && directHostUse([]ast.Stmt{st.Post}, fields) {
				return true
			}
			if directHostUse(st.Body, fields) {
				return true
			}
		case *ast.ReturnStmt:
			if exprUsesHost(st.Value, fields) {
				return true
			}
		}
	}
	return false
}

func exprUsesHost(e ast.Expr, fields map[string]bool) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *ast.SelfExpr:
		return true
	case *ast.Member:
		if _, isSelf := x.Object.(*ast.SelfExpr); isSelf {
			// self.field reads script state, anything else reaches into
			// the entity graph
			return !fields[x.Name]
		}
		return exprUsesHost(x.Object, fields)
	case *ast.HostCall:
		if hostRouted(x) {
			return true
		}
		return anyUsesHost(x.Args, fields)
	case *ast.MethodCall:
		if exprUsesHost(x.Object, fields) {
			return true
		}
		return anyUsesHost(x.Args, fields)
	case *ast.ModuleCall:
		return anyUsesHost(x.Args, fields)
	case *ast.Call:
		return anyUsesHost(x.Args, fields)
	case *ast.Binary:
		return exprUsesHost(x.Left, fields) || exprUsesHost(x.Right, fields)
	case *ast.Unary:
		return exprUsesHost(x.X, fields)
	case *ast.Cast:
		return exprUsesHost(x.X, fields)
	case *ast.Index:
		return exprUsesHost(x.Object, fields) || exprUsesHost(x.Key, fields)
	case *ast.ArrayLit:
		return anyUsesHost(x.Elems, fields)
	case *ast.MapLit:
		for _, pair := range x.Pairs {
			if exprUsesHost(pair.Key, fields) || exprUsesHost(pair.Value, fields) {
				return true
			}
		}
	case *ast.RecordNew:
		for _, f := range x.Fields {
			if exprUsesHost(f.Value, fields) {
				return true
			}
		}
	case *ast.RangeExpr:
		return exprUsesHost(x.Start, fields) || exprUsesHost(x.End, fields)
	}
	return false
}

func anyUsesHost(es []ast.Expr, fields map[string]bool) bool {
	for _, e := range es {
		if exprUsesHost(e, fields) {
			return true
		}
	}
	return false
}

// hostRouted reports whether the resolved built-in call goes through
// the host rather than being inlined as pure Go. Purity comes from the
// registry's per-function call kind, so a module may mix both.
func hostRouted(hc *ast.HostCall) bool {
	def, ok := hostmod.LookupFunc(hc.Module, hc.Func)
	if !ok {
		return true
	}
	return def.Kind != hostmod.Inline
}

// calledNames collects the bare-identifier call targets in the body,
// filtered to the script's own functions. Method and module calls do
// not contribute edges.
func calledNames(stmts []ast.Stmt, fns map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if fns[name] && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		switch x := e.(type) {
		case nil:
		case *ast.Call:
			add(x.Name)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.Binary:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.Unary:
			walkExpr(x.X)
		case *ast.Member:
			walkExpr(x.Object)
		case *ast.MethodCall:
			walkExpr(x.Object)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.HostCall:
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.ModuleCall:
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.Cast:
			walkExpr(x.X)
		case *ast.Index:
			walkExpr(x.Object)
			walkExpr(x.Key)
		case *ast.ArrayLit:
			for _, el := range x.Elems {
				walkExpr(el)
			}
		case *ast.MapLit:
			for _, pair := range x.Pairs {
				walkExpr(pair.Key)
				walkExpr(pair.Value)
			}
		case *ast.RecordNew:
			for _, f := range x.Fields {
				walkExpr(f.Value)
			}
		case *ast.RangeExpr:
			walkExpr(x.Start)
			walkExpr(x.End)
		}
	}
	var walkStmts func(body []ast.Stmt)
	walkStmts = func(body []ast.Stmt) {
		for _, s := range body {
			switch st := s.(type) {
			case *ast.ExprStmt:
				walkExpr(st.X)
			case *ast.VarDeclStmt:
				walkExpr(st.Init)
			case *ast.AssignStmt:
				walkExpr(st.Value)
			case *ast.AssignOpStmt:
				walkExpr(st.Value)
			case *ast.MemberAssignStmt:
				walkExpr(st.Object)
				walkExpr(st.Value)
			case *ast.IndexAssignStmt:
				walkExpr(st.Object)
				walkExpr(st.Index)
				walkExpr(st.Value)
			case *ast.IfStmt:
				walkExpr(st.Cond)
				walkStmts(st.Then)
				for _, ei := range st.ElseIfs {
					walkExpr(ei.Cond)
					walkStmts(ei.Body)
				}
				walkStmts(st.Else)
			case *ast.ForInStmt:
				walkExpr(st.Iter)
				walkStmts(st.Body)
			case *ast.ForStmt:
				if st.Init != nil {
					walkStmts([]ast.Stmt{st.Init})
				}
				walkExpr(st.Cond)
				if st.Post != nil {
					walkStmts([]ast.Stmt{st.Post})
				}
				walkStmts(st.Body)
			case *ast.ReturnStmt:
				walkExpr(st.Value)
			}
		}
	}
	walkStmts(stmts)
	return out
}

// clonedHandles finds locals initialized from a child or parent lookup,
// optionally behind a single cast. Such handles reference an entity
// other than the script's own and must not be assumed valid across
// handle re-acquisition.
func clonedHandles(stmts []ast.Stmt) []string {
	var out []string
	var walk func(body []ast.Stmt)
	walk = func(body []ast.Stmt) {
		for _, s := range body {
			switch st := s.(type) {
			case *ast.VarDeclStmt:
				if isHandleLookup(st.Init) {
					out = append(out, st.Name)
				}
			case *ast.IfStmt:
				walk(st.Then)
				for _, ei := range st.ElseIfs {
					walk(ei.Body)
				}
				walk(st.Else)
			case *ast.ForInStmt:
				walk(st.Body)
			case *ast.ForStmt:
				if st.Init != nil {
					walk([]ast.Stmt{st.Init})
				}
				walk(st.Body)
			}
		}
	}
	walk(stmts)
	return out
}

func isHandleLookup(e ast.Expr) bool {
	if cast, ok := e.(*ast.Cast); ok {
		e = cast.X
	}
	hc, ok := e.(*ast.HostCall)
	if !ok || hc.Module != "scene" {
		return false
	}
	return hc.Func == "get_child_by_name" || hc.Func == "get_parent"
}
