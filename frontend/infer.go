package frontend

import (
	"github.com/pawlang/paw/ast"
	"github.com/pawlang/paw/hostmod"
	"github.com/pawlang/paw/types"
)

// Infer performs the light local type inference every front-end applies
// to initializers it can resolve lexically: literals, built-in module
// return types, casts, record construction, and container literals with
// uniform elements. It returns nil when the type cannot be determined
// locally; gaps still unresolved at generation time are fatal.
func Infer(e ast.Expr, nodeType string) *types.Type {
	switch t := e.(type) {
	case *ast.IntLit:
		return ptr(types.Int(64))
	case *ast.FloatLit:
		return ptr(types.Float(64))
	case *ast.StringLit:
		return ptr(types.String())
	case *ast.BoolLit:
		return ptr(types.Bool())
	case *ast.SelfExpr:
		if nodeType != "" {
			return ptr(types.Node(nodeType))
		}
		return ptr(types.DynNode())
	case *ast.Cast:
		return ptr(t.Target)
	case *ast.RecordNew:
		return ptr(types.Record(t.Record))
	case *ast.HostCall:
		if def, ok := hostmod.LookupFunc(t.Module, t.Func); ok && def.Ret.Kind != types.KindVoid {
			return ptr(def.Ret)
		}
	case *ast.RangeExpr:
		return ptr(types.Array(types.Int(64)))
	case *ast.Unary:
		return Infer(t.X, nodeType)
	case *ast.Binary:
		switch t.Op {
		case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
			return ptr(types.Bool())
		}
		l := Infer(t.Left, nodeType)
		r := Infer(t.Right, nodeType)
		if l != nil && r != nil && l.Equal(*r) {
			return l
		}
		if l != nil && r != nil {
			if types.CanImplicitlyConvert(*l, *r) {
				return r
			}
			if types.CanImplicitlyConvert(*r, *l) {
				return l
			}
		}
	case *ast.ArrayLit:
		var elem *types.Type
		for _, el := range t.Elems {
			et := Infer(el, nodeType)
			if et == nil {
				return nil
			}
			if elem == nil {
				elem = et
			} else if !elem.Equal(*et) {
				return ptr(types.Array(types.Any()))
			}
		}
		if elem == nil {
			return ptr(types.Array(types.Any()))
		}
		return ptr(types.Array(*elem))
	case *ast.MapLit:
		var elem *types.Type
		for _, p := range t.Pairs {
			vt := Infer(p.Value, nodeType)
			if vt == nil {
				return nil
			}
			if elem == nil {
				elem = vt
			} else if !elem.Equal(*vt) {
				return ptr(types.Map(types.String(), types.Any()))
			}
		}
		if elem == nil {
			return ptr(types.Map(types.String(), types.Any()))
		}
		return ptr(types.Map(types.String(), *elem))
	}
	return nil
}

func ptr(t types.Type) *types.Type { return &t }
