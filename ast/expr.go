package ast

import "github.com/pawlang/paw/types"

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// Ident references a local variable, parameter, or script field.
type Ident struct {
	Name string
}

func (*Ident) exprNode() {}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Text  string
}

func (*IntLit) exprNode() {}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
	Text  string
}

func (*FloatLit) exprNode() {}

// StringLit is a string literal (unquoted content).
type StringLit struct {
	Value string
}

func (*StringLit) exprNode() {}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

func (*BoolLit) exprNode() {}

// NilLit is the null value.
type NilLit struct{}

func (*NilLit) exprNode() {}

// SelfExpr references the script's own host entity.
type SelfExpr struct{}

func (*SelfExpr) exprNode() {}

// Binary is a binary operation.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Unary is a prefix operation (-x, !x).
type Unary struct {
	Op string
	X  Expr
}

func (*Unary) exprNode() {}

// Member accesses a member of an object expression.
type Member struct {
	Object Expr
	Name   string
}

func (*Member) exprNode() {}

// Call invokes a bare identifier. Only calls of this shape produce
// call-graph edges in analysis.
type Call struct {
	Name string
	Args []Expr
}

func (*Call) exprNode() {}

// MethodCall invokes a method through an object expression.
type MethodCall struct {
	Object Expr
	Name   string
	Args   []Expr
}

func (*MethodCall) exprNode() {}

// HostCall is a resolved built-in module call (module.fn(...)),
// resolved by name against the closed host module registry at parse
// time.
type HostCall struct {
	Module string
	Func   string
	Args   []Expr
}

func (*HostCall) exprNode() {}

// ModuleCall invokes a function exported by a user-defined module file,
// identified during the project pre-pass.
type ModuleCall struct {
	Module string
	Func   string
	Args   []Expr
}

func (*ModuleCall) exprNode() {}

// Cast converts an expression to a target type.
type Cast struct {
	X      Expr
	Target types.Type
}

func (*Cast) exprNode() {}

// FieldInit is one field initializer in a record construction.
type FieldInit struct {
	Name  string
	Value Expr
}

// RecordNew constructs a user-defined record.
type RecordNew struct {
	Record string
	Fields []FieldInit
}

func (*RecordNew) exprNode() {}

// ArrayLit is an ordered-list literal.
type ArrayLit struct {
	Elems []Expr
}

func (*ArrayLit) exprNode() {}

// MapPair is one key/value pair in a map literal.
type MapPair struct {
	Key   Expr
	Value Expr
}

// MapLit is an associative-map literal.
type MapLit struct {
	Pairs []MapPair
}

func (*MapLit) exprNode() {}

// Index accesses an element by key or position.
type Index struct {
	Object Expr
	Key    Expr
}

func (*Index) exprNode() {}

// RangeExpr is a half-open integer range (start..end), used by for-in.
type RangeExpr struct {
	Start Expr
	End   Expr
}

func (*RangeExpr) exprNode() {}
