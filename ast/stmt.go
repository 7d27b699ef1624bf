package ast

import "github.com/pawlang/paw/types"

// Stmt is a statement in a function body.
type Stmt interface {
	stmtNode()
	Pos() int
}

// BaseStmt carries source position info common to all statements.
type BaseStmt struct {
	SourceLine int
	EndLine    int
}

func (b BaseStmt) Pos() int { return b.SourceLine }

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	BaseStmt
	X Expr
}

func (*ExprStmt) stmtNode() {}

// VarDeclStmt declares a local variable, optionally typed and
// initialized.
type VarDeclStmt struct {
	BaseStmt
	Name     string
	DeclType *types.Type
	Init     Expr
}

func (*VarDeclStmt) stmtNode() {}

// AssignStmt assigns to a bare local or script field.
type AssignStmt struct {
	BaseStmt
	Name  string
	Value Expr
}

func (*AssignStmt) stmtNode() {}

// AssignOpStmt is a compound assignment (+=, -=, *=, /=).
type AssignOpStmt struct {
	BaseStmt
	Name  string
	Op    string
	Value Expr
}

func (*AssignOpStmt) stmtNode() {}

// MemberAssignStmt assigns through a member access (self.x = e,
// obj.field = e).
type MemberAssignStmt struct {
	BaseStmt
	Object Expr
	Member string
	Value  Expr
}

func (*MemberAssignStmt) stmtNode() {}

// IndexAssignStmt assigns through an index (xs[i] = e).
type IndexAssignStmt struct {
	BaseStmt
	Object Expr
	Index  Expr
	Value  Expr
}

func (*IndexAssignStmt) stmtNode() {}

// ElseIf is one else-if branch.
type ElseIf struct {
	Cond Expr
	Body []Stmt
}

// IfStmt is a conditional with optional else-if chain and else.
type IfStmt struct {
	BaseStmt
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
}

func (*IfStmt) stmtNode() {}

// ForInStmt iterates a range or container.
type ForInStmt struct {
	BaseStmt
	Var  string
	Iter Expr
	Body []Stmt
}

func (*ForInStmt) stmtNode() {}

// ForStmt is a traditional three-clause loop.
type ForStmt struct {
	BaseStmt
	Init Stmt
	Cond Expr
	Post Stmt
	Body []Stmt
}

func (*ForStmt) stmtNode() {}

// ReturnStmt returns from the enclosing function.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil for a bare return
}

func (*ReturnStmt) stmtNode() {}

// PassStmt is an explicit no-op body.
type PassStmt struct {
	BaseStmt
}

func (*PassStmt) stmtNode() {}
