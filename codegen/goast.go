// Package codegen turns analyzed scripts into Go source files in
// package scripts: one struct per script, its lifecycle methods, the
// four hash-keyed dispatch tables, attribute maps, and record structs.
// Output is built as a typed tree (GoFile/GoDecl/GoStmt/GoExpr) and
// serialized by a deterministic printer.
package codegen

// GoDecl is a top-level declaration.
type GoDecl interface{ goDecl() }

// GoStmt is a statement inside a function body.
type GoStmt interface{ goStmt() }

// GoExpr is an expression.
type GoExpr interface{ goExpr() }

// GoFile represents a complete generated source file.
type GoFile struct {
	Package string
	Imports []GoImport
	Decls   []GoDecl
}

// GoImport is a single import.
type GoImport struct {
	Path  string
	Alias string // empty for default alias
}

// GoStructDecl represents: type Name struct { fields }
type GoStructDecl struct {
	Name   string
	Fields []GoField
}

func (GoStructDecl) goDecl() {}

// GoField is one struct field. An embedded field has an empty Name.
type GoField struct {
	Name string
	Type string
}

// GoVarDecl represents: var name type [= value]
type GoVarDecl struct {
	Name  string
	Type  string
	Value GoExpr // nil for uninitialized
}

func (GoVarDecl) goDecl() {}

// GoFuncDecl represents: func name(params) returnType { body }
type GoFuncDecl struct {
	Name   string
	Params []GoParam
	Return string
	Body   []GoStmt
}

func (GoFuncDecl) goDecl() {}

// GoMethodDecl represents: func (recv *RecvType) name(params) ret { body }
type GoMethodDecl struct {
	Recv     string
	RecvType string // printed as a pointer receiver
	Name     string
	Params   []GoParam
	Return   string
	Body     []GoStmt
}

func (GoMethodDecl) goDecl() {}

// GoParam is one function parameter.
type GoParam struct {
	Name string
	Type string
}

// GoRawDecl is the escape hatch for raw code at the declaration level.
type GoRawDecl struct {
	Code string
}

func (GoRawDecl) goDecl() {}

// GoExprStmt is an expression evaluated for effect.
type GoExprStmt struct {
	Expr GoExpr
}

func (GoExprStmt) goStmt() {}

// GoAssignStmt represents: target op value (":=" or "=" or "+=" ...)
type GoAssignStmt struct {
	Target string
	Op     string
	Value  GoExpr
}

func (GoAssignStmt) goStmt() {}

// GoMultiAssignStmt represents: t1, t2 := expr
type GoMultiAssignStmt struct {
	Targets []string
	Op      string
	Value   GoExpr
}

func (GoMultiAssignStmt) goStmt() {}

// GoReturnStmt represents: return [expr]
type GoReturnStmt struct {
	Value GoExpr // nil for bare return
}

func (GoReturnStmt) goStmt() {}

// GoVarStmt represents: var name type [= value]
type GoVarStmt struct {
	Name  string
	Type  string
	Value GoExpr
}

func (GoVarStmt) goStmt() {}

// GoIfStmt represents: if cond { } [else if ...] [else { }]
type GoIfStmt struct {
	Cond   GoExpr
	Body   []GoStmt
	ElseIf []GoElseIf
	Else   []GoStmt
}

func (GoIfStmt) goStmt() {}

// GoElseIf is one else-if branch.
type GoElseIf struct {
	Cond GoExpr
	Body []GoStmt
}

// GoForStmt represents: for [init]; [cond]; [post] { }. Init and Post
// are pre-rendered single-line clauses.
type GoForStmt struct {
	Init string
	Cond string
	Post string
	Body []GoStmt
}

func (GoForStmt) goStmt() {}

// GoForRangeStmt represents: for key[, value] := range collection { }
type GoForRangeStmt struct {
	Key        string
	Value      string
	Collection GoExpr
	Body       []GoStmt
}

func (GoForRangeStmt) goStmt() {}

// GoDeferStmt represents: defer call
type GoDeferStmt struct {
	Call GoExpr
}

func (GoDeferStmt) goStmt() {}

// GoBlankLine emits a blank line.
type GoBlankLine struct{}

func (GoBlankLine) goStmt() {}
func (GoBlankLine) goDecl() {}

// GoComment represents: // text
type GoComment struct {
	Text string
}

func (GoComment) goStmt() {}
func (GoComment) goDecl() {}

// GoRawStmt is the escape hatch at the statement level.
type GoRawStmt struct {
	Code string
}

func (GoRawStmt) goStmt() {}

// GoRawExpr wraps a raw Go expression string (value-bridge output).
type GoRawExpr struct {
	Code string
}

func (GoRawExpr) goExpr() {}

// GoIdentExpr is an identifier reference.
type GoIdentExpr struct {
	Name string
}

func (GoIdentExpr) goExpr() {}

// GoIntLit is an integer literal.
type GoIntLit struct {
	Value string
}

func (GoIntLit) goExpr() {}

// GoFloatLit is a float literal.
type GoFloatLit struct {
	Value string
}

func (GoFloatLit) goExpr() {}

// GoStringLit is a string literal; Value is the unquoted content.
type GoStringLit struct {
	Value string
}

func (GoStringLit) goExpr() {}

// GoBoolLit is a boolean literal.
type GoBoolLit struct {
	Value bool
}

func (GoBoolLit) goExpr() {}

// GoNilExpr is nil.
type GoNilExpr struct{}

func (GoNilExpr) goExpr() {}

// GoBinaryExpr represents: left op right
type GoBinaryExpr struct {
	Left  GoExpr
	Op    string
	Right GoExpr
}

func (GoBinaryExpr) goExpr() {}

// GoUnaryExpr represents: op operand
type GoUnaryExpr struct {
	Op      string
	Operand GoExpr
}

func (GoUnaryExpr) goExpr() {}

// GoCastExpr represents a conversion: type(value)
type GoCastExpr struct {
	Type  string
	Value GoExpr
}

func (GoCastExpr) goExpr() {}

// GoCallExpr represents: fn(args...)
type GoCallExpr struct {
	Func string
	Args []GoExpr
}

func (GoCallExpr) goExpr() {}

// GoMethodCallExpr represents: obj.Method(args...)
type GoMethodCallExpr struct {
	Object GoExpr
	Method string
	Args   []GoExpr
}

func (GoMethodCallExpr) goExpr() {}

// GoDotExpr represents field access: obj.Field
type GoDotExpr struct {
	Object GoExpr
	Field  string
}

func (GoDotExpr) goExpr() {}

// GoSliceLit represents: []T{a, b, c}
type GoSliceLit struct {
	Type     string
	Elements []GoExpr
}

func (GoSliceLit) goExpr() {}

// GoMapLit represents: map[K]V{k: v, ...}
type GoMapLit struct {
	KeyType string
	ValType string
	Pairs   []GoMapPair
}

func (GoMapLit) goExpr() {}

// GoMapPair is one key/value pair in a map literal. Multiline map
// literals print one pair per line.
type GoMapPair struct {
	Key   GoExpr
	Value GoExpr
}

// GoCompositeLit represents: T{Field: value, ...}
type GoCompositeLit struct {
	Type   string
	Fields []GoFieldInit
}

func (GoCompositeLit) goExpr() {}

// GoFieldInit is one field initializer in a composite literal.
type GoFieldInit struct {
	Name  string
	Value GoExpr
}

// GoFuncLit represents a function literal: func(params) ret { body }
type GoFuncLit struct {
	Params []GoParam
	Return string
	Body   []GoStmt
}

func (GoFuncLit) goExpr() {}

// GoIIFEExpr is a self-calling function literal: func() ret { body }()
type GoIIFEExpr struct {
	Return string
	Body   []GoStmt
	Result GoExpr // final return expression; nil to omit
}

func (GoIIFEExpr) goExpr() {}

// GoIndexExpr represents: obj[idx]
type GoIndexExpr struct {
	Object GoExpr
	Index  GoExpr
}

func (GoIndexExpr) goExpr() {}

// GoParenExpr represents: (expr)
type GoParenExpr struct {
	Inner GoExpr
}

func (GoParenExpr) goExpr() {}
