// ast.go: typed AST node variants produced by the parser.
package exprlang

// Node is implemented by every AST node. Line/Col point at the token that
// starts the node (1-based line, 0-based column).
type Node interface {
	Pos() (line, col int)
	node() // sealed marker
}

type pos struct {
	Line int
	Col  int
}

func (p pos) Pos() (int, int) { return p.Line, p.Col }

func at(t Token) pos { return pos{Line: t.Line, Col: t.Col} }

// NumberLit is a numeric literal.
type NumberLit struct {
	pos
	Value float64
}

// StringLit is a quoted string literal (content without quotes).
type StringLit struct {
	pos
	Value string
}

// BoolLit is true/false (either capitalization).
type BoolLit struct {
	pos
	Value bool
}

// ItRef is the implicit iteration variable "@it" inside a predicate.
type ItRef struct {
	pos
}

// Ident is a variable reference.
type Ident struct {
	pos
	Name string
}

// ArrayLit is "[e1, e2, ...]".
type ArrayLit struct {
	pos
	Elems []Node
}

// IndexExpr is "base[index]".
type IndexExpr struct {
	pos
	Base  Node
	Index Node
}

// UnaryExpr is "-x", "!x" or "not x".
type UnaryExpr struct {
	pos
	Op      string
	Operand Node
}

// BinaryExpr is "lhs op rhs" for arithmetic, relational, equality and
// logical operators.
type BinaryExpr struct {
	pos
	Op    string
	Left  Node
	Right Node
}

// AssignStmt is "name = expr"; valid only at the head of a statement.
type AssignStmt struct {
	pos
	Name  string
	Value Node
}

// CallExpr is "name(arg1, ...)" for the named builtin functions.
type CallExpr struct {
	pos
	Name string
	Args []Node
}

// CollectExpr is the collection-call special form
// "filter(coll, {pred})" / "all(coll, {pred})" / "any(coll, {pred})".
// The predicate body may reference @it.
type CollectExpr struct {
	pos
	Name string
	Coll Node
	Pred Node
}

// Program is a sequence of ';'-separated statements.
type Program struct {
	pos
	Stmts []Node
}

func (NumberLit) node()   {}
func (StringLit) node()   {}
func (BoolLit) node()     {}
func (ItRef) node()       {}
func (Ident) node()       {}
func (ArrayLit) node()    {}
func (IndexExpr) node()   {}
func (UnaryExpr) node()   {}
func (BinaryExpr) node()  {}
func (AssignStmt) node()  {}
func (CallExpr) node()    {}
func (CollectExpr) node() {}
func (Program) node()     {}
