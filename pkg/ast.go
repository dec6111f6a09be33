package pyro

// Module is one compiled unit: the top-level statements in program order.
type Module struct {
	Statements []Stmt
}

type Stmt interface {
	stmtNode()
}

type Expr interface {
	exprNode()
}

type ExprStmt struct {
	Expr Expr
}

type LetStmt struct {
	Name  string
	Value Expr
}

// IfStmt runs Then when Cond is a nonzero number and Else otherwise. Else is
// empty when the source has no else branch.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type NumberLit struct {
	Value float64
}

type StringLit struct {
	Value string
}

type Identifier struct {
	Name string
}

type FuncCall struct {
	Name string
	Args []Expr
}

type BinaryOp string

const (
	BinaryAddition       BinaryOp = "+"
	BinarySubtraction    BinaryOp = "-"
	BinaryMultiplication BinaryOp = "*"
	BinaryDivision       BinaryOp = "/"
)

type BinaryExpr struct {
	Operation BinaryOp
	Op1       Expr
	Op2       Expr
}

func (*ExprStmt) stmtNode() {}
func (*LetStmt) stmtNode()  {}
func (*IfStmt) stmtNode()   {}

func (*NumberLit) exprNode()  {}
func (*StringLit) exprNode()  {}
func (*Identifier) exprNode() {}
func (*FuncCall) exprNode()   {}
func (*BinaryExpr) exprNode() {}
