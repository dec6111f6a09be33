package pyro

import (
	"bytes"
	gotoken "go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"
)

const (
	placeholderCall  = "<unsupported call>"
	placeholderPrint = "<print: missing arg>"
)

// Names the generated program declares or imports. A Pyro variable never
// binds them directly.
var reservedGoNames = map[string]bool{
	"_":       true,
	"fmt":     true,
	"strconv": true,
	"float64": true,
	"num":     true,
	"show":    true,
}

// num makes a literal a float64 value so arithmetic happens at run time.
const numHelper = `
func num(v float64) float64 { return v }
`

// show prints numbers in plain decimal notation.
const showHelper = `
func show(v interface{}) {
	if f, ok := v.(float64); ok {
		fmt.Println(strconv.FormatFloat(f, 'f', -1, 64))
		return
	}
	fmt.Println(v)
}
`

// GoGenerator lowers a Module into a Go main package. Imports are left to
// FormatGo.
type GoGenerator struct {
	out         *bytes.Buffer
	indentlevel int

	// Pyro name to Go name, innermost block last
	scopes    []map[string]string
	userNames map[string]bool
	goNames   map[string]bool

	requiresNum  bool
	requiresShow bool
}

func NewGoGenerator() *GoGenerator {
	return &GoGenerator{
		out:       &bytes.Buffer{},
		userNames: make(map[string]bool),
		goNames:   make(map[string]bool),
	}
}

// Generate returns the formatted Go program for m. It never fails: when the
// text can't be formatted it is returned as emitted.
func Generate(m *Module) string {
	src := NewGoGenerator().Do(m)

	formatted, err := FormatGo(src)
	if err != nil {
		return src
	}

	return formatted
}

// FormatGo runs gofmt over generated source and adds the imports it needs.
func FormatGo(src string) (string, error) {
	out, err := imports.Process("main.go", []byte(src), nil)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// Do emits the program text without its import declarations.
func (g *GoGenerator) Do(m *Module) string {
	var codeBuf bytes.Buffer
	g.out = &codeBuf
	g.userNames = collectNames(m.Statements)
	g.goNames = make(map[string]bool)

	g.writeLine("func main() {")
	g.block(m.Statements)
	g.writeLine("}")

	if g.requiresNum {
		codeBuf.WriteString(numHelper)
	}

	if g.requiresShow {
		codeBuf.WriteString(showHelper)
	}

	return "package main\n\n" + codeBuf.String()
}

func (g *GoGenerator) indent() {
	g.out.WriteString(strings.Repeat("\t", g.indentlevel))
}

func (g *GoGenerator) writeLine(s string) {
	g.indent()
	g.out.WriteString(s)
	g.out.WriteString("\n")
}

func (g *GoGenerator) block(stmts []Stmt) {
	g.indentlevel++
	g.scopes = append(g.scopes, make(map[string]string))

	for _, stmt := range stmts {
		g.statement(stmt)
	}

	g.scopes = g.scopes[:len(g.scopes)-1]
	g.indentlevel--
}

func (g *GoGenerator) statement(stmt Stmt) {
	switch s := stmt.(type) {
	case *LetStmt:
		g.letStmt(s)
	case *IfStmt:
		g.indent()
		g.ifStmt(s)
	case *ExprStmt:
		if call, ok := s.Expr.(*FuncCall); ok && call.Name == "print" {
			g.printStmt(call)
		}
		// Any other expression statement has no effect on the output
	}
}

// letStmt declares a new Go variable for every binding, so a rebinding may
// change the value's type.
func (g *GoGenerator) letStmt(s *LetStmt) {
	value := g.expression(s.Value)
	name := g.bind(s.Name)

	g.writeLine(name + " := " + value)
	g.writeLine("_ = " + name)
}

// bind picks the Go name for a new binding of name in the current block. The
// first binding keeps the name when Go allows it, later ones get a suffix
// that no Pyro identifier of the module uses.
func (g *GoGenerator) bind(name string) string {
	goName := name
	if !usableGoName(name) || g.goNames[name] {
		goName = name + "_"
		for i := 2; g.userNames[goName] || g.goNames[goName]; i++ {
			goName = name + "_" + strconv.Itoa(i)
		}
	}

	g.goNames[goName] = true
	g.scopes[len(g.scopes)-1][name] = goName
	return goName
}

func (g *GoGenerator) lookup(name string) string {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if goName, ok := g.scopes[i][name]; ok {
			return goName
		}
	}

	// Unbound: left for the Go compiler to reject
	if usableGoName(name) {
		return name
	}

	return name + "_"
}

func usableGoName(name string) bool {
	return !gotoken.IsKeyword(name) && !reservedGoNames[name]
}

func (g *GoGenerator) printStmt(call *FuncCall) {
	g.requiresShow = true

	if len(call.Args) == 0 {
		g.writeLine("show(" + strconv.Quote(placeholderPrint) + ")")
		return
	}

	g.writeLine("show(" + g.expression(call.Args[0]) + ")")
}

// ifStmt expects the caller to have written the indentation, so else-if
// chains can continue on the closing brace line.
func (g *GoGenerator) ifStmt(s *IfStmt) {
	g.out.WriteString("if float64(" + g.expression(s.Cond) + ") != 0 {\n")
	g.block(s.Then)

	switch {
	case len(s.Else) == 0:
		g.writeLine("}")
	case isElseIf(s.Else):
		g.indent()
		g.out.WriteString("} else ")
		g.ifStmt(s.Else[0].(*IfStmt))
	default:
		g.writeLine("} else {")
		g.block(s.Else)
		g.writeLine("}")
	}
}

func isElseIf(stmts []Stmt) bool {
	if len(stmts) != 1 {
		return false
	}

	_, ok := stmts[0].(*IfStmt)
	return ok
}

func (g *GoGenerator) expression(expr Expr) string {
	switch e := expr.(type) {
	case *NumberLit:
		g.requiresNum = true
		return "num(" + goFloat(e.Value) + ")"
	case *StringLit:
		return strconv.Quote(e.Value)
	case *Identifier:
		return g.lookup(e.Name)
	case *BinaryExpr:
		return "(" + g.expression(e.Op1) + " " + string(e.Operation) + " " + g.expression(e.Op2) + ")"
	case *FuncCall:
		// Only print has a meaning, and only as a statement
		return strconv.Quote(placeholderCall)
	default:
		return strconv.Quote(placeholderCall)
	}
}

// goFloat renders v so that Go reads it back as a float64 constant.
func goFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}

	return s + ".0"
}

func collectNames(stmts []Stmt) map[string]bool {
	names := make(map[string]bool)

	var expr func(e Expr)
	expr = func(e Expr) {
		switch e := e.(type) {
		case *Identifier:
			names[e.Name] = true
		case *BinaryExpr:
			expr(e.Op1)
			expr(e.Op2)
		case *FuncCall:
			for _, arg := range e.Args {
				expr(arg)
			}
		}
	}

	var walk func(stmts []Stmt)
	walk = func(stmts []Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *LetStmt:
				names[s.Name] = true
				expr(s.Value)
			case *IfStmt:
				expr(s.Cond)
				walk(s.Then)
				walk(s.Else)
			case *ExprStmt:
				expr(s.Expr)
			}
		}
	}

	walk(stmts)
	return names
}
