package pyro

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ValueLookup maps Pyro variable names to the IR values bound to them.
type ValueLookup struct {
	vals map[string]value.Value
}

func NewValueLookup() *ValueLookup {
	return &ValueLookup{
		vals: make(map[string]value.Value),
	}
}

func (l *ValueLookup) Inherit(t2 *ValueLookup) {
	for k, v := range t2.vals {
		l.Set(k, v)
	}
}

func (l *ValueLookup) Get(id string) (value.Value, bool) {
	val, ok := l.vals[id]
	return val, ok
}

func (l *ValueLookup) Set(id string, val value.Value) {
	l.vals[id] = val
}

// LLVMIRBuilder lowers statements into the body of main. Numbers are doubles
// and strings are pointers to private constant char arrays.
type LLVMIRBuilder struct {
	mod      *ir.Module
	fn       *ir.Func
	block    *ir.Block
	values   *ValueLookup
	builtins map[string]*ir.Func
	nstrings int
}

func NewLLVMIRBuilder() *LLVMIRBuilder {
	builder := &LLVMIRBuilder{
		mod:      ir.NewModule(),
		values:   NewValueLookup(),
		builtins: make(map[string]*ir.Func),
	}

	defineBuiltins(builder)
	return builder
}

func (b *LLVMIRBuilder) errorf(format string, args ...interface{}) error {
	return &GenerateError{Msg: fmt.Sprintf(format, args...)}
}

func (b *LLVMIRBuilder) main(stmts []Stmt) error {
	b.fn = b.mod.NewFunc("main", types.I32)
	b.block = b.fn.NewBlock("")

	if err := b.statements(stmts); err != nil {
		return err
	}

	b.block.NewRet(constant.NewInt(types.I32, 0))
	return nil
}

// statements lowers a block with its own scope: bindings made inside are
// dropped when it ends.
func (b *LLVMIRBuilder) statements(stmts []Stmt) error {
	prevVals := b.values
	b.values = NewValueLookup()
	b.values.Inherit(prevVals)

	defer func() {
		b.values = prevVals
	}()

	for _, stmt := range stmts {
		if err := b.statement(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (b *LLVMIRBuilder) statement(stmt Stmt) error {
	switch s := stmt.(type) {
	case *LetStmt:
		return b.variableDecl(s)
	case *IfStmt:
		return b.ifStmt(s)
	case *ExprStmt:
		if call, ok := s.Expr.(*FuncCall); ok && call.Name == "print" {
			return b.printCall(call)
		}
	}

	return nil
}

func (b *LLVMIRBuilder) variableDecl(s *LetStmt) error {
	v, err := b.recursiveLoad(s.Value)
	if err != nil {
		return err
	}

	b.values.Set(s.Name, v)
	return nil
}

func (b *LLVMIRBuilder) printCall(call *FuncCall) error {
	var arg value.Value
	if len(call.Args) == 0 {
		arg = b.globalString(placeholderPrint)
	} else {
		v, err := b.recursiveLoad(call.Args[0])
		if err != nil {
			return err
		}

		arg = v
	}

	if isNumber(arg) {
		b.block.NewCall(b.builtins[builtinPrintNum], arg)
	} else {
		b.block.NewCall(b.builtins[builtinPrintStr], arg)
	}

	return nil
}

func (b *LLVMIRBuilder) ifStmt(s *IfStmt) error {
	cond, err := b.recursiveLoad(s.Cond)
	if err != nil {
		return err
	}

	if !isNumber(cond) {
		return b.errorf("if condition must be a number")
	}

	truth := b.block.NewFCmp(enum.FPredONE, cond, constant.NewFloat(types.Double, 0))
	head := b.block

	thenBlock := b.fn.NewBlock("")
	b.block = thenBlock
	if err := b.statements(s.Then); err != nil {
		return err
	}
	thenEnd := b.block

	var elseBlock, elseEnd *ir.Block
	if len(s.Else) > 0 {
		elseBlock = b.fn.NewBlock("")
		b.block = elseBlock
		if err := b.statements(s.Else); err != nil {
			return err
		}
		elseEnd = b.block
	}

	merge := b.fn.NewBlock("")
	thenEnd.NewBr(merge)

	if elseBlock != nil {
		head.NewCondBr(truth, thenBlock, elseBlock)
		elseEnd.NewBr(merge)
	} else {
		head.NewCondBr(truth, thenBlock, merge)
	}

	b.block = merge
	return nil
}

func (b *LLVMIRBuilder) recursiveLoad(expr Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return constant.NewFloat(types.Double, e.Value), nil
	case *StringLit:
		return b.globalString(e.Value), nil
	case *Identifier:
		if v, ok := b.values.Get(e.Name); ok {
			return v, nil
		}

		return nil, b.errorf("undefined identifier: %s", e.Name)
	case *BinaryExpr:
		return b.binaryExpression(e)
	case *FuncCall:
		return b.globalString(placeholderCall), nil
	default:
		return nil, b.errorf("unsupported expression %T", expr)
	}
}

func (b *LLVMIRBuilder) binaryExpression(expr *BinaryExpr) (value.Value, error) {
	v1, err := b.recursiveLoad(expr.Op1)
	if err != nil {
		return nil, err
	}

	v2, err := b.recursiveLoad(expr.Op2)
	if err != nil {
		return nil, err
	}

	if !isNumber(v1) || !isNumber(v2) {
		return nil, b.errorf("operator %s needs number operands", expr.Operation)
	}

	switch expr.Operation {
	case BinaryAddition:
		return b.block.NewFAdd(v1, v2), nil
	case BinarySubtraction:
		return b.block.NewFSub(v1, v2), nil
	case BinaryMultiplication:
		return b.block.NewFMul(v1, v2), nil
	case BinaryDivision:
		return b.block.NewFDiv(v1, v2), nil
	default:
		return nil, b.errorf("unexpected binary op: %s", expr.Operation)
	}
}

// globalString stores s, NUL terminated, in a private global and returns a
// pointer to its first byte.
func (b *LLVMIRBuilder) globalString(s string) constant.Constant {
	arr := constant.NewCharArrayFromString(s + "\x00")
	glob := b.mod.NewGlobalDef(fmt.Sprintf(".str.%d", b.nstrings), arr)
	glob.Linkage = enum.LinkagePrivate
	glob.Immutable = true
	b.nstrings++

	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(arr.Typ, glob, zero, zero)
}

func isNumber(v value.Value) bool {
	return v.Type().Equal(types.Double)
}

type LLVMGenerator struct {
	module *Module
}

func NewLLVMGenerator(m *Module) *LLVMGenerator {
	return &LLVMGenerator{
		module: m,
	}
}

func (g LLVMGenerator) Do() (*ir.Module, error) {
	builder := NewLLVMIRBuilder()
	if err := builder.main(g.module.Statements); err != nil {
		return nil, err
	}

	return builder.mod, nil
}

// GenerateIR lowers m to an LLVM module whose main prints like the Go
// backend's output.
func GenerateIR(m *Module) (*ir.Module, error) {
	return NewLLVMGenerator(m).Do()
}
