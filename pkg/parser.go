package pyro

import "fmt"

// Binding powers for the binary operators. Operators missing from the table
// end an expression.
var precedence = map[TokenType]int{
	TokenPlus:  10,
	TokenMinus: 10,
	TokenMulti: 20,
	TokenDiv:   20,
}

var binaryOps = map[TokenType]BinaryOp{
	TokenPlus:  BinaryAddition,
	TokenMinus: BinarySubtraction,
	TokenMulti: BinaryMultiplication,
	TokenDiv:   BinaryDivision,
}

type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
	}
}

// Parse builds a Module from a token stream. The first error aborts parsing
// and no partial module is returned.
func Parse(tokens []Token) (*Module, error) {
	return NewParser(tokens).Run()
}

func (p *Parser) Run() (*Module, error) {
	stmts, err := p.statements(TokenEOF)
	if err != nil {
		return nil, err
	}

	return &Module{Statements: stmts}, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Typ: TokenEOF}
	}

	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}

	return tok
}

func (p *Parser) expect(typ TokenType) *Token {
	tok := p.next()
	if tok.Typ != typ {
		return nil
	}

	return &tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Typ == typ
}

func (p *Parser) consume(typ TokenType) bool {
	return p.expect(typ) != nil
}

func (p *Parser) skipNewlines() {
	for p.check(TokenNewline) {
		p.next()
	}
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// statements parses until closer, which is left unconsumed.
func (p *Parser) statements(closer TokenType) ([]Stmt, error) {
	var stmts []Stmt
	for {
		p.skipNewlines()

		switch tok := p.peek(); tok.Typ {
		case closer:
			return stmts, nil
		case TokenEOF:
			return nil, p.errorf("unclosed block")
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, stmt)
	}
}

func (p *Parser) statement() (Stmt, error) {
	switch tok := p.peek(); tok.Typ {
	case TokenLet:
		return p.letStmt()
	case TokenIf:
		return p.ifStmt()
	default:
		expr, err := p.expr(0)
		if err != nil {
			return nil, err
		}

		return &ExprStmt{Expr: expr}, nil
	}
}

func (p *Parser) letStmt() (Stmt, error) {
	p.next() // letpr keyword

	name := p.expect(TokenIdentifier)
	if name == nil {
		return nil, p.errorf("expected identifier after letpr")
	}

	if !p.consume(TokenAssign) {
		return nil, p.errorf("expected '=' after identifier")
	}

	value, err := p.expr(0)
	if err != nil {
		return nil, err
	}

	return &LetStmt{
		Name:  name.Value,
		Value: value,
	}, nil
}

func (p *Parser) ifStmt() (Stmt, error) {
	p.next() // if keyword

	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}

	then, err := p.blockStmt()
	if err != nil {
		return nil, err
	}

	stmt := &IfStmt{
		Cond: cond,
		Then: then,
	}

	// An else may sit on the line after the closing brace
	p.skipNewlines()
	if !p.check(TokenElse) {
		return stmt, nil
	}

	p.next() // Skip else

	if p.check(TokenIf) {
		nested, err := p.ifStmt()
		if err != nil {
			return nil, err
		}

		stmt.Else = []Stmt{nested}
		return stmt, nil
	}

	stmt.Else, err = p.blockStmt()
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) blockStmt() ([]Stmt, error) {
	if tok := p.peek(); !p.consume(TokenOpenCurly) {
		return nil, p.errorf("expected '{', got %s", tok)
	}

	stmts, err := p.statements(TokenCloseCurly)
	if err != nil {
		return nil, err
	}

	p.next() // Skip the closing curly
	return stmts, nil
}

// expr parses a binary expression whose operators bind at least as tightly
// as minPrec. Recursing with prec+1 keeps equal-precedence chains left
// associative.
func (p *Parser) expr(minPrec int) (Expr, error) {
	lhs, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec, ok := precedence[tok.Typ]
		if !ok || prec < minPrec {
			return lhs, nil
		}

		p.next()

		rhs, err := p.expr(prec + 1)
		if err != nil {
			return nil, err
		}

		lhs = &BinaryExpr{
			Operation: binaryOps[tok.Typ],
			Op1:       lhs,
			Op2:       rhs,
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	switch tok := p.peek(); tok.Typ {
	case TokenNumber:
		p.next()
		return &NumberLit{Value: tok.Num}, nil
	case TokenString:
		p.next()
		return &StringLit{Value: tok.Value}, nil
	case TokenIdentifier:
		p.next()
		if p.check(TokenOpenParentheses) {
			return p.funcCall(tok.Value)
		}

		return &Identifier{Name: tok.Value}, nil
	case TokenOpenParentheses:
		return p.parenthesisedExpression()
	default:
		return nil, p.errorf("unexpected token: %s", tok)
	}
}

func (p *Parser) funcCall(name string) (Expr, error) {
	p.next() // Skip the opening parenthesis

	var args []Expr
	if !p.check(TokenCloseParentheses) {
	loop:
		for {
			arg, err := p.expr(0)
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			switch tok := p.peek(); tok.Typ {
			case TokenComma:
				p.next()
			case TokenCloseParentheses:
				break loop
			default:
				return nil, p.errorf("expected ',' or ')', got %s", tok)
			}
		}
	}

	if !p.consume(TokenCloseParentheses) {
		return nil, p.errorf("expected ')'")
	}

	return &FuncCall{
		Name: name,
		Args: args,
	}, nil
}

func (p *Parser) parenthesisedExpression() (Expr, error) {
	p.next() // Skip the opening parenthesis

	exp, err := p.expr(0)
	if err != nil {
		return nil, err
	}

	if !p.consume(TokenCloseParentheses) {
		return nil, p.errorf("expected ')'")
	}

	return exp, nil
}
