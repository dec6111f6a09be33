package pyro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pyro.dev/internal/test"
)

func num(v float64) *NumberLit {
	return &NumberLit{Value: v}
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   string
		expect []Stmt
	}{
		{
			"2 + 3 * 4",
			[]Stmt{
				&ExprStmt{&BinaryExpr{
					Operation: BinaryAddition,
					Op1:       num(2),
					Op2: &BinaryExpr{
						Operation: BinaryMultiplication,
						Op1:       num(3),
						Op2:       num(4),
					},
				}},
			},
		},
		{
			"10 - 3 - 2",
			[]Stmt{
				&ExprStmt{&BinaryExpr{
					Operation: BinarySubtraction,
					Op1: &BinaryExpr{
						Operation: BinarySubtraction,
						Op1:       num(10),
						Op2:       num(3),
					},
					Op2: num(2),
				}},
			},
		},
		{
			"8 / 4 / 2",
			[]Stmt{
				&ExprStmt{&BinaryExpr{
					Operation: BinaryDivision,
					Op1: &BinaryExpr{
						Operation: BinaryDivision,
						Op1:       num(8),
						Op2:       num(4),
					},
					Op2: num(2),
				}},
			},
		},
		{
			"(1 + 3) * 2",
			[]Stmt{
				&ExprStmt{&BinaryExpr{
					Operation: BinaryMultiplication,
					Op1: &BinaryExpr{
						Operation: BinaryAddition,
						Op1:       num(1),
						Op2:       num(3),
					},
					Op2: num(2),
				}},
			},
		},
		{
			"letpr x = 5\nprint(x)",
			[]Stmt{
				&LetStmt{Name: "x", Value: num(5)},
				&ExprStmt{&FuncCall{Name: "print", Args: []Expr{&Identifier{Name: "x"}}}},
			},
		},
		{
			"\n\nletpr s = \"hi\"\n\n# hello\n\nprint(s)\n\n",
			[]Stmt{
				&LetStmt{Name: "s", Value: &StringLit{Value: "hi"}},
				&ExprStmt{&FuncCall{Name: "print", Args: []Expr{&Identifier{Name: "s"}}}},
			},
		},
		{
			"foo()",
			[]Stmt{
				&ExprStmt{&FuncCall{Name: "foo", Args: nil}},
			},
		},
		{
			"foo(\"arg1\", 1 + 2, bar(x))",
			[]Stmt{
				&ExprStmt{&FuncCall{
					Name: "foo",
					Args: []Expr{
						&StringLit{Value: "arg1"},
						&BinaryExpr{BinaryAddition, num(1), num(2)},
						&FuncCall{Name: "bar", Args: []Expr{&Identifier{Name: "x"}}},
					},
				}},
			},
		},
		{
			"print(1) print(2)",
			[]Stmt{
				&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(1)}}},
				&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(2)}}},
			},
		},
		{
			"if x {\n  print(1)\n}",
			[]Stmt{
				&IfStmt{
					Cond: &Identifier{Name: "x"},
					Then: []Stmt{
						&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(1)}}},
					},
				},
			},
		},
		{
			"if x - 1 { print(1) }\nelse { letpr y = 2 }\nprint(3)",
			[]Stmt{
				&IfStmt{
					Cond: &BinaryExpr{BinarySubtraction, &Identifier{Name: "x"}, num(1)},
					Then: []Stmt{
						&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(1)}}},
					},
					Else: []Stmt{
						&LetStmt{Name: "y", Value: num(2)},
					},
				},
				&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(3)}}},
			},
		},
		{
			"if a {} else if b { print(1) } else {}",
			[]Stmt{
				&IfStmt{
					Cond: &Identifier{Name: "a"},
					Else: []Stmt{
						&IfStmt{
							Cond: &Identifier{Name: "b"},
							Then: []Stmt{
								&ExprStmt{&FuncCall{Name: "print", Args: []Expr{num(1)}}},
							},
						},
					},
				},
			},
		},
		{
			"",
			nil,
		},
	}

	for _, c := range cases {
		toks, err := Tokenize(c.data)
		require.NoError(t, err, c.data)

		got, err := Parse(toks)
		require.NoError(t, err, c.data)

		assert.Equal(t, &Module{Statements: c.expect}, got, c.data)
	}
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		data   string
		expect string
	}{
		{"letpr = 5", "expected identifier after letpr"},
		{"letpr x 5", "expected '=' after identifier"},
		{"foo(1 2)", `expected ',' or ')', got Number("2")`},
		{"foo(1,)", "unexpected token: ')'"},
		{"foo(1", "expected ',' or ')', got EOF"},
		{"(1 + 2", "expected ')'"},
		{"1 +", "unexpected token: EOF"},
		{"1 +\n2", "unexpected token: Newline"},
		{"}", "unexpected token: '}'"},
		{"else { }", "unexpected token: else"},
		{"if x print(1)", `expected '{', got Identifier("print")`},
		{"if x { print(1)", "unclosed block"},
		{"print(1)\nletpr", "expected identifier after letpr"},
	}

	for _, c := range cases {
		toks, err := Tokenize(c.data)
		require.NoError(t, err, c.data)

		got, err := Parse(toks)
		assert.Nil(t, got, c.data)

		var parseErr *ParseError
		if assert.ErrorAs(t, err, &parseErr, c.data) {
			assert.Equal(t, c.expect, parseErr.Msg, c.data)
		}
	}
}

func TestParserCommentIsBlankLine(t *testing.T) {
	withComment, err := Tokenize("print(1)\n# hello\nprint(2)")
	require.NoError(t, err)

	withBlank, err := Tokenize("print(1)\n\nprint(2)")
	require.NoError(t, err)

	assert.Equal(t, withBlank, withComment)

	m, err := Parse(withComment)
	require.NoError(t, err)
	assert.Len(t, m.Statements, 2)
}

func TestParserMissingEOF(t *testing.T) {
	// A stream cut short behaves as if it ended with EOF
	m, err := Parse([]Token{
		{Typ: TokenIdentifier, Value: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, &Module{Statements: []Stmt{&ExprStmt{&Identifier{Name: "x"}}}}, m)
}

var benchModule *Module

func BenchmarkParser1000(b *testing.B) {
	toks, err := Tokenize(test.GetRandomSource(1000))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		benchModule, err = Parse(toks)
		if err != nil {
			b.Fatal(err)
		}
	}
}
