package pyro

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type TokenType uint64
type stateFunc func(l *Lexer) stateFunc

const EOF rune = -1

const (
	TokenError TokenType = iota
	TokenEOF
	TokenNewline
	TokenNumber
	TokenString

	TokenIdentifier
	TokenLet
	TokenIf
	TokenElse

	TokenPlus
	TokenMinus
	TokenMulti
	TokenDiv
	TokenAssign
	TokenComma
	TokenOpenParentheses
	TokenCloseParentheses
	TokenOpenCurly
	TokenCloseCurly
)

var tokenNames = map[TokenType]string{
	TokenError:            "Error",
	TokenEOF:              "EOF",
	TokenNewline:          "Newline",
	TokenNumber:           "Number",
	TokenString:           "String",
	TokenIdentifier:       "Identifier",
	TokenLet:              "letpr",
	TokenIf:               "if",
	TokenElse:             "else",
	TokenPlus:             "'+'",
	TokenMinus:            "'-'",
	TokenMulti:            "'*'",
	TokenDiv:              "'/'",
	TokenAssign:           "'='",
	TokenComma:            "','",
	TokenOpenParentheses:  "'('",
	TokenCloseParentheses: "')'",
	TokenOpenCurly:        "'{'",
	TokenCloseCurly:       "'}'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}

	return "TokenType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

var keywordTable = map[string]TokenType{
	"letpr": TokenLet,
	"if":    TokenIf,
	"else":  TokenElse,
}

var operatorTable = map[rune]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMulti,
	'/': TokenDiv,
	'=': TokenAssign,
	',': TokenComma,
	'(': TokenOpenParentheses,
	')': TokenCloseParentheses,
	'{': TokenOpenCurly,
	'}': TokenCloseCurly,
}

// Token is a single lexeme. Value holds the identifier name, the decoded
// string contents or the number text; Num holds the parsed number.
type Token struct {
	Typ   TokenType
	Value string
	Num   float64
}

func (t Token) String() string {
	switch t.Typ {
	case TokenIdentifier, TokenString, TokenNumber:
		return fmt.Sprintf("%s(%q)", t.Typ, t.Value)
	default:
		return t.Typ.String()
	}
}

type Lexer struct {
	reader *bufio.Reader
	tokens []Token
	err    error
}

func NewLexer(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
	}
}

// Tokenize scans the whole source. The returned slice always ends with a
// single TokenEOF.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(strings.NewReader(src)).Run()
}

func (l *Lexer) Run() ([]Token, error) {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	if l.err != nil {
		return nil, l.err
	}

	return l.tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == EOF:
			l.emitValue(TokenEOF, "")
			return nil
		case r == ' ' || r == '\t' || r == '\r':
			l.next()
			continue
		case r == '\n':
			l.next()
			return l.emitValue(TokenNewline, "\n")
		case r == '#':
			return lineCommentState
		case isDigit(r):
			return numberState
		case r == '"':
			return stringState
		case isIdentStart(r):
			return identifierState
		default:
			return operatorState
		}
	}
}

// A comment swallows its line terminator and stands in for it.
func lineCommentState(l *Lexer) stateFunc {
	for r := l.next(); r != '\n' && r != EOF; r = l.next() {
	}

	return l.emitValue(TokenNewline, "\n")
}

func numberState(l *Lexer) stateFunc {
	var num strings.Builder
	for r := l.peek(); isDigit(r) || r == '.'; r = l.peek() {
		num.WriteRune(l.next())
	}

	text := num.String()
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.errorf("invalid number literal: %s", text)
	}

	l.tokens = append(l.tokens, Token{Typ: TokenNumber, Value: text, Num: v})
	return defaultState
}

func stringState(l *Lexer) stateFunc {
	l.next() // Skip the leading double-quote

	var str strings.Builder
	for {
		switch r := l.next(); r {
		case EOF:
			return l.errorf("unterminated string")
		case '"':
			return l.emitValue(TokenString, str.String())
		case '\\':
			switch e := l.next(); e {
			case EOF:
				return l.errorf("unterminated escape")
			case 'n':
				str.WriteRune('\n')
			case 't':
				str.WriteRune('\t')
			default:
				// Covers \" and \\ as well as unknown escapes, kept literally
				str.WriteRune(e)
			}
		default:
			str.WriteRune(r)
		}
	}
}

func identifierState(l *Lexer) stateFunc {
	var id strings.Builder
	for r := l.peek(); isIdentStart(r) || isDigit(r); r = l.peek() {
		id.WriteRune(l.next())
	}

	if t, ok := keywordTable[id.String()]; ok {
		return l.emitValue(t, id.String())
	}

	return l.emitValue(TokenIdentifier, id.String())
}

func operatorState(l *Lexer) stateFunc {
	r := l.next()
	if tok, ok := operatorTable[r]; ok {
		return l.emitValue(tok, string(r))
	}

	return l.errorf("unexpected character '%c'", r)
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.err = &LexError{Msg: fmt.Sprintf(format, args...)}
	return nil
}

func (l *Lexer) emitValue(t TokenType, val string) stateFunc {
	l.tokens = append(l.tokens, Token{
		Typ:   t,
		Value: val,
	})

	return defaultState
}

func (l *Lexer) peek() rune {
	r := l.next()
	if r != EOF {
		_ = l.reader.UnreadRune()
	}

	return r
}

func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	return r
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}
