package pyro

// LexError reports malformed source text. Lexing stops at the first one.
type LexError struct {
	Msg string
}

func (e *LexError) Error() string {
	return "lex error: " + e.Msg
}

// ParseError reports a token stream that matches no grammar production.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// GenerateError is only produced by the LLVM backend; the Go backend
// narrows unsupported constructs instead of failing.
type GenerateError struct {
	Msg string
}

func (e *GenerateError) Error() string {
	return "codegen error: " + e.Msg
}
