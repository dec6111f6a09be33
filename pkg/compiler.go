package pyro

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

type Compiler struct {
	config Config
	logger *slog.Logger
}

func NewCompiler(config Config, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Compiler{
		config: config,
		logger: logger,
	}
}

// Compile translates Pyro source into Go source with the default settings.
func Compile(src string) (string, error) {
	return NewCompiler(DefaultConfig(), nil).Compile(src)
}

// Compile runs lexing, parsing and generation for the configured backend. The
// returned error is a *LexError, *ParseError or, for the LLVM backend, a
// *GenerateError.
func (c *Compiler) Compile(src string) (string, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return "", err
	}
	c.logger.Debug("tokenized", "tokens", len(tokens))

	m, err := Parse(tokens)
	if err != nil {
		return "", err
	}
	c.logger.Debug("parsed", "statements", len(m.Statements))

	return c.generate(m)
}

func (c *Compiler) generate(m *Module) (string, error) {
	switch c.config.Backend {
	case BackendLLVM:
		mod, err := GenerateIR(m)
		if err != nil {
			return "", err
		}

		return mod.String(), nil
	default:
		src := NewGoGenerator().Do(m)

		formatted, err := FormatGo(src)
		if err != nil {
			c.logger.Warn("generated source left unformatted", "err", err)
			return src, nil
		}

		return formatted, nil
	}
}

func (c *Compiler) CompileFromReader(reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.Wrap(err, "read source")
	}

	return c.Compile(string(data))
}

func (c *Compiler) CompileFile(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", errors.Wrap(err, "open source")
	}
	defer f.Close()

	out, err := c.CompileFromReader(f)
	if err != nil {
		return "", errors.Wrapf(err, "compile %s", filename)
	}

	c.logger.Debug("compiled", "file", filename, "backend", c.config.Backend)
	return out, nil
}
