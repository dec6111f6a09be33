package pyro

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// BuildError is returned when the external compiler rejects generated
// source. Output holds what the compiler printed.
type BuildError struct {
	Tool   string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return e.Tool + " failed: " + e.Err.Error() + "\n" + e.Output
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// RunError is returned when a built program can't be started.
type RunError struct {
	Path string
	Err  error
}

func (e *RunError) Error() string {
	return "run " + e.Path + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Toolchain drives the external compiler for generated source and runs the
// resulting binaries.
type Toolchain struct {
	config Config
	logger *slog.Logger
}

func NewToolchain(config Config, logger *slog.Logger) *Toolchain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Toolchain{
		config: config,
		logger: logger,
	}
}

// Build writes src to <output_dir>/<name><ext> and compiles it into
// <output_dir>/bin/<name>, returning the binary path.
func (t *Toolchain) Build(ctx context.Context, name, src string) (string, error) {
	binDir := filepath.Join(t.config.OutputDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}

	srcPath := filepath.Join(t.config.OutputDir, name+t.config.Backend.Extension())
	if err := os.WriteFile(srcPath, []byte(src), 0o644); err != nil {
		return "", errors.Wrap(err, "write generated source")
	}
	t.logger.Debug("transpiled", "path", srcPath)

	binPath, err := filepath.Abs(filepath.Join(binDir, name))
	if err != nil {
		return "", errors.Wrap(err, "resolve binary path")
	}

	cmd := t.compileCommand(ctx, srcPath, binPath)
	t.logger.Debug("compiling", "cmd", cmd.String())

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", &BuildError{
			Tool:   cmd.Path,
			Output: string(out),
			Err:    err,
		}
	}
	t.logger.Debug("compiled binary", "path", binPath)

	return binPath, nil
}

func (t *Toolchain) compileCommand(ctx context.Context, srcPath, binPath string) *exec.Cmd {
	if t.config.Backend == BackendLLVM {
		return exec.CommandContext(ctx, t.config.Toolchain.Clang, srcPath, "-o", binPath)
	}

	return exec.CommandContext(ctx, t.config.Toolchain.Go, "build", "-o", binPath, srcPath)
}

// Run executes a built program with the given stdio and returns its exit
// code. Only failing to start the program is an error.
func (t *Toolchain) Run(ctx context.Context, binPath string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, binPath)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return -1, &RunError{Path: binPath, Err: err}
	}

	return 0, nil
}
