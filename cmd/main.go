package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.pyro.dev/pkg"
)

const defaultSource = "examples/main.pyro"

// Exit codes
const (
	exitOK        = 0
	exitCompile   = 1
	exitUsage     = 2
	exitToolchain = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	backend    string
	outputDir  string
	tokens     bool
	ast        bool
	verbose    bool
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pyro <command> [options] [files]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run [file]         transpile, build and run a program (default "+defaultSource+")")
	fmt.Fprintln(w, "  build [files...]   transpile and build programs into <output_dir>/bin")
	fmt.Fprintln(w, "  emit <file>        print the generated source")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	command := args[0]

	var opts options
	fs := flag.NewFlagSet("pyro "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "pyro.yaml", "Configuration file")
	fs.StringVar(&opts.backend, "backend", "", "Backend to generate for (go or llvm)")
	fs.StringVar(&opts.outputDir, "o", "", "Output directory")
	fs.BoolVar(&opts.tokens, "tokens", false, "emit: output the token stream")
	fs.BoolVar(&opts.ast, "ast", false, "emit: output the AST")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	config, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "pyro:", err)
		return exitUsage
	}

	level, _ := config.Level()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	switch command {
	case "run":
		file := defaultSource
		if fs.NArg() > 0 {
			file = fs.Arg(0)
		}

		return runProgram(ctx, config, logger, file, stdin, stdout, stderr)
	case "build":
		files := fs.Args()
		if len(files) == 0 {
			files = []string{defaultSource}
		}

		return buildPrograms(ctx, config, logger, files, stderr)
	case "emit":
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "pyro: emit needs exactly one file")
			return exitUsage
		}

		return emit(config, logger, opts, fs.Arg(0), stdout, stderr)
	default:
		fmt.Fprintf(stderr, "pyro: unknown command %q\n", command)
		usage(stderr)
		return exitUsage
	}
}

func loadConfig(opts options) (pyro.Config, error) {
	config, err := pyro.ReadConfig(opts.configPath)
	if err != nil {
		return config, err
	}

	if opts.backend != "" {
		config.Backend = pyro.Backend(opts.backend)
	}

	if opts.outputDir != "" {
		config.OutputDir = opts.outputDir
	}

	if opts.verbose {
		config.LogLevel = "debug"
	}

	return config, config.Validate()
}

func emit(config pyro.Config, logger *slog.Logger, opts options, file string, stdout, stderr io.Writer) int {
	if opts.tokens || opts.ast {
		data, err := os.ReadFile(file)
		if err != nil {
			return report(stderr, err)
		}

		tokens, err := pyro.Tokenize(string(data))
		if err != nil {
			return report(stderr, err)
		}

		if opts.tokens {
			pretty.Fprintf(stdout, "%# v\n", tokens)
			return exitOK
		}

		m, err := pyro.Parse(tokens)
		if err != nil {
			return report(stderr, err)
		}

		pretty.Fprintf(stdout, "%# v\n", m)
		return exitOK
	}

	out, err := pyro.NewCompiler(config, logger).CompileFile(file)
	if err != nil {
		return report(stderr, err)
	}

	fmt.Fprint(stdout, out)
	return exitOK
}

func runProgram(ctx context.Context, config pyro.Config, logger *slog.Logger, file string, stdin io.Reader, stdout, stderr io.Writer) int {
	bin, err := buildProgram(ctx, config, logger, file)
	if err != nil {
		return report(stderr, err)
	}

	code, err := pyro.NewToolchain(config, logger).Run(ctx, bin, stdin, stdout, stderr)
	if err != nil {
		return report(stderr, err)
	}

	return code
}

// buildPrograms builds every file concurrently; the first failure cancels the
// others.
func buildPrograms(ctx context.Context, config pyro.Config, logger *slog.Logger, files []string, stderr io.Writer) int {
	// Programs sharing a name would overwrite each other's output
	built := make(map[string]string)
	for _, file := range files {
		name := programName(file)
		if prev, ok := built[name]; ok {
			fmt.Fprintf(stderr, "pyro: %s and %s both build program %q\n", prev, file, name)
			return exitUsage
		}
		built[name] = file
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			bin, err := buildProgram(ctx, config, logger, file)
			if err != nil {
				return err
			}

			logger.Info("built", "source", file, "binary", bin)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report(stderr, err)
	}

	return exitOK
}

func buildProgram(ctx context.Context, config pyro.Config, logger *slog.Logger, file string) (string, error) {
	src, err := pyro.NewCompiler(config, logger).CompileFile(file)
	if err != nil {
		return "", err
	}

	bin, err := pyro.NewToolchain(config, logger).Build(ctx, programName(file), src)
	if err != nil {
		return "", errors.Wrapf(err, "build %s", file)
	}

	return bin, nil
}

func programName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// report prints err and picks the exit code from its cause.
func report(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, "pyro:", err)

	switch errors.Cause(err).(type) {
	case *pyro.BuildError, *pyro.RunError:
		return exitToolchain
	default:
		return exitCompile
	}
}
