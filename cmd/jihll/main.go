package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/funvibe/jihll/internal/backend"
	"github.com/funvibe/jihll/internal/config"
	"github.com/funvibe/jihll/internal/diagnostics"
	"github.com/funvibe/jihll/internal/lexer"
	"github.com/funvibe/jihll/internal/logs"
	"github.com/funvibe/jihll/internal/parser"
	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/prettyprinter"
	"github.com/funvibe/jihll/internal/vm"
	"github.com/mattn/go-isatty"
)

// Exit codes
const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

// app is one VM with its configuration. File mode runs a single script on
// it; the REPL keeps it alive between lines so globals persist.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	machine *vm.VM
	backend *backend.VMBackend
	stdout  io.Writer
	stderr  io.Writer
}

func newApp(cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) *app {
	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetLogger(logger)
	machine.SetLimits(vm.Limits{MaxStack: cfg.Limits.MaxStack, MaxFrames: cfg.Limits.MaxFrames})
	machine.RegisterBuiltins(cfg.Natives.Disable...)

	return &app{
		cfg:     cfg,
		logger:  logger,
		machine: machine,
		backend: backend.NewVM(machine),
		stdout:  stdout,
		stderr:  stderr,
	}
}

// runSource compiles and runs source as the main task and returns the
// diagnostics it produced.
func (a *app) runSource(path, source string) []*diagnostics.DiagnosticError {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx = backend.NewPipeline(a.backend).Run(ctx)
	return ctx.Errors
}

// runScript runs a whole program, then waits for the tasks it spawned.
func (a *app) runScript(path, source string) int {
	code := exitOK
	for _, err := range a.runSource(path, source) {
		fmt.Fprintln(a.stderr, err.Error())
		code = exitFault
	}
	if err := a.machine.Wait(); err != nil {
		for _, fault := range unjoin(err) {
			fmt.Fprintf(a.stderr, "spawned task: %s\n", fault)
		}
		code = exitFault
	}
	return code
}

// unjoin splits an errors.Join result back into its parts
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// resolveScript maps a package directory to its entry file dir/<dir>.jihll.
func resolveScript(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	base := filepath.Base(path)
	for _, ext := range config.SourceFileExtensions {
		candidate := filepath.Join(path, base+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("entry file not found for package directory: %s", path)
}

// formatSource prints source in canonical layout
func formatSource(path, source string, stdout, stderr io.Writer) int {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		for _, err := range ctx.Errors {
			fmt.Fprintln(stderr, err.Error())
		}
		return exitFault
	}
	fmt.Fprint(stdout, prettyprinter.Format(ctx.AstRoot))
	return exitOK
}

func loadConfig(fs *flag.FlagSet, path string) (*config.Config, error) {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if explicit {
		return config.LoadConfig(path)
	}
	return config.Load(path)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jihll", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jihll [flags] [script]\n\nWithout a script, reads a program from stdin or starts the REPL.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", config.DefaultConfigFile, "configuration file")
	disasm := fs.Bool("disasm", false, "print bytecode before running it")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	format := fs.Bool("fmt", false, "print the script in canonical layout instead of running it")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(fs, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitUsage
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, closeLog, err := logs.New(logs.Options{Level: cfg.Log.Level, Writer: stderr, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitUsage
	}
	defer closeLog()

	a := newApp(cfg, logger, stdout, stderr)
	if *disasm {
		a.backend.SetDisassembly(stdout)
	}

	if fs.NArg() == 1 {
		path, err := resolveScript(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return exitFault
		}
		if !config.HasSourceExt(path) {
			logger.Warn("unrecognized script extension", "path", path, "want", config.SourceFileExt)
		}
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading input: %s\n", err)
			return exitFault
		}
		if *format {
			return formatSource(path, string(source), stdout, stderr)
		}
		return a.runScript(path, string(source))
	}

	if f, ok := stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return runREPL(a)
	}

	// Piped input is one program
	source, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %s\n", err)
		return exitFault
	}
	if *format {
		return formatSource("<stdin>", string(source), stdout, stderr)
	}
	return a.runScript("<stdin>", string(source))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
