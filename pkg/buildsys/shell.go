package buildsys

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// PosixCommand is the hidden subcommand of the minitask binary which provides portable mv, rm and mkdir.
// The leading underscores keep it from shadowing build files named "posix".
const PosixCommand = "__posix"

// ShellOptions configures a ShellRunner
type ShellOptions struct {
	// Dir is the working directory for all commands, defaults to the current directory
	Dir string
	// Env is appended to the process environment
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
	// PosixHelper is the path to an executable providing the "__posix mv|rm|mkdir" subcommands. If set,
	// calls to mv, rm and mkdir are routed through it so they behave the same on every platform.
	PosixHelper string
}

// ShellRunner runs actions through the mvdan.cc/sh interpreter
type ShellRunner struct {
	parser *syntax.Parser
	runner *interp.Runner
}

var (
	defaultExecHandler = interp.DefaultExecHandler(2)
	defaultOpenHandler = interp.DefaultOpenHandler()
)

func makeExecHandler(helper string) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if helper != "" && len(args) > 0 {
			switch args[0] {
			case "mv", "rm", "mkdir":
				args = append([]string{helper, PosixCommand}, args...)
			}
		}

		return defaultExecHandler(ctx, args)
	}
}

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// NewShellRunner initializes a ShellRunner
func NewShellRunner(opts ShellOptions) (*ShellRunner, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), opts.Env...)...)),
		interp.ExecHandler(makeExecHandler(opts.PosixHelper)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, opts.Stdout, opts.Stderr),
	)
	if err != nil {
		return nil, eris.Wrap(err, "Failed to initialize runner")
	}

	return &ShellRunner{
		parser: syntax.NewParser(),
		runner: runner,
	}, nil
}

// Run parses and executes command. Each command starts with a fresh shell state. Like "sh -c", the
// command's status is the status of its last statement.
func (s *ShellRunner) Run(ctx context.Context, command string) error {
	file, err := s.parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return eris.Wrapf(ErrCommandFailed, "failed to parse %q: %s", command, err.Error())
	}

	s.runner.Reset()
	err = s.runner.Run(ctx, file)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return eris.Wrapf(ErrCommandFailed, "%q exited with status %d", command, status)
		}
		return eris.Wrapf(ErrCommandFailed, "%q: %s", command, err.Error())
	}

	return nil
}

// DryRunner accepts every command without executing anything. RunTask already logs each command.
type DryRunner struct{}

// Run does nothing
func (DryRunner) Run(context.Context, string) error {
	return nil
}
