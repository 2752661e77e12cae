// Package cmd implements the command line interface for the buildsys package
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ngld/minitask/pkg"
	"github.com/ngld/minitask/pkg/buildsys"
	"github.com/ngld/minitask/pkg/config"
)

type listEntry struct {
	Name string   `yaml:"name"`
	Deps []string `yaml:"deps,omitempty"`
	Cmds []string `yaml:"cmds,omitempty"`
}

type listing struct {
	Shortcuts map[string]string `yaml:"shortcuts,omitempty"`
	Tasks     []listEntry       `yaml:"tasks"`
}

func validateArgs(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	expected := 2
	if list {
		expected = 1
	}

	if len(args) != expected {
		_ = cmd.Usage()
		return eris.Wrapf(ErrUsage, "expected %d arguments but got %d", expected, len(args))
	}
	return nil
}

func newLogger(out io.Writer, json, debug bool) zerolog.Logger {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, debug)
	}

	var logger zerolog.Logger
	if json {
		logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(NewConsoleWriter(out, debug))
	}

	return logger.With().Str("run", nanoid.New()).Logger()
}

func printList(out io.Writer, registry *buildsys.Registry, format string) error {
	tasks := registry.PublicTasks()

	switch format {
	case "yaml":
		result := listing{
			Shortcuts: registry.Shortcuts,
			Tasks:     make([]listEntry, len(tasks)),
		}
		for idx, task := range tasks {
			result.Tasks[idx] = listEntry{
				Name: task.Short,
				Deps: task.Deps,
				Cmds: task.Cmds,
			}
		}

		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return eris.Wrap(err, "failed to encode task list")
		}
		return encoder.Close()
	case "text":
		pkg.PrintTask(out, "Available tasks:")
		maxNameLen := 0
		for _, task := range tasks {
			if len(task.Short) > maxNameLen {
				maxNameLen = len(task.Short)
			}
		}

		lineFmt := fmt.Sprintf("%%-%ds %%s", maxNameLen+1)
		for _, task := range tasks {
			deps := ""
			if len(task.Deps) > 0 {
				deps = "(" + strings.Join(task.Deps, ", ") + ")"
			}
			pkg.PrintSubtask(out, strings.TrimSpace(fmt.Sprintf(lineFmt, task.Short+":", deps)))
		}
		return nil
	default:
		return eris.Wrapf(ErrUsage, "unknown list format %s", format)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry")
	if err != nil {
		return err
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), false, debug)

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load config")
		return err
	}

	if cfg.Log.JSON {
		logger = newLogger(cmd.ErrOrStderr(), true, debug)
	}

	level := cfg.LogLevel()
	if debug {
		level = zerolog.DebugLevel
	} else if dryRun && level > zerolog.InfoLevel {
		// a dry run reports its commands as info messages
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx := buildsys.WithLogger(context.Background(), &logger)

	buildFile := args[0]
	registry, err := buildsys.LoadRegistry(ctx, buildFile, cfg.Cache.Dir)
	if err != nil {
		logger.Error().Err(err).Str("path", buildFile).Msg("Failed to parse tasks")
		return err
	}

	if list {
		err = printList(cmd.OutOrStdout(), registry, format)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list tasks")
		}
		return err
	}

	var runner buildsys.CommandRunner
	if dryRun {
		runner = buildsys.DryRunner{}
	} else {
		helper, err := os.Executable()
		if err != nil {
			logger.Debug().Err(err).Msg("posix helpers unavailable")
			helper = ""
		}

		runner, err = buildsys.NewShellRunner(buildsys.ShellOptions{
			Dir:         cfg.Dir,
			Stdout:      cmd.OutOrStdout(),
			Stderr:      cmd.ErrOrStderr(),
			PosixHelper: helper,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize shell")
			return err
		}
	}

	name := args[1]
	err = buildsys.RunTask(ctx, name, registry, runner)
	if err != nil {
		logger.Error().Err(err).Msgf("Failed task %s", name)
		return err
	}

	return nil
}

// NewRootCmd returns the command running a single task from a build file
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minitask <buildfile> <task>",
		Short: "Minimal declarative task runner",
		Long: `This command parses the given build file and executes the given task after all of its dependencies.
Every task runs at most once. Private tasks can only run as a dependency of another task.`,
		Args:          validateArgs,
		RunE:          runRoot,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return eris.Wrap(ErrUsage, err.Error())
	})

	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().BoolP("list", "l", false, "list the public tasks of the build file instead of running one")
	rootCmd.Flags().String("format", "text", "output format for --list (text or yaml)")
	rootCmd.Flags().Bool("debug", false, "enable debug messages and full error traces")

	return rootCmd
}
