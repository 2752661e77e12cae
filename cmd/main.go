package cmd

import (
	"io"
	"os"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/ngld/minitask/pkg/buildsys"
	buildsyscmd "github.com/ngld/minitask/pkg/buildsys/cmd"
)

func newRootCmd() *cobra.Command {
	posixCmd := &cobra.Command{
		Use:    buildsys.PosixCommand,
		Short:  "Cross-platform implementations of a few POSIX commands",
		Long:   `These commands are used by the task shell to make mv, rm and mkdir behave the same on every platform.`,
		Hidden: true,
	}
	posixCmd.AddCommand(newMvCmd(), newRmCmd(), newMkdirCmd())

	rootCmd := buildsyscmd.NewRootCmd()
	rootCmd.AddCommand(posixCmd)
	// cobra adds a "help" subcommand to any command with children; "help" has to stay usable as a build file
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "__help",
		Hidden: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Root().Help()
		},
	})
	return rootCmd
}

// Run executes the CLI with the given arguments and returns the process exit code
func Run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteC()
	code := buildsyscmd.ExitCode(err)

	// the task command logs its own failures
	if err != nil && (cmd != rootCmd || code == buildsyscmd.ExitUsage) {
		colorstring.Fprintf(stderr, "[red]Error: %s[reset]\n", err.Error())
	}

	return code
}

func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
