package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ngld/minitask/pkg/buildsys"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, ExitOK},
		{"usage", eris.Wrap(ErrUsage, "expected 2 arguments"), ExitUsage},
		{"not found", eris.Wrap(buildsys.ErrTaskNotFound, "task x"), ExitTaskNotFound},
		{"private", eris.Wrap(buildsys.ErrPrivateTask, "task x"), ExitPrivateTask},
		{"command", eris.Wrap(eris.Wrap(buildsys.ErrCommandFailed, "false"), "task x"), ExitCommandFailed},
		{"cycle", eris.Wrap(buildsys.ErrCyclicDependency, "a -> a"), ExitCycle},
		{"other", eris.New("disk on fire"), ExitFailure},
	}

	seen := map[int]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ExitCode(tt.err))
		})

		other, dup := seen[tt.code]
		assert.False(t, dup, "%s and %s share exit code %d", tt.name, other, tt.code)
		seen[tt.code] = tt.name
	}
}

func writeBuildFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tasks.build")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(args ...string) (string, string, error) {
	if args == nil {
		args = []string{}
	}

	var stdout, stderr bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmdUsage(t *testing.T) {
	buildFile := writeBuildFile(t, "a():\n    echo a\n")

	for _, args := range [][]string{{}, {buildFile}, {buildFile, "a", "b"}, {"--list"}, {"--bogus", buildFile, "a"}} {
		stdout, stderr, err := execute(args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitUsage, ExitCode(err), "%v", args)
		assert.Contains(t, stdout+stderr, "Usage:")
	}
}

func TestRootCmdRun(t *testing.T) {
	buildFile := writeBuildFile(t, `
MSG = hello
private greet():
    echo $(MSG)
all(greet):
    echo done
`)

	stdout, _, err := execute(buildFile, "all")
	require.NoError(t, err)
	assert.Equal(t, "hello\ndone\n", stdout)
}

func TestRootCmdDryRun(t *testing.T) {
	buildFile := writeBuildFile(t, "all():\n    echo should not run\n")

	stdout, stderr, err := execute("--dry", buildFile, "all")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "all: $ echo should not run")
}

func TestRootCmdDryRunQuietConfig(t *testing.T) {
	old, present := os.LookupEnv("MINITASK_LOG_LEVEL")
	require.NoError(t, os.Setenv("MINITASK_LOG_LEVEL", "warn"))
	t.Cleanup(func() {
		if present {
			os.Setenv("MINITASK_LOG_LEVEL", old)
		} else {
			os.Unsetenv("MINITASK_LOG_LEVEL")
		}
	})

	buildFile := writeBuildFile(t, "all():\n    echo quiet\n")

	_, stderr, err := execute("--dry", buildFile, "all")
	require.NoError(t, err)
	assert.Contains(t, stderr, "all: $ echo quiet")

	stdout, stderr, err := execute(buildFile, "all")
	require.NoError(t, err)
	assert.Equal(t, "quiet\n", stdout)
	assert.NotContains(t, stderr, "echo quiet")
}

func TestRootCmdErrors(t *testing.T) {
	buildFile := writeBuildFile(t, `
private secret():
    echo leak
broken():
    exit 7
loop(loop):
`)

	tests := []struct {
		task string
		code int
	}{
		{"missing", ExitTaskNotFound},
		{"secret", ExitPrivateTask},
		{"broken", ExitCommandFailed},
		{"loop", ExitCycle},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			stdout, stderr, err := execute(buildFile, tt.task)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCode(err))
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Failed task "+tt.task)
		})
	}
}

func TestRootCmdMissingBuildFile(t *testing.T) {
	_, stderr, err := execute(filepath.Join(t.TempDir(), "nope.build"), "all")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, stderr, "Failed to parse tasks")
}

func TestRootCmdList(t *testing.T) {
	buildFile := writeBuildFile(t, `
CC = gcc
private helper():
build(helper, clean):
    $(CC) main.c
clean():
    rm -f main
`)

	t.Run("text", func(t *testing.T) {
		stdout, _, err := execute("--list", buildFile)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Available tasks:")
		assert.Contains(t, stdout, "build: (helper, clean)")
		assert.Contains(t, stdout, "clean:")
		assert.NotContains(t, stdout, "helper:")
		assert.Less(t, strings.Index(stdout, "build:"), strings.Index(stdout, "clean:"))
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := execute("--list", "--format", "yaml", buildFile)
		require.NoError(t, err)

		var result listing
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &result))
		assert.Equal(t, map[string]string{"CC": "gcc"}, result.Shortcuts)
		require.Len(t, result.Tasks, 2)
		assert.Equal(t, listEntry{Name: "build", Deps: []string{"helper", "clean"}, Cmds: []string{"$(CC) main.c"}}, result.Tasks[0])
		assert.Equal(t, "clean", result.Tasks[1].Name)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute("--list", "--format", "xml", buildFile)
		require.Error(t, err)
		assert.Equal(t, ExitUsage, ExitCode(err))
	})
}

func TestConsoleWriter(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&out, false))

	logger.Info().Str("task", "build").Msg("gcc main.c")
	logger.Warn().Msg("careful")
	logger.Error().Err(eris.New("boom")).Msg("Failed task build")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "build: gcc main.c")
	assert.Contains(t, lines[1], "careful")
	assert.Contains(t, lines[2], "Error: Failed task build")
	assert.Contains(t, lines[3], "boom")
}

func TestConsoleWriterCommands(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&out, false))

	logger.Info().Str("task", "test").Bool("command", true).Msg("[ -f out ] || echo [bold]")
	logger.Info().Str("task", "test").Msg("plain message")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "test: $ [ -f out ] || echo [bold]")
	assert.True(t, strings.HasPrefix(lines[0], "\x1b[36m"), lines[0])
	assert.Contains(t, lines[1], "test: plain message")
	assert.NotContains(t, lines[1], "$")
	assert.True(t, strings.HasPrefix(lines[1], "\x1b[32m"), lines[1])
}

func TestConsoleWriterVerbose(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&out, true))
	ctx := buildsys.WithLogger(context.Background(), &logger)

	_, err := buildsys.Parse(ctx, strings.NewReader("stray line\n"), "verbose.build")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ignoring line outside of a task: stray line")
	assert.NotContains(t, out.String(), "verbose.build:1")
	assert.Contains(t, out.String(), "  line: 1")
}
