package cmd

import (
	"github.com/rotisserie/eris"

	"github.com/ngld/minitask/pkg/buildsys"
)

// Exit codes returned by the CLI. They're part of the public interface and must not change.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitUsage         = 2
	ExitTaskNotFound  = 3
	ExitPrivateTask   = 4
	ExitCommandFailed = 5
	ExitCycle         = 6
)

// ErrUsage is returned for invalid arguments or flags
var ErrUsage = eris.New("invalid usage")

// ExitCode maps an error returned by the root command to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case eris.Is(err, ErrUsage):
		return ExitUsage
	case eris.Is(err, buildsys.ErrPrivateTask):
		return ExitPrivateTask
	case eris.Is(err, buildsys.ErrCyclicDependency):
		return ExitCycle
	case eris.Is(err, buildsys.ErrTaskNotFound):
		return ExitTaskNotFound
	case eris.Is(err, buildsys.ErrCommandFailed):
		return ExitCommandFailed
	default:
		return ExitFailure
	}
}
