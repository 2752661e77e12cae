package buildsys

import "github.com/rotisserie/eris"

var (
	// ErrTaskNotFound is returned when a requested task or a dependency doesn't exist
	ErrTaskNotFound = eris.New("task not found")
	// ErrPrivateTask is returned when a private task is requested directly
	ErrPrivateTask = eris.New("task is private")
	// ErrCommandFailed is returned when an action couldn't be parsed or exited with a non-zero status
	ErrCommandFailed = eris.New("command failed")
	// ErrCyclicDependency is returned when a task is reached again while its dependencies are still running
	ErrCyclicDependency = eris.New("cyclic dependency")
)
