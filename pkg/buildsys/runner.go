package buildsys

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// CommandRunner executes a single, already expanded action. A non-nil error aborts the whole run.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

type runtimeCtx struct {
	registry *Registry
	runner   CommandRunner
	// runTasks is false while a task's dependencies are resolved and true once it's done
	runTasks map[string]bool
	stack    []string
}

func (r *runtimeCtx) cycle(name string) error {
	start := 0
	for idx, item := range r.stack {
		if item == name {
			start = idx
			break
		}
	}

	path := append(append([]string{}, r.stack[start:]...), name)
	return eris.Wrapf(ErrCyclicDependency, "%s", strings.Join(path, " -> "))
}

// RunTask executes the named task after all of its dependencies. Each task runs at most once per call.
// Only the requested task has to be public, private tasks may still run as dependencies.
func RunTask(ctx context.Context, name string, registry *Registry, runner CommandRunner) error {
	task, err := registry.Lookup(name)
	if err != nil {
		return err
	}

	if task.IsPrivate() {
		return eris.Wrapf(ErrPrivateTask, "task %s", name)
	}

	rctx := &runtimeCtx{
		registry: registry,
		runner:   runner,
		runTasks: make(map[string]bool),
		stack:    make([]string, 0),
	}

	return runTaskInternal(ctx, rctx, task)
}

func runTaskInternal(ctx context.Context, rctx *runtimeCtx, task *Task) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status, ok := rctx.runTasks[task.Short]
	if ok {
		if status {
			log(ctx).Debug().Msgf("Task %s already run", task.Short)
			return nil
		}

		return rctx.cycle(task.Short)
	}

	rctx.runTasks[task.Short] = false
	rctx.stack = append(rctx.stack, task.Short)

	for _, dep := range task.Deps {
		if rctx.runTasks[dep] {
			continue
		}

		depTask, err := rctx.registry.Lookup(dep)
		if err != nil {
			return eris.Wrapf(err, "required by %s", task.Short)
		}

		err = runTaskInternal(ctx, rctx, depTask)
		if err != nil {
			return eris.Wrapf(err, "Task %s failed due to its dependency %s", task.Short, dep)
		}
	}

	rctx.stack = rctx.stack[:len(rctx.stack)-1]

	for _, cmd := range task.Cmds {
		cmd = rctx.registry.Shortcuts.Expand(cmd)
		log(ctx).Info().
			Str("task", task.Short).
			Bool("command", true).
			Msg(cmd)

		if err := rctx.runner.Run(ctx, cmd); err != nil {
			return eris.Wrapf(err, "task %s", task.Short)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	rctx.runTasks[task.Short] = true
	return nil
}
