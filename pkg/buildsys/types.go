package buildsys

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
)

// Visibility controls whether a task may be requested directly
type Visibility int

const (
	// Public tasks can be requested from the command line
	Public Visibility = iota
	// Private tasks only run as a dependency of another task
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Task contains the values declared by a task header and the action lines that follow it
type Task struct {
	Short      string
	Deps       []string
	Cmds       []string
	Visibility Visibility
	// Line is the position of the task header in the build file (1-based, 0 if unknown)
	Line int
}

// String returns a string representation of the task
func (t *Task) String() string {
	return fmt.Sprintf("<Task %s: %d deps, %d cmds>", t.Short, len(t.Deps), len(t.Cmds))
}

// IsPrivate reports whether the task is hidden from direct invocation
func (t *Task) IsPrivate() bool {
	return t.Visibility == Private
}

// TaskList maps short names to each relevant task
type TaskList map[string]*Task

// Registry holds every parsed task together with the shortcut table. It's built once by the parser and
// never modified while tasks are running.
type Registry struct {
	Tasks     TaskList
	Shortcuts Shortcuts
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Tasks:     make(TaskList),
		Shortcuts: make(Shortcuts),
	}
}

// Add registers the task. An existing task with the same name is replaced entirely.
func (r *Registry) Add(task *Task) {
	r.Tasks[task.Short] = task
}

// SetShortcut defines or overwrites a shortcut
func (r *Registry) SetShortcut(key, value string) {
	r.Shortcuts[key] = value
}

// Lookup returns the named task or an error wrapping ErrTaskNotFound
func (r *Registry) Lookup(name string) (*Task, error) {
	task, ok := r.Tasks[name]
	if !ok {
		return nil, eris.Wrapf(ErrTaskNotFound, "task %s", name)
	}

	return task, nil
}

// PublicTasks returns all tasks which can be requested directly, sorted by name
func (r *Registry) PublicTasks() []*Task {
	result := make([]*Task, 0, len(r.Tasks))
	for _, task := range r.Tasks {
		if !task.IsPrivate() {
			result = append(result, task)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Short < result[j].Short
	})
	return result
}
