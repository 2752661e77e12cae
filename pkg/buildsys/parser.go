package buildsys

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// task names are Unicode word characters, \w alone only matches ASCII
var taskHeader = regexp.MustCompile(`^(private\s+)?([\p{L}\p{N}_]+)\((.*?)\):`)

type parserCtx struct {
	ctx      context.Context
	filename string
	registry *Registry
	current  *Task
}

func (p *parserCtx) warn(line int, msg string, args ...interface{}) {
	log(p.ctx).Warn().
		Str("path", p.filename).
		Int("line", line).
		Msgf(msg, args...)
}

func splitDeps(raw string) []string {
	deps := make([]string, 0)
	for _, dep := range strings.Split(raw, ",") {
		dep = strings.TrimSpace(dep)
		if dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}

func (p *parserCtx) parseLine(lineNo int, line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	if match := taskHeader.FindStringSubmatch(line); match != nil {
		task := &Task{
			Short: match[2],
			Deps:  splitDeps(match[3]),
			Cmds:  make([]string, 0),
			Line:  lineNo,
		}
		if match[1] != "" {
			task.Visibility = Private
		}

		if _, present := p.registry.Tasks[task.Short]; present {
			log(p.ctx).Debug().
				Str("task", task.Short).
				Int("line", lineNo).
				Msg("replacing earlier definition")
		}

		p.registry.Add(task)
		p.current = task
		return
	}

	if p.current != nil {
		p.current.Cmds = append(p.current.Cmds, line)
		return
	}

	pos := strings.Index(line, "=")
	if pos > -1 {
		p.registry.SetShortcut(strings.TrimSpace(line[:pos]), strings.TrimSpace(line[pos+1:]))
		return
	}

	p.warn(lineNo, "ignoring line outside of a task: %s", line)
}

// Parse reads a build file from r and returns the declared tasks and shortcuts. The filename is only
// used for messages.
func Parse(ctx context.Context, r io.Reader, filename string) (*Registry, error) {
	p := &parserCtx{
		ctx:      ctx,
		filename: filename,
		registry: NewRegistry(),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		p.parseLine(lineNo, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", filename)
	}

	return p.registry, nil
}

// ParseFile opens and parses the build file at path
func ParseFile(ctx context.Context, path string) (*Registry, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open build file %s", path)
	}
	defer handle.Close()

	return Parse(ctx, handle, path)
}
