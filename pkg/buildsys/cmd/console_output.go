package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// colorstring.Color appends a reset code, the header color has to carry over to the message
var colors = colorstring.Colorize{Colors: colorstring.DefaultColors}

var levelColors = map[string]string{
	"fatal": "[red]",
	"error": "[red]",
	"warn":  "[yellow]",
	"debug": "[blue]",
	"trace": "[blue]",
}

// ConsoleWriter turns zerolog's JSON events into short, colored lines. Commands announced by the task runner
// are printed as "task: $ command".
type ConsoleWriter struct {
	out     io.Writer
	verbose bool
	buffer  strings.Builder
	lock    sync.Mutex
}

// NewConsoleWriter returns a writer printing to out. If verbose is set, every event field is printed as well.
func NewConsoleWriter(out io.Writer, verbose bool) *ConsoleWriter {
	return &ConsoleWriter{out: out, verbose: verbose}
}

type consoleEvent map[string]interface{}

func (e consoleEvent) str(key string) string {
	value, _ := e[key].(string)
	return value
}

func (e consoleEvent) isCommand() bool {
	command, _ := e["command"].(bool)
	return command
}

// header is the colorstring markup in front of the message
func (e consoleEvent) header() string {
	level := e.str("level")
	color, ok := levelColors[level]
	if !ok {
		color = "[green]"
	}

	header := color
	if e.isCommand() && level == "info" {
		header = "[cyan]"
	}

	if task := e.str("task"); task != "" {
		header += task + ": "
	}

	switch {
	case level == "error":
		header += "Error: "
	case e.isCommand():
		header += "$ "
	}

	return header
}

// message returns the event's message with its path made relative to the working directory
func (e consoleEvent) message() string {
	msg := e.str("message")

	if path := e.str("path"); path != "" {
		relPath, err := filepath.Rel(".", path)
		if err == nil {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}

	return msg
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt consoleEvent
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	w.buffer.WriteString(colors.Color(evt.header()))
	// messages may contain brackets (e.g. "[ -f out ]"), they must not go through colorstring
	w.buffer.WriteString(evt.message())

	if details := evt.str("error"); details != "" {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(details)
	}

	if w.verbose {
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		w.buffer.WriteString("\n")
		for _, name := range names {
			fmt.Fprintf(&w.buffer, "  %s: %+v\n", name, evt[name])
		}
	}

	w.buffer.WriteString(colors.Color("[reset]"))
	w.buffer.WriteString("\n")

	_, err = io.WriteString(w.out, w.buffer.String())
	if err != nil {
		return 0, err
	}

	return len(p), nil
}
