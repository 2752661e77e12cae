package pkg

import (
	"io"

	"github.com/mitchellh/colorstring"
)

// PrintTask prints a highlighted heading
func PrintTask(out io.Writer, msg string) {
	colorstring.Fprintf(out, "[blue][bold]==>[default] %s\n", msg)
}

// PrintSubtask prints an entry below the last heading
func PrintSubtask(out io.Writer, msg string) {
	colorstring.Fprintf(out, "[green][bold]  ->[reset] %s\n", msg)
}
