// Package buildsys implements a minimal task runner. Tasks are read from a line based build file
// and their commands are executed through the mvdan.cc/sh shell runtime.
// Every task runs after its dependencies and at most once per invocation.
package buildsys
