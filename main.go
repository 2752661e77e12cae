package main

import "github.com/ngld/minitask/cmd"

func main() {
	cmd.Execute()
}
