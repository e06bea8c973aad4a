package main

import (
	"os"
	"rewatch/cmd"
	"strings"
)

func main() {
	// rewatch -p '*.rs' -- cargo test is shorthand for rewatch watch ...
	if len(os.Args) == 1 || isWatchShorthand(os.Args[1]) {
		os.Args = append([]string{os.Args[0], "watch"}, os.Args[1:]...)
	}
	cmd.Execute()
}

func isWatchShorthand(arg string) bool {
	switch arg {
	case "-h", "--help", "--version":
		return false
	}
	return strings.HasPrefix(arg, "-")
}
