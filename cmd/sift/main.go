// Command sift filters a live content feed by topic.
//
// Usage:
//
//	sift run                Watch the filtered stream (TUI)
//	sift classify <text>    Classify a text fragment
//	sift stats              Show filter decision statistics
package main

import (
	"fmt"
	"os"
)

const usage = `sift - semantic feed content filter

Usage:
  sift <command> [flags]

Commands:
  run         Fetch sources and watch the filtered stream
  classify    One-shot classification of a text fragment
  stats       Filter decision statistics from the local database

Environment:
  SIFT_HOME   Override the data directory (default ~/.sift)

Run 'sift <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "run":
		runRun()
	case "classify":
		runClassify()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "sift: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
