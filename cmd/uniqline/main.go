// Command uniqline removes repeated lines from a file or standard input,
// keeping the first occurrence of each line in input order.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "serve":
		os.Exit(cmdServe(args[1:]))
	case "mcp":
		os.Exit(cmdMCP(args[1:]))
	case "history":
		os.Exit(cmdHistory(args[1:], os.Stdout, os.Stderr))
	case "help":
		usage()
	case "version":
		fmt.Println("uniqline", version)
	default:
		os.Exit(cmdRun(args, os.Stdin, os.Stdout, os.Stderr))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: uniqline [flags] [file]
       uniqline <command> [flags]

Without a command, reads file (or stdin) and prints every distinct line once.

Commands:
  serve     Start the HTTP API
  mcp       Serve the MCP tools over stdio
  history   List recorded runs
  version   Print the version

Run "uniqline -h" for the dedup flags.
`)
}
