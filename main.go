// Package main is the entry point for the querydesk CLI.
// It runs SQL against MySQL and PostgreSQL and can serve the query engine over gRPC.
package main

import (
	"querydesk/cli/cmd"
)

// main is the entry point for the querydesk CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
