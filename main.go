package main

import (
	"context"
	"fmt"
	"os"
)

// main initializes the core application logic, builds the CLI interface,
// and executes the command provided by the user.
func main() {
	application := NewApp()
	cmd := BuildCLI(application)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
