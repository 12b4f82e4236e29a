// This is the entry point for the binq CLI.
// Build with: go build -o bin/binq ./cmd/binq
// Usage: binq <command> [options]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
