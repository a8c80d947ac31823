// Package main provides the entry point for the docgap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/docgap/cmd/docgap/commands"
)

func main() {
	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
