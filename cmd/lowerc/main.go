// Command lowerc lowers LLVM IR instructions to typed operations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/lowercore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
