package main

import (
	"fmt"
	"os"

	"github.com/roach88/headercheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own errors; cobra usage errors land here.
		if !cli.IsExitError(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
