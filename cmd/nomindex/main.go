// Command nomindex indexes .nom registrar events.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nomindex/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nomindex:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
