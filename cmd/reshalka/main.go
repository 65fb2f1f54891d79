// Command reshalka runs puzzle sessions for young children.
package main

import (
	"fmt"
	"os"

	"github.com/tulen-chik/reshalka/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
