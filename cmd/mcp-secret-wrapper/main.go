package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/astrix-security/mcp-secret-wrapper/cmd/mcp-secret-wrapper/commands"
	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Wipe every secure buffer before the process exits, whatever path
	// got us here.
	defer memguard.Purge()

	rootCmd := commands.NewRootCommand(commands.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	if err := rootCmd.Execute(); err != nil {
		var exitErr *dserrors.ExitError
		if errors.As(err, &exitErr) {
			// The wrapped command already wrote its own output; mirror
			// its exit code without adding noise.
			return exitErr.Code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
