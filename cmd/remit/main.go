// Command remit records and completes cross-border remittances.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/cli"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "remit:", err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own failures; anything else (bad flags,
		// wrong argument counts) is printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
