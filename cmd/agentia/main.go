package main

import (
	"os"

	"github.com/tatianab/agentia/cmd/agentia/commands"
)

func main() {
	// Errors are printed by the printer package before they get here.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
