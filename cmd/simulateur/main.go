package main

import (
	"os"

	"github.com/kdidiop/participant-simulateur/cmd/simulateur/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
