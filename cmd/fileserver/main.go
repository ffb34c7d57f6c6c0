package main

import (
	"os"

	"github.com/MadalinaDev/PR-labs/cmd/fileserver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
