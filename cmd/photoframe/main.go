package main

import (
	"os"

	"github.com/menta2k/photo-frame/cmd/photoframe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
