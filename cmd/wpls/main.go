package main

import (
	"os"

	"github.com/wpbrowse/wp-listing-client/cmd/wpls/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
