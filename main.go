package main

import (
	"os"

	"github.com/mdbport/mdbport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
