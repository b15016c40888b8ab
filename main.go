package main

import (
	"os"

	"github.com/spigell/trial-screener/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
