package main

import (
	"os"

	"github.com/abhisek/sentrypath/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
