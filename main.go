package main

import (
	"os"

	"github.com/aryanzkys/apatte-pitbox/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
