package main

import (
	"os"

	"github.com/rustyeddy/nasfeed/cmd/nasfeed/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
