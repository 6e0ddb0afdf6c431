package main

import (
	"os"

	"github.com/haldirsson/coblame/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
