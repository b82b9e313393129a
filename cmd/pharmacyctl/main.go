package main

import (
	"os"

	"github.com/UnknownOlympus/pharmacy-locator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
