package main

import (
	"os"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
