package main

import (
	"os"

	"github.com/kailas-cloud/careerdex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
