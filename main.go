package main

import (
	"os"

	"regcorpus/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
