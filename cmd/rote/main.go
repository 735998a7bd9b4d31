package main

import (
	"os"

	"github.com/sagebind/rote/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
