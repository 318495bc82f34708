package main

import (
	"os"

	"github.com/dgallion1/docsplit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
