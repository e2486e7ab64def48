package main

import (
	"os"

	"github.com/dshills/gitnewer/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
