package main

import (
	"os"

	"streamvol/internal/adapter/primary/cli"
)

func main() {
	os.Exit(cli.Execute())
}
