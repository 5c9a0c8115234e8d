package main

import (
	"os"

	"github.com/tfd500-tools/tfd500ctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
