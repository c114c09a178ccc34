package main

import (
	"os"

	"github.com/arthur-debert/vendorsync/cmd/vendorsync"
)

func main() {
	os.Exit(vendorsync.Execute())
}
