// Command fakestream emits synthetic record-protocol streams for testing
// stream consumers and loaders.
package main

import (
	"os"

	"github.com/roach88/fakestream/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], os.Stdout, os.Stderr))
}
