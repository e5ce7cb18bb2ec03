// Command morel is the Morel interpreter: a REPL and batch runner for the
// ML-with-queries language (spec.md Sec. 6).
package main

import (
	"os"

	"github.com/hydromatic/morel-go/cmd/morel/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
