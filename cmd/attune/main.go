// Command attune plays, renders, and inspects guided meditation sessions.
package main

import (
	"os"

	"github.com/attunelabs/attune/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
