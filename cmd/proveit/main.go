// Command proveit inspects and edits the references of wikitext files.
package main

import (
	"os"

	"github.com/aidanlsb/proveit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
