// main wires the cqscope CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/cqscope/cqscope/cmd"
	"github.com/cqscope/cqscope/internal/runstore"
)

func main() {
	err := cmd.Execute()
	runstore.CloseStores()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
