// main is the entry point of the tally CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/tally/cmd"
	"github.com/huangsam/tally/internal/store"
)

func main() {
	cmd.SetStoreManager(store.Manager)

	err := cmd.Execute()
	store.CloseStore()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
