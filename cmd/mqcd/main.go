package main

import (
	"fmt"
	"os"

	"mqc.szuro.net/internal/plugin"
)

func main() {
	err := rootCmd.Execute()
	plugin.GetRegistry().CleanupAll()
	if err != nil {
		exitWithError(err)
	}
}

// exitWithError prints err and exits with code 1
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
