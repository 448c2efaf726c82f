// Package main is the entry point for the heartctl operator CLI.
package main

import (
	"os"

	"github.com/cenk2025/hardpath/cmd/heartctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
