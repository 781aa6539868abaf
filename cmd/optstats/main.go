package main

import (
	"os"

	"github.com/wonny/optstats/cmd/optstats/commands"
)

// main is the entry point for the optstats CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/optstats [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
