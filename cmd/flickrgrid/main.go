package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	// fang cancels the command context on interrupt; stages stop between
	// work units and leave the ledgers consistent.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
