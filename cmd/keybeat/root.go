package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keybeat",
	Short: "Aggregate editor keystroke activity into per-project records",
	Long: `Keybeat converts a raw stream of text-editing events into periodic
per-project keystroke activity records, persists them locally, and delivers
them to a remote collector in batches.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
