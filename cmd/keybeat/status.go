package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/keybeat/keybeat/pkg/config"
	"github.com/keybeat/keybeat/pkg/offline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the offline store state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		dbPath := cfg.DBPath
		if dbPath == "" {
			if dbPath, err = offline.DefaultPath(); err != nil {
				return err
			}
		}
		store, err := offline.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		count, size, newest, err := store.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Store:    %s (%s)\n", store.Path(), humanize.Bytes(uint64(size)))
		fmt.Printf("Pending:  %d record(s)\n", count)
		if count > 0 {
			fmt.Printf("Newest:   %s\n", humanize.Time(newest))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
