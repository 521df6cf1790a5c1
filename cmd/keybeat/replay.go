package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keybeat/keybeat/pkg/config"
	"github.com/keybeat/keybeat/pkg/metrics"
	"github.com/keybeat/keybeat/pkg/offline"
	"github.com/keybeat/keybeat/pkg/replay"
	"github.com/keybeat/keybeat/pkg/sender"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Resubmit pending offline records to the collector",
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

		client := sender.NewClient(sender.Config{
			BaseURL: cfg.APIURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.HTTPTimeout,
		})

		return replay.New(store, client, log.Logger, metrics.New()).Replay(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
