package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keybeat/keybeat/pkg/activity"
	"github.com/keybeat/keybeat/pkg/config"
	"github.com/keybeat/keybeat/pkg/event"
	"github.com/keybeat/keybeat/pkg/fileinfo"
	"github.com/keybeat/keybeat/pkg/gitmeta"
	"github.com/keybeat/keybeat/pkg/metrics"
	"github.com/keybeat/keybeat/pkg/offline"
	"github.com/keybeat/keybeat/pkg/replay"
	"github.com/keybeat/keybeat/pkg/sender"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the aggregation engine, reading editor events from stdin",
	Long: `Run starts the engine as a daemon. Editor notifications are read as
JSON lines from stdin, aggregated into per-project windows, flushed to the
local store on the window timer, and drained to the collector on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
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

	met := metrics.New()
	ws := newHostWorkspace()
	cache := fileinfo.NewCache(gitmeta.New(log.Logger))
	tracker := activity.NewTracker(ws, cache, store, activity.Options{
		Window:  cfg.Window(),
		Logger:  log.Logger,
		Metrics: met,
	})

	client := sender.NewClient(sender.Config{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.HTTPTimeout,
	})
	replayer := replay.New(store, client, log.Logger, met)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	events := make(chan event.RawEvent)
	go readEvents(os.Stdin, ws, events)

	log.Info().Str("db", dbPath).Dur("window", cfg.Window()).Msg("engine running")

	for {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			return drain(tracker, replayer)

		case ev, ok := <-events:
			if !ok {
				log.Info().Msg("event stream closed, shutting down")
				return drain(tracker, replayer)
			}
			dispatch(tracker, ws, ev)
		}
	}
}

// readEvents decodes JSONL envelopes and forwards normalized events. The
// open-file set is maintained here so an open event is visible to the
// eligibility filter by the time it is dispatched.
func readEvents(r *os.File, ws *hostWorkspace, out chan<- event.RawEvent) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env event.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			log.Debug().Err(err).Msg("skipping malformed event line")
			continue
		}
		ev := env.Normalize()
		if ev.Kind == event.KindOpen {
			ws.markOpen(ev.Filename)
		}
		out <- ev
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("event stream read error")
	}
}

func dispatch(tracker *activity.Tracker, ws *hostWorkspace, ev event.RawEvent) {
	switch ev.Kind {
	case event.KindOpen:
		tracker.HandleOpen(ev)
	case event.KindClose:
		tracker.HandleClose(ev)
		ws.markClosed(ev.Filename)
	case event.KindChange:
		tracker.HandleChange(ev)
	default:
		log.Debug().Str("kind", string(ev.Kind)).Msg("ignoring unknown event kind")
	}
}

// drain performs the final flush and pushes everything pending to the
// collector before exit.
func drain(tracker *activity.Tracker, replayer *replay.Replayer) error {
	tracker.Flush()
	if err := replayer.Replay(context.Background()); err != nil {
		log.Warn().Err(err).Msg("final replay failed; records remain in the offline store")
	}
	return nil
}
