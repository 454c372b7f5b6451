package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/mattjoyce/hookctl/internal/config"
	"github.com/mattjoyce/hookctl/internal/lock"
	"github.com/mattjoyce/hookctl/internal/log"
	"github.com/mattjoyce/hookctl/internal/sink"
	"github.com/mattjoyce/hookctl/internal/storage"
)

func runSinkNoun(args []string) int {
	if len(args) < 1 {
		printSinkNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSinkNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSinkStartHelp()
			return 0
		}
		return runSinkStart(actionArgs)
	case "list":
		return runSinkList(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown sink action: %s\n", action)
		return 1
	}
}

func printSinkNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: hookctl sink <action> [flags]")
	fmt.Fprintln(w, "Actions: start, list")
}

func printSinkStartHelp() {
	fmt.Println("Usage: hookctl sink start [--config PATH] [--listen ADDR]")
	fmt.Println()
	fmt.Println("Run a local ingestion endpoint that verifies signatures like the delivery service")
	fmt.Println("and records accepted deliveries in SQLite. Subscriptions and secrets come from")
	fmt.Println("the sink section of hookctl.yaml.")
	fmt.Println()
	fmt.Println("Routes:")
	fmt.Println("  POST /webhooks/ingest/{subscription_id}")
	fmt.Println("  GET  /webhooks/deliveries[/{id}]")
	fmt.Println("  GET  /webhooks/status/{id}")
	fmt.Println("  GET  /health, /metrics")
}

func runSinkStart(args []string) int {
	var configPath, listen string

	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to hookctl.yaml")
	fs.StringVar(&listen, "listen", "", "Listen address (overrides sink.listen)")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fail(err)
	}
	if listen != "" {
		cfg.Sink.Listen = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := startSink(ctx, cfg); err != nil {
		log.WithComponent("main").Error("sink failed", "error", err)
		return fail(err)
	}
	return 0
}

// startSink opens the capture store and serves until ctx is cancelled.
func startSink(ctx context.Context, cfg *config.Config) error {
	logger := log.WithComponent("sink")

	if err := cfg.Sink.CheckSecrets(); err != nil {
		return err
	}
	if len(cfg.Sink.Subscriptions) == 0 {
		logger.Warn("no sink subscriptions configured; every ingest will be rejected")
	}

	instance, err := lock.Acquire(lock.For(cfg.Sink.Path))
	if err != nil {
		return fmt.Errorf("another sink may be running: %w", err)
	}
	defer instance.Release()
	logger.Info("acquired sink lock", "path", instance.Path())

	db, err := storage.OpenSQLite(ctx, cfg.Sink.Path)
	if err != nil {
		return fmt.Errorf("open sink database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Sink.Path)

	srv := sink.New(cfg.Sink, storage.NewCaptures(db), logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("sink stopped")
	return nil
}

func runSinkList(args []string) int {
	var configPath string
	var limit int
	var jsonOut bool

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to hookctl.yaml")
	fs.IntVar(&limit, "limit", 20, "Maximum number of captures")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fail(err)
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.Sink.Path)
	if err != nil {
		return fail(fmt.Errorf("open sink database: %w", err))
	}
	defer db.Close()

	captures, err := storage.NewCaptures(db).List(ctx, limit)
	if err != nil {
		return fail(err)
	}

	if jsonOut {
		return printJSON(captures)
	}
	if len(captures) == 0 {
		fmt.Println("No captured deliveries.")
		return 0
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSUBSCRIPTION\tEVENT TYPE\tRECEIVED\tPAYLOAD")
	for _, c := range captures {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			c.ID, c.SubscriptionID, c.EventType, c.CreatedAt.Local().Format("2006-01-02 15:04:05"), c.Payload)
	}
	_ = w.Flush()
	return 0
}
