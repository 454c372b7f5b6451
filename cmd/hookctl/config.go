package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/hookctl/internal/config"
)

const redacted = "********"

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: hookctl config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, show, lock")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: hookctl config check [--config PATH] [--json]")
	fmt.Println("Validate configuration syntax, values, and integrity.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: hookctl config show [--config PATH] [--json]")
	fmt.Println("Show the resolved configuration. Secrets are redacted.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: hookctl config lock [--config PATH] [-v|--verbose] [--dry-run]")
	fmt.Println("Authorize the current configuration by recording its BLAKE3 hash in " + config.ChecksumFile + ".")
}

type checkResult struct {
	Valid    bool     `json:"valid"`
	Path     string   `json:"path,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runConfigCheck(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to hookctl.yaml")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	result := checkResult{Valid: true}
	cfg, err := loadConfig(configPath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	} else {
		result.Path = cfg.SourcePath
		if cfg.SourcePath == "" {
			result.Warnings = append(result.Warnings, "no config file found; using defaults")
		}
		if err := cfg.Sink.CheckSecrets(); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	if jsonOut {
		if code := printJSON(result); code != 0 {
			return code
		}
	} else {
		for _, e := range result.Errors {
			fmt.Printf("ERROR   %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Printf("WARNING %s\n", w)
		}
		if result.Valid {
			fmt.Println("Configuration OK")
		}
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func runConfigShow(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to hookctl.yaml")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fail(err)
	}
	redactSecrets(cfg)

	if jsonOut {
		return printJSON(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fail(err)
	}
	fmt.Print(string(data))
	return 0
}

func redactSecrets(cfg *config.Config) {
	subs := make([]config.SinkSubscription, len(cfg.Sink.Subscriptions))
	copy(subs, cfg.Sink.Subscriptions)
	for i := range subs {
		if subs[i].Secret != "" {
			subs[i].Secret = redacted
		}
	}
	cfg.Sink.Subscriptions = subs
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to hookctl.yaml")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Dry run")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	path, err := config.Discover(configPath)
	if err != nil {
		return fail(err)
	}
	if path == "" {
		return fail(errors.New("no config file found; pass --config or create " + config.FileName))
	}

	report, err := config.Lock(path, dryRun)
	if err != nil {
		return fail(err)
	}

	if verbose || verboseShort {
		fmt.Printf("HASH %s %s\n", report.Hash, report.ConfigPath)
		if dryRun {
			fmt.Printf("DRY-RUN %s: %s (not written)\n", config.ChecksumFile, report.ChecksumPath)
		} else {
			fmt.Printf("WROTE %s: %s\n", config.ChecksumFile, report.ChecksumPath)
		}
		return 0
	}
	if !dryRun {
		fmt.Printf("Locked %s\n", report.ConfigPath)
	}
	return 0
}
