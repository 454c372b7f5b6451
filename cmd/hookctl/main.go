package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	noun := cliArgs[0]
	args := cliArgs[1:]

	switch noun {
	case "subscription", "sub":
		return runSubscriptionNoun(args)
	case "delivery":
		return runDeliveryNoun(args)
	case "webhook":
		return runWebhookNoun(args)
	case "sink":
		return runSinkNoun(args)
	case "config":
		return runConfigNoun(args)
	case "dash":
		if hasHelpFlag(args) {
			printDashHelp()
			return 0
		}
		return runDash(args)
	case "version", "--version", "-v":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", noun)
		printUsage()
		return 1
	}
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode version info: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("hookctl %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, resolvedBuildTime); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`hookctl - Operator console for a webhook delivery service

Usage:
  hookctl <noun> <action> [flags]

Resources (Nouns):
  subscription  Webhook subscriptions on the delivery service
  delivery      Delivery attempts and retries
  webhook       Signing, verifying, and manual triggering
  sink          Local verifying endpoint that records deliveries
  config        hookctl configuration and integrity

Subscription Commands:
  subscription list          List subscriptions
  subscription show <id>     Show one subscription
  subscription create        Create a subscription
  subscription update <id>   Change target URL or event types
  subscription delete <id>   Delete a subscription
  subscription deliveries <id>  Recent deliveries for a subscription

Delivery Commands:
  delivery list              List deliveries
  delivery show <id>         Show a delivery and its attempts
  delivery retry <id>        Queue a delivery for retry

Webhook Commands:
  webhook sign               Print the signature of a payload
  webhook curl               Print a ready-to-run curl command
  webhook trigger            Sign and send a payload once
  webhook verify             Check a signature header against a payload

Sink Commands:
  sink start                 Run the verifying endpoint in the foreground
  sink list                  Show recorded deliveries

Config Commands:
  config check               Validate configuration
  config show                Print the resolved configuration
  config lock                Record the configuration hash in .checksums

Dashboard:
  dash                       Interactive terminal dashboard

General:
  version                    Show version information
  help                       Show this help message

Use 'hookctl <noun> help' for resource-specific flags.
`)
}

func printDashHelp() {
	fmt.Println("Usage: hookctl dash [--config PATH] [--api-url URL]")
	fmt.Println()
	fmt.Println("Subscriptions, recent deliveries, and a trigger form with live signature preview.")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  tab         Switch between table and form fields")
	fmt.Println("  ctrl+s      Sign and send the current payload")
	fmt.Println("  R           Retry the newest unfinished delivery")
	fmt.Println("  ctrl+r      Refresh")
	fmt.Println("  q, ctrl+c   Quit")
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
