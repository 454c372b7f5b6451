package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattjoyce/hookctl/internal/client"
)

func runSubscriptionNoun(args []string) int {
	if len(args) < 1 {
		printSubscriptionNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSubscriptionNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runSubscriptionList(actionArgs)
	case "show":
		return runSubscriptionShow(actionArgs)
	case "create":
		return runSubscriptionCreate(actionArgs)
	case "update":
		return runSubscriptionUpdate(actionArgs)
	case "delete":
		return runSubscriptionDelete(actionArgs)
	case "deliveries":
		return runSubscriptionDeliveries(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subscription action: %s\n", action)
		return 1
	}
}

func printSubscriptionNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: hookctl subscription <action> [flags]")
	fmt.Fprintln(w, "Actions: list, show, create, update, delete, deliveries")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  hookctl subscription create --target-url https://example.com/hook --event-types order.created,order.updated --secret s3cret")
	fmt.Fprintln(w, "  hookctl subscription update 7 --target-url https://example.com/v2/hook")
	fmt.Fprintln(w, "  hookctl subscription deliveries 7 --limit 5 --json")
}

func runSubscriptionList(args []string) int {
	var api apiFlags
	var skip, limit int

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	api.bind(fs)
	fs.IntVar(&skip, "skip", 0, "Number of subscriptions to skip")
	fs.IntVar(&limit, "limit", 100, "Maximum number of subscriptions")
	if _, err := parseArgs(fs, args, 0, "hookctl subscription list [--skip N] [--limit N] [--json]"); err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	subs, err := c.ListSubscriptions(context.Background(), skip, limit)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(subs)
	}
	if len(subs) == 0 {
		fmt.Println("No subscriptions.")
		return 0
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTARGET URL\tEVENT TYPES\tACTIVE\tCREATED")
	for _, s := range subs {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n",
			s.ID, s.TargetURL, strings.Join(s.EventTypes, ","), s.IsActive, formatTime(&s.CreatedAt))
	}
	_ = w.Flush()
	return 0
}

func runSubscriptionShow(args []string) int {
	var api apiFlags
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	api.bind(fs)
	pos, err := parseArgs(fs, args, 1, "hookctl subscription show <id> [--json]")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "subscription")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	sub, err := c.GetSubscription(context.Background(), id)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(sub)
	}
	printSubscription(sub)
	return 0
}

func runSubscriptionCreate(args []string) int {
	var api apiFlags
	var secret secretFlags
	var targetURL, eventTypes string

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	api.bind(fs)
	secret.bind(fs)
	fs.StringVar(&targetURL, "target-url", "", "URL deliveries are POSTed to")
	fs.StringVar(&eventTypes, "event-types", "", "Comma-separated event types")
	if _, err := parseArgs(fs, args, 0, "hookctl subscription create --target-url URL --event-types a,b [--secret S | --secret-env NAME]"); err != nil {
		return fail(err)
	}

	key, err := secret.resolve()
	if err != nil {
		return fail(err)
	}
	req := client.SubscriptionCreate{
		TargetURL:  strings.TrimSpace(targetURL),
		SecretKey:  key,
		EventTypes: splitList(eventTypes),
	}
	if err := req.Validate(); err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	sub, err := c.CreateSubscription(context.Background(), req)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(sub)
	}
	fmt.Printf("Created subscription %d\n", sub.ID)
	printSubscription(sub)
	return 0
}

func runSubscriptionUpdate(args []string) int {
	var api apiFlags
	var targetURL, eventTypes string

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	api.bind(fs)
	fs.StringVar(&targetURL, "target-url", "", "New target URL")
	fs.StringVar(&eventTypes, "event-types", "", "Comma-separated event types (unchanged when omitted)")
	pos, err := parseArgs(fs, args, 1, "hookctl subscription update <id> --target-url URL [--event-types a,b]")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "subscription")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	ctx := context.Background()

	// The service requires target_url on update; keep the current one when
	// only event types change.
	if strings.TrimSpace(targetURL) == "" {
		current, err := c.GetSubscription(ctx, id)
		if err != nil {
			return fail(err)
		}
		targetURL = current.TargetURL
	}

	sub, err := c.UpdateSubscription(ctx, id, client.SubscriptionUpdate{
		TargetURL:  strings.TrimSpace(targetURL),
		EventTypes: splitList(eventTypes),
	})
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(sub)
	}
	fmt.Printf("Updated subscription %d\n", sub.ID)
	printSubscription(sub)
	return 0
}

func runSubscriptionDelete(args []string) int {
	var api apiFlags
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	api.bind(fs)
	pos, err := parseArgs(fs, args, 1, "hookctl subscription delete <id>")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "subscription")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	if err := c.DeleteSubscription(context.Background(), id); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted subscription %d\n", id)
	return 0
}

func runSubscriptionDeliveries(args []string) int {
	var api apiFlags
	var limit int

	fs := flag.NewFlagSet("deliveries", flag.ContinueOnError)
	api.bind(fs)
	fs.IntVar(&limit, "limit", 10, "Maximum number of deliveries")
	pos, err := parseArgs(fs, args, 1, "hookctl subscription deliveries <id> [--limit N] [--json]")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "subscription")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	deliveries, err := c.RecentDeliveries(context.Background(), id, limit)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(deliveries)
	}
	printDeliveryTable(deliveries)
	return 0
}

func printSubscription(s *client.Subscription) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%d\n", s.ID)
	_, _ = fmt.Fprintf(w, "Target URL:\t%s\n", s.TargetURL)
	_, _ = fmt.Fprintf(w, "Event types:\t%s\n", strings.Join(s.EventTypes, ", "))
	_, _ = fmt.Fprintf(w, "Active:\t%t\n", s.IsActive)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", formatTime(&s.CreatedAt))
	_, _ = fmt.Fprintf(w, "Updated:\t%s\n", formatTime(s.UpdatedAt))
	_ = w.Flush()
}
