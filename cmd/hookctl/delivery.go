package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mattjoyce/hookctl/internal/client"
)

func runDeliveryNoun(args []string) int {
	if len(args) < 1 {
		printDeliveryNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printDeliveryNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runDeliveryList(actionArgs)
	case "show":
		return runDeliveryShow(actionArgs)
	case "retry":
		return runDeliveryRetry(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown delivery action: %s\n", action)
		return 1
	}
}

func printDeliveryNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: hookctl delivery <action> [flags]")
	fmt.Fprintln(w, "Actions: list, show, retry")
}

func runDeliveryList(args []string) int {
	var api apiFlags
	var subscriptionID int64

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	api.bind(fs)
	fs.Int64Var(&subscriptionID, "subscription", 0, "Only show deliveries for this subscription")
	if _, err := parseArgs(fs, args, 0, "hookctl delivery list [--subscription ID] [--json]"); err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	deliveries, err := c.ListDeliveries(context.Background())
	if err != nil {
		return fail(err)
	}
	if subscriptionID > 0 {
		filtered := deliveries[:0]
		for _, d := range deliveries {
			if d.SubscriptionID == subscriptionID {
				filtered = append(filtered, d)
			}
		}
		deliveries = filtered
	}

	if api.jsonOut {
		return printJSON(deliveries)
	}
	printDeliveryTable(deliveries)
	return 0
}

func runDeliveryShow(args []string) int {
	var api apiFlags
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	api.bind(fs)
	pos, err := parseArgs(fs, args, 1, "hookctl delivery show <id> [--json]")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "delivery")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	d, err := c.GetDelivery(context.Background(), id)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(d)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%d\n", d.ID)
	_, _ = fmt.Fprintf(w, "Subscription:\t%d\n", d.SubscriptionID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", d.Status.Label())
	_, _ = fmt.Fprintf(w, "Event type:\t%s\n", d.EventType)
	_, _ = fmt.Fprintf(w, "Attempts:\t%d\n", d.AttemptCount)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", formatTime(d.CreatedAt))
	_, _ = fmt.Fprintf(w, "Last attempt:\t%s\n", formatTime(d.LastAttempt))
	if !d.Status.Terminal() {
		_, _ = fmt.Fprintf(w, "Next retry:\t%s\n", formatTime(d.NextRetry))
	}
	if len(d.Payload) > 0 {
		_, _ = fmt.Fprintf(w, "Payload:\t%s\n", d.Payload)
	}
	_ = w.Flush()

	if len(d.Attempts) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "#\tTIME\tSTATUS CODE\tOUTCOME\tERROR")
		for _, a := range d.Attempts {
			code := "-"
			if a.StatusCode != nil {
				code = fmt.Sprintf("%d", *a.StatusCode)
			}
			detail := ""
			if a.ErrorDetails != nil {
				detail = *a.ErrorDetails
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.AttemptNumber, formatTime(a.Timestamp), code, a.Outcome, detail)
		}
		_ = w.Flush()
	}
	return 0
}

func runDeliveryRetry(args []string) int {
	var api apiFlags
	fs := flag.NewFlagSet("retry", flag.ContinueOnError)
	api.bind(fs)
	pos, err := parseArgs(fs, args, 1, "hookctl delivery retry <id>")
	if err != nil {
		return fail(err)
	}
	id, err := parseID(pos[0], "delivery")
	if err != nil {
		return fail(err)
	}

	c, _, err := api.client()
	if err != nil {
		return fail(err)
	}
	message, err := c.RetryDelivery(context.Background(), id)
	if err != nil {
		return fail(err)
	}

	if api.jsonOut {
		return printJSON(map[string]any{"delivery_id": id, "message": message})
	}
	fmt.Println(message)
	return 0
}

func printDeliveryTable(deliveries []client.Delivery) {
	if len(deliveries) == 0 {
		fmt.Println("No deliveries.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSUBSCRIPTION\tSTATUS\tEVENT TYPE\tATTEMPTS\tLAST ATTEMPT\tNEXT RETRY")
	for _, d := range deliveries {
		next := "-"
		if !d.Status.Terminal() {
			next = formatTime(d.NextRetry)
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.SubscriptionID, d.Status.Label(), d.EventType, d.AttemptCount, formatTime(d.LastAttempt), next)
	}
	_ = w.Flush()
}
