package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/hookctl/internal/client"
	"github.com/mattjoyce/hookctl/internal/config"
	"github.com/mattjoyce/hookctl/internal/signing"
	"github.com/mattjoyce/hookctl/internal/trigger"
)

func runWebhookNoun(args []string) int {
	if len(args) < 1 {
		printWebhookNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printWebhookNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "sign":
		return runWebhookSign(actionArgs)
	case "verify":
		return runWebhookVerify(actionArgs)
	case "curl":
		return runWebhookCurl(actionArgs)
	case "trigger":
		return runWebhookTrigger(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown webhook action: %s\n", action)
		return 1
	}
}

func printWebhookNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: hookctl webhook <action> [flags]")
	fmt.Fprintln(w, "Actions: sign, verify, curl, trigger")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "The signature is HMAC-SHA256 over the canonical payload (sorted keys,")
	fmt.Fprintln(w, "no whitespace), sent as "+signing.HeaderName+": "+signing.Prefix+"<hex>.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  hookctl webhook sign --payload '{\"order_id\":42}' --secret s3cret")
	fmt.Fprintln(w, "  echo '{\"order_id\":42}' | hookctl webhook verify --payload-file - --signature sha256=...")
	fmt.Fprintln(w, "  hookctl webhook trigger --subscription 7 --event-type order.created --payload-file order.json")
}

// triggerFlags are shared by curl and trigger.
type triggerFlags struct {
	api            apiFlags
	secret         secretFlags
	payload        payloadFlags
	subscriptionID int64
	eventType      string
}

func (f *triggerFlags) bind(fs *flag.FlagSet) {
	f.api.bind(fs)
	f.secret.bind(fs)
	f.payload.bind(fs)
	fs.Int64Var(&f.subscriptionID, "subscription", 0, "Subscription id to ingest for")
	fs.StringVar(&f.eventType, "event-type", "", "Event type (default: first configured event type)")
}

// build resolves every input and assembles the signed request.
func (f *triggerFlags) build() (*client.Client, *trigger.SignedRequest, error) {
	c, cfg, err := f.api.client()
	if err != nil {
		return nil, nil, err
	}
	secret, err := f.secret.resolve()
	if err != nil {
		return nil, nil, err
	}
	payload, err := f.payload.resolve(os.Stdin)
	if err != nil {
		return nil, nil, err
	}
	eventType := f.eventType
	if eventType == "" && len(cfg.Trigger.EventTypes) > 0 {
		eventType = cfg.Trigger.EventTypes[0]
	}
	sr, err := trigger.Build(trigger.Params{
		BaseURL:        c.BaseURL(),
		SubscriptionID: f.subscriptionID,
		EventType:      eventType,
		Payload:        payload,
		Secret:         secret,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, sr, nil
}

func runWebhookSign(args []string) int {
	var secret secretFlags
	var payload payloadFlags
	var jsonOut, header bool

	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	secret.bind(fs)
	payload.bind(fs)
	fs.BoolVar(&header, "header", false, "Print the full header value ("+signing.Prefix+"<hex>)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if _, err := parseArgs(fs, args, 0, "hookctl webhook sign [--payload JSON | --payload-file PATH] [--secret S]"); err != nil {
		return fail(err)
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return fail(err)
	}

	key, err := secret.resolve()
	if err != nil {
		return fail(err)
	}
	raw, err := payload.resolve(os.Stdin)
	if err != nil {
		return fail(err)
	}
	signed, err := signing.SignPayload(raw, key)
	if err != nil {
		return fail(err)
	}

	if jsonOut {
		return printJSON(map[string]string{
			"signature": signed.Signature,
			"header":    signing.FormatHeader(signed.Signature),
			"canonical": string(signed.Canonical),
		})
	}
	if header {
		fmt.Println(signing.FormatHeader(signed.Signature))
		return 0
	}
	fmt.Println(signed.Signature)
	return 0
}

func runWebhookVerify(args []string) int {
	var secret secretFlags
	var payload payloadFlags
	var signature string

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	secret.bind(fs)
	payload.bind(fs)
	fs.StringVar(&signature, "signature", "", "Header value to check ("+signing.Prefix+"<hex> or bare hex)")
	if _, err := parseArgs(fs, args, 0, "hookctl webhook verify --signature SIG [--payload JSON | --payload-file PATH] [--secret S]"); err != nil {
		return fail(err)
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return fail(err)
	}

	key, err := secret.resolve()
	if err != nil {
		return fail(err)
	}
	raw, err := payload.resolve(os.Stdin)
	if err != nil {
		return fail(err)
	}

	if err := signing.Verify(raw, key, signature); err != nil {
		if errors.Is(err, signing.ErrVerification) {
			fmt.Fprintln(os.Stderr, "Signature INVALID")
			return 1
		}
		return fail(err)
	}
	fmt.Println("Signature OK")
	return 0
}

func runWebhookCurl(args []string) int {
	var tf triggerFlags
	fs := flag.NewFlagSet("curl", flag.ContinueOnError)
	tf.bind(fs)
	if _, err := parseArgs(fs, args, 0, "hookctl webhook curl --subscription ID [--event-type T] [--payload JSON] [--secret S]"); err != nil {
		return fail(err)
	}

	_, sr, err := tf.build()
	if err != nil {
		return fail(err)
	}
	fmt.Println(sr.Curl())
	return 0
}

func runWebhookTrigger(args []string) int {
	var tf triggerFlags
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	tf.bind(fs)
	if _, err := parseArgs(fs, args, 0, "hookctl webhook trigger --subscription ID [--event-type T] [--payload JSON] [--secret S]"); err != nil {
		return fail(err)
	}

	// Nothing is sent unless the request builds.
	c, sr, err := tf.build()
	if err != nil {
		return fail(err)
	}
	result, err := c.Ingest(context.Background(), sr)
	if err != nil {
		return fail(err)
	}

	if tf.api.jsonOut {
		return printJSON(result)
	}
	if result.Accepted() {
		fmt.Printf("%s (delivery %d)\n", result.Message, *result.DeliveryID)
	} else {
		fmt.Println(result.Message)
	}
	return 0
}
