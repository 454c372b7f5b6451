package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattjoyce/hookctl/internal/client"
	"github.com/mattjoyce/hookctl/internal/config"
	"github.com/mattjoyce/hookctl/internal/log"
)

// defaultSecretEnv is read when neither --secret nor --secret-env is given.
const defaultSecretEnv = "HOOKCTL_SECRET"

// apiFlags are shared by actions that talk to the delivery service.
type apiFlags struct {
	configPath string
	apiURL     string
	jsonOut    bool
}

func (f *apiFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to hookctl.yaml")
	fs.StringVar(&f.apiURL, "api-url", "", "Delivery service API URL (overrides config)")
	fs.BoolVar(&f.jsonOut, "json", false, "Output in JSON")
}

// client loads configuration and returns a client for the resolved API URL.
func (f *apiFlags) client() (*client.Client, *config.Config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	baseURL := cfg.API.URL
	if f.apiURL != "" {
		baseURL = strings.TrimRight(strings.TrimSpace(f.apiURL), "/")
	}
	c := client.New(baseURL,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(log.WithComponent("client")),
	)
	return c, cfg, nil
}

// loadConfig reads .env, discovers and loads hookctl.yaml, and sets up
// logging. Without a config file the defaults apply.
func loadConfig(configPath string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	path, err := config.Discover(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := config.LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.Log.Level, cfg.Log.Format, nil)
	return cfg, nil
}

// secretFlags select the signing secret.
type secretFlags struct {
	secret    string
	secretEnv string
}

func (f *secretFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.secret, "secret", "", "Signing secret")
	fs.StringVar(&f.secretEnv, "secret-env", defaultSecretEnv, "Environment variable holding the signing secret")
}

func (f *secretFlags) resolve() (string, error) {
	if f.secret != "" {
		return f.secret, nil
	}
	if v := os.Getenv(f.secretEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret required: use --secret or set $%s", f.secretEnv)
}

// payloadFlags select the JSON payload.
type payloadFlags struct {
	payload     string
	payloadFile string
}

func (f *payloadFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.payload, "payload", "", "JSON payload (default {})")
	fs.StringVar(&f.payloadFile, "payload-file", "", "Read the JSON payload from a file, - for stdin")
}

func (f *payloadFlags) resolve(stdin io.Reader) (string, error) {
	switch {
	case f.payload != "" && f.payloadFile != "":
		return "", errors.New("use only one of --payload or --payload-file")
	case f.payloadFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read payload from stdin: %w", err)
		}
		return string(data), nil
	case f.payloadFile != "":
		data, err := os.ReadFile(f.payloadFile)
		if err != nil {
			return "", fmt.Errorf("read payload: %w", err)
		}
		return string(data), nil
	case f.payload != "":
		return f.payload, nil
	default:
		return "{}", nil
	}
}

// valueFlags lists the flags that consume the following argument, so
// positionals may appear before or after them.
var valueFlags = map[string]bool{
	"-config": true, "--config": true,
	"-api-url": true, "--api-url": true,
	"-secret": true, "--secret": true,
	"-secret-env": true, "--secret-env": true,
	"-payload": true, "--payload": true,
	"-payload-file": true, "--payload-file": true,
	"-event-type": true, "--event-type": true,
	"-subscription": true, "--subscription": true,
	"-target-url": true, "--target-url": true,
	"-event-types": true, "--event-types": true,
	"-signature": true, "--signature": true,
	"-limit": true, "--limit": true,
	"-skip": true, "--skip": true,
}

func splitFlagsAndPositionals(args []string, takesValue map[string]bool) ([]string, []string) {
	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}

		flags = append(flags, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if takesValue[arg] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	return flags, positionals
}

// parseArgs parses flags that may be interleaved with positionals and
// checks the positional count.
func parseArgs(fs *flag.FlagSet, args []string, positionals int, usage string) ([]string, error) {
	flagArgs, pos := splitFlagsAndPositionals(args, valueFlags)
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(pos) != positionals {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return pos, nil
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(in string) []string {
	var out []string
	for _, part := range strings.Split(in, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// fail prints err to stderr. Backend errors print their detail verbatim.
// -h has already printed flag usage and is not a failure.
func fail(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func formatTime(t *client.Timestamp) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
