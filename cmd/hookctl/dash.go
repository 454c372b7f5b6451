package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/hookctl/internal/log"
	"github.com/mattjoyce/hookctl/internal/tui/dash"
)

func runDash(args []string) int {
	var api apiFlags
	fs := flag.NewFlagSet("dash", flag.ContinueOnError)
	api.bind(fs)
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	// The dashboard owns the terminal; log output would corrupt it.
	log.Setup("error", "text", io.Discard)

	c, cfg, err := api.client()
	if err != nil {
		return fail(err)
	}

	m := dash.New(c, c.BaseURL(), cfg.Trigger.EventTypes)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
