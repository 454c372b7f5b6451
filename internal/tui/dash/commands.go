package dash

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/hookctl/internal/client"
	"github.com/mattjoyce/hookctl/internal/trigger"
)

// Backend is the part of the REST client the dashboard uses.
type Backend interface {
	Overview(ctx context.Context, limit int) ([]client.SubscriptionSummary, error)
	Ingest(ctx context.Context, sr *trigger.SignedRequest) (*client.IngestResult, error)
	RetryDelivery(ctx context.Context, id int64) (string, error)
}

var _ Backend = (*client.Client)(nil)

const (
	requestTimeout  = 10 * time.Second
	refreshInterval = 10 * time.Second
	recentLimit     = 10
)

// --- Message types ---

type overviewMsg struct {
	summaries []client.SubscriptionSummary
	err       error
}

type previewMsg trigger.Preview

type ingestMsg struct {
	result *client.IngestResult
	err    error
}

type retryMsg struct {
	id      int64
	message string
	err     error
}

type refreshMsg time.Time

// --- Commands ---

func fetchOverview(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		summaries, err := b.Overview(ctx, recentLimit)
		return overviewMsg{summaries: summaries, err: err}
	}
}

// buildPreview stamps the preview now; signing runs in the command.
func buildPreview(pv *trigger.Previewer, p trigger.Params) tea.Cmd {
	build := pv.Defer(p)
	return func() tea.Msg {
		return previewMsg(build())
	}
}

func sendIngest(b Backend, sr *trigger.SignedRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := b.Ingest(ctx, sr)
		return ingestMsg{result: result, err: err}
	}
}

func sendRetry(b Backend, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		message, err := b.RetryDelivery(ctx, id)
		return retryMsg{id: id, message: message, err: err}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}
