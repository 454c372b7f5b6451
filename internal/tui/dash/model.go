package dash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/hookctl/internal/client"
	"github.com/mattjoyce/hookctl/internal/trigger"
)

type pane int

const (
	paneSubscriptions pane = iota
	paneForm
)

// Model is the main BubbleTea model for the dashboard.
type Model struct {
	backend Backend
	baseURL string

	width  int
	height int

	// State
	summaries []client.SubscriptionSummary
	loaded    bool
	table     table.Model
	form      form
	previewer *trigger.Previewer
	lastInput trigger.Params
	sending   bool

	// UI state
	theme Theme
	focus pane

	// Status line
	status    string
	statusErr bool
}

// New creates a dashboard model. baseURL is the API root used to address
// ingestion requests; eventTypes seed the event type suggestions.
func New(b Backend, baseURL string, eventTypes []string) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Target URL", Width: 36},
			{Title: "Event Types", Width: 28},
			{Title: "Active", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		backend:   b,
		baseURL:   baseURL,
		table:     t,
		form:      newForm(eventTypes),
		previewer: &trigger.Previewer{},
		theme:     NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchOverview(m.backend),
		scheduleRefresh(),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.setWidth(max(msg.Width/2-8, 20))

	case overviewMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.loaded = true
		m.summaries = msg.summaries
		m.table.SetRows(subscriptionRows(msg.summaries))
		cmd := m.refreshPreview()
		return m, cmd

	case refreshMsg:
		return m, tea.Batch(fetchOverview(m.backend), scheduleRefresh())

	case previewMsg:
		// Stale results are dropped by Accept.
		m.previewer.Accept(trigger.Preview(msg))

	case ingestMsg:
		m.sending = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.result.Accepted() {
			m.setStatus(fmt.Sprintf("%s (delivery %d)", msg.result.Message, *msg.result.DeliveryID))
		} else {
			m.setStatus(msg.result.Message)
		}
		return m, fetchOverview(m.backend)

	case retryMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus(msg.message)
		return m, fetchOverview(m.backend)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s":
		return m.submit()
	case "ctrl+r":
		return m, fetchOverview(m.backend)
	}

	if m.focus == paneSubscriptions {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab", "enter":
			m.focus = paneForm
			m.table.Blur()
			cmd := m.form.focus(fieldSecret)
			return m, cmd
		case "R":
			return m.retryLatest()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		preview := m.refreshPreview()
		return m, tea.Batch(preview, cmd)
	}

	switch msg.String() {
	case "esc":
		m.focus = paneSubscriptions
		m.form.blur()
		m.table.Focus()
		return m, nil
	case "tab":
		if cmd, ok := m.form.next(); ok {
			return m, cmd
		}
		m.focus = paneSubscriptions
		m.form.blur()
		m.table.Focus()
		return m, nil
	}

	cmd := m.form.update(msg)
	preview := m.refreshPreview()
	return m, tea.Batch(preview, cmd)
}

// params assembles trigger inputs from the form and the selected row.
func (m Model) params() trigger.Params {
	secret, eventType, payload := m.form.values()
	return trigger.Params{
		BaseURL:        m.baseURL,
		SubscriptionID: m.selectedID(),
		EventType:      eventType,
		Payload:        payload,
		Secret:         secret,
	}
}

// refreshPreview schedules a recomputation when any input changed.
func (m *Model) refreshPreview() tea.Cmd {
	p := m.params()
	if p == m.lastInput && m.previewer.Latest().Seq != 0 {
		return nil
	}
	m.lastInput = p
	return buildPreview(m.previewer, p)
}

// submit signs the current inputs and sends them once.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	sr, err := trigger.Build(m.params())
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.sending = true
	m.setStatus("Sending...")
	return m, sendIngest(m.backend, sr)
}

// retryLatest re-queues the newest failed or pending_retry delivery of the
// selected subscription.
func (m Model) retryLatest() (tea.Model, tea.Cmd) {
	sel, ok := m.selected()
	if !ok {
		return m, nil
	}
	for _, d := range sel.Deliveries {
		if d.Status.Retryable() {
			m.setStatus(fmt.Sprintf("Retrying delivery %d...", d.ID))
			return m, sendRetry(m.backend, d.ID)
		}
	}
	m.setStatus("Nothing to retry")
	return m, nil
}

func (m Model) selected() (client.SubscriptionSummary, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.summaries) {
		return client.SubscriptionSummary{}, false
	}
	return m.summaries[i], true
}

func (m Model) selectedID() int64 {
	if sel, ok := m.selected(); ok {
		return sel.Subscription.ID
	}
	return 0
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

// setError shows err verbatim; for backend errors that is the detail text.
func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func subscriptionRows(summaries []client.SubscriptionSummary) []table.Row {
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		active := "no"
		if s.Subscription.IsActive {
			active = "yes"
		}
		events := strings.Join(s.Subscription.EventTypes, ", ")
		if events == "" {
			events = "(all)"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(s.Subscription.ID, 10),
			s.Subscription.TargetURL,
			events,
			active,
		})
	}
	return rows
}
