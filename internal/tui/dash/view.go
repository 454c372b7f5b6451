package dash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/hookctl/internal/client"
	"github.com/mattjoyce/hookctl/internal/signing"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading hookctl dashboard..."
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSubscriptions(),
		m.renderDeliveries(),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderForm(),
		m.renderPreview(),
	)

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, left, right)}
	if m.status != "" {
		style := m.theme.Success
		if m.statusErr {
			style = m.theme.Error
		}
		parts = append(parts, style.Render(" "+m.status))
	}
	parts = append(parts, m.theme.Dim.Render(
		" [tab] Switch • [↑/↓] Select • [ctrl+s] Send • [R] Retry • [ctrl+r] Refresh • [q] Quit"))

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) pane(focused bool) lipgloss.Style {
	if focused {
		return m.theme.FocusedPane
	}
	return m.theme.Pane
}

func (m Model) renderSubscriptions() string {
	body := m.table.View()
	if !m.loaded {
		body = m.theme.Dim.Render("Loading subscriptions...")
	} else if len(m.summaries) == 0 {
		body = m.theme.Dim.Render("No subscriptions.")
	}
	return m.pane(m.focus == paneSubscriptions).Render(
		m.theme.Title.Render("Subscriptions") + "\n" + body)
}

func (m Model) renderDeliveries() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Recent Deliveries"))
	b.WriteString("\n")

	sel, ok := m.selected()
	switch {
	case !ok:
		b.WriteString(m.theme.Dim.Render("Select a subscription."))
	case len(sel.Deliveries) == 0:
		b.WriteString(m.theme.Dim.Render("No deliveries yet."))
	default:
		for _, d := range sel.Deliveries {
			b.WriteString(m.renderDelivery(d))
			b.WriteString("\n")
		}
	}
	return m.theme.Pane.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderDelivery(d client.Delivery) string {
	last := "never"
	if d.LastAttempt != nil {
		last = d.LastAttempt.Local().Format("2006-01-02 15:04:05")
	}
	line := fmt.Sprintf("#%-5d %s %-18s attempts=%d last=%s",
		d.ID, m.theme.Badge(d.Status), d.EventType, d.AttemptCount, last)
	if d.NextRetry != nil && !d.Status.Terminal() {
		line += m.theme.Dim.Render(" next=" + d.NextRetry.Local().Format("15:04:05"))
	}
	return line
}

func (m Model) renderForm() string {
	label := func(f field, name string) string {
		if m.focus == paneForm && m.form.focused == f {
			return m.theme.Code.Render("› " + name)
		}
		return m.theme.Label.Render("  " + name)
	}

	target := m.theme.Dim.Render("no subscription selected")
	if id := m.selectedID(); id != 0 {
		target = fmt.Sprintf("subscription %d", id)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("Trigger")+"  "+target,
		label(fieldSecret, "Secret"),
		"  "+m.form.secret.View(),
		label(fieldEventType, "Event type"),
		"  "+m.form.eventType.View(),
		label(fieldPayload, "Payload (JSON)"),
		m.form.payload.View(),
	)
	return m.pane(m.focus == paneForm).Render(content)
}

func (m Model) renderPreview() string {
	latest := m.previewer.Latest()

	var body string
	switch {
	case latest.Seq == 0:
		body = m.theme.Dim.Render("Waiting for input...")
	case latest.Err != nil:
		body = m.theme.Error.Render(latest.Err.Error())
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Label.Render(signing.HeaderName+": ")+m.theme.Code.Render(signing.FormatHeader(latest.Request.Signature)),
			"",
			latest.Request.Curl(),
		)
	}
	return m.theme.Pane.Render(m.theme.Title.Render("Preview") + "\n" + body)
}
