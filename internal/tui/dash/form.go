package dash

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field int

const (
	fieldSecret field = iota
	fieldEventType
	fieldPayload
	fieldCount
)

// form holds the trigger inputs.
type form struct {
	secret    textinput.Model
	eventType textinput.Model
	payload   textarea.Model
	focused   field
}

func newForm(eventTypes []string) form {
	secret := textinput.New()
	secret.Placeholder = "subscription secret"
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'
	secret.Prompt = ""

	eventType := textinput.New()
	eventType.Placeholder = "order.created"
	eventType.Prompt = ""
	eventType.ShowSuggestions = true
	eventType.SetSuggestions(eventTypes)
	if len(eventTypes) > 0 {
		eventType.SetValue(eventTypes[0])
	}

	payload := textarea.New()
	payload.Placeholder = `{"key": "value"}`
	payload.ShowLineNumbers = false
	payload.SetHeight(6)
	payload.SetValue("{}")

	return form{secret: secret, eventType: eventType, payload: payload}
}

// focus moves focus to f and returns the cursor blink command.
func (f *form) focus(target field) tea.Cmd {
	f.focused = target
	f.secret.Blur()
	f.eventType.Blur()
	f.payload.Blur()

	switch target {
	case fieldSecret:
		return f.secret.Focus()
	case fieldEventType:
		return f.eventType.Focus()
	default:
		return f.payload.Focus()
	}
}

func (f *form) blur() {
	f.secret.Blur()
	f.eventType.Blur()
	f.payload.Blur()
}

// next cycles focus forward; it reports false after the last field.
func (f *form) next() (tea.Cmd, bool) {
	if f.focused+1 >= fieldCount {
		return nil, false
	}
	return f.focus(f.focused + 1), true
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focused {
	case fieldSecret:
		f.secret, cmd = f.secret.Update(msg)
	case fieldEventType:
		f.eventType, cmd = f.eventType.Update(msg)
	default:
		f.payload, cmd = f.payload.Update(msg)
	}
	return cmd
}

func (f *form) setWidth(w int) {
	f.secret.Width = w
	f.eventType.Width = w
	f.payload.SetWidth(w)
}

// values returns the current secret, event type and payload text.
func (f form) values() (string, string, string) {
	return f.secret.Value(), f.eventType.Value(), f.payload.Value()
}
