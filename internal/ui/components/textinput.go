package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/leolearn/leo/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with Leo styling.
type TextInput struct {
	Model     textinput.Model
	Uppercase bool
	submitted bool
	valid     bool
}

// NewTextInput creates a new styled text input. When uppercase is set
// the value is folded to upper case on read, for learning codes like
// "LEO-782" that children type in lower case.
func NewTextInput(placeholder string, uppercase bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if charLimit > 0 {
		ti.CharLimit = charLimit
	}

	return TextInput{
		Model:     ti,
		Uppercase: uppercase,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.submitted {
		if t.valid {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

// Value returns the current input value, trimmed and case-folded.
func (t TextInput) Value() string {
	v := strings.TrimSpace(t.Model.Value())
	if t.Uppercase {
		v = strings.ToUpper(v)
	}
	return v
}

// Reset clears the input and any submission mark.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
	t.submitted = false
	t.valid = false
}

// Submit marks the input as submitted with a validation result.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}
