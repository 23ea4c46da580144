package welcome

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/leolearn/leo/internal/router"
	"github.com/leolearn/leo/internal/screen"
	sess "github.com/leolearn/leo/internal/session"
	"github.com/leolearn/leo/internal/ui/components"
	"github.com/leolearn/leo/internal/ui/layout"
	"github.com/leolearn/leo/internal/ui/theme"
)

// startedMsg is sent when the start call returns.
type startedMsg struct {
	Err error
}

// WelcomeScreen asks for a learning code and starts a session with it.
type WelcomeScreen struct {
	mgr            *sess.Manager
	sessionFactory func() screen.Screen
	journalFactory func() screen.Screen

	input      components.TextInput
	submitting bool
	errMsg     string
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen. On a successful start it replaces itself
// with the screen produced by sessionFactory.
func New(mgr *sess.Manager, sessionFactory, journalFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		mgr:            mgr,
		sessionFactory: sessionFactory,
		journalFactory: journalFactory,
		input:          components.NewTextInput("LEO-123", true, 16),
	}
}

func (w *WelcomeScreen) Title() string {
	return "Welcome"
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return w.input.Init()
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start learning"},
		{Key: "Ctrl+J", Description: "Parent journal"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		w.submitting = false
		if msg.Err != nil {
			w.errMsg = startFailureText(msg.Err)
			w.input.Submit(false)
			return w, nil
		}
		next := w.sessionFactory()
		return w, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: next}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return w, w.submit()
		case "ctrl+j":
			if w.journalFactory != nil {
				journal := w.journalFactory()
				return w, func() tea.Msg {
					return router.PushScreenMsg{Screen: journal}
				}
			}
			return w, nil
		}
	}

	if w.submitting {
		return w, nil
	}

	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *WelcomeScreen) submit() tea.Cmd {
	if w.submitting {
		return nil
	}
	code := w.input.Value()
	if code == "" {
		w.errMsg = "Type your learning code first."
		return nil
	}
	w.submitting = true
	w.errMsg = ""
	mgr := w.mgr
	return func() tea.Msg {
		return startedMsg{Err: mgr.StartSession(context.Background(), code)}
	}
}

// startFailureText maps a start error to a child-readable line.
func startFailureText(err error) string {
	var se *sess.StartError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return "Hmm, that didn't work. Check your code and try again!"
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections, RenderBanner(width))
	sections = append(sections, "")
	sections = append(sections, theme.Subtitle.Render("Your reading and learning buddy"))
	sections = append(sections, "")

	prompt := theme.Body.Render("Enter your learning code:")
	card := theme.Card.Render(prompt + "\n\n" + w.input.View())
	sections = append(sections, card)

	if w.submitting {
		sections = append(sections, "")
		sections = append(sections, theme.Hint.Render("Waking Leo up..."))
	}
	if w.errMsg != "" {
		sections = append(sections, "")
		sections = append(sections, theme.Incorrect.Render(w.errMsg))
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
