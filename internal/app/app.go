package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/leolearn/leo/internal/audio"
	"github.com/leolearn/leo/internal/journal"
	"github.com/leolearn/leo/internal/profile"
	"github.com/leolearn/leo/internal/router"
	"github.com/leolearn/leo/internal/screen"
	"github.com/leolearn/leo/internal/screens/parent"
	sessionscreen "github.com/leolearn/leo/internal/screens/session"
	"github.com/leolearn/leo/internal/screens/welcome"
	sess "github.com/leolearn/leo/internal/session"
	"github.com/leolearn/leo/internal/ui/layout"
)

// LoggedOutMsg is sent into the program when the deferred post-session
// reset (or an explicit logout) fires, returning the UI to the welcome
// screen.
type LoggedOutMsg struct{}

// Notifier bridges session lifecycle notifications into the running
// Bubble Tea program and the role profile. Bind is called once the
// program exists; notifications before that only update the profile.
type Notifier struct {
	Profile *profile.Profile

	send func(tea.Msg)
}

// NewNotifier creates a Notifier that keeps prof in sync.
func NewNotifier(prof *profile.Profile) *Notifier {
	return &Notifier{Profile: prof}
}

// Bind connects the notifier to a running program's send function.
func (n *Notifier) Bind(send func(tea.Msg)) {
	n.send = send
}

func (n *Notifier) SessionStarted(c sess.ChildIdentity) {
	n.Profile.SessionStarted(c)
}

func (n *Notifier) LoggedOut() {
	n.Profile.LoggedOut()
	if n.send != nil {
		n.send(LoggedOutMsg{})
	}
}

// Options carries the wired collaborators for the TUI.
type Options struct {
	Manager  *sess.Manager
	Recorder *audio.Recorder
	Speaker  *audio.Speaker
	Journal  *journal.Journal
	Profile  *profile.Profile
	Notifier *Notifier
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	width  int
	height int
}

// NewAppModel creates the root model. It opens on the welcome screen,
// or directly on the session screen when a session was started before
// the UI launched.
func NewAppModel(opts Options) AppModel {
	m := AppModel{opts: opts}
	initial := m.welcomeScreen()
	if opts.Manager.Store().Snapshot().Active() {
		initial = m.sessionScreen()
	}
	m.router = router.New(initial)
	return m
}

func (m AppModel) welcomeScreen() screen.Screen {
	return welcome.New(m.opts.Manager, m.sessionScreen, m.journalScreen)
}

func (m AppModel) sessionScreen() screen.Screen {
	return sessionscreen.New(m.opts.Manager, m.opts.Recorder, m.opts.Speaker)
}

func (m AppModel) journalScreen() screen.Screen {
	return parent.New(m.opts.Journal)
}

func (m AppModel) Init() tea.Cmd {
	active := m.router.Active()
	if active == nil {
		return nil
	}
	return active.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoggedOutMsg:
		next := m.welcomeScreen()
		return m, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: next}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	status := ""
	if child, ok := m.opts.Profile.Child(); ok {
		status = fmt.Sprintf("★ %s (%d)", child.Name, child.AgeLevel)
	} else if m.opts.Profile.Kind() == profile.KindParent {
		status = "Parent"
	}

	header := layout.RenderHeader(title, status, m.width)

	footerHints := []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(hp.KeyHints(), footerHints...)
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(NewAppModel(opts))
	if opts.Notifier != nil {
		opts.Notifier.Bind(p.Send)
	}
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
