package parent

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/leolearn/leo/internal/journal"
	"github.com/leolearn/leo/internal/router"
	"github.com/leolearn/leo/internal/screen"
	"github.com/leolearn/leo/internal/ui/components"
	"github.com/leolearn/leo/internal/ui/layout"
	"github.com/leolearn/leo/internal/ui/theme"
)

const listLimit = 50

// sessionsLoadedMsg delivers the journal contents for the list view.
type sessionsLoadedMsg struct {
	Sessions []journal.SessionRecord
	Stats    []journal.ConceptStat
	Err      error
}

// JournalScreen is the parent's view of past sessions: a per-concept
// mastery overview and a browsable session list.
type JournalScreen struct {
	j *journal.Journal

	menu     components.Menu
	sessions []journal.SessionRecord
	stats    []journal.ConceptStat
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*JournalScreen)(nil)
var _ screen.KeyHintProvider = (*JournalScreen)(nil)

// New creates the journal list screen.
func New(j *journal.Journal) *JournalScreen {
	return &JournalScreen{j: j}
}

func (p *JournalScreen) Title() string {
	return "Parent Journal"
}

func (p *JournalScreen) Init() tea.Cmd {
	j := p.j
	return func() tea.Msg {
		ctx := context.Background()
		sessions, err := j.RecentSessions(ctx, listLimit)
		if err != nil {
			return sessionsLoadedMsg{Err: err}
		}
		stats, err := j.ConceptMastery(ctx)
		if err != nil {
			return sessionsLoadedMsg{Err: err}
		}
		return sessionsLoadedMsg{Sessions: sessions, Stats: stats}
	}
}

func (p *JournalScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open session"},
		{Key: "Esc", Description: "Back"},
	}
}

func (p *JournalScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		p.loaded = true
		if msg.Err != nil {
			p.errMsg = fmt.Sprintf("Could not read the journal: %v", msg.Err)
			return p, nil
		}
		p.sessions = msg.Sessions
		p.stats = msg.Stats
		p.menu = components.NewMenu(p.menuItems())
		return p, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		p.menu, cmd = p.menu.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *JournalScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(p.sessions))
	for _, rec := range p.sessions {
		rec := rec
		detail := fmt.Sprintf("%s · %s", rec.StartedAt.Format("Jan 2 15:04"), formatDuration(rec.DurationSecs))
		if rec.MasteryPercent != nil {
			detail += fmt.Sprintf(" · %.0f%%", *rec.MasteryPercent)
		}
		items = append(items, components.MenuItem{
			Label:  fmt.Sprintf("%s — %s", rec.ChildName, rec.Concept),
			Detail: detail,
			Action: func() tea.Cmd {
				return p.openSession(rec)
			},
		})
	}
	return items
}

func (p *JournalScreen) openSession(rec journal.SessionRecord) tea.Cmd {
	j := p.j
	return func() tea.Msg {
		turns, err := j.Turns(context.Background(), rec.ID)
		if err != nil {
			return sessionsLoadedMsg{Err: err}
		}
		return router.PushScreenMsg{Screen: newDetail(rec, turns)}
	}
}

func (p *JournalScreen) View(width, height int) string {
	if !p.loaded {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("Opening the journal..."))
	}
	if p.errMsg != "" {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Incorrect.Render(p.errMsg))
	}
	if len(p.sessions) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Subtitle.Render("No sessions yet. Finished sessions appear here."))
	}

	var b strings.Builder

	if len(p.stats) > 0 {
		b.WriteString(theme.Selected.Render("  Concept mastery"))
		b.WriteString("\n\n")
		barWidth := width / 2
		for _, s := range p.stats {
			pct := 0.0
			if s.AvgMastery != nil {
				pct = *s.AvgMastery / 100
			}
			label := fmt.Sprintf("%-20s", s.Concept)
			b.WriteString("  " + components.NewProgressBar(label, pct, s.AvgMastery != nil, barWidth).View())
			b.WriteString(theme.Hint.Render(fmt.Sprintf("  %d session(s)", s.Sessions)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(theme.Selected.Render("  Recent sessions"))
	b.WriteString("\n\n")
	b.WriteString(p.menu.View())

	return b.String()
}

func formatDuration(secs int) string {
	d := time.Duration(secs) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), secs%60)
}
