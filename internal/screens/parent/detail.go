package parent

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/leolearn/leo/internal/journal"
	"github.com/leolearn/leo/internal/screen"
	"github.com/leolearn/leo/internal/ui/layout"
	"github.com/leolearn/leo/internal/ui/theme"
)

// detailScreen shows one journaled session: its report line and the
// full transcript.
type detailScreen struct {
	rec    journal.SessionRecord
	turns  []journal.TurnRecord
	scroll int
}

var _ screen.Screen = (*detailScreen)(nil)
var _ screen.KeyHintProvider = (*detailScreen)(nil)

func newDetail(rec journal.SessionRecord, turns []journal.TurnRecord) *detailScreen {
	return &detailScreen{rec: rec, turns: turns}
}

func (d *detailScreen) Title() string {
	return d.rec.Concept
}

func (d *detailScreen) Init() tea.Cmd {
	return nil
}

func (d *detailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (d *detailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "up", "k":
			if d.scroll > 0 {
				d.scroll--
			}
		case "down", "j":
			d.scroll++
		}
	}
	return d, nil
}

func (d *detailScreen) View(width, height int) string {
	var b strings.Builder

	info := fmt.Sprintf("  %s · %s · %s",
		d.rec.ChildName,
		d.rec.StartedAt.Format("Jan 2, 2006 15:04"),
		formatDuration(d.rec.DurationSecs))
	if d.rec.MasteryPercent != nil {
		info += fmt.Sprintf(" · mastery %.0f%%", *d.rec.MasteryPercent)
	}
	b.WriteString(theme.Subtitle.Render(info))
	b.WriteString("\n")
	if d.rec.Summary != "" {
		b.WriteString(theme.Body.Render("  " + d.rec.Summary))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  " + strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	var lines []string
	for _, t := range d.turns {
		prefix := theme.Selected.Render("Leo: ")
		if t.Role == "user" {
			prefix = theme.Correct.Render("Child: ")
		}
		for i, line := range strings.Split(t.Content, "\n") {
			if i == 0 {
				lines = append(lines, "  "+prefix+theme.Body.Render(line))
			} else {
				lines = append(lines, "       "+theme.Body.Render(line))
			}
		}
	}

	headerLines := lipgloss.Height(b.String())
	visible := height - headerLines
	if visible < 1 {
		visible = 1
	}

	maxScroll := len(lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if d.scroll > maxScroll {
		d.scroll = maxScroll
	}
	end := d.scroll + visible
	if end > len(lines) {
		end = len(lines)
	}

	b.WriteString(strings.Join(lines[d.scroll:end], "\n"))
	return b.String()
}
