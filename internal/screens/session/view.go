package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	sess "github.com/leolearn/leo/internal/session"
	"github.com/leolearn/leo/internal/ui/components"
	"github.com/leolearn/leo/internal/ui/theme"
)

var thinkingFrames = []string{"●○○", "○●○", "○○●", "○●○"}

func (s *SessionScreen) View(width, height int) string {
	if s.ended {
		return s.renderSummary(width, height)
	}
	if s.confirmEnd {
		return renderEndConfirm(width, height)
	}
	return s.renderChat(width, height)
}

func (s *SessionScreen) renderChat(width, height int) string {
	var b strings.Builder

	bubbleWidth := width * 2 / 3
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	inputArea := s.renderInputArea(width)
	quizPanel := ""
	if s.snap.Quiz.Active() {
		quizPanel = s.renderQuizPanel(width)
	}

	footerLines := lipgloss.Height(inputArea)
	if quizPanel != "" {
		footerLines += lipgloss.Height(quizPanel) + 1
	}

	logHeight := height - footerLines - 1
	if logHeight < 3 {
		logHeight = 3
	}

	log := s.renderLog(width, bubbleWidth, logHeight)
	b.WriteString(log)
	b.WriteString("\n")

	if quizPanel != "" {
		b.WriteString(quizPanel)
		b.WriteString("\n")
	}

	b.WriteString(inputArea)
	return b.String()
}

// renderLog renders the tail of the message log that fits in maxLines.
func (s *SessionScreen) renderLog(width, bubbleWidth, maxLines int) string {
	var blocks []string
	for _, m := range s.snap.Messages {
		blocks = append(blocks, renderMessage(m, width, bubbleWidth))
	}

	joined := strings.Join(blocks, "\n")
	lines := strings.Split(joined, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for len(lines) < maxLines {
		lines = append([]string{""}, lines...)
	}
	return strings.Join(lines, "\n")
}

func renderMessage(m sess.Message, width, bubbleWidth int) string {
	text := m.Content
	if m.Kind == sess.KindAudio && m.TranscribedText != "" {
		text += "\n" + theme.Transcript.Render(`"`+m.TranscribedText+`"`)
	}

	if m.Role == sess.RoleUser {
		bubble := theme.ChildBubble.MaxWidth(bubbleWidth).Render(text)
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(bubble)
	}
	bubble := theme.TutorBubble.MaxWidth(bubbleWidth).Render("🦁 " + text)
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Left).Render("  " + bubble)
}

func (s *SessionScreen) renderQuizPanel(width int) string {
	q := s.snap.Quiz

	header := theme.QuizBanner.Render(fmt.Sprintf(" Quiz time!  Question %d of %d ", q.QuestionNumber, q.TotalQuestions))

	var pct float64
	if q.TotalQuestions > 0 {
		pct = float64(len(q.Answers)) / float64(q.TotalQuestions)
	}
	bar := components.NewProgressBar("", pct, false, width/2).View()

	question := theme.Body.Bold(true).Render(q.Question)

	return theme.Card.Width(width - 4).Render(header + "  " + bar + "\n\n" + question)
}

func (s *SessionScreen) renderInputArea(width int) string {
	var b strings.Builder

	switch {
	case s.recording:
		frame := thinkingFrames[s.spinTick%len(thinkingFrames)]
		b.WriteString(theme.Recording.Render("  ⏺ Recording... " + frame + "  (Ctrl+R to stop)"))
		b.WriteString("\n")
	case s.snap.Loading:
		frame := thinkingFrames[s.spinTick%len(thinkingFrames)]
		b.WriteString(theme.Speaking.Render("  Leo is thinking " + frame))
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render("  " + s.errMsg))
		b.WriteString("\n")
	} else if s.snap.LastError != "" && !s.snap.Loading {
		b.WriteString(theme.Incorrect.Render("  " + s.snap.LastError))
		b.WriteString("\n")
	}

	prompt := "  "
	if s.snap.Quiz.Active() {
		prompt += theme.Selected.Render("Answer: ")
	} else {
		prompt += theme.Body.Render("You: ")
	}
	b.WriteString(prompt + s.input.View())

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (s *SessionScreen) renderSummary(width, height int) string {
	var sections []string

	sections = append(sections, theme.Title.Render("Great job today! 🎉"))
	sections = append(sections, "")

	if ev := s.snap.Evaluation; ev != nil {
		if ev.Summary != "" {
			sections = append(sections, theme.Body.Render(ev.Summary))
			sections = append(sections, "")
		}
		if ev.MasteryPercent != nil {
			bar := components.NewProgressBar(
				"Mastery",
				*ev.MasteryPercent/100,
				true,
				width/2,
			).View()
			sections = append(sections, bar)
			sections = append(sections, "")
		}
		for _, item := range ev.Achievements {
			sections = append(sections, theme.Correct.Render("  ✓ ")+theme.Body.Render(item))
		}
		for _, item := range ev.Challenges {
			sections = append(sections, theme.Selected.Render("  → ")+theme.Body.Render(item))
		}
	} else {
		sections = append(sections, theme.Body.Render("See you next time!"))
	}

	sections = append(sections, "")
	sections = append(sections, theme.Hint.Render("Heading back to the welcome screen..."))

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderEndConfirm(width, height int) string {
	card := theme.Card.Render(
		theme.Body.Bold(true).Render("All done for today?") +
			"\n\n" +
			theme.Body.Render("Press ") + theme.Selected.Render("Y") + theme.Body.Render(" to finish, ") +
			theme.Selected.Render("N") + theme.Body.Render(" to keep going."),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
