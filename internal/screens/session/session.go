package session

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/leolearn/leo/internal/audio"
	"github.com/leolearn/leo/internal/screen"
	sess "github.com/leolearn/leo/internal/session"
	"github.com/leolearn/leo/internal/ui/components"
	"github.com/leolearn/leo/internal/ui/layout"
)

const defaultQuizQuestions = 5

// SessionScreen is the live tutoring conversation: the message log, the
// text and voice input controls, the quiz overlay, and the end-of-session
// summary.
type SessionScreen struct {
	mgr      *sess.Manager
	recorder *audio.Recorder
	speaker  *audio.Speaker

	input components.TextInput
	snap  sess.State

	recording  bool
	confirmEnd bool
	ended      bool
	spinTick   int
	errMsg     string
}

const spinInterval = 150 * time.Millisecond

func spin() tea.Cmd {
	return tea.Tick(spinInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.Closer = (*SessionScreen)(nil)

// New creates a SessionScreen over an already-started session.
func New(mgr *sess.Manager, recorder *audio.Recorder, speaker *audio.Speaker) *SessionScreen {
	return &SessionScreen{
		mgr:      mgr,
		recorder: recorder,
		speaker:  speaker,
		input:    components.NewTextInput("Talk to Leo...", false, 500),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	s.refresh()
	return s.input.Init()
}

func (s *SessionScreen) Title() string {
	if s.snap.LocalizedConcept != "" {
		return s.snap.LocalizedConcept
	}
	if s.snap.Concept != "" {
		return s.snap.Concept
	}
	return "Learning"
}

// Close releases playback resources and any open microphone capture.
func (s *SessionScreen) Close() {
	if s.recording {
		s.recorder.StopRecording()
		s.recording = false
	}
	s.speaker.Close()
}

func (s *SessionScreen) refresh() {
	s.snap = s.mgr.Store().Snapshot()
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.ended {
		return []layout.KeyHint{
			{Key: "any key", Description: "Back to welcome"},
		}
	}
	if s.confirmEnd {
		return []layout.KeyHint{
			{Key: "Y", Description: "Finish session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	if s.snap.Quiz.Active() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Answer"},
			{Key: "Ctrl+X", Description: "Stop quiz"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+R", Description: "Talk"},
		{Key: "Ctrl+S", Description: "Hear Leo"},
	}
	if s.snap.CanTakeQuiz {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+T", Description: "Quiz"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Finish"})
	return hints
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case interactionDoneMsg:
		s.refresh()
		s.errMsg = turnFailureText(msg.Err)
		return s, nil

	case recordingStartedMsg:
		if msg.Err != nil {
			s.recording = false
			s.errMsg = "Leo can't hear you. Is the microphone plugged in?"
			return s, nil
		}
		s.errMsg = ""
		return s, nil

	case recordingStoppedMsg:
		s.recording = false
		if msg.Err != nil || msg.Payload == nil {
			s.errMsg = "That recording didn't come through. Try again!"
			return s, nil
		}
		return s, s.submitAudio(msg.Payload)

	case quizStartedMsg:
		s.refresh()
		s.errMsg = turnFailureText(msg.Err)
		return s, nil

	case quizAnswerDoneMsg:
		s.refresh()
		s.errMsg = turnFailureText(msg.Err)
		return s, nil

	case quizCancelledMsg:
		s.refresh()
		return s, nil

	case sessionEndedMsg:
		s.refresh()
		if msg.Err != nil {
			s.confirmEnd = false
			s.errMsg = "The session couldn't finish. You can keep talking to Leo."
			return s, nil
		}
		s.ended = true
		return s, nil

	case playbackDoneMsg:
		return s, nil

	case spinnerTickMsg:
		s.refresh()
		s.spinTick++
		if s.snap.Loading {
			return s, spin()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if !s.confirmEnd && !s.ended {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.ended {
		// The deferred reset returns the app to the welcome screen;
		// keys are absorbed until then.
		return s, nil
	}

	if s.confirmEnd {
		switch msg.String() {
		case "y", "Y", "enter":
			s.confirmEnd = false
			return s, s.endSession()
		case "n", "N", "esc":
			s.confirmEnd = false
			return s, nil
		}
		return s, nil
	}

	switch msg.String() {
	case "enter":
		if s.snap.Quiz.Active() {
			return s, s.submitQuizAnswer()
		}
		return s, s.submitText()

	case "ctrl+r":
		return s, s.toggleRecording()

	case "ctrl+s":
		return s, s.speakLastReply()

	case "ctrl+t":
		if !s.snap.Quiz.Active() {
			return s, s.startQuiz()
		}
		return s, nil

	case "ctrl+x":
		if s.snap.Quiz.Active() {
			return s, s.cancelQuiz()
		}
		return s, nil

	case "esc":
		s.confirmEnd = true
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SessionScreen) submitText() tea.Cmd {
	text := s.input.Value()
	if text == "" {
		return nil
	}
	s.input.Reset()
	s.errMsg = ""
	mgr := s.mgr
	cmd := func() tea.Msg {
		err := mgr.SubmitInteraction(context.Background(), sess.Interaction{Message: text})
		return interactionDoneMsg{Err: err}
	}
	return tea.Batch(cmd, spin())
}

func (s *SessionScreen) submitAudio(p *audio.Payload) tea.Cmd {
	s.errMsg = ""
	mgr := s.mgr
	cmd := func() tea.Msg {
		err := mgr.SubmitInteraction(context.Background(), sess.Interaction{
			Audio:          p.Data,
			AudioFilename:  p.Filename,
			DisplayMessage: "🎤 (voice message)",
		})
		return interactionDoneMsg{Err: err}
	}
	return tea.Batch(cmd, spin())
}

func (s *SessionScreen) toggleRecording() tea.Cmd {
	if s.recording {
		rec := s.recorder
		return func() tea.Msg {
			p, err := rec.StopRecording()
			return recordingStoppedMsg{Payload: p, Err: err}
		}
	}
	s.recording = true
	s.errMsg = ""
	rec := s.recorder
	return func() tea.Msg {
		return recordingStartedMsg{Err: rec.StartRecording(context.Background())}
	}
}

func (s *SessionScreen) speakLastReply() tea.Cmd {
	idx := -1
	for i := len(s.snap.Messages) - 1; i >= 0; i-- {
		if s.snap.Messages[i].Role == sess.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	sp := s.speaker
	sessionID := s.snap.SessionID
	text := s.snap.Messages[idx].Content
	return func() tea.Msg {
		sp.PlayMessage(context.Background(), sessionID, idx, text)
		return playbackDoneMsg{}
	}
}

func (s *SessionScreen) startQuiz() tea.Cmd {
	s.errMsg = ""
	mgr := s.mgr
	cmd := func() tea.Msg {
		return quizStartedMsg{Err: mgr.StartQuiz(context.Background(), defaultQuizQuestions)}
	}
	return tea.Batch(cmd, spin())
}

func (s *SessionScreen) submitQuizAnswer() tea.Cmd {
	answer := s.input.Value()
	if answer == "" {
		return nil
	}
	s.input.Reset()
	s.errMsg = ""
	mgr := s.mgr
	cmd := func() tea.Msg {
		return quizAnswerDoneMsg{Err: mgr.SubmitQuizAnswer(context.Background(), answer)}
	}
	return tea.Batch(cmd, spin())
}

func (s *SessionScreen) cancelQuiz() tea.Cmd {
	mgr := s.mgr
	return func() tea.Msg {
		mgr.CancelQuiz(context.Background())
		return quizCancelledMsg{}
	}
}

func (s *SessionScreen) endSession() tea.Cmd {
	s.errMsg = ""
	sp := s.speaker
	mgr := s.mgr
	cmd := func() tea.Msg {
		sp.Stop()
		return sessionEndedMsg{Err: mgr.EndSession(context.Background())}
	}
	return tea.Batch(cmd, spin())
}

// turnFailureText maps a manager error to a child-readable line, or ""
// when there is nothing to report.
func turnFailureText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, sess.ErrBusy) {
		return "One thing at a time! Leo is still thinking."
	}
	if errors.Is(err, sess.ErrNoActiveSession) {
		return "The session is over. Start a new one from the welcome screen."
	}
	var qe *sess.QuizError
	if errors.As(err, &qe) {
		return "The quiz hiccupped. Give it another go!"
	}
	return "Leo didn't catch that. Try again!"
}
