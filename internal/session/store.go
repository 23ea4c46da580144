package session

import (
	"sync"
	"time"

	"github.com/leolearn/leo/internal/api"
)

// Store is the single source of truth for one active learning session.
// All mutation goes through its transition methods, each of which applies
// atomically under the store lock; readers see either the prior or the new
// snapshot, never a partial update.
type Store struct {
	mu sync.Mutex
	s  State

	// now is injectable for tests.
	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Snapshot returns a copy of the current state. Slices are copied so the
// caller can never mutate the log in place.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked()
}

func (st *Store) snapshotLocked() State {
	s := st.s
	s.Messages = append([]Message(nil), st.s.Messages...)
	s.Quiz.Answers = append([]string(nil), st.s.Quiz.Answers...)
	s.Quiz.Scores = append([]float64(nil), st.s.Quiz.Scores...)
	if st.s.Evaluation != nil {
		ev := *st.s.Evaluation
		ev.Achievements = append([]string(nil), st.s.Evaluation.Achievements...)
		ev.Challenges = append([]string(nil), st.s.Evaluation.Challenges...)
		s.Evaluation = &ev
	}
	return s
}

// Reset clears the session, the message log, the understanding signal, the
// quiz sub-state, and the evaluation report. Used before a new session
// starts and on logout. Idempotent.
func (st *Store) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = State{}
}

// ApplySessionStarted installs a freshly started session: sets all session
// fields, seeds the log with exactly one assistant message (the initial
// explanation), and clears the understanding signal and evaluation report.
// The prior session must already be reset; starting over a live quiz is an
// invalid transition.
func (st *Store) ApplySessionStarted(p *api.SessionStartResponse) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.s.Quiz.Active() {
		return &InvalidTransitionError{Op: "session start", Reason: "quiz still active"}
	}

	st.s = State{
		SessionID:        p.SessionID,
		ChildID:          p.ChildID,
		ChildName:        p.ChildName,
		AgeLevel:         p.AgeLevel,
		Concept:          p.Concept,
		LocalizedConcept: p.LocalizedConcept,
		LearningLanguage: p.LearningLanguage,
		Phase:            p.ConversationPhase,
		StartTime:        st.now(),
		Messages: []Message{
			{Role: RoleAssistant, Content: p.InitialExplanation, Kind: KindText},
		},
	}
	return nil
}

// AppendUserMessage pushes a user message onto the log.
func (st *Store) AppendUserMessage(text string, kind Kind) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Messages = append(st.s.Messages, Message{Role: RoleUser, Content: text, Kind: kind})
}

// AppendAssistantMessage pushes an assistant message onto the log.
func (st *Store) AppendAssistantMessage(text string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Messages = append(st.s.Messages, Message{Role: RoleAssistant, Content: text, Kind: KindText})
}

// ApplyInteractionResult applies one conversational turn's response as a
// single update: the transcript user message (audio submissions only), the
// understanding signal, the capability flags, the phase (only when the
// payload carries one), an optional quiz start, and finally the assistant
// reply. No other command's update can land between the transcript and the
// reply.
func (st *Store) ApplyInteractionResult(transcript string, p *api.InteractionResponse) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if transcript != "" {
		st.s.Messages = append(st.s.Messages, Message{
			Role:            RoleUser,
			Content:         transcript,
			Kind:            KindAudio,
			TranscribedText: transcript,
		})
	}

	st.s.Understanding = Understanding(p.UnderstandingState)
	st.s.CanEndSession = p.CanEndSession
	st.s.CanTakeQuiz = p.CanTakeQuiz
	if p.ConversationPhase != "" {
		st.s.Phase = p.ConversationPhase
	}

	// The tutor may open a quiz mid-conversation.
	if p.QuizActive && !st.s.Quiz.Active() {
		st.s.Quiz = Quiz{
			Phase:          QuizActive,
			Question:       p.QuizQuestion,
			QuestionNumber: p.QuizQuestionNumber,
			TotalQuestions: p.QuizTotalQuestions,
		}
	}

	st.s.Messages = append(st.s.Messages, Message{Role: RoleAssistant, Content: p.AgentResponse, Kind: KindText})
}

// ApplyQuizStarted replaces the quiz sub-state wholesale with a fresh Active
// quiz. Allowed from Idle and from Completed; starting over a live quiz is
// an invalid transition.
func (st *Store) ApplyQuizStarted(p *api.QuizStartResponse) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.s.Quiz.Active() {
		return &InvalidTransitionError{Op: "quiz start", Reason: "quiz already active"}
	}

	st.s.Quiz = Quiz{
		Phase:          QuizActive,
		Question:       p.Question,
		QuestionNumber: p.QuestionNumber,
		TotalQuestions: p.TotalQuestions,
	}
	return nil
}

// ApplyQuizAnswerResult records a graded answer. Non-final answers advance
// the question; the final answer (QuizCompleted) finalizes scores and moves
// the quiz to Completed. Answers and scores stay in lockstep.
func (st *Store) ApplyQuizAnswerResult(answer string, p *api.QuizAnswerResponse) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.s.Quiz.Active() {
		return &InvalidTransitionError{Op: "quiz answer", Reason: "no active quiz"}
	}

	score := 0.0
	if p.Score != nil {
		score = *p.Score
	}
	st.s.Quiz.Answers = append(st.s.Quiz.Answers, answer)
	st.s.Quiz.Scores = append(st.s.Quiz.Scores, score)

	st.s.CanEndSession = st.s.CanEndSession || p.CanEndSession
	st.s.CanTakeQuiz = st.s.CanTakeQuiz || p.CanTakeAnotherQuiz

	if p.QuizCompleted {
		st.s.Quiz.Phase = QuizCompleted
		st.s.Quiz.Question = ""
		if p.TotalScore != nil {
			st.s.Quiz.TotalScore = *p.TotalScore
		}
		if p.Percentage != nil {
			st.s.Quiz.Percentage = *p.Percentage
		}
		return nil
	}

	if p.NextQuestion != "" {
		st.s.Quiz.Question = p.NextQuestion
	}
	if p.QuestionNumber > 0 {
		st.s.Quiz.QuestionNumber = p.QuestionNumber
	} else {
		st.s.Quiz.QuestionNumber++
	}
	return nil
}

// ApplyQuizCancelled discards the quiz sub-state entirely, returning it to
// Idle. Safe to call in any quiz phase.
func (st *Store) ApplyQuizCancelled() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Quiz = Quiz{}
}

// ApplyEvaluation stores the end-of-session report. Last write wins.
func (st *Store) ApplyEvaluation(ev *Evaluation) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Evaluation = ev
}

// SetLoading flips the loading flag presentation reads while a command is
// in flight. Starting a command also clears the previous error.
func (st *Store) SetLoading(loading bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Loading = loading
	if loading {
		st.s.LastError = ""
	}
}

// SetError records a user-visible error message and clears the loading flag.
func (st *Store) SetError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastError = msg
	st.s.Loading = false
}
