package session

import (
	"time"
)

// Role is the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes typed from spoken message origins.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

// PhaseGreeting is the one conversation phase the client recognizes by
// value; every other phase label from the service is treated uniformly.
const PhaseGreeting = "greeting"

// Understanding is the server-assessed comprehension signal. It is never
// inferred locally.
type Understanding string

const (
	UnderstandingUnknown    Understanding = ""
	UnderstandingUnderstood Understanding = "understood"
	UnderstandingPartial    Understanding = "partial"
	UnderstandingConfused   Understanding = "confused"
	UnderstandingProcedural Understanding = "procedural"
)

// Message is one append-only conversation log entry.
type Message struct {
	Role    Role
	Content string
	Kind    Kind

	// TranscribedText is set only when the message originated from an
	// audio submission and the service returned a transcript.
	TranscribedText string
}

// QuizPhase is the quiz sub-state machine position.
type QuizPhase int

const (
	QuizIdle QuizPhase = iota
	QuizActive
	QuizCompleted
)

// Quiz is the per-session quiz sub-state. It is replaced wholesale on start
// and cancel, never partially carried across quiz instances.
type Quiz struct {
	Phase          QuizPhase
	Question       string
	QuestionNumber int
	TotalQuestions int
	Answers        []string
	Scores         []float64
	TotalScore     float64
	Percentage     float64
}

// Active reports whether a quiz is currently being taken.
func (q Quiz) Active() bool { return q.Phase == QuizActive }

// Completed reports whether the current quiz instance has finished.
func (q Quiz) Completed() bool { return q.Phase == QuizCompleted }

// Evaluation is the end-of-session mastery summary. MasteryPercent is nil
// when the service did not compute one. Values are server-computed; the
// client never rounds or recomputes them.
type Evaluation struct {
	Summary        string
	Achievements   []string
	Challenges     []string
	MasteryLevel   string
	MasteryPercent *float64
}

// State is one snapshot of the session. A session exists iff SessionID is
// non-empty; all other session-scoped fields are meaningless otherwise and
// are reset together.
type State struct {
	SessionID        string
	ChildID          string
	ChildName        string
	AgeLevel         int
	Concept          string
	LocalizedConcept string
	LearningLanguage string
	Phase            string
	StartTime        time.Time

	Messages      []Message
	Understanding Understanding
	CanEndSession bool
	CanTakeQuiz   bool
	Quiz          Quiz
	Evaluation    *Evaluation

	Loading   bool
	LastError string
}

// Active reports whether a session exists.
func (s State) Active() bool { return s.SessionID != "" }
