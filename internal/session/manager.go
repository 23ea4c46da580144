package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/leolearn/leo/internal/api"
)

// DefaultResetDelay is how long the evaluation report stays visible after a
// successful end before the store is cleared and logout is signaled.
const DefaultResetDelay = 5 * time.Second

// quizStartFallback is shown when the tutor declines to start a quiz. It is
// deliberately softer than a hard error.
const quizStartFallback = "The quiz isn't ready yet. Keep chatting and try again in a bit!"

// Service is the remote learning service contract the manager depends on.
// Implemented by api.Client.
type Service interface {
	StartSession(ctx context.Context, learningCode string) (*api.SessionStartResponse, error)
	Interact(ctx context.Context, sessionID string, in api.InteractionInput) (*api.InteractionResponse, error)
	EndSession(ctx context.Context, sessionID string, durationSecs *int) (*api.EndSessionResponse, error)
	StartQuiz(ctx context.Context, sessionID string, numQuestions int) (*api.QuizStartResponse, error)
	SubmitQuizAnswer(ctx context.Context, sessionID, answer string) (*api.QuizAnswerResponse, error)
	CancelQuiz(ctx context.Context, sessionID string) error
}

// ChildIdentity is what the role collaborator learns at session start.
type ChildIdentity struct {
	ID           string
	Name         string
	AgeLevel     int
	LearningCode string
}

// Notifier is the external role/profile collaborator. SessionStarted fires
// on every successful start; LoggedOut fires exactly once per completed end
// (after the deferred reset) or explicit logout.
type Notifier interface {
	SessionStarted(child ChildIdentity)
	LoggedOut()
}

// Archive is a finished session's transcript handed to local storage.
type Archive struct {
	SessionID      string
	ChildName      string
	Concept        string
	StartedAt      time.Time
	DurationSecs   int
	Summary        string
	MasteryPercent *float64
	Turns          []Message
}

// Archiver persists finished sessions locally. Failures are logged and
// never fail the end-session command.
type Archiver interface {
	ArchiveSession(ctx context.Context, a Archive) error
}

// commandClass groups commands for the in-flight guard. Commands of the
// same class are serialized; a second one is rejected with ErrBusy while
// the first is outstanding.
type commandClass string

const (
	classStart    commandClass = "start"
	classInteract commandClass = "interact"
	classQuiz     commandClass = "quiz"
	classEnd      commandClass = "end"
)

// Options configures optional manager collaborators.
type Options struct {
	Notifier   Notifier
	Archiver   Archiver
	ResetDelay time.Duration
	Logf       func(format string, args ...any)
}

// Manager validates preconditions, calls the remote learning service, and
// drives Store transitions. It is the only component that issues service
// calls for session commands.
type Manager struct {
	store    *Store
	svc      Service
	notifier Notifier
	archiver Archiver
	logf     func(format string, args ...any)

	resetDelay time.Duration
	now        func() time.Time

	mu         sync.Mutex
	inflight   map[commandClass]bool
	resetTimer *time.Timer
	resetGen   int
}

// NewManager creates a Manager around the given store and service.
func NewManager(store *Store, svc Service, opts Options) *Manager {
	delay := opts.ResetDelay
	if delay <= 0 {
		delay = DefaultResetDelay
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Manager{
		store:      store,
		svc:        svc,
		notifier:   opts.Notifier,
		archiver:   opts.Archiver,
		logf:       logf,
		resetDelay: delay,
		now:        time.Now,
		inflight:   make(map[commandClass]bool),
	}
}

// Store exposes the underlying store for presentation snapshots.
func (m *Manager) Store() *Store { return m.store }

// StartSession begins a new session from a learning code. On success the
// store is reset first, so no stale evaluation or quiz data from a prior
// session is ever visible during the new one. Any pending deferred reset
// from a previous end is cancelled.
func (m *Manager) StartSession(ctx context.Context, learningCode string) error {
	if learningCode == "" {
		return &StartError{Detail: "Please enter your learning code."}
	}
	if !m.acquire(classStart) {
		return ErrBusy
	}
	defer m.release(classStart)

	m.cancelPendingReset()
	m.store.SetLoading(true)

	resp, err := m.svc.StartSession(ctx, learningCode)
	if err != nil {
		detail := rejectionDetail(err)
		m.store.SetError(startErrorMessage(detail))
		return &StartError{Detail: detail, Err: err}
	}

	m.store.Reset()
	if err := m.store.ApplySessionStarted(resp); err != nil {
		m.store.SetError(err.Error())
		return &StartError{Err: err}
	}
	m.store.SetLoading(false)

	if m.notifier != nil {
		m.notifier.SessionStarted(ChildIdentity{
			ID:           resp.ChildID,
			Name:         resp.ChildName,
			AgeLevel:     resp.AgeLevel,
			LearningCode: learningCode,
		})
	}
	return nil
}

// Interaction is one conversational turn from the child. Exactly one of
// Message or Audio must be set. DisplayMessage, when given, is what appears
// in the log instead of Message.
type Interaction struct {
	Message        string
	Audio          []byte
	AudioFilename  string
	DisplayMessage string
}

// SubmitInteraction sends one turn to the tutor. The user-visible message is
// appended optimistically before the call; audio-only turns append nothing
// until the transcript returns. On failure the optimistic message stays in
// the log; the conversation is an append-only audit trail.
func (m *Manager) SubmitInteraction(ctx context.Context, in Interaction) error {
	hasText := in.Message != ""
	hasAudio := len(in.Audio) > 0
	if hasText == hasAudio {
		return ErrInvalidInput
	}

	snap := m.store.Snapshot()
	if !snap.Active() {
		return ErrNoActiveSession
	}
	if !m.acquire(classInteract) {
		return ErrBusy
	}
	defer m.release(classInteract)

	display := in.DisplayMessage
	if display == "" {
		display = in.Message
	}
	if display != "" {
		kind := KindText
		if hasAudio {
			kind = KindAudio
		}
		m.store.AppendUserMessage(display, kind)
	}

	m.store.SetLoading(true)
	resp, err := m.svc.Interact(ctx, snap.SessionID, api.InteractionInput{
		Message:       in.Message,
		Audio:         in.Audio,
		AudioFilename: in.AudioFilename,
	})
	if err != nil {
		m.store.SetError(userMessage(err, "Leo didn't catch that. Try again!"))
		return &InteractionError{Err: err}
	}

	transcript := ""
	if hasAudio {
		transcript = resp.TranscribedText
	}
	m.store.ApplyInteractionResult(transcript, resp)
	m.store.SetLoading(false)
	return nil
}

// StartQuiz asks the tutor to begin a quiz. Allowed when no quiz is active;
// a completed quiz is replaced wholesale. Rejections surface as a friendly
// fallback message rather than a hard error.
func (m *Manager) StartQuiz(ctx context.Context, numQuestions int) error {
	snap := m.store.Snapshot()
	if !snap.Active() {
		return ErrNoActiveSession
	}
	if snap.Quiz.Active() {
		return &QuizError{Op: "start", Err: &InvalidTransitionError{Op: "quiz start", Reason: "quiz already active"}}
	}
	if !m.acquire(classQuiz) {
		return ErrBusy
	}
	defer m.release(classQuiz)

	m.store.SetLoading(true)
	resp, err := m.svc.StartQuiz(ctx, snap.SessionID, numQuestions)
	if err != nil {
		m.store.SetError(quizStartFallback)
		return &QuizError{Op: "start", Err: err}
	}

	if err := m.store.ApplyQuizStarted(resp); err != nil {
		m.store.SetError(quizStartFallback)
		return &QuizError{Op: "start", Err: err}
	}
	m.store.SetLoading(false)
	return nil
}

// SubmitQuizAnswer grades one quiz answer. The answer is echoed into the
// chat log before submission; on failure the echo remains but the quiz
// question does not advance.
func (m *Manager) SubmitQuizAnswer(ctx context.Context, answer string) error {
	if answer == "" {
		return ErrInvalidInput
	}
	snap := m.store.Snapshot()
	if !snap.Active() {
		return ErrNoActiveSession
	}
	if !snap.Quiz.Active() {
		return &QuizError{Op: "answer", Err: &InvalidTransitionError{Op: "quiz answer", Reason: "no active quiz"}}
	}
	if !m.acquire(classQuiz) {
		return ErrBusy
	}
	defer m.release(classQuiz)

	m.store.AppendUserMessage(answer, KindText)

	m.store.SetLoading(true)
	resp, err := m.svc.SubmitQuizAnswer(ctx, snap.SessionID, answer)
	if err != nil {
		m.store.SetError(userMessage(err, "Couldn't check that answer. Try again!"))
		return &QuizError{Op: "answer", Err: err}
	}

	if err := m.store.ApplyQuizAnswerResult(answer, resp); err != nil {
		m.store.SetError(err.Error())
		return &QuizError{Op: "answer", Err: err}
	}

	// Grading feedback reads as part of the conversation.
	switch {
	case resp.Feedback != "":
		m.store.AppendAssistantMessage(resp.Feedback)
	case resp.Message != "":
		m.store.AppendAssistantMessage(resp.Message)
	}
	m.store.SetLoading(false)
	return nil
}

// CancelQuiz abandons the current quiz. The local sub-state is always
// discarded, even when the service notification fails; cancellation is
// idempotent from the client's perspective. A no-op when no quiz exists.
func (m *Manager) CancelQuiz(ctx context.Context) error {
	snap := m.store.Snapshot()
	if !snap.Active() {
		return ErrNoActiveSession
	}
	if snap.Quiz.Phase == QuizIdle {
		return nil
	}

	if err := m.svc.CancelQuiz(ctx, snap.SessionID); err != nil {
		m.logf("quiz cancel notification failed: %v", err)
	}
	m.store.ApplyQuizCancelled()
	return nil
}

// EndSession terminates the session. On success the evaluation report is
// stored and, after the reset delay, the store is cleared and logout is
// signaled exactly once. On failure the session stays open for retry.
// Calling EndSession again while a prior deferred reset is pending restarts
// the timer.
func (m *Manager) EndSession(ctx context.Context) error {
	snap := m.store.Snapshot()
	if !snap.Active() {
		return ErrNoActiveSession
	}
	if !m.acquire(classEnd) {
		return ErrBusy
	}
	defer m.release(classEnd)

	m.cancelPendingReset()

	// Duration is omitted, not defaulted, when no start time was recorded.
	var duration *int
	if !snap.StartTime.IsZero() {
		secs := int(m.now().Sub(snap.StartTime) / time.Second)
		duration = &secs
	}

	m.store.SetLoading(true)
	resp, err := m.svc.EndSession(ctx, snap.SessionID, duration)
	if err != nil {
		m.store.SetError(userMessage(err, "Couldn't finish the session. Try again!"))
		return &EndError{Err: err}
	}

	if resp.EvaluationReport != nil {
		r := resp.EvaluationReport
		m.store.ApplyEvaluation(&Evaluation{
			Summary:        r.Summary,
			Achievements:   r.Achievements,
			Challenges:     r.Challenges,
			MasteryLevel:   r.MasteryLevel,
			MasteryPercent: r.MasteryPercent,
		})
	}
	m.store.SetLoading(false)

	if m.archiver != nil {
		final := m.store.Snapshot()
		archive := Archive{
			SessionID: final.SessionID,
			ChildName: final.ChildName,
			Concept:   final.Concept,
			StartedAt: final.StartTime,
			Turns:     final.Messages,
		}
		if duration != nil {
			archive.DurationSecs = *duration
		}
		if final.Evaluation != nil {
			archive.Summary = final.Evaluation.Summary
			archive.MasteryPercent = final.Evaluation.MasteryPercent
		}
		if err := m.archiver.ArchiveSession(ctx, archive); err != nil {
			m.logf("archive session failed: %v", err)
		}
	}

	m.scheduleReset()
	return nil
}

// Logout clears the session immediately and signals the role collaborator.
// Any pending deferred reset is cancelled so it cannot fire twice.
func (m *Manager) Logout() {
	m.cancelPendingReset()
	m.store.Reset()
	if m.notifier != nil {
		m.notifier.LoggedOut()
	}
}

// scheduleReset arms the deferred reset+logout timer, replacing any timer
// already pending.
func (m *Manager) scheduleReset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.resetGen++
	gen := m.resetGen
	m.resetTimer = time.AfterFunc(m.resetDelay, func() {
		m.fireReset(gen)
	})
}

// fireReset runs the deferred reset if it has not been superseded.
func (m *Manager) fireReset(gen int) {
	m.mu.Lock()
	if gen != m.resetGen || m.resetTimer == nil {
		m.mu.Unlock()
		return
	}
	m.resetTimer = nil
	m.mu.Unlock()

	m.store.Reset()
	if m.notifier != nil {
		m.notifier.LoggedOut()
	}
}

// cancelPendingReset disarms a pending deferred reset, if any. A newer
// session's state must never be wiped by an older session's timer.
func (m *Manager) cancelPendingReset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	m.resetGen++
}

func (m *Manager) acquire(c commandClass) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[c] {
		return false
	}
	m.inflight[c] = true
	return true
}

func (m *Manager) release(c commandClass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, c)
}

// rejectionDetail pulls the service's user-facing detail out of an error
// chain, or "" when there is none.
func rejectionDetail(err error) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Detail
	}
	return ""
}

// userMessage maps a service error to a short inline message: the service's
// own detail when it sent one, otherwise the fallback.
func userMessage(err error, fallback string) string {
	if d := rejectionDetail(err); d != "" {
		return d
	}
	return fallback
}

func startErrorMessage(detail string) string {
	if detail != "" {
		return detail
	}
	return "Could not start your session. Check your learning code and try again."
}
