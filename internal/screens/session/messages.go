package session

import (
	"time"

	"github.com/leolearn/leo/internal/audio"
)

// spinnerTickMsg refreshes the view while a service call is in flight,
// so optimistic echoes and the thinking indicator show up promptly.
type spinnerTickMsg time.Time

// interactionDoneMsg is sent when a text or audio turn returns.
type interactionDoneMsg struct {
	Err error
}

// recordingStartedMsg is sent when microphone capture begins.
type recordingStartedMsg struct {
	Err error
}

// recordingStoppedMsg carries the captured audio, ready to submit.
type recordingStoppedMsg struct {
	Payload *audio.Payload
	Err     error
}

// quizStartedMsg is sent when the quiz start call returns.
type quizStartedMsg struct {
	Err error
}

// quizAnswerDoneMsg is sent when a quiz answer submission returns.
type quizAnswerDoneMsg struct {
	Err error
}

// quizCancelledMsg is sent when the quiz cancel flow finishes.
type quizCancelledMsg struct{}

// sessionEndedMsg is sent when the end-session call returns.
type sessionEndedMsg struct {
	Err error
}

// playbackDoneMsg is sent after a speech playback request was issued.
type playbackDoneMsg struct{}
