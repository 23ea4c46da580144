package api

import (
	"context"
	"sync"
)

// MockCall records one method invocation on the Mock client.
type MockCall struct {
	Method    string
	SessionID string
	Text      string
	Input     *InteractionInput
	Duration  *int
	Num       int
}

// MockResult is a canned result for the Mock client. Exactly one of the
// payload fields matching the called method is consulted.
type MockResult struct {
	Start     *SessionStartResponse
	Interact  *InteractionResponse
	End       *EndSessionResponse
	QuizStart *QuizStartResponse
	QuizAns   *QuizAnswerResponse
	Audio     []byte
	Err       error
}

// Mock is a deterministic stand-in for the Client. It returns canned
// results in FIFO order and records all calls.
type Mock struct {
	mu      sync.Mutex
	results []MockResult
	Calls   []MockCall
}

// NewMock creates a Mock with the given canned results.
func NewMock(results ...MockResult) *Mock {
	return &Mock{results: results}
}

// Enqueue appends a canned result to the queue.
func (m *Mock) Enqueue(r MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
}

// CallCount returns the number of calls made so far.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *Mock) next(call MockCall) (MockResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, call)

	if len(m.results) == 0 {
		return MockResult{}, &ErrUnavailable{}
	}
	r := m.results[0]
	m.results = m.results[1:]
	if r.Err != nil {
		return MockResult{}, r.Err
	}
	return r, nil
}

func (m *Mock) StartSession(_ context.Context, learningCode string) (*SessionStartResponse, error) {
	r, err := m.next(MockCall{Method: "StartSession", Text: learningCode})
	if err != nil {
		return nil, err
	}
	return r.Start, nil
}

func (m *Mock) Interact(_ context.Context, sessionID string, in InteractionInput) (*InteractionResponse, error) {
	r, err := m.next(MockCall{Method: "Interact", SessionID: sessionID, Input: &in})
	if err != nil {
		return nil, err
	}
	return r.Interact, nil
}

func (m *Mock) EndSession(_ context.Context, sessionID string, durationSecs *int) (*EndSessionResponse, error) {
	r, err := m.next(MockCall{Method: "EndSession", SessionID: sessionID, Duration: durationSecs})
	if err != nil {
		return nil, err
	}
	return r.End, nil
}

func (m *Mock) StartQuiz(_ context.Context, sessionID string, numQuestions int) (*QuizStartResponse, error) {
	r, err := m.next(MockCall{Method: "StartQuiz", SessionID: sessionID, Num: numQuestions})
	if err != nil {
		return nil, err
	}
	return r.QuizStart, nil
}

func (m *Mock) SubmitQuizAnswer(_ context.Context, sessionID, answer string) (*QuizAnswerResponse, error) {
	r, err := m.next(MockCall{Method: "SubmitQuizAnswer", SessionID: sessionID, Text: answer})
	if err != nil {
		return nil, err
	}
	return r.QuizAns, nil
}

func (m *Mock) CancelQuiz(_ context.Context, sessionID string) error {
	_, err := m.next(MockCall{Method: "CancelQuiz", SessionID: sessionID})
	return err
}

func (m *Mock) Synthesize(_ context.Context, sessionID, text, voice string) ([]byte, error) {
	r, err := m.next(MockCall{Method: "Synthesize", SessionID: sessionID, Text: text})
	if err != nil {
		return nil, err
	}
	return r.Audio, nil
}
