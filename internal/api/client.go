package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Client is the HTTP client for the remote learning service. It owns no
// session state; callers pass the session id on every call.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client from the given config.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// StartSession opens a new tutoring session for the child behind learningCode.
func (c *Client) StartSession(ctx context.Context, learningCode string) (*SessionStartResponse, error) {
	raw, err := c.postJSON(ctx, "/sessions/start", SessionStartRequest{LearningCode: learningCode})
	if err != nil {
		return nil, err
	}
	if err := validatePayload("session-start", sessionStartSchema, raw); err != nil {
		return nil, err
	}
	var resp SessionStartResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrInvalidPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// Interact submits one conversational turn. Text goes as a form field; audio
// goes as a multipart file part, matching the service's form contract.
func (c *Client) Interact(ctx context.Context, sessionID string, in InteractionInput) (*InteractionResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if in.Message != "" {
		if err := w.WriteField("message", in.Message); err != nil {
			return nil, fmt.Errorf("write message field: %w", err)
		}
	}
	if len(in.Audio) > 0 {
		name := in.AudioFilename
		if name == "" {
			name = "recording.wav"
		}
		part, err := w.CreateFormFile("audio", name)
		if err != nil {
			return nil, fmt.Errorf("create audio part: %w", err)
		}
		if _, err := part.Write(in.Audio); err != nil {
			return nil, fmt.Errorf("write audio part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	path := "/sessions/" + url.PathEscape(sessionID) + "/interact"
	raw, err := c.post(ctx, path, w.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	if err := validatePayload("interaction", interactionSchema, raw); err != nil {
		return nil, err
	}
	var resp InteractionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrInvalidPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// EndSession terminates the session. durationSecs is nil when the client has
// no reliable start time; it is then omitted from the request entirely.
func (c *Client) EndSession(ctx context.Context, sessionID string, durationSecs *int) (*EndSessionResponse, error) {
	body := map[string]any{}
	if durationSecs != nil {
		body["duration_seconds"] = *durationSecs
	}
	raw, err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/end", body)
	if err != nil {
		return nil, err
	}
	if err := validatePayload("end-session", endSessionSchema, raw); err != nil {
		return nil, err
	}
	var resp EndSessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrInvalidPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// StartQuiz asks the tutor to begin a quiz with numQuestions questions.
func (c *Client) StartQuiz(ctx context.Context, sessionID string, numQuestions int) (*QuizStartResponse, error) {
	raw, err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/quiz/start",
		map[string]any{"num_questions": numQuestions})
	if err != nil {
		return nil, err
	}
	if err := validatePayload("quiz-start", quizStartSchema, raw); err != nil {
		return nil, err
	}
	var resp QuizStartResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrInvalidPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// SubmitQuizAnswer grades one quiz answer.
func (c *Client) SubmitQuizAnswer(ctx context.Context, sessionID, answer string) (*QuizAnswerResponse, error) {
	raw, err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/quiz/answer",
		map[string]any{"answer": answer})
	if err != nil {
		return nil, err
	}
	if err := validatePayload("quiz-answer", quizAnswerSchema, raw); err != nil {
		return nil, err
	}
	var resp QuizAnswerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrInvalidPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// CancelQuiz tells the service the child abandoned the current quiz. The
// response body is an acknowledgement the client does not depend on.
func (c *Client) CancelQuiz(ctx context.Context, sessionID string) error {
	_, err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/quiz/cancel", map[string]any{})
	return err
}

// Synthesize returns spoken audio bytes for the given text.
func (c *Client) Synthesize(ctx context.Context, sessionID, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = c.cfg.Voice
	}
	payload, err := json.Marshal(SpeechRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}
	return c.post(ctx, "/sessions/"+url.PathEscape(sessionID)+"/speech", "application/json", bytes.NewReader(payload))
}

// postJSON marshals body as JSON and posts it, returning the raw response body.
func (c *Client) postJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(payload))
}

// post sends the request and maps transport and status failures onto the
// package error types.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrUnavailable{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Detail: rejectionDetail(data)}
	}
	return data, nil
}

// rejectionDetail extracts the service's "detail" message from an error body.
func rejectionDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Detail
}
