package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Token = "test-token"
	return New(cfg)
}

func TestStartSession_Success(t *testing.T) {
	var gotAuth string
	var gotBody SessionStartRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/start", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"session_id":          "sess-1",
			"child_name":          "Mira",
			"concept":             "fractions",
			"age_level":           8,
			"conversation_phase":  "greeting",
			"initial_explanation": "Fractions are parts of a whole!",
		})
	})

	resp, err := c.StartSession(context.Background(), "LEO-782")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "Mira", resp.ChildName)
	assert.Equal(t, 8, resp.AgeLevel)
	assert.Equal(t, "LEO-782", gotBody.LearningCode)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestStartSession_RejectionCarriesDetail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "Invalid Learning Code. Please check with your parent!",
		})
	})

	_, err := c.StartSession(context.Background(), "WRONG")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Equal(t, "Invalid Learning Code. Please check with your parent!", reqErr.Detail)
}

func TestStartSession_MalformedPayloadRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Missing required session_id and initial_explanation.
		json.NewEncoder(w).Encode(map[string]any{"child_name": "Mira"})
	})

	_, err := c.StartSession(context.Background(), "LEO-782")
	var payloadErr *ErrInvalidPayload
	require.ErrorAs(t, err, &payloadErr)
}

func TestInteract_TextGoesAsFormField(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/sess-1/interact", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2+2", r.FormValue("message"))
		_, _, err := r.FormFile("audio")
		assert.Error(t, err, "no audio part expected for a text turn")
		json.NewEncoder(w).Encode(map[string]any{
			"agent_response":      "That's 4!",
			"understanding_state": "understood",
		})
	})

	resp, err := c.Interact(context.Background(), "sess-1", InteractionInput{Message: "2+2"})
	require.NoError(t, err)
	assert.Equal(t, "That's 4!", resp.AgentResponse)
	assert.Equal(t, "understood", resp.UnderstandingState)
}

func TestInteract_AudioGoesAsFilePart(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "turn.wav", header.Filename)
		json.NewEncoder(w).Encode(map[string]any{
			"agent_response":      "Hi!",
			"transcribed_text":    "hello",
			"understanding_state": "partial",
		})
	})

	resp, err := c.Interact(context.Background(), "sess-1", InteractionInput{
		Audio:         []byte("RIFF...."),
		AudioFilename: "turn.wav",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.TranscribedText)
}

func TestEndSession_DurationOmittedWhenUnknown(t *testing.T) {
	var bodies []map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		json.NewEncoder(w).Encode(map[string]any{
			"evaluation_report": map[string]any{"mastery_percent": 87},
		})
	})

	secs := 420
	resp, err := c.EndSession(context.Background(), "sess-1", &secs)
	require.NoError(t, err)
	require.NotNil(t, resp.EvaluationReport)
	require.NotNil(t, resp.EvaluationReport.MasteryPercent)
	assert.Equal(t, 87.0, *resp.EvaluationReport.MasteryPercent)

	_, err = c.EndSession(context.Background(), "sess-1", nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, 420.0, bodies[0]["duration_seconds"])
	_, present := bodies[1]["duration_seconds"]
	assert.False(t, present, "unknown duration must be omitted, not zeroed")
}

func TestQuizEndpoints(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions/sess-1/quiz/start":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 5.0, body["num_questions"])
			json.NewEncoder(w).Encode(map[string]any{
				"question":        "What is 1/2 + 1/2?",
				"question_number": 1,
				"total_questions": 5,
			})
		case "/sessions/sess-1/quiz/answer":
			json.NewEncoder(w).Encode(map[string]any{
				"quiz_completed": true,
				"total_score":    4,
				"percentage":     80,
			})
		case "/sessions/sess-1/quiz/cancel":
			json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()

	start, err := c.StartQuiz(ctx, "sess-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, start.QuestionNumber)
	assert.Equal(t, 5, start.TotalQuestions)

	ans, err := c.SubmitQuizAnswer(ctx, "sess-1", "1")
	require.NoError(t, err)
	assert.True(t, ans.QuizCompleted)
	require.NotNil(t, ans.Percentage)
	assert.Equal(t, 80.0, *ans.Percentage)

	require.NoError(t, c.CancelQuiz(ctx, "sess-1"))
}

func TestSynthesize_ReturnsRawAudio(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/sess-1/speech", r.URL.Path)
		var req SpeechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello Mira!", req.Text)
		assert.Equal(t, "nova", req.Voice)
		w.Write([]byte("ID3-mp3-bytes"))
	})

	data, err := c.Synthesize(context.Background(), "sess-1", "Hello Mira!", "")
	require.NoError(t, err)
	assert.Equal(t, "ID3-mp3-bytes", string(data))
}

func TestUnreachableService(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1" // nothing listens here
	cfg.Timeout = 200 * time.Millisecond
	c := New(cfg)

	_, err := c.StartSession(context.Background(), "LEO-782")
	var unavail *ErrUnavailable
	require.ErrorAs(t, err, &unavail)
}
