package api

// SessionStartRequest asks the service to open a tutoring session for the
// child identified by a learning code.
type SessionStartRequest struct {
	LearningCode string `json:"learning_code"`
}

// SessionStartResponse describes a freshly opened session.
type SessionStartResponse struct {
	SessionID          string   `json:"session_id"`
	ChildName          string   `json:"child_name"`
	ChildID            string   `json:"child_id,omitempty"`
	Concept            string   `json:"concept"`
	LocalizedConcept   string   `json:"localized_concept,omitempty"`
	AgeLevel           int      `json:"age_level"`
	LearningLanguage   string   `json:"learning_language,omitempty"`
	LearningCode       string   `json:"learning_code,omitempty"`
	ConversationPhase  string   `json:"conversation_phase,omitempty"`
	InitialExplanation string   `json:"initial_explanation"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// InteractionInput is one conversational turn from the child. Exactly one of
// Message or Audio must be set; the service transcribes audio server-side.
type InteractionInput struct {
	Message       string
	Audio         []byte
	AudioFilename string
	AudioMIME     string
}

// InteractionResponse is the service's reply to one conversational turn.
// The quiz fields are set when the tutor decides mid-conversation that a
// quiz should begin.
type InteractionResponse struct {
	AgentResponse      string `json:"agent_response"`
	TranscribedText    string `json:"transcribed_text,omitempty"`
	UnderstandingState string `json:"understanding_state"`
	FollowUpHint       string `json:"follow_up_hint,omitempty"`
	CanEndSession      bool   `json:"can_end_session,omitempty"`
	CanTakeQuiz        bool   `json:"can_take_quiz,omitempty"`
	ConversationPhase  string `json:"conversation_phase,omitempty"`
	QuizActive         bool   `json:"quiz_active,omitempty"`
	QuizQuestion       string `json:"quiz_question,omitempty"`
	QuizQuestionNumber int    `json:"quiz_question_number,omitempty"`
	QuizTotalQuestions int    `json:"quiz_total_questions,omitempty"`
}

// QuizStartResponse carries the first question of a new quiz.
type QuizStartResponse struct {
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
}

// QuizAnswerResponse grades one quiz answer. QuizCompleted marks the final
// question; TotalScore and Percentage are only present then.
type QuizAnswerResponse struct {
	Feedback           string   `json:"feedback,omitempty"`
	Score              *float64 `json:"score,omitempty"`
	QuizCompleted      bool     `json:"quiz_completed"`
	TotalScore         *float64 `json:"total_score,omitempty"`
	Percentage         *float64 `json:"percentage,omitempty"`
	CanEndSession      bool     `json:"can_end_session,omitempty"`
	CanTakeAnotherQuiz bool     `json:"can_take_another_quiz,omitempty"`
	NextQuestion       string   `json:"next_question,omitempty"`
	QuestionNumber     int      `json:"question_number,omitempty"`
	Message            string   `json:"message,omitempty"`
}

// EvaluationReport is the end-of-session mastery summary. MasteryPercent is
// nil when the service could not compute one.
type EvaluationReport struct {
	Summary        string   `json:"summary,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
	Challenges     []string `json:"challenges,omitempty"`
	MasteryLevel   string   `json:"concept_mastery_level,omitempty"`
	MasteryPercent *float64 `json:"mastery_percent"`
}

// EndSessionResponse acknowledges session termination.
type EndSessionResponse struct {
	EvaluationReport *EvaluationReport `json:"evaluation_report,omitempty"`
}

// SpeechRequest asks the service to synthesize spoken audio for a message.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}
