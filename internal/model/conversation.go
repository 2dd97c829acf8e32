package model

import "time"

// ConversationState names a state of the conversation engine
type ConversationState string

const (
	StateWelcome        ConversationState = "welcome"
	StateIntroduction   ConversationState = "introduction"
	StateCategoryIntro  ConversationState = "category_intro"
	StateQuestion       ConversationState = "question"
	StateProcessing     ConversationState = "processing"
	StateReadyToAdvance ConversationState = "ready_to_advance"
	StateTransitioning  ConversationState = "transitioning"
	StateCompletion     ConversationState = "completion"
)

type MessageRole string

const (
	RoleBot  MessageRole = "bot"
	RoleUser MessageRole = "user"
)

// ChatMessage is one entry of the append-only conversation transcript
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConversationView is the observable state the presentation layer renders.
// Options is populated only while a question is awaiting an answer.
type ConversationView struct {
	ConversationID     string            `json:"conversationId"`
	State              ConversationState `json:"state"`
	Messages           []ChatMessage     `json:"messages"`
	Options            []AnswerOption    `json:"options,omitempty"`
	Progress           float64           `json:"progress"`
	ModuleIndex        int               `json:"moduleIndex"`
	QuestionIndex      int               `json:"questionIndex"`
	IsWaitingForAnswer bool              `json:"isWaitingForAnswer"`
	Persisted          bool              `json:"persisted"`
}

// ConversationSnapshot is the serializable engine position kept in Redis
// so a reconnect can re-render without replaying the whole run.
type ConversationSnapshot struct {
	ConversationID string            `json:"conversationId"`
	SessionID      string            `json:"sessionId"`
	State          ConversationState `json:"state"`
	ModuleIndex    int               `json:"moduleIndex"`
	QuestionIndex  int               `json:"questionIndex"`
	AnsweredCounts []int             `json:"answeredCounts"`
	Progress       float64           `json:"progress"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// SubmitAnswerRequest is the body for answer submission
type SubmitAnswerRequest struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}
