package domain

import (
	"errors"
	"time"
)

// Session-fatal error taxonomy. Per-call tool failures are embedded as data
// inside tool outputs and never surface through these.
var (
	ErrUpstreamRunFailed    = errors.New("upstream run failed")
	ErrUpstreamRunExpired   = errors.New("upstream run expired")
	ErrUpstreamRunCancelled = errors.New("upstream run cancelled")
	ErrToolSubmissionFailed = errors.New("tool output submission failed")
	ErrCompanyNotFound      = errors.New("company not found")
	ErrSinkClosed           = errors.New("outbound sink closed")
)

// Conversation is the persisted record of one thread for a company.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	ThreadID       string    `json:"thread_id"`
	Company        string    `json:"company"`
	Assistant      string    `json:"assistant"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is one persisted turn inside a conversation.
type Message struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	RunID     string    `json:"run_id,omitempty"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationMessage is one turn of an in-memory transcript handed to the
// summarizer. Role follows the upstream convention (user, assistant, system).
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
