// Package domain defines the core domain models for the orchestrator.
package domain

import "time"

// SessionState represents the lifecycle state of a streamed conversation turn.
type SessionState string

const (
	SessionStarting            SessionState = "STARTING"
	SessionStreaming           SessionState = "STREAMING"
	SessionAwaitingToolOutputs SessionState = "AWAITING_TOOL_OUTPUTS"
	SessionToolsExecuting      SessionState = "TOOLS_EXECUTING"
	SessionResuming            SessionState = "RESUMING"
	SessionCompleted           SessionState = "COMPLETED"
	SessionFailed              SessionState = "FAILED"
	SessionExpired             SessionState = "EXPIRED"
	SessionCancelled           SessionState = "CANCELLED"
)

// Terminal reports whether the state admits no further transitions.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionExpired, SessionCancelled:
		return true
	}
	return false
}

// Session tracks one streamed conversational turn. It is owned exclusively by
// the orchestration loop that created it and is never shared across runs.
type Session struct {
	SessionID   string
	ThreadID    string
	RunID       string
	AssistantID string
	Model       string
	Company     string
	State       SessionState
	StartedAt   time.Time

	// Text fragments in arrival order, used for length reporting and
	// persistence, never for replay.
	AccumulatedText []string
}

// TotalLength returns the combined length of all accumulated text fragments.
func (s *Session) TotalLength() int {
	n := 0
	for _, frag := range s.AccumulatedText {
		n += len(frag)
	}
	return n
}

// FullText joins the accumulated fragments into the complete assistant reply.
func (s *Session) FullText() string {
	total := s.TotalLength()
	buf := make([]byte, 0, total)
	for _, frag := range s.AccumulatedText {
		buf = append(buf, frag...)
	}
	return string(buf)
}
