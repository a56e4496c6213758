package domain

import "encoding/json"

// UpstreamEventKind is the closed set of assistant run stream events the
// orchestrator understands. Wire names outside this set map to
// UpstreamUnknown and are ignored rather than treated as errors.
type UpstreamEventKind int

const (
	UpstreamUnknown UpstreamEventKind = iota
	UpstreamRunCreated
	UpstreamRunQueued
	UpstreamRunInProgress
	UpstreamMessageCreated
	UpstreamMessageDelta
	UpstreamMessageCompleted
	UpstreamRunRequiresAction
	UpstreamRunCompleted
	UpstreamRunFailed
	UpstreamRunExpired
	UpstreamRunCancelled
)

var upstreamKindNames = map[string]UpstreamEventKind{
	"thread.run.created":         UpstreamRunCreated,
	"thread.run.queued":          UpstreamRunQueued,
	"thread.run.in_progress":     UpstreamRunInProgress,
	"thread.message.created":     UpstreamMessageCreated,
	"thread.message.delta":       UpstreamMessageDelta,
	"thread.message.completed":   UpstreamMessageCompleted,
	"thread.run.requires_action": UpstreamRunRequiresAction,
	"thread.run.completed":       UpstreamRunCompleted,
	"thread.run.failed":          UpstreamRunFailed,
	"thread.run.expired":         UpstreamRunExpired,
	"thread.run.cancelled":       UpstreamRunCancelled,
}

// ParseUpstreamKind maps a wire event name to its kind.
func ParseUpstreamKind(name string) UpstreamEventKind {
	kind, ok := upstreamKindNames[name]
	if !ok {
		return UpstreamUnknown
	}
	return kind
}

// UpstreamEvent is one event observed on the assistant run stream.
type UpstreamEvent struct {
	Kind UpstreamEventKind
	Data json.RawMessage
}

// Outbound statuses, one per OutboundEvent variant. Consumers switch on the
// embedded status field; no separate SSE event-type field is used.
const (
	OutboundInProgress     = "in_progress"
	OutboundStreaming      = "streaming"
	OutboundExecutingTools = "executing_tools"
	OutboundToolsExecuted  = "tools_executed"
	OutboundToolError      = "tool_error"
	OutboundDone           = "done"
	OutboundError          = "error"
)

// OutboundEvent is one client-facing stream frame. Exactly one variant's
// fields are populated per frame; Status tags the variant.
type OutboundEvent struct {
	Status      string   `json:"status"`
	Role        string   `json:"role,omitempty"`
	Content     string   `json:"content,omitempty"`
	ThreadID    string   `json:"threadId,omitempty"`
	AssistantID string   `json:"assistantId,omitempty"`
	ToolCount   int      `json:"toolCount,omitempty"`
	ToolNames   []string `json:"toolNames,omitempty"`
	TotalLength int      `json:"totalLength,omitempty"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// InProgressEvent announces that the run has started.
func InProgressEvent(threadID, assistantID string) OutboundEvent {
	return OutboundEvent{Status: OutboundInProgress, ThreadID: threadID, AssistantID: assistantID}
}

// StreamingEvent carries one verbatim text fragment.
func StreamingEvent(content string) OutboundEvent {
	return OutboundEvent{Status: OutboundStreaming, Role: "assistant", Content: content}
}

// ExecutingToolsEvent announces that tool calls are being dispatched.
func ExecutingToolsEvent(names []string) OutboundEvent {
	return OutboundEvent{Status: OutboundExecutingTools, ToolCount: len(names), ToolNames: names}
}

// ToolsExecutedEvent announces that all tool outputs were submitted upstream.
func ToolsExecutedEvent() OutboundEvent {
	return OutboundEvent{Status: OutboundToolsExecuted}
}

// ToolErrorEvent reports a fatal tool submission failure.
func ToolErrorEvent(err string) OutboundEvent {
	return OutboundEvent{Status: OutboundToolError, Error: err}
}

// DoneEvent terminates a successful stream.
func DoneEvent(totalLength int) OutboundEvent {
	return OutboundEvent{Status: OutboundDone, TotalLength: totalLength}
}

// ErrorEvent terminates a failed stream with a client-safe message.
func ErrorEvent(message string) OutboundEvent {
	return OutboundEvent{Status: OutboundError, Message: message}
}
