package domain

import "encoding/json"

// ToolCallRequest is one pending tool call extracted from a requires_action
// event. Consumed exactly once by the dispatcher; never persisted.
type ToolCallRequest struct {
	ID        string
	Function  string
	Arguments json.RawMessage
}

// ToolCallResult pairs a tool call id with its serialized output payload.
// Results are submitted upstream as one batch keyed by run id.
type ToolCallResult struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// ToolOutput is the structured payload serialized into ToolCallResult.Output
// for appointment and confirmation type functions.
type ToolOutput struct {
	Success        bool   `json:"success"`
	SMSDelivered   bool   `json:"sms_delivered,omitempty"`
	EmailSent      bool   `json:"email_sent,omitempty"`
	PhoneFormatted string `json:"phone_formatted,omitempty"`
	PhoneCountry   string `json:"phone_country,omitempty"`
	PhoneValid     bool   `json:"phone_valid,omitempty"`
	OriginalPhone  string `json:"original_phone,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Marshal serializes the output for upstream submission. Marshalling a plain
// struct of strings and bools cannot fail, so the error is dropped.
func (o ToolOutput) Marshal() string {
	data, _ := json.Marshal(o)
	return string(data)
}
