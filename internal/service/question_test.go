package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latambot/orchestrator/internal/adapter/assistant"
	"github.com/latambot/orchestrator/internal/domain"
)

func runFromJSON(t *testing.T, data string) *assistant.Run {
	t.Helper()
	run, err := assistant.ParseRun(json.RawMessage(data))
	assert.NoError(t, err)
	return run
}

func TestUserQuestion(t *testing.T) {
	fa := &fakeAssistant{
		runs: []*assistant.Run{{ID: "run_1", Status: "completed"}},
		messages: []assistant.ThreadMessage{
			newThreadMessage("assistant", "Claro, con gusto."),
			newThreadMessage("user", "hola"),
		},
	}
	svc, _, _ := newTestService(fa)

	messages, threadID, err := svc.UserQuestion(context.Background(), StreamRequest{Question: "hola"})
	assert.NoError(t, err)
	assert.Equal(t, "thread_test", threadID)
	assert.Equal(t, []string{"hola"}, fa.userMessages)

	// Transcript comes back oldest first.
	assert.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "hola", messages[0].Content)
	assert.Equal(t, "Claro, con gusto.", messages[1].Content)
}

func TestUserQuestionUnknownCompany(t *testing.T) {
	fa := &fakeAssistant{}
	svc, _, _ := newTestService(fa)

	messages, threadID, err := svc.UserQuestion(context.Background(), StreamRequest{Question: "hola", Company: "nope"})

	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
	assert.Nil(t, messages)
	assert.Empty(t, threadID)
	// Rejection happens before anything reaches the upstream API.
	assert.Empty(t, fa.userMessages)
}

func TestUserQuestionServicesToolPause(t *testing.T) {
	requiresAction := runFromJSON(t, `{
		"id": "run_1",
		"status": "requires_action",
		"required_action": {
			"type": "submit_tool_outputs",
			"submit_tool_outputs": {
				"tool_calls": [
					{"id": "call_1", "type": "function", "function": {"name": "book_appointment", "arguments": "{\"name\":\"Ana\",\"phone\":\"987654321\"}"}}
				]
			}
		}
	}`)

	fa := &fakeAssistant{
		runs: []*assistant.Run{
			requiresAction,
			{ID: "run_1", Status: "completed"},
		},
	}
	svc, sms, _ := newTestService(fa)

	_, _, err := svc.UserQuestion(context.Background(), StreamRequest{Question: "book me"})
	assert.NoError(t, err)

	assert.Len(t, fa.submitted, 1)
	assert.Equal(t, "call_1", fa.submitted[0][0].ToolCallID)
	assert.Len(t, sms.calls, 1)
	assert.Equal(t, "+51987654321", sms.calls[0].to)
}

func TestUserQuestionRunFailure(t *testing.T) {
	fa := &fakeAssistant{runs: []*assistant.Run{{ID: "run_1", Status: "failed"}}}
	svc, _, _ := newTestService(fa)

	_, _, err := svc.UserQuestion(context.Background(), StreamRequest{Question: "hola"})
	assert.Error(t, err)
}

func newThreadMessage(role, text string) assistant.ThreadMessage {
	var msg assistant.ThreadMessage
	data, _ := json.Marshal(map[string]any{
		"id":   "msg_x",
		"role": role,
		"content": []map[string]any{
			{"type": "text", "text": map[string]string{"value": text}},
		},
	})
	_ = json.Unmarshal(data, &msg)
	return msg
}
