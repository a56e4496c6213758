package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/latambot/orchestrator/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := &domain.Conversation{
		ConversationID: "conv_1",
		ThreadID:       "thread_1",
		Company:        "default",
		Assistant:      "asst_1",
	}
	assert.NoError(t, s.UpsertConversation(ctx, conv))

	got, err := s.GetConversation(ctx, "thread_1")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "conv_1", got.ConversationID)
	assert.Equal(t, "default", got.Company)
	assert.Equal(t, "asst_1", got.Assistant)
}

func TestGetConversationMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetConversation(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertConversationIsIdempotentPerThread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.Conversation{ConversationID: "conv_1", ThreadID: "thread_1", Company: "default", Assistant: "asst_1"}
	assert.NoError(t, s.UpsertConversation(ctx, first))

	// A second turn on the same thread keeps the row but refreshes it.
	second := &domain.Conversation{ConversationID: "conv_2", ThreadID: "thread_1", Company: "default", Assistant: "asst_2"}
	assert.NoError(t, s.UpsertConversation(ctx, second))

	got, err := s.GetConversation(ctx, "thread_1")
	assert.NoError(t, err)
	assert.Equal(t, "conv_1", got.ConversationID)
	assert.Equal(t, "asst_2", got.Assistant)
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := &domain.Conversation{ConversationID: "conv_1", ThreadID: "thread_1", Company: "default"}
	assert.NoError(t, s.UpsertConversation(ctx, conv))

	base := time.Now()
	for i, content := range []string{"hola", "¿en qué puedo ayudarte?", "quiero una cita"} {
		role := "user"
		if i == 1 {
			role = "assistant"
		}
		msg := &domain.Message{
			MessageID: "msg_" + string(rune('a'+i)),
			ThreadID:  "thread_1",
			RunID:     "run_1",
			Role:      role,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		assert.NoError(t, s.AppendMessage(ctx, msg))
	}

	messages, err := s.ListMessages(ctx, "thread_1", 10)
	assert.NoError(t, err)
	assert.Len(t, messages, 3)
	assert.Equal(t, "hola", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "run_1", messages[0].RunID)

	limited, err := s.ListMessages(ctx, "thread_1", 2)
	assert.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListMessagesEmptyThread(t *testing.T) {
	s := newTestStore(t)

	messages, err := s.ListMessages(context.Background(), "thread_none", 0)
	assert.NoError(t, err)
	assert.Empty(t, messages)
}
