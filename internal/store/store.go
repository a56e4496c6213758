// Package store persists conversation records and their messages.
package store

import (
	"context"

	"github.com/latambot/orchestrator/internal/domain"
)

// Store is the persistence interface for conversation records.
type Store interface {
	UpsertConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, threadID string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error)
	Close() error
}
