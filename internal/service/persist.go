package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/cms"
	"github.com/latambot/orchestrator/internal/domain"
)

const persistTimeout = 30 * time.Second

// persistConversation records a completed turn in the background: the
// conversation row, the question and answer messages, and the company CMS
// publish when one is configured. Failures are logged and swallowed; the
// client response is already finished by the time this runs.
func (s *Service) persistConversation(sess *domain.Session, company config.CompanyConfig, question string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		log := s.logger.With("thread_id", sess.ThreadID, "company", company.Name)
		answer := sess.FullText()

		if s.store != nil {
			now := time.Now()
			conv := &domain.Conversation{
				ConversationID: "conv_" + uuid.New().String()[:8],
				ThreadID:       sess.ThreadID,
				Company:        sess.Company,
				Assistant:      sess.AssistantID,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.store.UpsertConversation(ctx, conv); err != nil {
				log.Error("failed to persist conversation", "error", err)
			}

			for _, msg := range []*domain.Message{
				{
					MessageID: "msg_" + uuid.New().String()[:8],
					ThreadID:  sess.ThreadID,
					RunID:     sess.RunID,
					Role:      "user",
					Content:   question,
					CreatedAt: now,
				},
				{
					MessageID: "msg_" + uuid.New().String()[:8],
					ThreadID:  sess.ThreadID,
					RunID:     sess.RunID,
					Role:      "assistant",
					Content:   answer,
					CreatedAt: now,
				},
			} {
				if msg.Content == "" {
					continue
				}
				if err := s.store.AppendMessage(ctx, msg); err != nil {
					log.Error("failed to persist message", "role", msg.Role, "error", err)
				}
			}
		}

		if s.cms != nil && company.CMS.Ready && company.CMS.Endpoint != "" {
			record := cms.ThreadRecord{
				ThreadID:  sess.ThreadID,
				Message:   answer,
				Company:   company.Name,
				Assistant: company.Assistant.Name,
			}
			if err := s.cms.Publish(ctx, company.CMS.Endpoint, record); err != nil {
				log.Error("failed to publish thread to cms", "endpoint", company.CMS.Endpoint, "error", err)
			} else {
				log.Info("thread published to cms")
			}
		}
	}()
}
