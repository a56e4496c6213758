package service

import (
	"context"
	"fmt"
	"time"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/assistant"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/domain"
)

// CreateThread provisions an empty upstream conversation thread.
func (s *Service) CreateThread(ctx context.Context) (string, error) {
	threadID, err := s.assistant.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	s.logger.Info("thread created", "thread_id", threadID)
	return threadID, nil
}

// UserQuestion runs one non-streamed question to completion and returns the
// full transcript. Tool calls raised mid-run are dispatched the same way the
// streaming path dispatches them.
func (s *Service) UserQuestion(ctx context.Context, req StreamRequest) ([]domain.ConversationMessage, string, error) {
	if req.Company != "" && !config.CompanyExists(req.Company) {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, req.Company)
	}
	company := config.GetCompany(req.Company)

	threadID := req.ThreadID
	if threadID == "" {
		var err error
		if threadID, err = s.CreateThread(ctx); err != nil {
			return nil, "", err
		}
	}

	if err := s.assistant.CreateMessage(ctx, threadID, "user", req.Question); err != nil {
		return nil, "", fmt.Errorf("failed to create user message: %w", err)
	}

	run, err := s.assistant.CreateRun(ctx, threadID, assistant.RunParams{
		AssistantID: company.Assistant.ID,
		Model:       company.Assistant.Model,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create run: %w", err)
	}

	if err := s.waitForRun(ctx, threadID, run, company, req.Company); err != nil {
		return nil, "", err
	}

	messages, err := s.conversationMessages(ctx, threadID, 20)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	sess := &domain.Session{
		ThreadID:    threadID,
		RunID:       run.ID,
		AssistantID: company.Assistant.ID,
		Company:     req.Company,
		State:       domain.SessionCompleted,
	}
	s.persistConversation(sess, company, req.Question)

	return messages, threadID, nil
}

// waitForRun polls one run to a terminal status, servicing requires_action
// pauses along the way.
func (s *Service) waitForRun(ctx context.Context, threadID string, run *assistant.Run, company config.CompanyConfig, companyKey string) error {
	deadline := time.Now().Add(s.config.RunTimeout)

	for {
		switch run.Status {
		case "completed":
			return nil
		case "failed":
			return fmt.Errorf("run %s: %w", run.ID, domain.ErrUpstreamRunFailed)
		case "expired":
			return fmt.Errorf("run %s: %w", run.ID, domain.ErrUpstreamRunExpired)
		case "cancelled", "cancelling":
			return fmt.Errorf("run %s: %w", run.ID, domain.ErrUpstreamRunCancelled)
		case "requires_action":
			if err := s.serviceToolPause(ctx, threadID, run, company, companyKey); err != nil {
				return err
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("run %s did not finish within %s", run.ID, s.config.RunTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.RunPollInterval):
		}

		var err error
		if run, err = s.assistant.GetRun(ctx, threadID, run.ID); err != nil {
			return fmt.Errorf("failed to poll run: %w", err)
		}
	}
}

func (s *Service) serviceToolPause(ctx context.Context, threadID string, run *assistant.Run, company config.CompanyConfig, companyKey string) error {
	calls := assistant.ToolCallRequests(run)
	if len(calls) == 0 {
		return fmt.Errorf("run %s requires action with no tool calls", run.ID)
	}

	sess := &domain.Session{ThreadID: threadID, RunID: run.ID, Company: companyKey}
	results := s.dispatchToolCalls(ctx, sess, company, calls)

	stream, err := s.assistant.SubmitToolOutputs(ctx, threadID, run.ID, results)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrToolSubmissionFailed, err)
	}
	defer stream.Close()

	// The submission response streams the resumed run; the poll loop picks
	// the status back up, so the events themselves are drained unread.
	return stream.Each(func(domain.UpstreamEvent) error { return nil })
}

// SummarizeConversation condenses a thread's transcript on demand.
func (s *Service) SummarizeConversation(ctx context.Context, threadID string, opts summarizer.Options) (*summarizer.Summary, error) {
	if s.summarizer == nil {
		return nil, fmt.Errorf("summarizer not configured")
	}
	messages, err := s.conversationMessages(ctx, threadID, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("thread %s has no messages", threadID)
	}
	return s.summarizer.Summarize(ctx, messages, opts)
}
