// Package service implements the orchestration engine: streamed assistant
// runs bridged onto client-facing event streams, tool call dispatch with
// policy-gated notifications, stall recovery, and background persistence.
package service

import (
	"context"
	"log/slog"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/assistant"
	"github.com/latambot/orchestrator/internal/adapter/cms"
	"github.com/latambot/orchestrator/internal/adapter/notify"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/domain"
	"github.com/latambot/orchestrator/internal/store"
	"github.com/latambot/orchestrator/policy"
)

// AssistantAPI is the upstream assistant collaborator.
type AssistantAPI interface {
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID string, params assistant.RunParams) (*assistant.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]assistant.ThreadMessage, error)
	StreamRun(ctx context.Context, threadID string, params assistant.RunParams) (assistant.Stream, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, results []domain.ToolCallResult) (assistant.Stream, error)
}

// SMSSender delivers short messages.
type SMSSender interface {
	Send(ctx context.Context, toFormatted, body string) notify.SMSResult
}

// EmailSender delivers admin notification email.
type EmailSender interface {
	Send(ctx context.Context, payload notify.EmailPayload, summary string) error
	SendIntake(ctx context.Context, recipients []string, n notify.IntakeNotification) error
}

// CMSPublisher posts conversation records to company CMS endpoints.
type CMSPublisher interface {
	Publish(ctx context.Context, endpoint string, record cms.ThreadRecord) error
}

// ConversationSummarizer condenses transcripts; callers substitute a
// placeholder when it fails.
type ConversationSummarizer interface {
	Summarize(ctx context.Context, messages []domain.ConversationMessage, opts summarizer.Options) (*summarizer.Summary, error)
	SummarizeText(ctx context.Context, conversation string, opts summarizer.Options) (*summarizer.Summary, error)
}

// Service owns the orchestration flows.
type Service struct {
	store      store.Store
	assistant  AssistantAPI
	sms        SMSSender
	email      EmailSender
	cms        CMSPublisher
	summarizer ConversationSummarizer
	policy     *policy.Engine
	config     *config.Config
	logger     *slog.Logger
}

// New creates a new service.
func New(st store.Store, assistantAPI AssistantAPI, sms SMSSender, email EmailSender, cmsClient CMSPublisher, sum ConversationSummarizer, policyEngine *policy.Engine, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		assistant:  assistantAPI,
		sms:        sms,
		email:      email,
		cms:        cmsClient,
		summarizer: sum,
		policy:     policyEngine,
		config:     cfg,
		logger:     logger,
	}
}
