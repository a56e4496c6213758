package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/notify"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/domain"
)

// intakeSummaryFallback replaces the AI summary when summarization is
// unavailable or fails. Intake submissions are never lost over a summary.
const intakeSummaryFallback = "No se pudo generar un resumen automático de la conversación."

// IntakeRequest is one client intake submission: a contact form, a chatbot
// conversation handoff, or both.
type IntakeRequest struct {
	ClientName   string                       `json:"clientName"`
	ClientEmail  string                       `json:"clientEmail,omitempty"`
	ClientPhone  string                       `json:"clientPhone,omitempty"`
	Subject      string                       `json:"subject,omitempty"`
	Message      string                       `json:"message,omitempty"`
	Conversation []domain.ConversationMessage `json:"conversation,omitempty"`
	ThreadID     string                       `json:"threadId,omitempty"`
	Company      string                       `json:"company,omitempty"`
	FormType     string                       `json:"formType,omitempty"`
	Source       string                       `json:"source,omitempty"`
}

// IntakeResult reports what happened to a submission: the summary produced
// for the admin team and whether they were notified.
type IntakeResult struct {
	Success          bool                `json:"success"`
	SubmissionID     string              `json:"submissionId"`
	Message          string              `json:"message"`
	Summary          *summarizer.Summary `json:"summary,omitempty"`
	NotificationSent bool                `json:"notificationSent"`
}

// SubmitIntake processes one intake submission: summarize the client's
// conversation or form content, then notify the company's admin addresses
// by email. A failed summary or notification degrades the result, it never
// fails the submission.
func (s *Service) SubmitIntake(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	if req.Company != "" && !config.CompanyExists(req.Company) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, req.Company)
	}
	company := config.GetCompany(req.Company)

	submissionID := "intake_" + uuid.New().String()[:8]
	log := s.logger.With("submission_id", submissionID, "company", company.Name)

	summary := s.intakeSummary(ctx, intakeConversationText(req), log)

	notified := false
	if s.email != nil && len(company.Notification.Emails) > 0 {
		err := s.email.SendIntake(ctx, company.Notification.Emails, notify.IntakeNotification{
			SubmissionID: submissionID,
			ClientName:   req.ClientName,
			ClientEmail:  req.ClientEmail,
			ClientPhone:  req.ClientPhone,
			Subject:      req.Subject,
			Message:      req.Message,
			Summary:      summary.Summary,
			Company:      company.Name,
			FormType:     req.FormType,
			Source:       intakeSource(req.Source),
		})
		if err != nil {
			log.Error("intake notification failed", "error", err)
		} else {
			notified = true
			log.Info("intake notification sent", "recipients", len(company.Notification.Emails))
		}
	}

	message := "Solicitud recibida exitosamente."
	if notified {
		message = "Solicitud enviada exitosamente. El equipo será notificado."
	}

	return &IntakeResult{
		Success:          true,
		SubmissionID:     submissionID,
		Message:          message,
		Summary:          summary,
		NotificationSent: notified,
	}, nil
}

func (s *Service) intakeSummary(ctx context.Context, conversation string, log *slog.Logger) *summarizer.Summary {
	if s.summarizer == nil {
		return fallbackSummary()
	}
	summary, err := s.summarizer.SummarizeText(ctx, conversation, summarizer.Options{
		MaxLength:        200,
		Language:         "es",
		IncludeKeyPoints: true,
	})
	if err != nil {
		log.Error("intake summarization failed", "error", err)
		return fallbackSummary()
	}
	return summary
}

func fallbackSummary() *summarizer.Summary {
	return &summarizer.Summary{
		Summary:   intakeSummaryFallback,
		Language:  "es",
		Timestamp: time.Now(),
	}
}

// intakeConversationText turns a submission into summarizer input, preferring
// the richest content available: the conversation transcript, then the free
// text message, then the form fields.
func intakeConversationText(req IntakeRequest) string {
	if len(req.Conversation) > 0 {
		return summarizer.TranscriptText(req.Conversation)
	}
	if req.Message != "" {
		return "Usuario: " + req.Message
	}

	var parts []string
	if req.Subject != "" {
		parts = append(parts, "Asunto: "+req.Subject)
	}
	if req.FormType != "" {
		parts = append(parts, "Tipo de consulta: "+req.FormType)
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("El usuario %s ha enviado una solicitud de contacto.", req.ClientName))
	}
	return "Usuario: " + strings.Join(parts, "\n")
}

func intakeSource(source string) string {
	if source == "" {
		return "website"
	}
	return source
}
