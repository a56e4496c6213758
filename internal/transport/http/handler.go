package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/domain"
	"github.com/latambot/orchestrator/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/gpt/create-thread", h.CreateThread)
	e.POST("/gpt/user-question", h.UserQuestion)
	e.POST("/gpt/stream-question", h.StreamQuestion)
	e.POST("/gpt/summarize-conversation", h.SummarizeConversation)

	e.POST("/intake/submit", h.IntakeSubmit)
	e.POST("/intake/test-notification", h.IntakeTestNotification)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// CreateThread provisions an empty conversation thread for a company and
// hands back the conversation-starter material the client UI renders first.
// POST /gpt/create-thread?company=
func (h *Handler) CreateThread(c echo.Context) error {
	company := c.QueryParam("company")
	if company == "" {
		var req struct {
			Company string `json:"company"`
		}
		if err := c.Bind(&req); err == nil {
			company = req.Company
		}
	}
	if company != "" && !config.CompanyExists(company) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": domain.ErrCompanyNotFound.Error()})
	}
	cfg := config.GetCompany(company)

	threadID, err := h.service.CreateThread(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to create thread", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create thread"})
	}

	messages := cfg.Assistant.PredefinedMessages
	if messages == nil {
		messages = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"threadId":      threadID,
		"messages":      messages,
		"assistantName": cfg.Assistant.Name,
	})
}

// UserQuestion answers one question without streaming and returns the full
// transcript.
// POST /gpt/user-question
func (h *Handler) UserQuestion(c echo.Context) error {
	var req service.StreamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	messages, threadID, err := h.service.UserQuestion(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": domain.ErrCompanyNotFound.Error()})
		}
		h.logger.Error("user question failed", "thread_id", req.ThreadID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process question"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"threadId": threadID,
		"messages": messages,
	})
}

// StreamQuestion streams one assistant turn to the client as server-sent
// events. The response is always 200 once streaming starts; failures arrive
// as a terminal error frame on the stream itself.
// POST /gpt/stream-question
func (h *Handler) StreamQuestion(c echo.Context) error {
	var req service.StreamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	sink, err := newSSESink(c.Response())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
	}

	if req.Company != "" && !config.CompanyExists(req.Company) {
		_ = sink.Send(domain.ErrorEvent("Company not found"))
		return sink.Close()
	}

	h.service.StreamQuestion(c.Request().Context(), req, sink)
	return nil
}

// IntakeSubmit accepts one client intake submission, summarizes its content
// and notifies the company admins.
// POST /intake/submit?company=
func (h *Handler) IntakeSubmit(c echo.Context) error {
	var req service.IntakeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if company := c.QueryParam("company"); company != "" {
		req.Company = company
	}

	if strings.TrimSpace(req.ClientName) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "client name is required"})
	}
	if req.ClientEmail == "" && req.ClientPhone == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "either email or phone number is required"})
	}
	if len(req.Conversation) == 0 && req.Message == "" && req.Subject == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "either conversation, message, or subject is required"})
	}

	result, err := h.service.SubmitIntake(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": domain.ErrCompanyNotFound.Error()})
		}
		h.logger.Error("intake submission failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process intake submission"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// IntakeTestNotification sends a canned submission through the intake flow to
// verify the notification wiring end to end.
// POST /intake/test-notification?company=
func (h *Handler) IntakeTestNotification(c echo.Context) error {
	company := c.QueryParam("company")
	if company != "" && !config.CompanyExists(company) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": domain.ErrCompanyNotFound.Error()})
	}

	result, err := h.service.SubmitIntake(c.Request().Context(), service.IntakeRequest{
		ClientName:  "Test Client",
		ClientEmail: "test@example.com",
		ClientPhone: "+1234567890",
		Subject:     "Test Notification",
		Message:     "This is a test message to verify email notifications are working correctly.",
		Company:     company,
		FormType:    "test",
		Source:      "api-test",
	})
	if err != nil {
		h.logger.Error("test notification failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to send test notification"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Test notification sent",
		"data":    result,
	})
}

type summarizeRequest struct {
	ThreadID         string `json:"threadId"`
	MaxLength        int    `json:"maxLength"`
	Language         string `json:"language"`
	IncludeKeyPoints bool   `json:"includeKeyPoints"`
}

// SummarizeConversation condenses a thread transcript on demand.
// POST /gpt/summarize-conversation
func (h *Handler) SummarizeConversation(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ThreadID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "threadId is required"})
	}

	summary, err := h.service.SummarizeConversation(c.Request().Context(), req.ThreadID, summarizer.Options{
		MaxLength:        req.MaxLength,
		Language:         req.Language,
		IncludeKeyPoints: req.IncludeKeyPoints,
	})
	if err != nil {
		h.logger.Error("summarization failed", "thread_id", req.ThreadID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to summarize conversation"})
	}

	return c.JSON(http.StatusOK, summary)
}
