package service

import (
	"context"
	"encoding/json"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/notify"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/domain"
	"github.com/latambot/orchestrator/internal/phone"
	"github.com/latambot/orchestrator/policy"
)

// appointmentFunctions name the tool calls that trigger notification side
// effects. Anything else gets a generic acknowledgment.
var appointmentFunctions = map[string]bool{
	"send_confirmation_sms": true,
	"book_appointment":      true,
	"schedule_appointment":  true,
}

// appointmentArgs is the argument payload of an appointment tool call. The
// phone number arrives under one of several aliases depending on how the
// assistant was configured.
type appointmentArgs struct {
	Name        string `json:"name"`
	ClientPhone string `json:"client_phone"`
	Phone       string `json:"phone"`
	PhoneNumber string `json:"phoneNumber"`
	CompanyName string `json:"company_name"`
}

func (a appointmentArgs) phoneField() string {
	switch {
	case a.ClientPhone != "":
		return a.ClientPhone
	case a.Phone != "":
		return a.Phone
	default:
		return a.PhoneNumber
	}
}

// dispatchToolCalls executes a pending batch sequentially and returns exactly
// one result per call, in order. Per-call failures become failure results;
// they never abort the batch.
func (s *Service) dispatchToolCalls(ctx context.Context, sess *domain.Session, company config.CompanyConfig, calls []domain.ToolCallRequest) []domain.ToolCallResult {
	results := make([]domain.ToolCallResult, 0, len(calls))
	for _, call := range calls {
		output := s.executeToolCall(ctx, sess, company, call)
		results = append(results, domain.ToolCallResult{
			ToolCallID: call.ID,
			Output:     output.Marshal(),
		})
	}
	return results
}

func (s *Service) executeToolCall(ctx context.Context, sess *domain.Session, company config.CompanyConfig, call domain.ToolCallRequest) domain.ToolOutput {
	log := s.logger.With("tool_call_id", call.ID, "function", call.Function)

	if !appointmentFunctions[call.Function] {
		log.Info("acknowledging unrecognized tool function")
		return domain.ToolOutput{Success: true, Message: "Function " + call.Function + " executed"}
	}

	var args appointmentArgs
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		log.Error("failed to parse tool call arguments", "error", err)
		return domain.ToolOutput{Success: false, Error: "invalid arguments"}
	}

	raw := args.phoneField()
	if raw == "" {
		log.Warn("tool call has no phone number field")
		return domain.ToolOutput{Success: false, Error: "no phone number provided"}
	}

	rec := phone.Normalize(raw)
	if !rec.IsValid {
		log.Warn("phone did not validate", "original", raw, "formatted", rec.Formatted, "country", rec.Country)
	}

	if !s.notificationAllowed(ctx, call.Function, sess.Company, rec) {
		log.Info("notifications blocked by policy", "country", rec.Country)
		return domain.ToolOutput{
			Success:        true,
			PhoneFormatted: rec.Formatted,
			PhoneCountry:   rec.Country,
			PhoneValid:     rec.IsValid,
			OriginalPhone:  raw,
			Message:        "Appointment request recorded",
		}
	}

	smsResult := s.sms.Send(ctx, rec.Formatted, smsBody(args.Name, rec.Country))
	if smsResult.Delivered {
		log.Info("sms delivered", "sid", smsResult.SID, "to", rec.Formatted, "country", rec.Country)
	} else {
		log.Warn("sms delivery failed", "to", rec.Formatted, "error", smsResult.Err)
	}

	emailSent := false
	payload := notify.EmailPayload{
		Name:          args.Name,
		Company:       companyName(args, company),
		Phone:         rec,
		OriginalPhone: raw,
	}
	if err := s.email.Send(ctx, payload, s.bestEffortSummary(ctx, sess.ThreadID)); err != nil {
		log.Warn("email delivery failed", "error", err)
	} else {
		emailSent = true
	}

	out := domain.ToolOutput{
		Success:        smsResult.Delivered,
		SMSDelivered:   smsResult.Delivered,
		EmailSent:      emailSent,
		PhoneFormatted: rec.Formatted,
		PhoneCountry:   rec.Country,
		PhoneValid:     rec.IsValid,
		OriginalPhone:  raw,
	}
	if smsResult.Delivered {
		out.Message = "Appointment request processed successfully"
	} else {
		out.Message = "SMS failed: " + smsResult.Err
	}
	return out
}

// notificationAllowed asks the policy engine whether side effects may fire
// for this call. A missing engine or an evaluation error fails open so a
// policy outage never silently drops appointment notifications.
func (s *Service) notificationAllowed(ctx context.Context, function, company string, rec phone.Record) bool {
	if s.policy == nil {
		return true
	}
	decision, err := s.policy.Evaluate(ctx, policy.Input{
		Function:     function,
		Company:      company,
		PhoneCountry: rec.Country,
		PhoneValid:   rec.IsValid,
	})
	if err != nil {
		s.logger.Error("policy evaluation failed", "error", err)
		return true
	}
	return decision != "block"
}

// smsBody builds the confirmation message, localized by detected country.
func smsBody(name, country string) string {
	if name == "" {
		name = "valued customer"
	}
	base := name + "! Gracias por usar nuestro ChatBot."
	switch country {
	case "Peru":
		return "¡Hola " + base + " Nos pondremos en contacto contigo pronto."
	case "Mexico":
		return "¡Hola " + base + " Te contactaremos pronto."
	case "Spain":
		return "¡Hola " + base + " Te contactaremos en breve."
	default:
		return "Hello " + name + "! Thank you for using our ChatBot. We will get in touch with you soon."
	}
}

func companyName(args appointmentArgs, company config.CompanyConfig) string {
	if args.CompanyName != "" {
		return args.CompanyName
	}
	return company.Name
}

// bestEffortSummary condenses the thread transcript for the admin email.
// Any failure degrades to a placeholder so notification delivery never
// depends on the summarizer.
func (s *Service) bestEffortSummary(ctx context.Context, threadID string) string {
	if s.summarizer == nil || threadID == "" {
		return ""
	}
	messages, err := s.conversationMessages(ctx, threadID, 20)
	if err != nil || len(messages) == 0 {
		if err != nil {
			s.logger.Warn("failed to fetch transcript for summary", "thread_id", threadID, "error", err)
		}
		return "Summary unavailable"
	}
	sum, err := s.summarizer.Summarize(ctx, messages, summarizer.Options{MaxLength: 150, Language: "es"})
	if err != nil {
		s.logger.Warn("summarization failed", "thread_id", threadID, "error", err)
		return "Summary unavailable"
	}
	return sum.Summary
}

// conversationMessages fetches the thread transcript in chronological order.
func (s *Service) conversationMessages(ctx context.Context, threadID string, limit int) ([]domain.ConversationMessage, error) {
	raw, err := s.assistant.ListMessages(ctx, threadID, limit)
	if err != nil {
		return nil, err
	}
	messages := make([]domain.ConversationMessage, 0, len(raw))
	// The upstream API lists newest first; reverse into reading order.
	for i := len(raw) - 1; i >= 0; i-- {
		messages = append(messages, domain.ConversationMessage{
			Role:    raw[i].Role,
			Content: raw[i].Text(),
		})
	}
	return messages, nil
}
