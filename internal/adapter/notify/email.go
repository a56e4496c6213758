package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/latambot/orchestrator/internal/phone"
)

// EmailPayload carries the appointment details rendered into the admin
// notification email.
type EmailPayload struct {
	Name          string
	Company       string
	Phone         phone.Record
	OriginalPhone string
}

// EmailClient sends transactional email through a Mailgun-compatible API.
type EmailClient struct {
	baseURL    string
	apiKey     string
	domain     string
	adminEmail string
	httpClient *http.Client
}

// NewEmailClient creates a new email client.
func NewEmailClient(baseURL, apiKey, domain, adminEmail string) *EmailClient {
	return &EmailClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		domain:     domain,
		adminEmail: adminEmail,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether delivery credentials are present.
func (c *EmailClient) Configured() bool {
	return c.apiKey != "" && c.domain != ""
}

// Send delivers one appointment notification to the admin address. The
// optional summary is appended as a conversation summary section.
func (c *EmailClient) Send(ctx context.Context, payload EmailPayload, summary string) error {
	if !c.Configured() {
		return fmt.Errorf("email credentials not configured")
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("ChatBot Notifications <noreply@%s>", c.domain))
	form.Set("to", c.adminEmail)
	form.Set("subject", subject(payload))
	form.Set("text", textBody(payload, summary))

	endpoint := fmt.Sprintf("%s/v3/%s/messages", c.baseURL, c.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email api status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// IntakeNotification carries one client intake submission rendered into the
// admin notification email.
type IntakeNotification struct {
	SubmissionID string
	ClientName   string
	ClientEmail  string
	ClientPhone  string
	Subject      string
	Message      string
	Summary      string
	Company      string
	FormType     string
	Source       string
}

// SendIntake delivers one intake notification to each recipient. Delivery is
// attempted for every address even when an earlier one fails.
func (c *EmailClient) SendIntake(ctx context.Context, recipients []string, n IntakeNotification) error {
	if !c.Configured() {
		return fmt.Errorf("email credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/v3/%s/messages", c.baseURL, c.domain)
	var firstErr error
	for _, to := range recipients {
		form := url.Values{}
		form.Set("from", fmt.Sprintf("ChatBot Notifications <noreply@%s>", c.domain))
		form.Set("to", to)
		form.Set("subject", intakeSubject(n))
		form.Set("text", intakeTextBody(n))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create email request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth("api", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to send email to %s: %w", to, err)
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			respBody, _ := io.ReadAll(resp.Body)
			if firstErr == nil {
				firstErr = fmt.Errorf("email api status %d for %s: %s", resp.StatusCode, to, string(respBody))
			}
		}
		resp.Body.Close()
	}
	return firstErr
}

func intakeSubject(n IntakeNotification) string {
	subject := "New Client Intake"
	if n.FormType != "" {
		subject += " - " + strings.ToUpper(n.FormType)
	}
	if n.Company != "" {
		subject += " - " + n.Company
	}
	return subject
}

func intakeTextBody(n IntakeNotification) string {
	orNotProvided := func(v string) string {
		if v == "" {
			return "Not provided"
		}
		return v
	}

	var b strings.Builder
	b.WriteString("New Client Intake Submission\n\n")
	fmt.Fprintf(&b, "Submission ID: %s\n", n.SubmissionID)
	fmt.Fprintf(&b, "Client Name: %s\n", orNotProvided(n.ClientName))
	fmt.Fprintf(&b, "Email: %s\n", orNotProvided(n.ClientEmail))
	fmt.Fprintf(&b, "Phone: %s\n", orNotProvided(n.ClientPhone))
	fmt.Fprintf(&b, "Company: %s\n", orNotProvided(n.Company))
	fmt.Fprintf(&b, "Source: %s\n", orNotProvided(n.Source))
	if n.Subject != "" {
		fmt.Fprintf(&b, "\nSubject: %s\n", n.Subject)
	}
	if n.Message != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", n.Message)
	}
	if n.Summary != "" {
		b.WriteString("\nConversation Summary:\n")
		b.WriteString(n.Summary)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease follow up with the client.\n")
	return b.String()
}

func subject(p EmailPayload) string {
	company := p.Company
	if company == "" {
		company = "ChatBot"
	}
	return "New Client Appointment Request - " + company
}

func textBody(p EmailPayload, summary string) string {
	name := p.Name
	if name == "" {
		name = "Not provided"
	}
	company := p.Company
	if company == "" {
		company = "Not specified"
	}
	valid := "No"
	if p.Phone.IsValid {
		valid = "Yes"
	}

	var b strings.Builder
	b.WriteString("New Appointment Request\n\n")
	fmt.Fprintf(&b, "Client Name: %s\n", name)
	fmt.Fprintf(&b, "Contact Phone: %s (%s)\n", p.Phone.Formatted, p.Phone.Country)
	fmt.Fprintf(&b, "Company: %s\n\n", company)
	b.WriteString("Phone Details:\n")
	fmt.Fprintf(&b, "- Original: %s\n", p.OriginalPhone)
	fmt.Fprintf(&b, "- Formatted: %s\n", p.Phone.Formatted)
	fmt.Fprintf(&b, "- Country: %s\n", p.Phone.Country)
	fmt.Fprintf(&b, "- Valid: %s\n", valid)
	if summary != "" {
		b.WriteString("\nConversation Summary:\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease contact the client to confirm appointment details.\n")
	return b.String()
}

func decodeJSON(r io.Reader, out any) {
	// Response bodies are informational only; a malformed body is not a
	// delivery failure.
	_ = json.NewDecoder(r).Decode(out)
}
