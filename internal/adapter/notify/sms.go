// Package notify provides the outbound notification collaborators: short
// message delivery and transactional email. Only the delivery contract is
// owned here; failures are reported to the caller as data, never panics.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSResult reports the outcome of one short message delivery attempt.
type SMSResult struct {
	Delivered bool
	SID       string
	Err       string
}

// SMSClient delivers short messages through a Twilio-compatible API.
type SMSClient struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewSMSClient creates a new SMS client.
func NewSMSClient(baseURL, accountSID, authToken, fromNumber string) *SMSClient {
	return &SMSClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether delivery credentials are present.
func (c *SMSClient) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

// Send delivers one message to an internationally formatted number. Delivery
// failure is embedded in the result, not returned as an error.
func (c *SMSClient) Send(ctx context.Context, toFormatted, body string) SMSResult {
	if !c.Configured() {
		return SMSResult{Err: "sms credentials not configured"}
	}

	form := url.Values{}
	form.Set("To", toFormatted)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SMSResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return SMSResult{Err: fmt.Sprintf("sms api status %d: %s", resp.StatusCode, string(respBody))}
	}

	var created struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	decodeJSON(resp.Body, &created)
	return SMSResult{Delivered: true, SID: created.SID}
}
