// Package assistant provides the HTTP client for the upstream assistant API:
// thread and message management, run execution with SSE streaming, and tool
// output submission.
package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/latambot/orchestrator/internal/domain"
)

// EventHandler is called for each upstream event observed on a run stream.
// Returning an error aborts the stream.
type EventHandler func(event domain.UpstreamEvent) error

// Stream is an open upstream event stream. Opening the stream and consuming
// it are separate steps so callers can observe transport-level acceptance
// before the first event arrives.
type Stream interface {
	// Each feeds every remaining event to the handler until the stream
	// ends or the handler returns an error. The stream is closed when
	// Each returns.
	Each(handler EventHandler) error
	Close() error
}

// RunParams configure a new run on a thread.
type RunParams struct {
	AssistantID  string `json:"assistant_id"`
	Model        string `json:"model,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Run is the upstream run object, reduced to the fields the orchestrator
// reads.
type Run struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	Status         string          `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

// RequiredAction carries the tool calls a paused run is waiting on.
type RequiredAction struct {
	Type              string `json:"type"`
	SubmitToolOutputs struct {
		ToolCalls []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Function struct {
				Name string `json:"name"`
				// Arguments arrive as a JSON-encoded string per the
				// upstream wire format.
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"submit_tool_outputs"`
}

// RunError is the upstream failure detail attached to a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ThreadMessage is one message on a thread as returned by the list endpoint.
type ThreadMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// Text joins the message's text content parts.
func (m ThreadMessage) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Type == "text" {
			b.WriteString(c.Text.Value)
		}
	}
	return b.String()
}

// Client is an HTTP client for the upstream assistant API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new assistant client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for streaming
		},
	}
}

// CreateThread creates a new empty thread and returns its id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) error {
	body := map[string]string{"role": role, "content": content}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// CreateRun starts a non-streaming run on a thread.
func (c *Client) CreateRun(ctx context.Context, threadID string, params RunParams) (*Run, error) {
	var run Run
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/runs", params, &run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.doJSON(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &run); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListMessages returns the messages on a thread, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	path := fmt.Sprintf("/threads/%s/messages?limit=%d", threadID, limit)
	var list struct {
		Data []ThreadMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return list.Data, nil
}

// StreamRun starts a streaming run on a thread. An error here is a
// transport-level failure; events are consumed from the returned stream.
func (c *Client) StreamRun(ctx context.Context, threadID string, params RunParams) (Stream, error) {
	body := map[string]any{
		"assistant_id": params.AssistantID,
		"stream":       true,
	}
	if params.Model != "" {
		body["model"] = params.Model
	}
	if params.Instructions != "" {
		body["instructions"] = params.Instructions
	}
	return c.openStream(ctx, "/threads/"+threadID+"/runs", body)
}

// SubmitToolOutputs delivers a batch of tool results to a paused run. The
// returned stream carries the continuation events of the resumed run. A
// transport-level failure is returned as-is; the caller decides whether it
// is session-fatal.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, results []domain.ToolCallResult) (Stream, error) {
	body := map[string]any{
		"tool_outputs": results,
		"stream":       true,
	}
	path := "/threads/" + threadID + "/runs/" + runID + "/submit_tool_outputs"
	return c.openStream(ctx, path, body)
}

// openStream POSTs a body and hands back the SSE response as a Stream.
func (c *Client) openStream(ctx context.Context, path string, body any) (Stream, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return &sseStream{body: resp.Body}, nil
}

// sseStream adapts an SSE response body to the Stream interface.
type sseStream struct {
	body io.ReadCloser
}

func (s *sseStream) Each(handler EventHandler) error {
	defer s.body.Close()
	return parseSSE(s.body, handler)
}

func (s *sseStream) Close() error {
	return s.body.Close()
}

// parseSSE reads an SSE stream and calls the handler for each complete event.
func parseSSE(reader io.Reader, handler EventHandler) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName, data string
	flush := func() error {
		if eventName == "" && data == "" {
			return nil
		}
		defer func() { eventName, data = "", "" }()
		if data == "[DONE]" {
			return nil
		}
		return handler(domain.UpstreamEvent{
			Kind: domain.ParseUpstreamKind(eventName),
			Data: json.RawMessage(data),
		})
	}

	for scanner.Scan() {
		line := scanner.Text()

		// Empty line marks end of event
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			chunk := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data != "" {
				data += "\n" + chunk
			} else {
				data = chunk
			}
		}
		// Ignore comments (lines starting with :) and other fields
	}

	if err := flush(); err != nil {
		return err
	}
	return scanner.Err()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ParseRun decodes a run object from event data.
func ParseRun(data json.RawMessage) (*Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run event: %w", err)
	}
	return &run, nil
}

// messageDelta mirrors the wire shape of a thread.message.delta payload.
type messageDelta struct {
	Delta struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

// ParseDeltaText extracts the concatenated text fragments from a message
// delta payload.
func ParseDeltaText(data json.RawMessage) (string, error) {
	var delta messageDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		return "", fmt.Errorf("failed to parse delta event: %w", err)
	}
	var b strings.Builder
	for _, c := range delta.Delta.Content {
		if c.Type == "text" {
			b.WriteString(c.Text.Value)
		}
	}
	return b.String(), nil
}

// ToolCallRequests extracts the pending tool calls from a requires_action run
// payload.
func ToolCallRequests(run *Run) []domain.ToolCallRequest {
	if run == nil || run.RequiredAction == nil {
		return nil
	}
	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	reqs := make([]domain.ToolCallRequest, 0, len(calls))
	for _, call := range calls {
		reqs = append(reqs, domain.ToolCallRequest{
			ID:        call.ID,
			Function:  call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	return reqs
}
