// Package summarizer produces plain-language conversation summaries using
// the Chat Completions API.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/latambot/orchestrator/internal/domain"
)

// Options tune one summarization request.
type Options struct {
	MaxLength        int    // approximate word budget, default 300
	Language         string // "es" or "en", default "es"
	IncludeKeyPoints bool
}

// Summary is the result of one summarization request.
type Summary struct {
	Summary        string    `json:"summary"`
	WordCount      int       `json:"wordCount"`
	OriginalLength int       `json:"originalLength"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
}

// Summarizer wraps the Chat Completions API for conversation summaries.
type Summarizer struct {
	client openai.Client
	model  string
}

// New creates a summarizer with the given API key and model.
func New(apiKey, model string) *Summarizer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &Summarizer{client: client, model: model}
}

// Summarize condenses a transcript into a short summary in the requested
// language.
func (s *Summarizer) Summarize(ctx context.Context, messages []domain.ConversationMessage, opts Options) (*Summary, error) {
	if opts.MaxLength <= 0 {
		opts.MaxLength = 300
	}
	if opts.Language == "" {
		opts.Language = "es"
	}

	text := TranscriptText(messages)
	return s.SummarizeText(ctx, text, opts)
}

// SummarizeText condenses an already-flattened transcript.
func (s *Summarizer) SummarizeText(ctx context.Context, conversation string, opts Options) (*Summary, error) {
	if opts.MaxLength <= 0 {
		opts.MaxLength = 300
	}
	if opts.Language == "" {
		opts.Language = "es"
	}

	maxTokens := int64(opts.MaxLength * 2)
	if maxTokens < 500 {
		maxTokens = 500
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(opts)),
			openai.UserMessage(userPrompt(conversation, opts)),
		},
		Model:               s.model,
		Temperature:         openai.Float(0.3),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("summarization request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("summarization returned no choices")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	return &Summary{
		Summary:        summary,
		WordCount:      len(strings.Fields(summary)),
		OriginalLength: len(conversation),
		Language:       opts.Language,
		Timestamp:      time.Now(),
	}, nil
}

// TranscriptText flattens a transcript into the Usuario/Asistente text form
// the prompts expect.
func TranscriptText(messages []domain.ConversationMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		role := "Asistente"
		if m.Role == "user" {
			role = "Usuario"
		}
		lines = append(lines, role+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}

func systemPrompt(opts Options) string {
	if opts.Language == "en" {
		p := "You are an expert assistant at summarizing conversations in a clear and friendly way for non-technical users. " +
			"Use simple language, avoid technical terms, highlight the main topics discussed, and include important conclusions or decisions. " +
			"Keep the summary concise but informative."
		if opts.IncludeKeyPoints {
			p += " At the end, include a \"Key Points\" section with the most important aspects."
		}
		return p
	}
	p := "Eres un asistente experto en resumir conversaciones de manera clara y amigable para usuarios no técnicos. " +
		"Usa un lenguaje sencillo, evita términos técnicos, resalta los temas principales discutidos e incluye las conclusiones o decisiones importantes. " +
		"Mantén el resumen conciso pero informativo."
	if opts.IncludeKeyPoints {
		p += " Al final, incluye una sección \"Puntos Clave\" con los aspectos más importantes."
	}
	return p
}

func userPrompt(conversation string, opts Options) string {
	if opts.Language == "en" {
		return fmt.Sprintf("Please summarize the following conversation in approximately %d words:\n\n%s", opts.MaxLength, conversation)
	}
	return fmt.Sprintf("Por favor, resume la siguiente conversación en aproximadamente %d palabras:\n\n%s", opts.MaxLength, conversation)
}
