package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latambot/orchestrator/internal/domain"
)

func TestTranscriptText(t *testing.T) {
	messages := []domain.ConversationMessage{
		{Role: "user", Content: "Hola, quiero una cita"},
		{Role: "assistant", Content: "Claro, ¿cuál es tu teléfono?"},
		{Role: "user", Content: "987654321"},
	}

	text := TranscriptText(messages)
	assert.Equal(t, "Usuario: Hola, quiero una cita\n\nAsistente: Claro, ¿cuál es tu teléfono?\n\nUsuario: 987654321", text)
}

func TestTranscriptTextEmpty(t *testing.T) {
	assert.Equal(t, "", TranscriptText(nil))
}

func TestSystemPromptLanguage(t *testing.T) {
	es := systemPrompt(Options{Language: "es"})
	assert.Contains(t, es, "resumir conversaciones")
	assert.NotContains(t, es, "Puntos Clave")

	esKeyPoints := systemPrompt(Options{Language: "es", IncludeKeyPoints: true})
	assert.Contains(t, esKeyPoints, "Puntos Clave")

	en := systemPrompt(Options{Language: "en", IncludeKeyPoints: true})
	assert.Contains(t, en, "summarizing conversations")
	assert.Contains(t, en, "Key Points")
}

func TestUserPromptIncludesBudgetAndTranscript(t *testing.T) {
	p := userPrompt("Usuario: hola", Options{Language: "es", MaxLength: 150})
	assert.Contains(t, p, "150 palabras")
	assert.Contains(t, p, "Usuario: hola")

	p = userPrompt("User: hi", Options{Language: "en", MaxLength: 80})
	assert.Contains(t, p, "80 words")
}
