package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latambot/orchestrator/internal/domain"
)

func TestSSESinkWritesFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := newSSESink(rec)
	assert.NoError(t, err)

	assert.NoError(t, sink.Send(domain.StreamingEvent("hola")))
	assert.NoError(t, sink.Send(domain.DoneEvent(4)))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.True(t, rec.Flushed)

	frames := decodeFrames(t, rec.Body.String())
	assert.Len(t, frames, 2)
	assert.Equal(t, "streaming", frames[0].Status)
	assert.Equal(t, "hola", frames[0].Content)
	assert.Equal(t, "done", frames[1].Status)
}

func TestSSESinkClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := newSSESink(rec)
	assert.NoError(t, err)

	assert.False(t, sink.Closed())
	assert.NoError(t, sink.Close())
	assert.True(t, sink.Closed())

	err = sink.Send(domain.StreamingEvent("late"))
	assert.ErrorIs(t, err, domain.ErrSinkClosed)
	assert.NotContains(t, rec.Body.String(), "late")
}
