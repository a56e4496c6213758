package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish(t *testing.T) {
	var got ThreadRecord
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	record := ThreadRecord{
		ThreadID:  "thread_1",
		Message:   "Gracias por tu consulta.",
		Company:   "Default Company",
		Assistant: "Main Assistant",
	}
	assert.NoError(t, NewClient().Publish(context.Background(), server.URL, record))
	assert.Equal(t, record, got)
}

func TestPublishRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	err := NewClient().Publish(context.Background(), server.URL, ThreadRecord{ThreadID: "thread_1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
