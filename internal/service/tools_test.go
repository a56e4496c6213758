package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/notify"
	"github.com/latambot/orchestrator/internal/domain"
	"github.com/latambot/orchestrator/policy"
)

func call(id, function, args string) domain.ToolCallRequest {
	return domain.ToolCallRequest{ID: id, Function: function, Arguments: json.RawMessage(args)}
}

func testSession() *domain.Session {
	return &domain.Session{SessionID: "sess_t", ThreadID: "thread_test", Company: "default"}
}

func TestDispatchReturnsOneResultPerCall(t *testing.T) {
	svc, _, _ := newTestService(&fakeAssistant{})
	calls := []domain.ToolCallRequest{
		call("call_1", "book_appointment", `{"name":"Ana","client_phone":"987654321"}`),
		call("call_2", "book_appointment", `not json`),
		call("call_3", "lookup_prices", `{}`),
	}

	results := svc.dispatchToolCalls(context.Background(), testSession(), config.GetCompany(""), calls)

	assert.Len(t, results, len(calls))
	for i, res := range results {
		assert.Equal(t, calls[i].ID, res.ToolCallID)
	}

	var bad domain.ToolOutput
	assert.NoError(t, json.Unmarshal([]byte(results[1].Output), &bad))
	assert.False(t, bad.Success)
	assert.Equal(t, "invalid arguments", bad.Error)

	var generic domain.ToolOutput
	assert.NoError(t, json.Unmarshal([]byte(results[2].Output), &generic))
	assert.True(t, generic.Success)
	assert.Equal(t, "Function lookup_prices executed", generic.Message)
}

func TestDispatchPhoneAliases(t *testing.T) {
	tests := []struct {
		name string
		args string
		to   string
	}{
		{"client_phone", `{"client_phone":"987654321"}`, "+51987654321"},
		{"phone", `{"phone":"5551234567"}`, "+15551234567"},
		{"phoneNumber", `{"phoneNumber":"+34612345678"}`, "+34612345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sms, _ := newTestService(&fakeAssistant{})
			svc.dispatchToolCalls(context.Background(), testSession(), config.GetCompany(""),
				[]domain.ToolCallRequest{call("call_1", "send_confirmation_sms", tt.args)})
			assert.Len(t, sms.calls, 1)
			assert.Equal(t, tt.to, sms.calls[0].to)
		})
	}
}

func TestDispatchAppointmentOutput(t *testing.T) {
	svc, sms, email := newTestService(&fakeAssistant{})
	sms.result = notify.SMSResult{Delivered: true, SID: "SM1"}

	results := svc.dispatchToolCalls(context.Background(), testSession(), config.GetCompany(""),
		[]domain.ToolCallRequest{call("call_1", "schedule_appointment", `{"name":"Luis","phone":"51987654321"}`)})

	var out domain.ToolOutput
	assert.NoError(t, json.Unmarshal([]byte(results[0].Output), &out))
	assert.True(t, out.Success)
	assert.True(t, out.SMSDelivered)
	assert.True(t, out.EmailSent)
	assert.Equal(t, "+51987654321", out.PhoneFormatted)
	assert.Equal(t, "Peru", out.PhoneCountry)
	assert.True(t, out.PhoneValid)
	assert.Equal(t, "51987654321", out.OriginalPhone)
	assert.Equal(t, "Appointment request processed successfully", out.Message)

	assert.Len(t, email.payloads, 1)
	assert.Equal(t, "Luis", email.payloads[0].Name)
	assert.Equal(t, "51987654321", email.payloads[0].OriginalPhone)
}

func TestDispatchSMSFailureReported(t *testing.T) {
	svc, sms, _ := newTestService(&fakeAssistant{})
	sms.result = notify.SMSResult{Err: "twilio 400"}

	results := svc.dispatchToolCalls(context.Background(), testSession(), config.GetCompany(""),
		[]domain.ToolCallRequest{call("call_1", "book_appointment", `{"phone":"987654321"}`)})

	var out domain.ToolOutput
	assert.NoError(t, json.Unmarshal([]byte(results[0].Output), &out))
	assert.False(t, out.Success)
	assert.False(t, out.SMSDelivered)
	assert.Equal(t, "SMS failed: twilio 400", out.Message)
}

func TestDispatchPolicyBlocksNotifications(t *testing.T) {
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	assert.NoError(t, err)

	fa := &fakeAssistant{}
	sms := &fakeSMS{result: notify.SMSResult{Delivered: true}}
	email := &fakeEmail{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(nil, fa, sms, email, nil, nil, engine, testConfig(), logger)

	// "12345" normalizes to the unknown country, which the default policy
	// blocks.
	results := svc.dispatchToolCalls(context.Background(), testSession(), config.GetCompany(""),
		[]domain.ToolCallRequest{call("call_1", "book_appointment", `{"phone":"12345"}`)})

	assert.Empty(t, sms.calls)
	assert.Empty(t, email.payloads)

	var out domain.ToolOutput
	assert.NoError(t, json.Unmarshal([]byte(results[0].Output), &out))
	assert.True(t, out.Success)
	assert.False(t, out.SMSDelivered)
	assert.Equal(t, "unknown", out.PhoneCountry)
}

func TestSMSBodyLocalization(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"Peru", "Nos pondremos en contacto contigo pronto"},
		{"Mexico", "Te contactaremos pronto"},
		{"Spain", "Te contactaremos en breve"},
		{"USA/Canada", "We will get in touch with you soon"},
		{"unknown", "We will get in touch with you soon"},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Contains(t, smsBody("Ana", tt.country), tt.want)
		})
	}
}

func TestSMSBodyNameFallback(t *testing.T) {
	assert.Contains(t, smsBody("", "USA/Canada"), "valued customer")
	assert.Contains(t, smsBody("", "Peru"), "valued customer")
}
