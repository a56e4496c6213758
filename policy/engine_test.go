package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	engine, err := NewEngine(context.Background(), DefaultPolicy)
	assert.NoError(t, err)

	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{
			name:  "valid peru number allowed",
			input: Input{Function: "book_appointment", Company: "default", PhoneCountry: "Peru", PhoneValid: true},
			want:  "allow",
		},
		{
			name:  "assumed usa number allowed",
			input: Input{Function: "book_appointment", PhoneCountry: "USA (assumed)", PhoneValid: false},
			want:  "allow",
		},
		{
			name:  "unknown country blocked",
			input: Input{Function: "send_confirmation_sms", PhoneCountry: "unknown"},
			want:  "block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Evaluate(context.Background(), tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	const content = `
package notify_policy

default decision = "allow"

decision = "block" {
	input.company == "espanglish"
}
`
	engine, err := NewEngine(context.Background(), content)
	assert.NoError(t, err)

	decision, err := engine.Evaluate(context.Background(), Input{Company: "espanglish", PhoneCountry: "Peru"})
	assert.NoError(t, err)
	assert.Equal(t, "block", decision)

	decision, err = engine.Evaluate(context.Background(), Input{Company: "default", PhoneCountry: "Peru"})
	assert.NoError(t, err)
	assert.Equal(t, "allow", decision)
}

func TestInvalidPolicyRejected(t *testing.T) {
	_, err := NewEngine(context.Background(), "not rego at all {")
	assert.Error(t, err)
}
