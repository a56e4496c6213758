// Package policy gates outbound notifications behind an OPA policy. The
// dispatcher consults it before firing side effects for a tool call; a block
// decision becomes a per-call data failure, never a session error.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Input is the document evaluated for one tool call.
type Input struct {
	Function     string `json:"function"`
	Company      string `json:"company"`
	PhoneCountry string `json:"phone_country"`
	PhoneValid   bool   `json:"phone_valid"`
}

// Engine is the OPA notification policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.notify_policy.decision"),
		rego.Module("notify_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the notification policy for one tool call.
// Returns: decision ("allow" or "block"), error.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default decision.
		return "allow", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "allow", nil
}

// DefaultPolicy is the default notification policy content. Numbers that
// could not be attributed to any country are not worth an SMS attempt.
const DefaultPolicy = `
package notify_policy

default decision = "allow"

decision = "block" {
	input.phone_country == "unknown"
}
`
