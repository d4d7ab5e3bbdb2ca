// Package guardrails validates the text flowing through the chat pipeline:
// the user's input before generation and the model's answer after it. A
// validator combines a deterministic fast path with an optional
// model-backed check; the gate composes validators around the answer
// pipeline and short-circuits on the first rejection.
package guardrails

import "context"

// Outcome is the result of one validation.
type Outcome struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Accept returns a valid outcome.
func Accept() *Outcome {
	return &Outcome{Valid: true}
}

// Reject returns an invalid outcome with the given reason.
func Reject(reason string) *Outcome {
	return &Outcome{Valid: false, Reason: reason}
}

// Validator checks a piece of text, optionally against a reference (the
// relevance validator judges an answer against its query; the injection
// validator ignores the reference).
type Validator interface {
	Validate(ctx context.Context, text, reference string) (*Outcome, error)
	Name() string
}
