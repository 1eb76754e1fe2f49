// Package llm defines the abstract LLM port and the chunked-streaming
// contract every concrete provider adapter implements.
package llm

import (
	"context"
	"iter"

	"sentinel/internal/core"
)

// Provider is the abstract LLM port. Production adapters (Anthropic,
// OpenAI, Gemini, Bedrock) and test doubles are interchangeable behind
// this interface.
type Provider interface {
	// Complete produces a single reply to the given conversation. It
	// fails with an InvalidMessageError if messages is empty.
	Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error)
	// Stream produces a lazy, finite, non-restartable sequence of
	// content chunks. A per-chunk error does not terminate the
	// sequence — later chunks may still arrive — but the caller
	// abandoning iteration (a `break`) must cancel any upstream work
	// via ctx.
	Stream(ctx context.Context, messages []core.CanonicalMessage) iter.Seq2[string, error]
}

// ValidateMessages is the shared empty-input guard every adapter's
// Complete implementation applies before calling out to a backend.
func ValidateMessages(messages []core.CanonicalMessage) error {
	if len(messages) == 0 {
		return &core.InvalidMessageError{Reason: "messages must not be empty"}
	}
	return nil
}

// renderPrompt flattens a conversation into a plain "role: content"
// transcript, one line per message, for a backend that only accepts a
// single free-text prompt. None of the adapters in this module call it:
// each one translates messages into its provider's own multi-role wire
// format.
func renderPrompt(messages []core.CanonicalMessage) string {
	out := ""
	for _, m := range messages {
		out += string(m.Role) + ": " + m.Content + "\n"
	}
	return out
}
