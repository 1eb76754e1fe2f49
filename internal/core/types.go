// Package core holds the domain types and errors shared by every other
// package in this module: message/agent identity, the agent state machine's
// vocabulary, the canonical message contract, and the wire shapes exposed by
// the gateway. Nothing here performs I/O.
package core

import "time"

// Role identifies who produced a CanonicalMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AgentState is a node in the agent actor's state machine.
type AgentState string

const (
	StateIdle       AgentState = "idle"
	StateThinking   AgentState = "thinking"
	StateToolCall   AgentState = "tool_call"
	StateReflecting AgentState = "reflecting"
)

// CanonicalMessage is the immutable wire contract for all message
// communication in and out of an agent.
type CanonicalMessage struct {
	ID        MessageId         `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewCanonicalMessage creates a message timestamped at call time.
func NewCanonicalMessage(role Role, content string) CanonicalMessage {
	return CanonicalMessage{
		ID:        NewMessageId(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewCanonicalMessageAt creates a message with an explicit timestamp, for
// replay and testing.
func NewCanonicalMessageAt(role Role, content string, ts time.Time) CanonicalMessage {
	return CanonicalMessage{
		ID:        NewMessageId(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
}

// NewCanonicalMessageWithMetadata creates a message carrying metadata.
func NewCanonicalMessageWithMetadata(role Role, content string, metadata map[string]string) CanonicalMessage {
	return CanonicalMessage{
		ID:        NewMessageId(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// HealthState is the liveness/readiness vocabulary reported by /health.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthReady     HealthState = "ready"
	HealthAlive     HealthState = "alive"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status    HealthState `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// TokenUsage reports the approximate token accounting for a completion.
type TokenUsage struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
}

// ChatCompletionRequest is the body of POST /v1/chat/completions.
type ChatCompletionRequest struct {
	AgentID     *AgentId           `json:"agent_id,omitempty"`
	Messages    []CanonicalMessage `json:"messages"`
	Model       string             `json:"model,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	MaxTokens   *uint32            `json:"max_tokens,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

// ChatCompletionResponse is the body of a successful chat completion.
type ChatCompletionResponse struct {
	Message CanonicalMessage `json:"message"`
	Model   string           `json:"model"`
	Usage   *TokenUsage      `json:"usage,omitempty"`
}

// AgentStatus summarizes one agent's lifecycle state, as reported by
// GET /v1/agents/status.
type AgentStatus struct {
	ID                AgentId    `json:"id"`
	State             AgentState `json:"state"`
	LastActivity      time.Time  `json:"last_activity"`
	MessagesProcessed uint64     `json:"messages_processed"`
}

// ErrorBody is the inner payload of an ErrorResponse.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Type    string            `json:"type"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse is the gateway's JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
