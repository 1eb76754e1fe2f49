// Package workingset implements the volatile, per-agent short-term memory
// tier: a capped buffer of recent messages shared behind a RWMutex.
package workingset

import (
	"sync"

	"sentinel/internal/core"
)

const (
	// DefaultMaxMessages is the default cap on buffered message count.
	DefaultMaxMessages = 1000
	// DefaultMaxTokens is the default cap on buffered approximate tokens.
	DefaultMaxTokens = 100_000
	// DefaultConsolidationThreshold is the approximate token count at
	// which the dreamer should consider this working set for
	// short-to-medium consolidation.
	DefaultConsolidationThreshold = 50_000
	// nearCapacityRatio is the fraction of a cap above which IsNearCapacity
	// reports true.
	nearCapacityRatio = 0.9
)

// WorkingSet is one agent's volatile short-term memory buffer. All
// capacity accounting uses core.ApproxTokens, so callers must use the
// same approximation everywhere they reason about budget.
type WorkingSet struct {
	maxMessages             int
	maxTokens               uint64
	consolidationThreshold  uint64
	messages                []core.CanonicalMessage
	tokenCount              uint64
}

// New constructs a WorkingSet with the default caps.
func New() *WorkingSet {
	return NewWithLimits(DefaultMaxMessages, DefaultMaxTokens, DefaultConsolidationThreshold)
}

// NewWithLimits constructs a WorkingSet with explicit caps.
func NewWithLimits(maxMessages int, maxTokens, consolidationThreshold uint64) *WorkingSet {
	return &WorkingSet{
		maxMessages:            maxMessages,
		maxTokens:              maxTokens,
		consolidationThreshold: consolidationThreshold,
	}
}

// ErrMessageCountExceeded is returned by AppendMessage when adding the
// message would exceed the message-count cap.
type ErrMessageCountExceeded struct{ Limit int }

func (e *ErrMessageCountExceeded) Error() string {
	return "working set message count limit exceeded"
}

// ErrTokenCountExceeded is returned by AppendMessage when adding the
// message would exceed the token cap.
type ErrTokenCountExceeded struct{ Limit uint64 }

func (e *ErrTokenCountExceeded) Error() string {
	return "working set token count limit exceeded"
}

// AppendMessage adds msg to the buffer, enforcing both caps. On either cap
// being exceeded, the buffer is left completely unmutated — callers can
// treat a returned error as "nothing happened."
func (w *WorkingSet) AppendMessage(msg core.CanonicalMessage) error {
	if len(w.messages)+1 > w.maxMessages {
		return &ErrMessageCountExceeded{Limit: w.maxMessages}
	}
	tokens := core.ApproxTokens(msg.Content)
	if w.tokenCount+tokens > w.maxTokens {
		return &ErrTokenCountExceeded{Limit: w.maxTokens}
	}
	w.messages = append(w.messages, msg)
	w.tokenCount += tokens
	return nil
}

// GetMessages returns a copy of every buffered message, oldest first.
func (w *WorkingSet) GetMessages() []core.CanonicalMessage {
	out := make([]core.CanonicalMessage, len(w.messages))
	copy(out, w.messages)
	return out
}

// GetRecentMessages returns a copy of the last n messages (fewer if the
// buffer holds less than n).
func (w *WorkingSet) GetRecentMessages(n int) []core.CanonicalMessage {
	if n < 0 {
		n = 0
	}
	start := len(w.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]core.CanonicalMessage, len(w.messages)-start)
	copy(out, w.messages[start:])
	return out
}

// Clear empties the buffer and resets the token count, returning the
// messages it held immediately beforehand. This is the atomic
// snapshot-then-clear operation the dreamer uses to drain a working set
// without losing messages appended concurrently with the drain... in
// practice the caller is expected to hold the owning RWMutex's write lock
// across this call, which is what Shared.Drain does.
func (w *WorkingSet) Clear() []core.CanonicalMessage {
	drained := w.messages
	w.messages = nil
	w.tokenCount = 0
	return drained
}

// MessageCount returns the number of buffered messages.
func (w *WorkingSet) MessageCount() int { return len(w.messages) }

// TokenCount returns the approximate token count of the buffered messages.
func (w *WorkingSet) TokenCount() uint64 { return w.tokenCount }

// ShouldConsolidate reports whether the buffer has crossed its
// consolidation threshold.
func (w *WorkingSet) ShouldConsolidate() bool {
	return w.tokenCount >= w.consolidationThreshold
}

// ConsolidationThreshold returns the configured threshold.
func (w *WorkingSet) ConsolidationThreshold() uint64 { return w.consolidationThreshold }

// IsNearCapacity reports whether either cap is above 90% utilization.
func (w *WorkingSet) IsNearCapacity() bool {
	if float64(len(w.messages)) > float64(w.maxMessages)*nearCapacityRatio {
		return true
	}
	if float64(w.tokenCount) > float64(w.maxTokens)*nearCapacityRatio {
		return true
	}
	return false
}

// Shared wraps a WorkingSet behind a RWMutex so it can be safely shared
// between an agent's own goroutine and the dreamer's background loop.
type Shared struct {
	mu sync.RWMutex
	ws *WorkingSet
}

// NewShared constructs a Shared with the default caps.
func NewShared() *Shared {
	return &Shared{ws: New()}
}

// Append locks for writing and appends msg.
func (s *Shared) Append(msg core.CanonicalMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.AppendMessage(msg)
}

// Snapshot locks for reading and returns a copy of every buffered message.
func (s *Shared) Snapshot() []core.CanonicalMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.GetMessages()
}

// ShouldConsolidate locks for reading and evaluates the threshold.
func (s *Shared) ShouldConsolidate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.ShouldConsolidate()
}

// TokenCount locks for reading and returns the current token count.
func (s *Shared) TokenCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.TokenCount()
}

// MessageCount locks for reading and returns the current message count.
func (s *Shared) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws.MessageCount()
}

// Drain locks for writing and atomically snapshots-then-clears the
// buffer, returning the messages it held. If the buffer is empty, it
// returns nil so callers can skip consolidation work cheaply.
func (s *Shared) Drain() []core.CanonicalMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ws.MessageCount() == 0 {
		return nil
	}
	return s.ws.Clear()
}
