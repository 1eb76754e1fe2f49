// Package summary implements the crash-durable medium-term memory tier:
// per-agent conversation summaries persisted to an embedded, file-backed
// SQLite database so they survive process restarts.
package summary

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sentinel/internal/core"
)

// Summary is one consolidated conversation summary for an agent.
type Summary struct {
	AgentID        core.AgentId
	ConversationID string
	Content        string
	MessageCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func storageKey(agentID core.AgentId, conversationID string) string {
	return fmt.Sprintf("%s:%s", agentID, conversationID)
}

// Store is a sqlite-backed, agent-keyed, prefix-scannable summary store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) a sqlite database at path and ensures
// its schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening summary store: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS summaries (
			storage_key     TEXT PRIMARY KEY,
			agent_id        TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			content         TEXT NOT NULL,
			message_count   INTEGER NOT NULL,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating summaries schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_summaries_agent ON summaries(agent_id)
	`)
	if err != nil {
		return fmt.Errorf("creating summaries index: %w", err)
	}
	return nil
}

// Path returns the filesystem path backing this store.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// StoreSummary inserts or replaces a summary, keyed by agent id and
// conversation id. Storing under an existing key is idempotent: it
// overwrites the prior content for that key rather than erroring.
func (s *Store) StoreSummary(ctx context.Context, sm Summary) error {
	key := storageKey(sm.AgentID, sm.ConversationID)
	now := time.Now().UTC()
	if sm.CreatedAt.IsZero() {
		sm.CreatedAt = now
	}
	sm.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (storage_key, agent_id, conversation_id, content, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			content = excluded.content,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at
	`, key, sm.AgentID.String(), sm.ConversationID, sm.Content, sm.MessageCount,
		sm.CreatedAt.Format(time.RFC3339Nano), sm.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing summary: %w", err)
	}
	return nil
}

// GetSummary retrieves a single summary by agent id and conversation id.
// It returns (Summary{}, false, nil) if no such summary exists.
func (s *Store) GetSummary(ctx context.Context, agentID core.AgentId, conversationID string) (Summary, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, conversation_id, content, message_count, created_at, updated_at
		FROM summaries WHERE storage_key = ?
	`, storageKey(agentID, conversationID))

	sm, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("getting summary: %w", err)
	}
	return sm, true, nil
}

// ListSummaries returns every summary stored for agentID, oldest first,
// via a lookup on the indexed agent_id column. A row that fails to parse (e.g. a corrupt
// timestamp) is skipped rather than failing the whole scan.
func (s *Store) ListSummaries(ctx context.Context, agentID core.AgentId) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, conversation_id, content, message_count, created_at, updated_at
		FROM summaries WHERE agent_id = ?
		ORDER BY created_at ASC
	`, agentID.String())
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sm, err := scanSummary(rows)
		if err != nil {
			continue
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// DeleteSummary removes a summary. Deleting a key that does not exist is
// a no-op, not an error.
func (s *Store) DeleteSummary(ctx context.Context, agentID core.AgentId, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE storage_key = ?`,
		storageKey(agentID, conversationID))
	if err != nil {
		return fmt.Errorf("deleting summary: %w", err)
	}
	return nil
}

// Flush is a no-op retained for parity with the embedded stores this one
// replaces: database/sql commits each statement immediately, so there is
// nothing to flush explicitly.
func (s *Store) Flush() error { return nil }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var (
		agentIDStr, convID, content, createdAt, updatedAt string
		messageCount                                      int
	)
	if err := row.Scan(&agentIDStr, &convID, &content, &messageCount, &createdAt, &updatedAt); err != nil {
		return Summary{}, err
	}
	agentID, err := core.ParseAgentId(agentIDStr)
	if err != nil {
		return Summary{}, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Summary{}, err
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		AgentID:        agentID,
		ConversationID: convID,
		Content:        content,
		MessageCount:   messageCount,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, nil
}

// GenerateSummary concatenates messages into a simple "role: content"
// transcript. This is explicitly sufficient as a summarization strategy:
// it can legally be replaced by an LLM-generated summary without changing
// any caller's contract.
func GenerateSummary(messages []core.CanonicalMessage) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
