// Package dreamer implements the background consolidation loop that walks
// memory down the tiers: working set -> summary store -> vector index.
package dreamer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/core"
	"sentinel/internal/embedding"
	"sentinel/internal/memory/summary"
	"sentinel/internal/memory/triggers"
	"sentinel/internal/memory/vector"
	"sentinel/internal/memory/workingset"
	"sentinel/internal/observability"
)

// Dreamer owns the lazily-created per-agent working sets and drives
// periodic consolidation of short-term memory into summaries, and
// summaries into vector embeddings.
type Dreamer struct {
	mu          sync.RWMutex
	workingSets map[core.AgentId]*workingset.Shared

	summaries *summary.Store
	vectors   vector.Store
	embedder  embedding.Embedder
	trigger   *triggers.Trigger
}

// New constructs a Dreamer over the given summary store, vector index,
// and embedder, using the default trigger configuration.
func New(summaries *summary.Store, vectors vector.Store, embedder embedding.Embedder) *Dreamer {
	return &Dreamer{
		workingSets: make(map[core.AgentId]*workingset.Shared),
		summaries:   summaries,
		vectors:     vectors,
		embedder:    embedder,
		trigger:     triggers.NewTrigger(triggers.DefaultConfig()),
	}
}

// WorkingSetFor returns the shared working set for id, creating it on
// first use.
func (d *Dreamer) WorkingSetFor(id core.AgentId) *workingset.Shared {
	d.mu.RLock()
	ws, ok := d.workingSets[id]
	d.mu.RUnlock()
	if ok {
		return ws
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ws, ok := d.workingSets[id]; ok {
		return ws
	}
	ws = workingset.NewShared()
	d.workingSets[id] = ws
	return ws
}

// knownAgents returns every agent id with a working set registered.
func (d *Dreamer) knownAgents() []core.AgentId {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]core.AgentId, 0, len(d.workingSets))
	for id := range d.workingSets {
		ids = append(ids, id)
	}
	return ids
}

// ConsolidateShortToMedium drains id's working set (if it has crossed its
// consolidation threshold) into a fresh summary. It is a no-op, returning
// false, if the working set holds no messages or hasn't crossed its
// threshold.
func (d *Dreamer) ConsolidateShortToMedium(ctx context.Context, id core.AgentId) (bool, error) {
	ws := d.WorkingSetFor(id)
	if _, should := d.trigger.ShouldConsolidateShort(ws.TokenCount(), ws.MessageCount()); !should {
		return false, nil
	}

	messages := ws.Drain()
	if len(messages) == 0 {
		return false, nil
	}

	sm := summary.Summary{
		AgentID:        id,
		ConversationID: uuid.NewString(),
		Content:        summary.GenerateSummary(messages),
		MessageCount:   len(messages),
	}
	if err := d.summaries.StoreSummary(ctx, sm); err != nil {
		return false, err
	}
	return true, nil
}

// ConsolidateMediumToLong promotes id's accumulated summaries into the
// vector index once their count crosses the medium-term threshold. Each
// promoted summary is embedded via the configured Embedder and upserted
// under a freshly minted MessageId, with its agent id and conversation id
// carried as metadata, then removed from the summary store — this
// is the step the reference implementation left unimplemented.
func (d *Dreamer) ConsolidateMediumToLong(ctx context.Context, id core.AgentId) (int, error) {
	list, err := d.summaries.ListSummaries(ctx, id)
	if err != nil {
		return 0, err
	}

	if _, should := d.trigger.ShouldConsolidateMedium(len(list)); !should {
		return 0, nil
	}

	promoted := 0
	for _, sm := range list {
		vec, err := d.embedder.Embed(ctx, sm.Content)
		if err != nil {
			return promoted, err
		}
		metadata := map[string]string{
			"agent_id":        id.String(),
			"conversation_id": sm.ConversationID,
		}
		if err := d.vectors.Upsert(ctx, core.NewMessageId(), vec, metadata); err != nil {
			return promoted, err
		}
		if err := d.summaries.DeleteSummary(ctx, id, sm.ConversationID); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

func (d *Dreamer) tick(ctx context.Context) {
	log := observability.LoggerWithTrace(ctx)
	for _, id := range d.knownAgents() {
		if consolidated, err := d.ConsolidateShortToMedium(ctx, id); err != nil {
			log.Error().Err(err).Str("agent_id", id.String()).Msg("short-to-medium consolidation failed")
		} else if consolidated {
			log.Info().Str("agent_id", id.String()).Msg("consolidated short-term memory to summary")
		}

		if promoted, err := d.ConsolidateMediumToLong(ctx, id); err != nil {
			log.Error().Err(err).Str("agent_id", id.String()).Msg("medium-to-long consolidation failed")
		} else if promoted > 0 {
			log.Info().Str("agent_id", id.String()).Int("promoted", promoted).Msg("promoted summaries to vectors")
		}
	}
}

// Run drives the periodic consolidation loop until ctx is canceled.
func (d *Dreamer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.trigger.Config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}
