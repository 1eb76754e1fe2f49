package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentinel/internal/core"
	"sentinel/internal/observability"
)

// DefaultHealthCheckInterval is how often the supervisor sweeps its agents
// for zombies when Run drives the sweep loop itself.
const DefaultHealthCheckInterval = 10 * time.Second

// DefaultZombieTimeout is how long an agent may go without activity before
// it is considered a zombie.
const DefaultZombieTimeout = 60 * time.Second

// terminateGrace is how long Terminate waits for an actor's Run loop to
// exit on its own before abandoning it with a warning.
const terminateGrace = 5 * time.Second

// AgentHandle is everything the supervisor needs to manage one running
// agent.
type AgentHandle struct {
	Actor *Actor
	Done  <-chan struct{}
}

// AgentHealth reports whether an agent is alive and how long it has been
// idle.
type AgentHealth struct {
	ID      core.AgentId
	Alive   bool
	IdleFor time.Duration
}

// Supervisor owns the AgentId -> AgentHandle map and drives spawn,
// terminate, restart, and zombie-detection lifecycle operations. All
// methods are safe for concurrent use.
type Supervisor struct {
	mu                  sync.Mutex
	agents              map[core.AgentId]*AgentHandle
	healthCheckInterval time.Duration
	zombieTimeout       time.Duration
	newProvider         func() LLMResponder
}

// NewSupervisor constructs a Supervisor. newProvider is called once per
// spawned/restarted agent to obtain the LLM port implementation that agent
// will use.
func NewSupervisor(newProvider func() LLMResponder) *Supervisor {
	return &Supervisor{
		agents:              make(map[core.AgentId]*AgentHandle),
		healthCheckInterval: DefaultHealthCheckInterval,
		zombieTimeout:       DefaultZombieTimeout,
		newProvider:         newProvider,
	}
}

// WithHealthCheckInterval overrides the default sweep interval used by Run.
func (s *Supervisor) WithHealthCheckInterval(d time.Duration) *Supervisor {
	s.healthCheckInterval = d
	return s
}

// WithZombieTimeout overrides the default zombie threshold.
func (s *Supervisor) WithZombieTimeout(d time.Duration) *Supervisor {
	s.zombieTimeout = d
	return s
}

// Spawn creates and starts a new agent, registering it under id. It
// returns an error if id is already registered.
func (s *Supervisor) Spawn(ctx context.Context, id core.AgentId) (*Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[id]; exists {
		return nil, fmt.Errorf("agent %s already registered", id)
	}

	actor, done, err := SpawnDefaultActor(ctx, id, s.newProvider())
	if err != nil {
		return nil, err
	}
	s.agents[id] = &AgentHandle{Actor: actor, Done: done}
	return actor, nil
}

// Get returns the handle for id, if registered.
func (s *Supervisor) Get(id core.AgentId) (*AgentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.agents[id]
	return h, ok
}

// AgentIDs returns the ids of every currently registered agent.
func (s *Supervisor) AgentIDs() []core.AgentId {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]core.AgentId, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	return ids
}

// AgentCount returns the number of currently registered agents.
func (s *Supervisor) AgentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

// Statuses returns an AgentStatus snapshot for every registered agent, for
// use by the gateway's status endpoint.
func (s *Supervisor) Statuses() []core.AgentStatus {
	s.mu.Lock()
	handles := make([]*AgentHandle, 0, len(s.agents))
	ids := make([]core.AgentId, 0, len(s.agents))
	for id, h := range s.agents {
		handles = append(handles, h)
		ids = append(ids, id)
	}
	s.mu.Unlock()

	out := make([]core.AgentStatus, 0, len(handles))
	for i, h := range handles {
		out = append(out, core.AgentStatus{
			ID:                ids[i],
			State:             h.Actor.State(),
			LastActivity:      h.Actor.LastActivity(),
			MessagesProcessed: h.Actor.MessagesProcessed(),
		})
	}
	return out
}

// Terminate requests graceful shutdown of the agent and waits up to the
// termination grace period for it to finish in-flight work. If the grace
// period elapses, the agent is abandoned (removed from the registry) with
// a warning logged rather than blocking forever.
func (s *Supervisor) Terminate(ctx context.Context, id core.AgentId) error {
	s.mu.Lock()
	h, ok := s.agents[id]
	if ok {
		delete(s.agents, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("agent %s not found", id)
	}

	h.Actor.RequestShutdown()

	log := observability.LoggerWithTrace(ctx).With().Str("agent_id", id.String()).Logger()
	select {
	case <-h.Done:
		log.Info().Msg("agent terminated gracefully")
		return nil
	case <-time.After(terminateGrace):
		log.Warn().Msg("agent did not shut down within grace period, abandoning")
		return nil
	}
}

// Restart terminates the agent (if running) and spawns a fresh one under
// the same id.
func (s *Supervisor) Restart(ctx context.Context, id core.AgentId) (*Actor, error) {
	if _, ok := s.Get(id); ok {
		if err := s.Terminate(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.Spawn(ctx, id)
}

// UpdateAgentActivity records the current time as id's last activity,
// without counting a processed message. Actors already record their own
// activity via touch() after each message; this is for callers that do
// work on an agent's behalf outside its channel (e.g. a gateway handler
// bypassing the actor channel). Unknown ids are ignored.
func (s *Supervisor) UpdateAgentActivity(id core.AgentId) {
	h, ok := s.Get(id)
	if !ok {
		return
	}
	h.Actor.mu.Lock()
	h.Actor.lastActivity = time.Now()
	h.Actor.mu.Unlock()
}

// CheckAgentHealth reports whether id is alive (its Run loop has not
// exited) and how long it has been since its last activity.
func (s *Supervisor) CheckAgentHealth(id core.AgentId) (AgentHealth, bool) {
	h, ok := s.Get(id)
	if !ok {
		return AgentHealth{}, false
	}
	alive := true
	select {
	case <-h.Done:
		alive = false
	default:
	}
	return AgentHealth{
		ID:      id,
		Alive:   alive,
		IdleFor: time.Since(h.Actor.LastActivity()),
	}, true
}

// DetectZombies returns the ids of every agent that is still alive but has
// exceeded the zombie timeout without activity.
func (s *Supervisor) DetectZombies() []core.AgentId {
	var zombies []core.AgentId
	for _, id := range s.AgentIDs() {
		health, ok := s.CheckAgentHealth(id)
		if !ok {
			continue
		}
		if health.Alive && health.IdleFor > s.zombieTimeout {
			zombies = append(zombies, id)
		}
	}
	return zombies
}

// sweep runs one health-check pass, terminating every zombie agent it
// finds (alive but idle past the zombie timeout).
func (s *Supervisor) sweep(ctx context.Context) {
	log := observability.LoggerWithTrace(ctx)
	for _, id := range s.AgentIDs() {
		health, ok := s.CheckAgentHealth(id)
		if !ok {
			continue
		}
		if !health.Alive {
			log.Warn().Str("agent_id", id.String()).Msg("agent is no longer alive")
			continue
		}
	}

	for _, id := range s.DetectZombies() {
		log.Warn().Str("agent_id", id.String()).Msg("agent exceeded zombie timeout, terminating")
		if err := s.Terminate(ctx, id); err != nil {
			log.Error().Err(err).Str("agent_id", id.String()).Msg("failed to terminate zombie agent")
		}
	}
}

// Run drives the periodic health-check sweep until ctx is canceled, then
// terminates every remaining agent before returning.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.shutdownAll(ctx)
			return
		}
	}
}

func (s *Supervisor) shutdownAll(ctx context.Context) {
	for _, id := range s.AgentIDs() {
		_ = s.Terminate(context.Background(), id)
	}
	_ = ctx
}
