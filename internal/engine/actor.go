package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sentinel/internal/core"
	"sentinel/internal/observability"
)

// allowedTransitions is the agent state machine's exact transition table.
// A transition not listed here is rejected with InvalidStateTransitionError.
// Idle->Idle is the one permitted self-loop, representing a no-op receipt.
var allowedTransitions = map[core.AgentState]map[core.AgentState]bool{
	core.StateIdle: {
		core.StateIdle:     true,
		core.StateThinking: true,
	},
	core.StateThinking: {
		core.StateToolCall:   true,
		core.StateReflecting: true,
		core.StateIdle:       true,
	},
	core.StateToolCall: {
		core.StateThinking:   true,
		core.StateReflecting: true,
	},
	core.StateReflecting: {
		core.StateIdle:     true,
		core.StateThinking: true,
	},
}

// CanTransition reports whether moving from `from` to `to` is permitted by
// the state machine.
func CanTransition(from, to core.AgentState) bool {
	return allowedTransitions[from][to]
}

// Transition validates and returns the new state, or an
// InvalidStateTransitionError.
func Transition(from, to core.AgentState) (core.AgentState, error) {
	if !CanTransition(from, to) {
		return from, &core.InvalidStateTransitionError{From: from, To: to}
	}
	return to, nil
}

// Actor is one agent's state and inbound channel pair. All mutable fields
// are only ever touched from within Run's goroutine, except LastActivity,
// State and MessagesProcessed, which Supervisor reads concurrently via the
// accessors below (guarded by mu, and atomic for the message counter).
type Actor struct {
	ID       core.AgentId
	Provider LLMResponder

	channel *ActorChannel

	mu                sync.RWMutex
	state             core.AgentState
	lastActivity      time.Time
	messagesProcessed uint64
}

// LLMResponder is the minimal capability an actor needs from an LLM port:
// produce a reply to the conversation so far. It is satisfied by
// llm.Provider; declared locally so this package does not import llm.
type LLMResponder interface {
	Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error)
}

// NewActor constructs an Actor in the Idle state with a fresh bounded
// channel of the default size.
func NewActor(id core.AgentId, provider LLMResponder) (*Actor, error) {
	return NewActorWithBuffer(id, provider, DefaultChannelSize)
}

// NewActorWithBuffer is NewActor with an explicit inbound buffer size.
func NewActorWithBuffer(id core.AgentId, provider LLMResponder, bufferSize int) (*Actor, error) {
	ch, err := NewActorChannel(bufferSize)
	if err != nil {
		return nil, err
	}
	return &Actor{
		ID:           id,
		Provider:     provider,
		channel:      ch,
		state:        core.StateIdle,
		lastActivity: time.Now(),
	}, nil
}

// Inbound returns the actor's send side, for use by senders outside the
// actor's own goroutine (the supervisor, the gateway).
func (a *Actor) Inbound() chan<- ActorMessage { return a.channel.Inbound }

// RequestShutdown signals the actor's Run loop to exit after finishing any
// message currently in flight.
func (a *Actor) RequestShutdown() {
	select {
	case <-a.channel.Shutdown:
		// already closed
	default:
		close(a.channel.Shutdown)
	}
}

// State returns the actor's current state.
func (a *Actor) State() core.AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// LastActivity returns the timestamp at which the actor last finished
// handling a message (whether or not processing succeeded), or its
// creation time if it has handled nothing yet.
func (a *Actor) LastActivity() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastActivity
}

// MessagesProcessed returns the count of messages the actor has handled,
// including those whose processing returned an error.
func (a *Actor) MessagesProcessed() uint64 {
	return atomic.LoadUint64(&a.messagesProcessed)
}

func (a *Actor) setState(s core.AgentState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Actor) touch() {
	a.mu.Lock()
	a.lastActivity = time.Now()
	a.mu.Unlock()
	atomic.AddUint64(&a.messagesProcessed, 1)
}

// Run is the actor's event loop: it selects between an inbound message and
// the shutdown signal until shutdown fires, finishing any message already
// being processed before it exits. Processing errors are logged and never
// propagated — a single bad message must not take the actor down.
func (a *Actor) Run(ctx context.Context) {
	log := observability.LoggerWithTrace(ctx).With().Str("agent_id", a.ID.String()).Logger()
	log.Info().Msg("actor starting")
	defer log.Info().Msg("actor stopped")

	for {
		select {
		case msg := <-a.channel.Inbound:
			a.process(ctx, msg, &log)
		case <-a.channel.Shutdown:
			// Drain any messages already queued so in-flight work finishes,
			// matching the graceful-shutdown invariant: shutdown never
			// drops a message that was already accepted into the channel.
			for {
				select {
				case msg := <-a.channel.Inbound:
					a.process(ctx, msg, &log)
				default:
					return
				}
			}
		}
	}
}

func (a *Actor) process(ctx context.Context, msg ActorMessage, log *zerolog.Logger) {
	if err := a.step(ctx, msg); err != nil {
		log.Error().Err(err).Msg("actor processing error")
	}
	a.touch()
}

// processMessage is a pure function of the actor's current state that
// returns the intended next state for any message. It never inspects the
// message itself: the default policy only cares which state the actor was
// in when the message arrived.
func processMessage(current core.AgentState) core.AgentState {
	switch current {
	case core.StateIdle:
		return core.StateThinking
	case core.StateThinking:
		return core.StateReflecting
	case core.StateToolCall:
		return core.StateReflecting
	case core.StateReflecting:
		return core.StateIdle
	default:
		return core.StateIdle
	}
}

func (a *Actor) step(ctx context.Context, msg ActorMessage) error {
	if msg.Message.Content == "" {
		return &core.InvalidMessageError{Reason: "message content is empty"}
	}

	current := a.State()
	next := processMessage(current)
	committed, err := Transition(current, next)
	if err != nil {
		// Abort the iteration on violation; the actor remains in its
		// current state.
		return err
	}
	a.setState(committed)

	reply, err := a.Provider.Complete(ctx, []core.CanonicalMessage{msg.Message})
	if err != nil {
		return err
	}

	if msg.ReplyTo != nil {
		select {
		case msg.ReplyTo <- reply:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SpawnActor creates an actor with the given buffer size and launches its
// Run loop in a new goroutine, returning the actor itself (from which
// callers obtain Inbound()/RequestShutdown()) alongside a completion
// channel closed when Run returns.
func SpawnActor(ctx context.Context, id core.AgentId, provider LLMResponder, bufferSize int) (*Actor, <-chan struct{}, error) {
	a, err := NewActorWithBuffer(id, provider, bufferSize)
	if err != nil {
		return nil, nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	return a, done, nil
}

// SpawnDefaultActor is SpawnActor with the default channel buffer size.
func SpawnDefaultActor(ctx context.Context, id core.AgentId, provider LLMResponder) (*Actor, <-chan struct{}, error) {
	return SpawnActor(ctx, id, provider, DefaultChannelSize)
}
