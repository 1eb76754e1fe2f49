package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/core"
)

type staticProvider struct {
	reply core.CanonicalMessage
	err   error
	delay time.Duration
}

func (p staticProvider) Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return core.CanonicalMessage{}, ctx.Err()
		}
	}
	if p.err != nil {
		return core.CanonicalMessage{}, p.err
	}
	return p.reply, nil
}

func TestCanTransition_AllowedAndDenied(t *testing.T) {
	assert.True(t, CanTransition(core.StateIdle, core.StateThinking))
	assert.True(t, CanTransition(core.StateThinking, core.StateToolCall))
	assert.True(t, CanTransition(core.StateThinking, core.StateReflecting))
	assert.True(t, CanTransition(core.StateToolCall, core.StateThinking))
	assert.True(t, CanTransition(core.StateReflecting, core.StateIdle))

	assert.False(t, CanTransition(core.StateIdle, core.StateToolCall))
	assert.False(t, CanTransition(core.StateIdle, core.StateReflecting))
	assert.False(t, CanTransition(core.StateToolCall, core.StateIdle))
	assert.True(t, CanTransition(core.StateIdle, core.StateIdle), "idle->idle self-loop represents a no-op receipt")
}

func TestTransition_ReturnsError(t *testing.T) {
	_, err := Transition(core.StateIdle, core.StateToolCall)
	require.Error(t, err)
	var stateErr *core.InvalidStateTransitionError
	assert.ErrorAs(t, err, &stateErr)
}

func TestActor_CommitsOneTransitionPerMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reply := core.NewCanonicalMessage(core.RoleAssistant, "reply")
	provider := staticProvider{reply: reply}

	actor, err := NewActor(core.NewAgentId(), provider)
	require.NoError(t, err)
	require.Equal(t, core.StateIdle, actor.State())

	go actor.Run(ctx)

	wantStates := []core.AgentState{core.StateThinking, core.StateReflecting, core.StateIdle, core.StateThinking}
	for i, want := range wantStates {
		replyCh := make(chan core.CanonicalMessage, 1)
		msg := NewActorMessageWithReply(core.NewCanonicalMessage(core.RoleUser, "hi"), replyCh)
		actor.Inbound() <- msg

		select {
		case got := <-replyCh:
			assert.Equal(t, reply.Content, got.Content)
		case <-time.After(2 * time.Second):
			t.Fatalf("actor did not reply to message %d in time", i+1)
		}

		assert.Eventually(t, func() bool {
			return actor.State() == want
		}, time.Second, 10*time.Millisecond, "message %d should commit exactly one transition to %v", i+1, want)
	}
	assert.EqualValues(t, len(wantStates), actor.MessagesProcessed())
}

func TestActor_EmptyContentRejectedWithoutCrashing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actor, err := NewActor(core.NewAgentId(), staticProvider{})
	require.NoError(t, err)
	go actor.Run(ctx)

	actor.Inbound() <- NewActorMessage(core.CanonicalMessage{})

	// Actor must survive a bad message and keep serving subsequent ones.
	reply := core.NewCanonicalMessage(core.RoleAssistant, "ok")
	actor.Provider = staticProvider{reply: reply}
	replyCh := make(chan core.CanonicalMessage, 1)
	actor.Inbound() <- NewActorMessageWithReply(core.NewCanonicalMessage(core.RoleUser, "hi"), replyCh)

	select {
	case got := <-replyCh:
		assert.Equal(t, "ok", got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not recover from bad message")
	}
}

func TestActor_ShutdownDrainsInFlightMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reply := core.NewCanonicalMessage(core.RoleAssistant, "drained")
	actor, err := NewActorWithBuffer(core.NewAgentId(), staticProvider{reply: reply}, 4)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		actor.Run(ctx)
	}()

	replyCh := make(chan core.CanonicalMessage, 1)
	actor.Inbound() <- NewActorMessageWithReply(core.NewCanonicalMessage(core.RoleUser, "hi"), replyCh)
	actor.RequestShutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not shut down")
	}

	select {
	case got := <-replyCh:
		assert.Equal(t, "drained", got.Content)
	default:
		t.Fatal("in-flight message was dropped on shutdown")
	}
}

func TestNewActorChannel_RejectsZeroBuffer(t *testing.T) {
	_, err := NewActorChannel(0)
	assert.ErrorIs(t, err, ErrZeroBufferSize)
}

func TestActorChannel_IsChannelConnected(t *testing.T) {
	ch, err := NewActorChannel(1)
	require.NoError(t, err)
	assert.True(t, ch.IsChannelConnected())
	close(ch.Shutdown)
	assert.False(t, ch.IsChannelConnected())
}

func TestTrySendWithTimeout(t *testing.T) {
	ch := make(chan ActorMessage)

	t.Run("delivered", func(t *testing.T) {
		go func() { <-ch }()
		err := TrySendWithTimeout(context.Background(), ch, ActorMessage{}, time.Second)
		assert.NoError(t, err)
	})

	t.Run("times out", func(t *testing.T) {
		err := TrySendWithTimeout(context.Background(), ch, ActorMessage{}, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrSendTimeout)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := TrySendWithTimeout(ctx, ch, ActorMessage{}, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSupervisor_SpawnGetTerminate(t *testing.T) {
	ctx := context.Background()
	sup := NewSupervisor(func() LLMResponder {
		return staticProvider{reply: core.NewCanonicalMessage(core.RoleAssistant, "ok")}
	})

	id := core.NewAgentId()
	actor, err := sup.Spawn(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, actor)

	_, err = sup.Spawn(ctx, id)
	assert.Error(t, err, "spawning a second time under the same id must fail")

	handle, ok := sup.Get(id)
	require.True(t, ok)
	assert.Same(t, actor, handle.Actor)

	assert.Equal(t, 1, sup.AgentCount())
	statuses := sup.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, id, statuses[0].ID)

	require.NoError(t, sup.Terminate(ctx, id))
	_, ok = sup.Get(id)
	assert.False(t, ok)
}

func TestSupervisor_Restart(t *testing.T) {
	ctx := context.Background()
	sup := NewSupervisor(func() LLMResponder {
		return staticProvider{reply: core.NewCanonicalMessage(core.RoleAssistant, "ok")}
	})

	id := core.NewAgentId()
	first, err := sup.Spawn(ctx, id)
	require.NoError(t, err)

	second, err := sup.Restart(ctx, id)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "restart must produce a fresh actor")

	handle, ok := sup.Get(id)
	require.True(t, ok)
	assert.Same(t, second, handle.Actor)
}

func TestSupervisor_DetectZombies(t *testing.T) {
	ctx := context.Background()
	sup := NewSupervisor(func() LLMResponder {
		return staticProvider{reply: core.NewCanonicalMessage(core.RoleAssistant, "ok")}
	}).WithZombieTimeout(10 * time.Millisecond)

	id := core.NewAgentId()
	_, err := sup.Spawn(ctx, id)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		zombies := sup.DetectZombies()
		return len(zombies) == 1 && zombies[0] == id
	}, time.Second, 5*time.Millisecond)
}

func TestSupervisor_RunShutsDownAllAgentsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sup := NewSupervisor(func() LLMResponder {
		return staticProvider{reply: core.NewCanonicalMessage(core.RoleAssistant, "ok")}
	}).WithHealthCheckInterval(time.Hour)

	id := core.NewAgentId()
	_, err := sup.Spawn(ctx, id)
	require.NoError(t, err)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		sup.Run(ctx)
	}()

	cancel()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not shut down on context cancellation")
	}
}
