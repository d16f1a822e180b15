package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/agentdash/pkg/channels/gochannel"
	"github.com/agentdash/agentdash/pkg/eventbus"
	"github.com/agentdash/agentdash/pkg/events"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	received := make(chan *events.AgentDeleted, 1)

	bus := newTestBus(t)

	err := bus.Handle(events.AgentDeletedEvent, func(_ context.Context, event any) error {
		deleted, ok := event.(*events.AgentDeleted)
		require.True(t, ok)

		received <- deleted

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "agent-1", events.AgentDeleted{
		BaseEvent:   events.NewBaseEvent(events.AgentDeletedEvent, "agent-1"),
		DeletedByID: "user-1",
	})
	require.NoError(t, err)

	select {
	case deleted := <-received:
		assert.Equal(t, "agent-1", deleted.AgentID)
		assert.Equal(t, "user-1", deleted.DeletedByID)
		assert.Equal(t, events.AgentDeletedEvent, deleted.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for this type; the publish must still complete.
	err := bus.Publish(ctx, "agent-1", events.AgentCreated{
		BaseEvent: events.NewBaseEvent(events.AgentCreatedEvent, "agent-1"),
		Name:      "Billing Agent",
	})
	assert.NoError(t, err)
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestNewBaseEvent(t *testing.T) {
	event := events.NewBaseEvent(events.FlowchartCreatedEvent, "agent-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, events.FlowchartCreatedEvent, event.Type)
	assert.Equal(t, "agent-1", event.AgentID)
	assert.False(t, event.Timestamp.IsZero())
}
