package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	require.NoError(t, eb.SendToCore(SendMessageEvent{Message: "hi"}))
	event := <-eb.UIToCore()
	assert.Equal(t, SendMessageEvent{Message: "hi"}, event)

	require.NoError(t, eb.SendToUI(StateUpdateEvent{Loading: true}))
	coreEvent := <-eb.CoreToUI()
	update, ok := coreEvent.(StateUpdateEvent)
	require.True(t, ok)
	assert.True(t, update.Loading)
}

func TestFullChannelFailsWithoutBlocking(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, eb.SendToCore(SendMessageEvent{}))
	}

	var reported []BusError
	eb.SetErrorCallback(func(e BusError) { reported = append(reported, e) })

	err := eb.SendToCore(SendMessageEvent{})
	require.Error(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, "SendToCore", reported[0].Operation)
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 50*time.Millisecond)

	assert.False(t, cb.IsOpen())
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.IsOpen())

	// half-open after the reset window, closed again on success
	time.Sleep(60 * time.Millisecond)
	assert.False(t, cb.IsOpen())
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
}
