package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "send channel closed unexpectedly")
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return Event{}
}

func TestHubFanOutByQueueID(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	go hub.Run()

	first := hub.NewClient(nil, "q1")
	second := hub.NewClient(nil, "q1")
	other := hub.NewClient(nil, "q2")

	hub.Notify("q1")

	for _, c := range []*Client{first, second} {
		ev := recvEvent(t, c)
		assert.Equal(t, "queue_update", ev.Type)
		assert.Equal(t, "q1", ev.QueueID)
	}

	// An observer of a different queue stays quiet.
	select {
	case msg := <-other.send:
		t.Fatalf("observer of q2 received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	go hub.Run()

	c := hub.NewClient(nil, "q1")
	hub.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel must be closed on unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubPollRebroadcast(t *testing.T) {
	hub := NewHub(10*time.Millisecond, zap.NewNop())
	go hub.Run()

	c := hub.NewClient(nil, "q1")

	// No Notify call: the ticker alone must nudge connected observers.
	ev := recvEvent(t, c)
	assert.Equal(t, "queue_update", ev.Type)
	assert.Equal(t, "q1", ev.QueueID)
}
