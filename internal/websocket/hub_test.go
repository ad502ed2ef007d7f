package websocket

import (
	"sync"
	"testing"
	"time"

	"chat-realtime/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(logger.Discard())
	alice := newTestClient(hub, identityFor(1, "alice"))
	bob := newTestClient(hub, identityFor(2, "bob"))
	carol := newTestClient(hub, identityFor(3, "carol"))

	for _, c := range []*Client{alice, bob} {
		added, err := hub.Subscribe(c, 10)
		require.NoError(t, err)
		assert.True(t, added)
	}
	_, err := hub.Subscribe(carol, 11)
	require.NoError(t, err)

	delivered := hub.Publish(10, NewPresenceEvent(EventTyping, 10, alice.Identity(), time.Now()))
	assert.Equal(t, 2, delivered)

	assert.Len(t, drain(t, alice), 1)
	assert.Len(t, drain(t, bob), 1)
	assert.Empty(t, drain(t, carol))
}

func TestDuplicateSubscribeDeliversOnce(t *testing.T) {
	hub := NewHub(logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))

	added, err := hub.Subscribe(c, 10)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = hub.Subscribe(c, 10)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, hub.SubscriberCount(10))

	hub.Publish(10, NewPresenceEvent(EventTyping, 10, c.Identity(), time.Now()))
	assert.Len(t, drain(t, c), 1)
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub(logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))
	_, err := hub.Subscribe(c, 10)
	require.NoError(t, err)

	assert.True(t, hub.Unsubscribe(c, 10))
	assert.False(t, hub.Unsubscribe(c, 10))
	assert.False(t, hub.IsSubscribed(c, 10))
	assert.Equal(t, 0, hub.SubscriberCount(10))

	assert.Equal(t, 0, hub.Publish(10, NewPresenceEvent(EventTyping, 10, c.Identity(), time.Now())))
	assert.Empty(t, drain(t, c))
}

func TestDisconnectCleansUpAndIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))
	other := newTestClient(hub, identityFor(2, "bob"))

	for _, topic := range []Topic{10, 11, 12} {
		_, err := hub.Subscribe(c, topic)
		require.NoError(t, err)
	}
	_, err := hub.Subscribe(other, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Topic{10, 11, 12}, hub.TopicsOf(c))

	assert.True(t, hub.Disconnect(c))
	assert.False(t, hub.Disconnect(c))

	assert.Empty(t, hub.TopicsOf(c))
	assert.Equal(t, 1, hub.SubscriberCount(10))
	assert.Equal(t, 0, hub.SubscriberCount(11))
	assert.Equal(t, 1, hub.ClientCount())

	for _, topic := range []Topic{10, 11, 12} {
		hub.Publish(topic, NewPresenceEvent(EventTyping, topic, other.Identity(), time.Now()))
	}
	assert.Empty(t, drain(t, c))
	assert.Len(t, drain(t, other), 1)

	select {
	case <-c.Done():
	default:
		t.Fatal("disconnected client should be done")
	}

	_, err = hub.Subscribe(c, 10)
	assert.ErrorIs(t, err, ErrClientDisconnected)
	assert.False(t, hub.SendTo(c, NewSubscribedEvent(10)))
}

func TestPublishPreservesOrderPerClient(t *testing.T) {
	hub := NewHub(logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))
	_, err := hub.Subscribe(c, 10)
	require.NoError(t, err)

	types := []EventType{EventTyping, EventStopTyping, EventTyping, EventStopTyping}
	for _, typ := range types {
		hub.Publish(10, NewPresenceEvent(typ, 10, c.Identity(), time.Now()))
	}

	events := drain(t, c)
	require.Len(t, events, len(types))
	for i, e := range events {
		assert.Equal(t, types[i], e.Type)
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))
	_, err := hub.Subscribe(c, 10)
	require.NoError(t, err)

	for i := 0; i < cap(c.send); i++ {
		require.Equal(t, 1, hub.Publish(10, NewPresenceEvent(EventTyping, 10, c.Identity(), time.Now())))
	}
	assert.Equal(t, 0, hub.Publish(10, NewPresenceEvent(EventTyping, 10, c.Identity(), time.Now())))
	assert.Len(t, drain(t, c), cap(c.send))
}

func TestConcurrentRegistryMutation(t *testing.T) {
	hub := NewHub(logger.Discard())
	publisher := newTestClient(hub, identityFor(99, "pub"))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Publish(10, NewPresenceEvent(EventTyping, 10, publisher.Identity(), time.Now()))
			}
		}
	}()

	var clients []*Client
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			c := newTestClient(hub, identityFor(id, "user"))
			mu.Lock()
			clients = append(clients, c)
			mu.Unlock()
			for j := 0; j < 50; j++ {
				hub.Subscribe(c, 10)
				drain(t, c)
				hub.Unsubscribe(c, 10)
			}
			hub.Subscribe(c, 10)
			hub.Disconnect(c)
		}(uint(i + 1))
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, hub.SubscriberCount(10))
	assert.Equal(t, 1, hub.ClientCount())
	for _, c := range clients {
		assert.Empty(t, hub.TopicsOf(c))
	}
}

func TestShutdownDisconnectsEveryone(t *testing.T) {
	hub := NewHub(logger.Discard())
	a := newTestClient(hub, identityFor(1, "alice"))
	b := newTestClient(hub, identityFor(2, "bob"))
	hub.Subscribe(a, 10)
	hub.Subscribe(b, 10)

	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.SubscriberCount(10))
}
