package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"chat-realtime/internal/logger"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"

	"github.com/stretchr/testify/require"
)

type fakeConversations struct {
	mu            sync.Mutex
	conversations map[uint]*models.Conversation
	err           error
	calls         int
}

func (f *fakeConversations) FindByID(_ context.Context, id uint) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.conversations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func (f *fakeConversations) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newConversations(convs ...*models.Conversation) *fakeConversations {
	f := &fakeConversations{conversations: make(map[uint]*models.Conversation)}
	for _, c := range convs {
		f.conversations[c.ID] = c
	}
	return f
}

func identityFor(id uint, name string) models.Identity {
	return models.Identity{ID: id, Name: name, Email: name + "@example.com"}
}

// newTestClient builds a registered client whose pumps are not running, so
// tests read its queue directly.
func newTestClient(hub *Hub, identity models.Identity) *Client {
	opts := DefaultClientOptions()
	opts.SendBufferSize = 16
	c := NewClient(hub, nil, identity, nil, opts, logger.Discard())
	hub.Register(c)
	return c
}

func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return events
			}
			var e Event
			require.NoError(t, json.Unmarshal(data, &e))
			events = append(events, e)
		default:
			return events
		}
	}
}
