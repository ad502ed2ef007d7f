package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-realtime/internal/logger"
	"chat-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func conversation(id, a, b uint) *models.Conversation {
	return &models.Conversation{Model: gorm.Model{ID: id}, SenderID: a, RecipientID: b}
}

func TestAuthorizeMemberThenPublish(t *testing.T) {
	hub := NewHub(logger.Discard())
	authz := NewAuthorizer(newConversations(conversation(10, 1, 2)), hub, logger.Discard())

	alice := newTestClient(hub, identityFor(1, "alice"))
	bob := newTestClient(hub, identityFor(2, "bob"))

	for _, c := range []*Client{alice, bob} {
		topic, err := authz.Authorize(context.Background(), c, 10)
		require.NoError(t, err)
		assert.Equal(t, Topic(10), topic)
	}

	hub.Publish(10, NewPresenceEvent(EventTyping, 10, bob.Identity(), time.Now()))
	events := drain(t, alice)
	require.Len(t, events, 1)
	assert.Equal(t, uint(2), events[0].User.ID)
}

func TestAuthorizeNonMemberForbidden(t *testing.T) {
	hub := NewHub(logger.Discard())
	authz := NewAuthorizer(newConversations(conversation(10, 1, 2)), hub, logger.Discard())
	mallory := newTestClient(hub, identityFor(3, "mallory"))

	_, err := authz.Authorize(context.Background(), mallory, 10)
	require.Error(t, err)
	assert.True(t, IsDenied(err, DenyForbidden))
	assert.False(t, hub.IsSubscribed(mallory, 10))
	assert.Equal(t, 0, hub.SubscriberCount(10))
}

func TestAuthorizeUnknownConversation(t *testing.T) {
	hub := NewHub(logger.Discard())
	authz := NewAuthorizer(newConversations(), hub, logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))

	_, err := authz.Authorize(context.Background(), c, 404)
	assert.True(t, IsDenied(err, DenyNotFound))
	assert.False(t, IsDenied(err, DenyForbidden))
	assert.Equal(t, 0, hub.SubscriberCount(404))
}

func TestAuthorizeLookupFailure(t *testing.T) {
	hub := NewHub(logger.Discard())
	dbErr := errors.New("db down")
	authz := NewAuthorizer(&fakeConversations{err: dbErr}, hub, logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))

	_, err := authz.Authorize(context.Background(), c, 10)
	assert.ErrorIs(t, err, dbErr)
	var denied *DeniedError
	assert.False(t, errors.As(err, &denied))
	assert.False(t, hub.IsSubscribed(c, 10))
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Discard())
	convs := newConversations(conversation(10, 1, 2))
	authz := NewAuthorizer(convs, hub, logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))

	for i := 0; i < 3; i++ {
		topic, err := authz.Authorize(context.Background(), c, 10)
		require.NoError(t, err)
		assert.Equal(t, Topic(10), topic)
	}
	assert.Equal(t, 1, convs.Calls())
	assert.Equal(t, 1, hub.SubscriberCount(10))

	hub.Publish(10, NewPresenceEvent(EventTyping, 10, c.Identity(), time.Now()))
	assert.Len(t, drain(t, c), 1)
}

func TestAuthorizeAfterDisconnect(t *testing.T) {
	hub := NewHub(logger.Discard())
	authz := NewAuthorizer(newConversations(conversation(10, 1, 2)), hub, logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))
	hub.Disconnect(c)

	_, err := authz.Authorize(context.Background(), c, 10)
	assert.ErrorIs(t, err, ErrClientDisconnected)
	assert.Equal(t, 0, hub.SubscriberCount(10))
}

func TestUnsubscribeIsNoOpWhenAbsent(t *testing.T) {
	hub := NewHub(logger.Discard())
	authz := NewAuthorizer(newConversations(conversation(10, 1, 2)), hub, logger.Discard())
	c := newTestClient(hub, identityFor(1, "alice"))

	authz.Unsubscribe(c, 10)

	_, err := authz.Authorize(context.Background(), c, 10)
	require.NoError(t, err)
	authz.Unsubscribe(c, 10)
	assert.False(t, hub.IsSubscribed(c, 10))
}
