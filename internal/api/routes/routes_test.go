package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-realtime/internal/api/handlers"
	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/auth"
	"chat-realtime/internal/logger"
	"chat-realtime/internal/models"
	"chat-realtime/internal/notification"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/services"
	"chat-realtime/internal/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "e2e-secret"

type store struct {
	mu            sync.Mutex
	users         map[uint]*models.User
	conversations map[uint]*models.Conversation
	nextMessageID uint
}

type userRepo struct{ *store }
type conversationRepo struct{ *store }
type messageRepo struct{ *store }

func (s userRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s conversationRepo) FindByID(_ context.Context, id uint) (*models.Conversation, error) {
	if c, ok := s.conversations[id]; ok {
		return c, nil
	}
	return nil, repositories.ErrNotFound
}

func (s messageRepo) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMessageID++
	m.ID = s.nextMessageID
	m.CreatedAt = time.Now()
	return nil
}

type testEnv struct {
	server *httptest.Server
	hub    *websocket.Hub
	queue  *notification.MemoryQueue
}

// newTestEnv wires the real stack over in-memory stores. Ann (1) and Bob
// (2) share conversation 10; Carl (3) is an outsider.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	s := &store{
		users: map[uint]*models.User{
			1: {Model: gorm.Model{ID: 1}, Username: "ann", Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"},
			2: {Model: gorm.Model{ID: 2}, Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Ray"},
			3: {Model: gorm.Model{ID: 3}, Username: "carl", Email: "carl@example.com", FirstName: "Carl"},
		},
		conversations: map[uint]*models.Conversation{
			10: {Model: gorm.Model{ID: 10}, SenderID: 1, RecipientID: 2},
		},
	}

	verifier := auth.NewTokenVerifier(testSecret, 0, userRepo{s}, log)
	hub := websocket.NewHub(log)
	authorizer := websocket.NewAuthorizer(conversationRepo{s}, hub, log)
	frames := websocket.NewFrameHandler(authorizer, hub, log)
	gate := websocket.NewGate(verifier, log)

	queue := notification.NewMemoryQueue(16)
	chat := services.NewChatService(conversationRepo{s}, messageRepo{s}, notification.NewNotifier(queue, log), log)

	router := NewRouter(
		handlers.NewWSHandler(gate, hub, frames, websocket.NewUpgrader(1024, 1024, nil), websocket.DefaultClientOptions(), log),
		handlers.NewMessageHandler(chat),
		middleware.NewAuthMiddleware(verifier),
		nil,
		Options{},
	)
	router.SetupRoutes()

	srv := httptest.NewServer(router.GetEngine())
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return &testEnv{server: srv, hub: hub, queue: queue}
}

func (e *testEnv) wsURL(token string) string {
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func token(t *testing.T, userID uint, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, userID, ttl)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) dial(t *testing.T, userID uint) *gorilla.Conn {
	t.Helper()
	conn, resp, err := gorilla.DefaultDialer.Dial(e.wsURL(token(t, userID, time.Hour)), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorilla.Conn, action string, topic uint) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"action": action, "topic_id": topic}))
}

func readEvent(t *testing.T, conn *gorilla.Conn) websocket.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event websocket.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

// expectSilence reads with a short deadline and expects nothing. The
// connection is unusable afterwards.
func expectSilence(t *testing.T, conn *gorilla.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, data, err := conn.ReadMessage()
	assert.Error(t, err, "unexpected frame: %s", data)
}

func TestTypingReachesConversationMembersOnly(t *testing.T) {
	env := newTestEnv(t)

	ann := env.dial(t, 1)
	bob := env.dial(t, 2)
	carl := env.dial(t, 3)

	send(t, ann, "subscribe", 10)
	assert.Equal(t, websocket.EventSubscribed, readEvent(t, ann).Type)
	send(t, bob, "subscribe", 10)
	assert.Equal(t, websocket.EventSubscribed, readEvent(t, bob).Type)

	// Carl is refused silently, then his typing frame goes nowhere.
	send(t, carl, "subscribe", 10)
	send(t, carl, "typing", 10)

	send(t, ann, "typing", 10)
	event := readEvent(t, bob)
	assert.Equal(t, websocket.EventTyping, event.Type)
	assert.Equal(t, websocket.Topic(10), event.Topic)
	require.NotNil(t, event.User)
	assert.Equal(t, models.UserSummary{ID: 1, Name: "Ann Lee", Email: "ann@example.com"}, *event.User)
	_, err := time.Parse(time.RFC3339Nano, event.Timestamp)
	assert.NoError(t, err)

	assert.Equal(t, 2, env.hub.SubscriberCount(10))
	expectSilence(t, bob)
	expectSilence(t, carl)
}

func TestRejectedConnectionsNeverRegister(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"expired token", token(t, 1, -time.Minute)},
		{"unknown user", token(t, 99, time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := gorilla.DefaultDialer.Dial(env.wsURL(tt.token), nil)
			require.ErrorIs(t, err, gorilla.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			resp.Body.Close()
		})
	}
	assert.Equal(t, 0, env.hub.ClientCount())
}

func TestBearerHeaderAccepted(t *testing.T) {
	env := newTestEnv(t)

	header := http.Header{"Authorization": {"Bearer " + token(t, 2, time.Hour)}}
	conn, _, err := gorilla.DefaultDialer.Dial(env.wsURL(""), header)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	env := newTestEnv(t)

	ann := env.dial(t, 1)
	send(t, ann, "subscribe", 10)
	require.Equal(t, websocket.EventSubscribed, readEvent(t, ann).Type)
	require.Equal(t, 1, env.hub.SubscriberCount(10))

	require.NoError(t, ann.Close())

	assert.Eventually(t, func() bool {
		return env.hub.ClientCount() == 0 && env.hub.SubscriberCount(10) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidFrameGetsErrorEvent(t *testing.T) {
	env := newTestEnv(t)

	ann := env.dial(t, 1)
	require.NoError(t, ann.WriteMessage(gorilla.TextMessage, []byte(`{"action":"dance","topic_id":10}`)))

	event := readEvent(t, ann)
	assert.Equal(t, websocket.EventError, event.Type)
	assert.Equal(t, "invalid_frame", event.Code)
}

func postMessage(t *testing.T, env *testEnv, bearer string, conversation string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/conversations/"+conversation+"/messages", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSendMessageQueuesNotification(t *testing.T) {
	env := newTestEnv(t)

	resp := postMessage(t, env, token(t, 1, time.Hour), "10", `{"body":"hello Bob"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created handlers.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, uint(10), created.ConversationID)
	assert.Equal(t, uint(1), created.SenderID)

	require.Equal(t, 1, env.queue.Len())
	task, err := env.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.MessageID)
}

func TestSendMessageRejections(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, postMessage(t, env, "", "10", `{"body":"hi"}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, postMessage(t, env, token(t, 3, time.Hour), "10", `{"body":"hi"}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, postMessage(t, env, token(t, 1, time.Hour), "404", `{"body":"hi"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postMessage(t, env, token(t, 1, time.Hour), "abc", `{"body":"hi"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postMessage(t, env, token(t, 1, time.Hour), "10", `{}`).StatusCode)
	assert.Equal(t, 0, env.queue.Len())
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
