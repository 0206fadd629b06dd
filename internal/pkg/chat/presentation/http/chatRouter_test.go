package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-twitarr/internal/infrastructure/cache/adapter"
	queueadapter "go-twitarr/internal/infrastructure/queue/adapter"
	"go-twitarr/internal/infrastructure/realtime"
	"go-twitarr/internal/pkg/chat/application/task"
	"go-twitarr/internal/pkg/chat/application/usecase"
	"go-twitarr/internal/pkg/chat/presentation/controller"
	chatrepo "go-twitarr/internal/pkg/chat/persistence/repository/adapter"
	"go-twitarr/internal/pkg/relation/application/blockstore"
	relusecase "go-twitarr/internal/pkg/relation/application/usecase"
	"go-twitarr/internal/pkg/relation/application/usercache"
	repoadapter "go-twitarr/internal/repository/adapter"
)

type api struct {
	engine *gin.Engine
	rel    relusecase.Relationships
	queue  *queueadapter.InlineQueue
	router *realtime.Router
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := repoadapter.NewMemoryUserRepository()
	blocks := blockstore.New(cacheadapter.NewMemoryStore(), blockstore.ConfigDefaults(), nil, nil)
	cache := usercache.New(users, blocks, nil, nil)
	threads := usecase.Threads{Repo: chatrepo.NewMemoryChatRepository(), Viewers: cache}
	rt := realtime.NewRouter()
	t.Cleanup(rt.Close)
	send := usecase.NewSendMessageUseCase(threads, controller.NewRoomNotifier(rt, cache, nil))
	q := queueadapter.NewInlineQueue()
	task.RegisterSendMessageTask(q, send, nil)

	engine := gin.New()
	RegisterRoutes(engine.Group("/api/v1"), Dependencies{
		Threads:      threads,
		Cache:        cache,
		Send:         send,
		Sender:       task.NewSender(q),
		Realtime:     rt,
		DefaultLimit: 50,
		MaxLimit:     200,
	})
	return &api{
		engine: engine,
		rel:    relusecase.Relationships{Users: users, Blocks: blocks, Cache: cache},
		queue:  q,
		router: rt,
	}
}

func (a *api) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := relusecase.NewCreateUserUseCase(a.rel).Execute(context.Background(), relusecase.CreateUserInput{Username: name})
	require.NoError(t, err)
	return u.UserID
}

func (a *api) do(t *testing.T, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-User-ID", user.String())
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) createThread(t *testing.T, owner uuid.UUID, kind string, members ...uuid.UUID) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/threads", owner, gin.H{"kind": kind, "title": "deck party", "participant_ids": members})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.ID
}

type pageBody struct {
	Posts []struct {
		ID     int64  `json:"id"`
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"posts"`
	Start     int `json:"start"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	ReadCount int `json:"read_count"`
}

func TestThreadEndpoints_PostAndPage(t *testing.T) {
	a := newAPI(t)
	owner := a.user(t, "owner")
	reader := a.user(t, "reader")
	th := a.createThread(t, owner, "forum")

	for _, text := range []string{"one", "two", "three"} {
		w := a.do(t, http.MethodPost, "/api/v1/threads/"+th+"/posts", owner, gin.H{"text": text})
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	}
	require.NoError(t, a.queue.Drain(context.Background()))

	w := a.do(t, http.MethodGet, "/api/v1/threads/"+th+"/posts?limit=2", reader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page pageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "one", page.Posts[0].Text)
	assert.Equal(t, "owner", page.Posts[0].Author.Username)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.ReadCount)

	w = a.do(t, http.MethodGet, "/api/v1/threads/"+th+"/posts?limit=2", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Start)
	require.Len(t, page.Posts, 1)

	w = a.do(t, http.MethodDelete, "/api/v1/posts/"+itoa(page.Posts[0].ID), reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(t, http.MethodDelete, "/api/v1/posts/"+itoa(page.Posts[0].ID), owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestThreadEndpoints_Errors(t *testing.T) {
	a := newAPI(t)
	owner := a.user(t, "owner")
	outsider := a.user(t, "outsider")
	fez := a.createThread(t, owner, "fez")

	tests := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		body   any
		want   int
	}{
		{"missing user header", http.MethodGet, "/api/v1/threads/" + fez + "/posts", uuid.Nil, nil, http.StatusUnauthorized},
		{"bad thread id", http.MethodGet, "/api/v1/threads/nope/posts", owner, nil, http.StatusBadRequest},
		{"unknown thread", http.MethodGet, "/api/v1/threads/" + uuid.NewString() + "/posts", owner, nil, http.StatusNotFound},
		{"fez outsider", http.MethodGet, "/api/v1/threads/" + fez + "/posts", outsider, nil, http.StatusForbidden},
		{"bad limit", http.MethodGet, "/api/v1/threads/" + fez + "/posts?limit=x", owner, nil, http.StatusBadRequest},
		{"bad kind", http.MethodPost, "/api/v1/threads", owner, gin.H{"kind": "dm", "title": "x"}, http.StatusBadRequest},
		{"join forum-only", http.MethodPost, "/api/v1/threads/" + a.createThread(t, owner, "forum") + "/join", outsider, nil, http.StatusBadRequest},
		{"empty post", http.MethodPost, "/api/v1/threads/" + fez + "/posts", owner, gin.H{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestThreadEndpoints_JoinFez(t *testing.T) {
	a := newAPI(t)
	owner := a.user(t, "owner")
	joiner := a.user(t, "joiner")
	fez := a.createThread(t, owner, "fez")

	w := a.do(t, http.MethodPost, "/api/v1/threads/"+fez+"/join", joiner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/v1/threads/"+fez+"/participants", joiner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Participants []uuid.UUID `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []uuid.UUID{owner, joiner}, out.Participants)
}

func TestThreadSocket_FanOutSkipsBlockers(t *testing.T) {
	a := newAPI(t)
	owner := a.user(t, "owner")
	friend := a.user(t, "friend")
	blocker := a.user(t, "blocker")
	th := a.createThread(t, owner, "forum")
	err := relusecase.NewBlockUserUseCase(a.rel).Execute(context.Background(), relusecase.BlockUserInput{RequesterID: blocker, TargetID: friend})
	require.NoError(t, err)

	srv := httptest.NewServer(a.engine)
	t.Cleanup(srv.Close)

	connect := func(user uuid.UUID) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/threads?user_id=" + user.String()
		ws, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ws.Close() })
		expectFrame(t, ws, "connected")
		require.NoError(t, ws.WriteJSON(gin.H{"type": "join", "thread_id": th}))
		expectFrame(t, ws, "joined")
		return ws
	}
	friendWS := connect(friend)
	ownerWS := connect(owner)
	blockerWS := connect(blocker)

	require.NoError(t, friendWS.WriteJSON(gin.H{"type": "message", "thread_id": th, "text": "hello deck"}))

	got := expectFrame(t, ownerWS, "message")
	assert.Contains(t, string(got), "hello deck")
	expectFrame(t, friendWS, "message")

	_ = blockerWS.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = blockerWS.ReadMessage()
	assert.Error(t, err, "blocker must not receive the post")
}

func expectFrame(t *testing.T, ws *websocket.Conn, frameType string) []byte {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	require.Equal(t, frameType, frame.Type, string(data))
	return data
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
