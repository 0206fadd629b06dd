package controller

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"go-twitarr/internal/infrastructure/realtime"
	chat "go-twitarr/internal/pkg/chat/application/domain"
	"go-twitarr/internal/pkg/chat/application/usecase"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// Snapshots is the cache view the notifier needs. Satisfied by *usercache.Cache.
type Snapshots interface {
	Headers
	usecase.Viewers
}

type outboundMessage struct {
	Type     string      `json:"type"`
	ThreadID uuid.UUID   `json:"thread_id"`
	Post     postPayload `json:"post"`
}

// RoomNotifier pushes stored posts to the thread's realtime room. Recipients
// who block or mute the author are skipped, as are keyword-muted recipients
// on forums.
type RoomNotifier struct {
	Router *realtime.Router
	Cache  Snapshots
	Logger *slog.Logger
}

func NewRoomNotifier(router *realtime.Router, cache Snapshots, logger *slog.Logger) *RoomNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomNotifier{Router: router, Cache: cache, Logger: logger.With("component", "room-notifier")}
}

var _ usecase.PostNotifier = (*RoomNotifier)(nil)

func (n *RoomNotifier) NotifyPost(_ context.Context, post chat.Post, thread chat.Thread) {
	payload, err := json.Marshal(outboundMessage{
		Type:     "message",
		ThreadID: thread.ID,
		Post:     toPayload(post, n.Cache),
	})
	if err != nil {
		n.Logger.Error("encode outbound post", "post_id", post.ID, "error", err)
		return
	}
	delivered := n.Router.Broadcast(thread.ID, payload, func(userID uuid.UUID) bool {
		v, err := n.Cache.Get(userID)
		if err != nil {
			return true
		}
		return hidesPost(v, post, thread)
	})
	n.Logger.Debug("post fanned out", "thread_id", thread.ID, "post_id", post.ID, "delivered", delivered)
}

func hidesPost(v relation.CachedUser, post chat.Post, thread chat.Thread) bool {
	return len(chat.VisiblePosts([]chat.Post{post}, v, thread.FiltersKeywords())) == 0
}
