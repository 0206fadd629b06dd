package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
	repository "go-twitarr/internal/pkg/chat/persistence/repository/port"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// Viewers resolves cached relationship snapshots. Satisfied by *usercache.Cache.
type Viewers interface {
	Get(userID uuid.UUID) (relation.CachedUser, error)
}

// PostNotifier delivers a stored post to live sessions.
type PostNotifier interface {
	NotifyPost(ctx context.Context, post chat.Post, thread chat.Thread)
}

// PageMetrics records paginator latency.
type PageMetrics interface {
	RecordPageLatency(ctx context.Context, duration time.Duration, status string)
}

// Threads bundles the collaborators shared by thread use cases.
type Threads struct {
	Repo    repository.ChatRepository
	Viewers Viewers
	Logger  *slog.Logger
	Now     func() time.Time
}

func (t Threads) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t Threads) now() time.Time {
	if t.Now == nil {
		return time.Now().UTC()
	}
	return t.Now().UTC()
}

// load fetches the thread and, for fezzes, whether userID is a member.
func (t Threads) load(ctx context.Context, threadID, userID uuid.UUID) (*chat.Chat, error) {
	thread, err := t.Repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, lookupErr(err)
	}
	c := &chat.Chat{Thread: thread}
	if thread.Kind != chat.ThreadKindFez {
		return c, nil
	}
	ok, err := t.Repo.IsParticipant(ctx, threadID, userID)
	if err != nil {
		return nil, persistErr(err)
	}
	if ok {
		c.Participants = map[uuid.UUID]chat.Participant{userID: {ThreadID: threadID, UserID: userID}}
	}
	return c, nil
}

// hidersOf reports, per user, whether that user blocks or mutes author. A
// user missing from the cache is treated as not hiding.
func (t Threads) hidersOf(author uuid.UUID) func(uuid.UUID) bool {
	return func(userID uuid.UUID) bool {
		v, err := t.Viewers.Get(userID)
		if err != nil {
			return false
		}
		return v.Hides(author)
	}
}

// lookupErr passes domain not-found errors through and wraps the rest.
func lookupErr(err error) error {
	if errors.Is(err, chat.ErrThreadNotFound) || errors.Is(err, chat.ErrPostNotFound) {
		return err
	}
	return persistErr(err)
}
