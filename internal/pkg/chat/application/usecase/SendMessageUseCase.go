package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

// SendMessageInput carries the data needed to add a post to a thread.
// SentAt is optional; queued sends carry the time the request was accepted.
type SendMessageInput struct {
	ThreadID uuid.UUID
	AuthorID uuid.UUID
	Text     string
	SentAt   time.Time
}

// SendMessageUseCase stores a post and keeps every read pivot of the thread
// consistent: the author has read everything, and users hiding the author
// gain one hidden post.
type SendMessageUseCase struct {
	Threads
	Notifier PostNotifier
}

func NewSendMessageUseCase(t Threads, notifier PostNotifier) *SendMessageUseCase {
	return &SendMessageUseCase{Threads: t, Notifier: notifier}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Post, error) {
	author, err := uc.Viewers.Get(in.AuthorID)
	if err != nil {
		return nil, err
	}
	c, err := uc.load(ctx, in.ThreadID, in.AuthorID)
	if err != nil {
		return nil, err
	}

	total, err := uc.Repo.CountPosts(ctx, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	if total > 0 {
		last, err := uc.Repo.FetchPostsInRange(ctx, in.ThreadID, total-1, total)
		if err != nil {
			return nil, persistErr(err)
		}
		if len(last) == 1 {
			c.LastPostAt = &last[0].CreatedAt
		}
	}

	sentAt := in.SentAt
	if sentAt.IsZero() {
		sentAt = uc.now()
	}
	// Queued sends may be accepted before a post that was stored first.
	if c.LastPostAt != nil && sentAt.Before(*c.LastPostAt) {
		sentAt = *c.LastPostAt
	}
	post, err := c.AddPost(author, in.Text, sentAt)
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SavePost(ctx, post)
	if err != nil {
		return nil, persistErr(err)
	}
	post.ID = id

	total, err = uc.Repo.CountPosts(ctx, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	pivots, err := uc.Repo.ListPivots(ctx, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	hiders := chat.Hiders(pivots, in.AuthorID, uc.hidersOf(in.AuthorID))
	if err := uc.Repo.ShiftForNewPost(ctx, in.ThreadID, in.AuthorID, total, hiders); err != nil {
		return nil, persistErr(err)
	}

	if uc.Notifier != nil {
		uc.Notifier.NotifyPost(ctx, post, c.Thread)
	}
	uc.logger().Debug("post stored", "thread_id", in.ThreadID, "post_id", post.ID, "total", total)
	return &post, nil
}
