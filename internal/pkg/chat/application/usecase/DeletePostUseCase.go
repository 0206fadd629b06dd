package usecase

import (
	"context"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

type DeletePostInput struct {
	PostID      int64
	RequesterID uuid.UUID
}

// DeletePostUseCase removes a post and shifts every read pivot past it back
// by one, so unread counts stay accurate without a rescan.
type DeletePostUseCase struct {
	Threads
}

func NewDeletePostUseCase(t Threads) *DeletePostUseCase {
	return &DeletePostUseCase{Threads: t}
}

func (uc *DeletePostUseCase) Execute(ctx context.Context, in DeletePostInput) (*chat.Post, error) {
	post, err := uc.Repo.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, lookupErr(err)
	}
	thread, err := uc.Repo.GetThread(ctx, post.ThreadID)
	if err != nil {
		return nil, lookupErr(err)
	}
	c := chat.Chat{Thread: thread}
	if err := c.CanDelete(in.RequesterID, post); err != nil {
		return nil, err
	}

	index, err := uc.Repo.IndexOfPost(ctx, post.ThreadID, post.ID)
	if err != nil {
		return nil, lookupErr(err)
	}
	if err := uc.Repo.DeletePost(ctx, post.ID); err != nil {
		return nil, lookupErr(err)
	}

	pivots, err := uc.Repo.ListPivots(ctx, post.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	hiders := chat.Hiders(pivots, post.AuthorID, uc.hidersOf(post.AuthorID))
	changed, err := uc.Repo.ShiftForDeletion(ctx, post.ThreadID, index, hiders)
	if err != nil {
		return nil, persistErr(err)
	}
	uc.logger().Debug("post deleted", "thread_id", post.ThreadID, "post_id", post.ID, "index", index, "pivots_adjusted", changed)
	return &post, nil
}
