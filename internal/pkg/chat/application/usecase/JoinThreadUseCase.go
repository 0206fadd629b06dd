package usecase

import (
	"context"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

type JoinThreadInput struct {
	ThreadID uuid.UUID
	UserID   uuid.UUID
}

// JoinThreadUseCase adds a user to a fez. Posts already present by authors
// the joiner hides are counted once, at join time, into the hidden count.
type JoinThreadUseCase struct {
	Threads
}

func NewJoinThreadUseCase(t Threads) *JoinThreadUseCase {
	return &JoinThreadUseCase{Threads: t}
}

func (uc *JoinThreadUseCase) Execute(ctx context.Context, in JoinThreadInput) (*chat.ReadPivot, error) {
	joiner, err := uc.Viewers.Get(in.UserID)
	if err != nil {
		return nil, err
	}
	c, err := uc.load(ctx, in.ThreadID, in.UserID)
	if err != nil {
		return nil, err
	}
	if c.HasParticipant(in.UserID) {
		pivot, err := uc.Repo.FetchPivot(ctx, in.UserID, in.ThreadID)
		if err != nil {
			return nil, persistErr(err)
		}
		if pivot != nil {
			return pivot, nil
		}
	}
	p, err := c.Join(joiner, uc.now())
	if err != nil {
		return nil, err
	}

	hidden, err := uc.Repo.CountPostsByAuthors(ctx, in.ThreadID, joiner.HiddenAuthors().Slice())
	if err != nil {
		return nil, persistErr(err)
	}
	if err := uc.Repo.AddParticipant(ctx, p); err != nil {
		return nil, persistErr(err)
	}
	pivot := chat.JoinPivot(in.UserID, in.ThreadID, hidden)
	if err := uc.Repo.SavePivot(ctx, pivot); err != nil {
		return nil, persistErr(err)
	}
	return &pivot, nil
}
