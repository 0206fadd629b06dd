package usecase

import (
	"context"

	"github.com/google/uuid"
)

// JoinConversationInput validates a request to attach a user session to a thread's realtime room.
type JoinConversationInput struct {
	ThreadID uuid.UUID
	UserID   uuid.UUID
}

// JoinConversationUseCase ensures the user may view the thread before joining the realtime room.
type JoinConversationUseCase struct {
	Threads
}

func NewJoinConversationUseCase(t Threads) *JoinConversationUseCase {
	return &JoinConversationUseCase{Threads: t}
}

func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) error {
	viewer, err := uc.Viewers.Get(in.UserID)
	if err != nil {
		return err
	}
	c, err := uc.load(ctx, in.ThreadID, in.UserID)
	if err != nil {
		return err
	}
	return c.CanView(viewer)
}
