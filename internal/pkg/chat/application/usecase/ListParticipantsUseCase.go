package usecase

import (
	"context"

	"github.com/google/uuid"
)

// ListParticipantsInput wraps the thread identifier to fetch its participants.
type ListParticipantsInput struct {
	ThreadID uuid.UUID
}

// ListParticipantsUseCase returns user IDs for all participants in the thread.
type ListParticipantsUseCase struct {
	Threads
}

func NewListParticipantsUseCase(t Threads) *ListParticipantsUseCase {
	return &ListParticipantsUseCase{Threads: t}
}

func (uc *ListParticipantsUseCase) Execute(ctx context.Context, in ListParticipantsInput) ([]uuid.UUID, error) {
	if _, err := uc.Repo.GetThread(ctx, in.ThreadID); err != nil {
		return nil, lookupErr(err)
	}
	ids, err := uc.Repo.ListParticipantIDs(ctx, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	return ids, nil
}
