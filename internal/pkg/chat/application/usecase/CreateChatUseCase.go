package usecase

import (
	"context"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

// CreateChatInput opens a forum thread or a fez. ParticipantIDs only apply to
// fezzes; the owner is always admitted.
type CreateChatInput struct {
	OwnerID        uuid.UUID
	Kind           chat.ThreadKind
	Title          string
	ParticipantIDs []uuid.UUID
}

// CreateChatUseCase persists a thread and, for fezzes, its initial members
// with read pivots at zero.
type CreateChatUseCase struct {
	Threads
}

func NewCreateChatUseCase(t Threads) *CreateChatUseCase {
	return &CreateChatUseCase{Threads: t}
}

func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Chat, error) {
	owner, err := uc.Viewers.Get(in.OwnerID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	thread, err := chat.NewThread(in.Kind, in.OwnerID, in.Title, now)
	if err != nil {
		return nil, err
	}

	c := &chat.Chat{Thread: thread}
	var members []chat.Participant
	if thread.Kind == chat.ThreadKindFez {
		ids := append([]uuid.UUID{in.OwnerID}, in.ParticipantIDs...)
		for _, id := range ids {
			if id == uuid.Nil || c.HasParticipant(id) {
				continue
			}
			p, err := c.Admit(owner, id, now)
			if err != nil {
				return nil, err
			}
			members = append(members, p)
		}
	}

	if err := uc.Repo.CreateThread(ctx, thread); err != nil {
		return nil, persistErr(err)
	}
	for _, p := range members {
		if err := uc.Repo.AddParticipant(ctx, p); err != nil {
			return nil, persistErr(err)
		}
		if err := uc.Repo.SavePivot(ctx, chat.JoinPivot(p.UserID, thread.ID, 0)); err != nil {
			return nil, persistErr(err)
		}
	}
	return c, nil
}
