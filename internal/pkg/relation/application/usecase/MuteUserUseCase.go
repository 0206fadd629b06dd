package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type MuteUserInput struct {
	RequesterID uuid.UUID
	TargetID    uuid.UUID
}

// MuteUserUseCase hides the target's content from the requester only.
type MuteUserUseCase struct {
	Relationships
}

func NewMuteUserUseCase(r Relationships) *MuteUserUseCase {
	return &MuteUserUseCase{Relationships: r}
}

func (uc *MuteUserUseCase) Execute(ctx context.Context, in MuteUserInput) error {
	return editMuteList(ctx, uc.Relationships, in, true)
}

type UnmuteUserInput = MuteUserInput

type UnmuteUserUseCase struct {
	Relationships
}

func NewUnmuteUserUseCase(r Relationships) *UnmuteUserUseCase {
	return &UnmuteUserUseCase{Relationships: r}
}

func (uc *UnmuteUserUseCase) Execute(ctx context.Context, in UnmuteUserInput) error {
	return editMuteList(ctx, uc.Relationships, in, false)
}

func editMuteList(ctx context.Context, r Relationships, in MuteUserInput, mute bool) error {
	if in.RequesterID == in.TargetID {
		return relation.ErrSelfRelation
	}
	if _, err := r.Users.FetchUser(ctx, in.TargetID); err != nil {
		return repoErr(err)
	}
	containers, err := r.Users.FetchRelationshipContainers(ctx, in.RequesterID)
	if err != nil {
		return repoErr(err)
	}
	list := containers.MuteListOf(in.RequesterID)
	target := relation.NewUserSet(in.TargetID)
	switch {
	case mute && list.IDs.Contains(in.TargetID):
		return nil
	case mute:
		list.IDs = list.IDs.Union(target)
	case !list.IDs.Contains(in.TargetID):
		return relation.ErrNotInList
	default:
		list.IDs = list.IDs.Minus(target)
	}
	if err := r.Users.SaveMuteList(ctx, list); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.settle(ctx, func(ctx context.Context) error { return r.Cache.OnMuteChanged(ctx, in.RequesterID) }, in.RequesterID)
	return nil
}
