package usecase

import (
	"context"

	"go-twitarr/internal/pkg/relation/application/blockstore"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type UnblockUserInput = BlockUserInput

// UnblockUserUseCase removes a block the requester holds and clears both families.
type UnblockUserUseCase struct {
	Relationships
}

func NewUnblockUserUseCase(r Relationships) *UnblockUserUseCase {
	return &UnblockUserUseCase{Relationships: r}
}

func (uc *UnblockUserUseCase) Execute(ctx context.Context, in UnblockUserInput) error {
	requesterFamily, targetFamily, err := uc.families(ctx, in.RequesterID, in.TargetID)
	if err != nil {
		return err
	}

	containers, err := uc.Users.FetchRelationshipContainers(ctx, in.RequesterID)
	if err != nil {
		return repoErr(err)
	}
	prev := containers.BlockListOf(in.RequesterID)
	if !prev.IDs.Contains(in.TargetID) {
		return relation.ErrNotInList
	}
	next := prev
	next.IDs = prev.IDs.Minus(relation.NewUserSet(in.TargetID))

	if err := uc.commitBlockList(ctx, prev, next, blockstore.OpUnblock, requesterFamily, targetFamily); err != nil {
		return err
	}
	uc.settle(ctx, func(ctx context.Context) error {
		return uc.Cache.RebuildMany(ctx, requesterFamily.Union(targetFamily).Slice())
	}, in.RequesterID)
	return nil
}
