package usecase

import (
	"context"

	"github.com/google/uuid"

	"go-twitarr/internal/pkg/relation/application/blockstore"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// BlockUserInput names the blocking account and the account it blocks.
type BlockUserInput struct {
	RequesterID uuid.UUID
	TargetID    uuid.UUID
}

// BlockUserUseCase records the block and propagates it across both account families.
type BlockUserUseCase struct {
	Relationships
}

func NewBlockUserUseCase(r Relationships) *BlockUserUseCase {
	return &BlockUserUseCase{Relationships: r}
}

func (uc *BlockUserUseCase) Execute(ctx context.Context, in BlockUserInput) error {
	requesterFamily, targetFamily, err := uc.families(ctx, in.RequesterID, in.TargetID)
	if err != nil {
		return err
	}

	containers, err := uc.Users.FetchRelationshipContainers(ctx, in.RequesterID)
	if err != nil {
		return repoErr(err)
	}
	prev := containers.BlockListOf(in.RequesterID)
	next := prev
	next.IDs = prev.IDs.Union(relation.NewUserSet(in.TargetID))

	if err := uc.commitBlockList(ctx, prev, next, blockstore.OpBlock, requesterFamily, targetFamily); err != nil {
		return err
	}
	uc.settle(ctx, func(ctx context.Context) error {
		return uc.Cache.RebuildMany(ctx, requesterFamily.Union(targetFamily).Slice())
	}, in.RequesterID)
	return nil
}
