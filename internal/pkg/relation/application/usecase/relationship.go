package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"go-twitarr/internal/pkg/relation/application/blockstore"
	relation "go-twitarr/internal/pkg/relation/application/domain"
	"go-twitarr/internal/pkg/relation/application/usercache"
	repository "go-twitarr/internal/repository/port"
)

// BlockReplayScheduler queues an idempotent re-application of a block-set
// mutation that stopped midway.
type BlockReplayScheduler interface {
	ScheduleReplay(ctx context.Context, op blockstore.Op, requesterFamily, targetFamily relation.UserSet) error
}

// Relationships bundles the collaborators every relation use case needs.
type Relationships struct {
	Users  repository.UserRepository
	Blocks *blockstore.BlockStore
	Cache  *usercache.Cache
	Replay BlockReplayScheduler
	Logger *slog.Logger
}

func (r Relationships) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// families loads both account families and rejects targets inside the requester's own family.
func (r Relationships) families(ctx context.Context, requesterID, targetID uuid.UUID) (relation.UserSet, relation.UserSet, error) {
	if requesterID == targetID {
		return nil, nil, relation.ErrSelfRelation
	}
	requesterFamily, err := r.Users.FamilyOf(ctx, requesterID)
	if err != nil {
		return nil, nil, repoErr(err)
	}
	if requesterFamily.Contains(targetID) {
		return nil, nil, relation.ErrSelfRelation
	}
	targetFamily, err := r.Users.FamilyOf(ctx, targetID)
	if err != nil {
		return nil, nil, repoErr(err)
	}
	return requesterFamily, targetFamily, nil
}

// applyBlockSets runs op on the distributed store and schedules a replay
// when only some keys were written.
func (r Relationships) applyBlockSets(ctx context.Context, op blockstore.Op, requesterFamily, targetFamily relation.UserSet) error {
	err := r.Blocks.Apply(ctx, op, requesterFamily, targetFamily)
	if err == nil {
		return nil
	}
	var partial *blockstore.PartialApplyError
	if errors.As(err, &partial) && r.Replay != nil {
		if schedErr := r.Replay.ScheduleReplay(ctx, op, requesterFamily, targetFamily); schedErr != nil {
			r.logger().Error("could not schedule block replay", "op", op, "error", schedErr)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// commitBlockList saves next and then applies op to the distributed store.
// When the store was left untouched (lease contention, store down before the
// first write) the saved list is put back to prev, so a retry starts from the
// same state. A partial write keeps next; the scheduled replay finishes it.
func (r Relationships) commitBlockList(ctx context.Context, prev, next relation.BlockList, op blockstore.Op, requesterFamily, targetFamily relation.UserSet) error {
	changed := !prev.IDs.Equal(next.IDs)
	if changed {
		if err := r.Users.SaveBlockList(ctx, next); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	err := r.applyBlockSets(ctx, op, requesterFamily, targetFamily)
	if err == nil || !changed {
		return err
	}
	var partial *blockstore.PartialApplyError
	if errors.As(err, &partial) {
		return err
	}
	if restoreErr := r.Users.SaveBlockList(context.WithoutCancel(ctx), prev); restoreErr != nil {
		r.logger().Error("could not restore block list", "op", op, "user_id", prev.UserID, "error", restoreErr)
	}
	return err
}

// settle rebuilds cache entries after a committed mutation. The mutation's
// outcome is already decided, so a failed rebuild is logged and the stale
// entry kept.
func (r Relationships) settle(ctx context.Context, rebuild func(context.Context) error, userID uuid.UUID) {
	if err := rebuild(ctx); err != nil {
		r.logger().Warn("relationship cache left stale after mutation", "user_id", userID, "error", err)
	}
}

// repoErr passes domain errors through and wraps the rest as persistence failures.
func repoErr(err error) error {
	if errors.Is(err, relation.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
