package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	qport "go-twitarr/internal/infrastructure/queue/port"
	"go-twitarr/internal/pkg/relation/application/blockstore"
	relation "go-twitarr/internal/pkg/relation/application/domain"
	"go-twitarr/internal/pkg/relation/application/usercache"
)

// ReplayBlocksTaskType re-applies a block-set mutation that stopped midway.
const ReplayBlocksTaskType = "relation:replay_blocks"

// ReplayBlocksTaskPayload is the JSON payload transported via the queue.
type ReplayBlocksTaskPayload struct {
	Op              string      `json:"op"`
	RequesterFamily []uuid.UUID `json:"requesterFamily"`
	TargetFamily    []uuid.UUID `json:"targetFamily"`
}

// Scheduler enqueues replay tasks. It satisfies usecase.BlockReplayScheduler.
type Scheduler struct {
	Q qport.Client
}

func NewScheduler(client qport.Client) *Scheduler {
	return &Scheduler{Q: client}
}

func (s *Scheduler) ScheduleReplay(ctx context.Context, op blockstore.Op, requesterFamily, targetFamily relation.UserSet) error {
	b, err := json.Marshal(ReplayBlocksTaskPayload{
		Op:              string(op),
		RequesterFamily: requesterFamily.Slice(),
		TargetFamily:    targetFamily.Slice(),
	})
	if err != nil {
		return fmt.Errorf("encode replay payload: %w", err)
	}
	opts := qport.EnqueueOption{Queue: "relation", MaxRetry: 10, ProcessIn: 2 * time.Second}
	_, err = s.Q.Enqueue(ctx, qport.Task{Type: ReplayBlocksTaskType, Payload: b}, opts)
	return err
}

// RegisterReplayBlocksTask binds the replay handler to srv. The handler
// reapplies the mutation under the lease and rebuilds both families.
func RegisterReplayBlocksTask(srv qport.Server, blocks *blockstore.BlockStore, cache *usercache.Cache, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "replay-blocks")

	srv.Register(ReplayBlocksTaskType, func(ctx context.Context, t qport.Task) error {
		var p ReplayBlocksTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}
		op := blockstore.Op(p.Op)
		requesterFamily := relation.NewUserSet(p.RequesterFamily...)
		targetFamily := relation.NewUserSet(p.TargetFamily...)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := blocks.Apply(ctx, op, requesterFamily, targetFamily); err != nil {
			logger.Warn("block replay failed", "op", op, "error", err)
			return err
		}
		if err := cache.RebuildMany(ctx, requesterFamily.Union(targetFamily).Slice()); err != nil {
			return err
		}
		logger.Info("block replay applied", "op", op, "users", requesterFamily.Len()+targetFamily.Len())
		return nil
	})
}
