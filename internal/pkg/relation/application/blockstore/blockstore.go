// Package blockstore keeps the family-closed block sets in the distributed
// key/value store and serializes their updates under a global lease.
package blockstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	cacheport "go-twitarr/internal/infrastructure/cache/port"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

const keyPrefix = "rblocks:"

// Op names a block-set mutation.
type Op string

const (
	OpBlock   Op = "block"
	OpUnblock Op = "unblock"
)

// Config tunes the lease.
type Config struct {
	LeaseName string
	LeaseTTL  time.Duration
	// Attempts caps the number of acquisition tries, including the first.
	Attempts    uint64
	InitialWait time.Duration
	MaxElapsed  time.Duration
}

// ConfigDefaults returns a Config with default values.
func ConfigDefaults() Config {
	return Config{
		LeaseName:   "lock:rblocks",
		LeaseTTL:    time.Second,
		Attempts:    10,
		InitialWait: 25 * time.Millisecond,
		MaxElapsed:  3 * time.Second,
	}
}

// Metrics is the subset of telemetry the store records.
type Metrics interface {
	RecordLease(ctx context.Context, outcome string)
	RecordPartialApply(ctx context.Context, op string)
}

// PartialApplyError reports a mutation that stopped after writing some keys.
type PartialApplyError struct {
	Op      Op
	Written []uuid.UUID
	Pending []uuid.UUID
	Err     error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("blockstore: %s wrote %d of %d keys: %v",
		e.Op, len(e.Written), len(e.Written)+len(e.Pending), e.Err)
}

func (e *PartialApplyError) Unwrap() []error {
	return []error{relation.ErrStoreUnavailable, e.Err}
}

var errLeaseHeld = errors.New("blockstore: lease held")

// BlockStore reads and mutates the resolved block sets.
type BlockStore struct {
	store   cacheport.Store
	cfg     Config
	logger  *slog.Logger
	metrics Metrics
}

func New(store cacheport.Store, cfg Config, logger *slog.Logger, metrics Metrics) *BlockStore {
	defaults := ConfigDefaults()
	if cfg.LeaseName == "" {
		cfg.LeaseName = defaults.LeaseName
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = defaults.LeaseTTL
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = defaults.Attempts
	}
	if cfg.InitialWait <= 0 {
		cfg.InitialWait = defaults.InitialWait
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = defaults.MaxElapsed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockStore{
		store:   store,
		cfg:     cfg,
		logger:  logger.With("component", "blockstore"),
		metrics: metrics,
	}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// ResolvedBlocks returns userID's family-closed block set, empty if none is recorded.
func (s *BlockStore) ResolvedBlocks(ctx context.Context, userID uuid.UUID) (relation.UserSet, error) {
	ids, err := s.store.GetIDs(ctx, key(userID))
	if errors.Is(err, cacheport.ErrMiss) {
		return relation.UserSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolved blocks of %s: %v", relation.ErrStoreUnavailable, userID, err)
	}
	return relation.NewUserSet(ids...), nil
}

// ApplyBlock unions each family into every member of the other.
func (s *BlockStore) ApplyBlock(ctx context.Context, requesterFamily, targetFamily relation.UserSet) error {
	return s.Apply(ctx, OpBlock, requesterFamily, targetFamily)
}

// ApplyUnblock removes each family from every member of the other.
func (s *BlockStore) ApplyUnblock(ctx context.Context, requesterFamily, targetFamily relation.UserSet) error {
	return s.Apply(ctx, OpUnblock, requesterFamily, targetFamily)
}

// Apply runs op under the lease. Reapplying the same op is a no-op.
func (s *BlockStore) Apply(ctx context.Context, op Op, requesterFamily, targetFamily relation.UserSet) error {
	if op != OpBlock && op != OpUnblock {
		return fmt.Errorf("blockstore: unknown op %q", op)
	}
	return s.withLease(ctx, func(ctx context.Context) error {
		next := make(map[uuid.UUID]relation.UserSet, requesterFamily.Len()+targetFamily.Len())
		plan := func(members, other relation.UserSet) error {
			for _, id := range members.Slice() {
				current, err := s.ResolvedBlocks(ctx, id)
				if err != nil {
					return err
				}
				if op == OpBlock {
					next[id] = current.Union(other)
				} else {
					next[id] = current.Minus(other)
				}
			}
			return nil
		}
		if err := plan(requesterFamily, targetFamily); err != nil {
			return err
		}
		if err := plan(targetFamily, requesterFamily); err != nil {
			return err
		}
		return s.writeAll(ctx, op, next)
	})
}

// SeedFamilyMember gives a new sub-account the block set its family already
// has, and adds it to the set of every account that family blocks. It returns
// every user whose resolved set changed.
func (s *BlockStore) SeedFamilyMember(ctx context.Context, member uuid.UUID, family relation.UserSet) (relation.UserSet, error) {
	var changed relation.UserSet
	err := s.withLease(ctx, func(ctx context.Context) error {
		inherited := relation.UserSet{}
		for _, id := range family.Slice() {
			if id == member {
				continue
			}
			blocks, err := s.ResolvedBlocks(ctx, id)
			if err != nil {
				return err
			}
			inherited = inherited.Union(blocks)
		}

		next := map[uuid.UUID]relation.UserSet{member: inherited}
		self := relation.NewUserSet(member)
		for _, id := range inherited.Slice() {
			current, err := s.ResolvedBlocks(ctx, id)
			if err != nil {
				return err
			}
			next[id] = current.Union(self)
		}
		changed = inherited.Union(self)
		return s.writeAll(ctx, "seed", next)
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (s *BlockStore) writeAll(ctx context.Context, op Op, next map[uuid.UUID]relation.UserSet) error {
	order := make(relation.UserSet, len(next))
	for id := range next {
		order[id] = struct{}{}
	}
	ids := order.Slice()
	for i, id := range ids {
		if err := s.store.SetIDs(ctx, key(id), next[id].Slice()); err != nil {
			if i == 0 {
				return fmt.Errorf("%w: write %s: %v", relation.ErrStoreUnavailable, id, err)
			}
			s.recordPartial(ctx, op)
			s.logger.Error("block set write stopped midway",
				"op", op, "written", i, "total", len(ids), "error", err)
			return &PartialApplyError{Op: op, Written: ids[:i], Pending: ids[i:], Err: err}
		}
	}
	return nil
}

func (s *BlockStore) withLease(ctx context.Context, fn func(ctx context.Context) error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.cfg.InitialWait
	expo.MaxElapsedTime = s.cfg.MaxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, s.cfg.Attempts-1), ctx)

	var lease cacheport.Lease
	acquire := func() error {
		l, ok, err := s.store.AcquireLease(ctx, s.cfg.LeaseName, s.cfg.LeaseTTL)
		if err != nil {
			s.recordLease(ctx, "error")
			return backoff.Permanent(fmt.Errorf("%w: acquire lease: %v", relation.ErrStoreUnavailable, err))
		}
		if !ok {
			s.recordLease(ctx, "conflict")
			return errLeaseHeld
		}
		s.recordLease(ctx, "acquired")
		lease = l
		return nil
	}
	if err := backoff.Retry(acquire, policy); err != nil {
		if errors.Is(err, errLeaseHeld) {
			s.logger.Warn("relationship lease contended", "lease", s.cfg.LeaseName)
			return fmt.Errorf("%w: %s", relation.ErrTransientContention, s.cfg.LeaseName)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, relation.ErrStoreUnavailable) {
			return fmt.Errorf("%w: %v", relation.ErrTransientContention, ctxErr)
		}
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.store.ReleaseLease(releaseCtx, lease); err != nil {
			s.logger.Warn("relationship lease release failed", "lease", lease.Name, "error", err)
		}
	}()
	return fn(ctx)
}

func (s *BlockStore) recordLease(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLease(ctx, outcome)
	}
}

func (s *BlockStore) recordPartial(ctx context.Context, op Op) {
	if s.metrics != nil {
		s.metrics.RecordPartialApply(ctx, string(op))
	}
}
