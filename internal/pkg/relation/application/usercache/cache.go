// Package usercache holds the process-wide relationship cache: one immutable
// snapshot per known user, readable without I/O.
package usercache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	relation "go-twitarr/internal/pkg/relation/application/domain"
	repository "go-twitarr/internal/repository/port"
)

// BlockSource resolves a user's family-closed block set.
type BlockSource interface {
	ResolvedBlocks(ctx context.Context, userID uuid.UUID) (relation.UserSet, error)
}

// Metrics is the subset of telemetry the cache records.
type Metrics interface {
	RecordRebuild(ctx context.Context, status string)
	RecordInvariantViolation(ctx context.Context)
}

// maxParallelReads bounds concurrent store reads during Load and RebuildMany.
const maxParallelReads = 8

// Cache maps user IDs to snapshots. The mutex guards only map access and is
// never held during I/O.
type Cache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]relation.CachedUser

	profiles repository.UserRepository
	blocks   BlockSource
	logger   *slog.Logger
	metrics  Metrics
}

func New(profiles repository.UserRepository, blocks BlockSource, logger *slog.Logger, metrics Metrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries:  make(map[uuid.UUID]relation.CachedUser),
		profiles: profiles,
		blocks:   blocks,
		logger:   logger.With("component", "usercache"),
		metrics:  metrics,
	}
}

// Load builds an entry for every user in the profile store and swaps the whole map in.
func (c *Cache) Load(ctx context.Context) error {
	ids, err := c.profiles.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("%w: list users: %v", relation.ErrStoreUnavailable, err)
	}
	built, err := c.buildAll(ctx, ids)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = built
	c.mu.Unlock()
	c.logger.Info("relationship cache loaded", "users", len(built))
	return nil
}

// Get returns the snapshot for userID. A missing entry is an invariant violation.
func (c *Cache) Get(userID uuid.UUID) (relation.CachedUser, error) {
	c.mu.Lock()
	u, ok := c.entries[userID]
	c.mu.Unlock()
	if !ok {
		c.logger.Error("no cache entry for user", "user_id", userID)
		if c.metrics != nil {
			c.metrics.RecordInvariantViolation(context.Background())
		}
		return relation.CachedUser{}, fmt.Errorf("%w: user %s", relation.ErrInvariantViolation, userID)
	}
	return u, nil
}

func (c *Cache) BlocksOf(userID uuid.UUID) (relation.UserSet, error) {
	u, err := c.Get(userID)
	if err != nil {
		return nil, err
	}
	return u.Blocks, nil
}

func (c *Cache) MutesOf(userID uuid.UUID) (relation.UserSet, error) {
	u, err := c.Get(userID)
	if err != nil {
		return nil, err
	}
	return u.Mutes, nil
}

func (c *Cache) Header(userID uuid.UUID) (relation.Header, error) {
	u, err := c.Get(userID)
	if err != nil {
		return relation.Header{}, err
	}
	return u.Header(), nil
}

// Len reports the number of cached users.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Rebuild re-reads userID from the stores and replaces its entry.
// On failure the previous entry stays in place.
func (c *Cache) Rebuild(ctx context.Context, userID uuid.UUID) (relation.CachedUser, error) {
	u, err := c.build(ctx, userID)
	if err != nil {
		c.recordRebuild(ctx, "failed")
		c.logger.Warn("cache rebuild failed, keeping previous entry", "user_id", userID, "error", err)
		return relation.CachedUser{}, err
	}
	c.mu.Lock()
	c.entries[userID] = u
	c.mu.Unlock()
	c.recordRebuild(ctx, "ok")
	return u, nil
}

// RebuildMany rebuilds every listed user. Entries are swapped in together
// only when all reads succeed.
func (c *Cache) RebuildMany(ctx context.Context, userIDs []uuid.UUID) error {
	built, err := c.buildAll(ctx, userIDs)
	if err != nil {
		c.recordRebuild(ctx, "failed")
		c.logger.Warn("batched cache rebuild failed, keeping previous entries", "users", len(userIDs), "error", err)
		return err
	}
	c.mu.Lock()
	for id, u := range built {
		c.entries[id] = u
	}
	c.mu.Unlock()
	c.recordRebuild(ctx, "ok")
	return nil
}

// OnBlockChanged rebuilds both account families after a block or unblock.
func (c *Cache) OnBlockChanged(ctx context.Context, requesterID, targetID uuid.UUID) error {
	requesterFamily, err := c.family(ctx, requesterID)
	if err != nil {
		return err
	}
	targetFamily, err := c.family(ctx, targetID)
	if err != nil {
		return err
	}
	return c.RebuildMany(ctx, requesterFamily.Union(targetFamily).Slice())
}

// OnMuteChanged rebuilds the muting user only; mutes do not propagate.
func (c *Cache) OnMuteChanged(ctx context.Context, userID uuid.UUID) error {
	_, err := c.Rebuild(ctx, userID)
	return err
}

func (c *Cache) OnProfileChanged(ctx context.Context, userID uuid.UUID) error {
	_, err := c.Rebuild(ctx, userID)
	return err
}

func (c *Cache) family(ctx context.Context, userID uuid.UUID) (relation.UserSet, error) {
	fam, err := c.profiles.FamilyOf(ctx, userID)
	if err != nil {
		return nil, storeErr("family", userID, err)
	}
	return fam, nil
}

func (c *Cache) buildAll(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]relation.CachedUser, error) {
	results := make([]relation.CachedUser, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			u, err := c.build(gctx, id)
			if err != nil {
				return err
			}
			results[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	built := make(map[uuid.UUID]relation.CachedUser, len(ids))
	for _, u := range results {
		built[u.UserID] = u
	}
	return built, nil
}

func (c *Cache) build(ctx context.Context, userID uuid.UUID) (relation.CachedUser, error) {
	p, err := c.profiles.FetchUser(ctx, userID)
	if err != nil {
		return relation.CachedUser{}, storeErr("profile", userID, err)
	}
	containers, err := c.profiles.FetchRelationshipContainers(ctx, userID)
	if err != nil {
		return relation.CachedUser{}, storeErr("containers", userID, err)
	}
	blocks, err := c.blocks.ResolvedBlocks(ctx, userID)
	if err != nil {
		return relation.CachedUser{}, err
	}
	return relation.NewCachedUser(p, containers, blocks), nil
}

func (c *Cache) recordRebuild(ctx context.Context, status string) {
	if c.metrics != nil {
		c.metrics.RecordRebuild(ctx, status)
	}
}

// storeErr keeps ErrNotFound visible and classifies everything else as a store failure.
func storeErr(what string, userID uuid.UUID, err error) error {
	if errors.Is(err, relation.ErrNotFound) || errors.Is(err, relation.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s of %s: %v", relation.ErrStoreUnavailable, what, userID, err)
}
