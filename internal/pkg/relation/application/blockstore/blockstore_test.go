package blockstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-twitarr/internal/infrastructure/cache/adapter"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type recordingMetrics struct {
	leases   map[string]int
	partials int
}

func (m *recordingMetrics) RecordLease(_ context.Context, outcome string) {
	if m.leases == nil {
		m.leases = map[string]int{}
	}
	m.leases[outcome]++
}

func (m *recordingMetrics) RecordPartialApply(context.Context, string) { m.partials++ }

func newStore(t *testing.T) (*BlockStore, *cacheadapter.MemoryStore, *recordingMetrics) {
	t.Helper()
	mem := cacheadapter.NewMemoryStore()
	metrics := &recordingMetrics{}
	cfg := ConfigDefaults()
	cfg.Attempts = 2
	cfg.InitialWait = time.Millisecond
	cfg.MaxElapsed = 50 * time.Millisecond
	return New(mem, cfg, nil, metrics), mem, metrics
}

func resolved(t *testing.T, s *BlockStore, id uuid.UUID) relation.UserSet {
	t.Helper()
	set, err := s.ResolvedBlocks(context.Background(), id)
	require.NoError(t, err)
	return set
}

func TestResolvedBlocks_EmptyWhenMissing(t *testing.T) {
	s, _, _ := newStore(t)
	set := resolved(t, s, uuid.New())
	assert.NotNil(t, set)
	assert.Zero(t, set.Len())
}

func TestApplyBlock_FamilyClosure(t *testing.T) {
	s, _, metrics := newStore(t)
	ctx := context.Background()
	a1, a2, b1, b2, b3 := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	famA := relation.NewUserSet(a1, a2)
	famB := relation.NewUserSet(b1, b2, b3)

	require.NoError(t, s.ApplyBlock(ctx, famA, famB))

	for id := range famA {
		assert.True(t, resolved(t, s, id).Equal(famB))
	}
	for id := range famB {
		assert.True(t, resolved(t, s, id).Equal(famA))
	}
	assert.Equal(t, 1, metrics.leases["acquired"])

	// Idempotent.
	require.NoError(t, s.ApplyBlock(ctx, famA, famB))
	assert.True(t, resolved(t, s, a1).Equal(famB))
}

func TestApplyUnblock_RoundTrip(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	famA, famB, famC := relation.NewUserSet(a), relation.NewUserSet(b), relation.NewUserSet(c)

	require.NoError(t, s.ApplyBlock(ctx, famA, famC))
	before := map[uuid.UUID]relation.UserSet{a: resolved(t, s, a), b: resolved(t, s, b), c: resolved(t, s, c)}

	require.NoError(t, s.ApplyBlock(ctx, famA, famB))
	assert.True(t, resolved(t, s, a).Equal(relation.NewUserSet(b, c)))

	require.NoError(t, s.ApplyUnblock(ctx, famA, famB))
	for id, want := range before {
		assert.True(t, resolved(t, s, id).Equal(want), id.String())
	}
}

func TestApply_LeaseHeldIsTransientContention(t *testing.T) {
	s, mem, metrics := newStore(t)
	ctx := context.Background()

	held, ok, err := mem.AcquireLease(ctx, s.cfg.LeaseName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	a, b := uuid.New(), uuid.New()
	err = s.ApplyBlock(ctx, relation.NewUserSet(a), relation.NewUserSet(b))
	require.ErrorIs(t, err, relation.ErrTransientContention)
	assert.Zero(t, resolved(t, s, a).Len())
	assert.Zero(t, resolved(t, s, b).Len())
	assert.Equal(t, 2, metrics.leases["conflict"])

	require.NoError(t, mem.ReleaseLease(ctx, held))
	require.NoError(t, s.ApplyBlock(ctx, relation.NewUserSet(a), relation.NewUserSet(b)))
}

func TestApply_LeaseExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := cacheadapter.NewMemoryStoreWithClock(func() time.Time { return now })
	cfg := ConfigDefaults()
	cfg.Attempts = 1
	s := New(mem, cfg, nil, nil)
	ctx := context.Background()

	_, ok, err := mem.AcquireLease(ctx, cfg.LeaseName, cfg.LeaseTTL)
	require.NoError(t, err)
	require.True(t, ok)

	a, b := uuid.New(), uuid.New()
	require.ErrorIs(t, s.ApplyBlock(ctx, relation.NewUserSet(a), relation.NewUserSet(b)), relation.ErrTransientContention)

	// A holder that crashed is superseded once the TTL passes.
	now = now.Add(cfg.LeaseTTL + time.Millisecond)
	require.NoError(t, s.ApplyBlock(ctx, relation.NewUserSet(a), relation.NewUserSet(b)))
}

func TestApply_ReleasesLease(t *testing.T) {
	s, mem, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplyBlock(ctx, relation.NewUserSet(uuid.New()), relation.NewUserSet(uuid.New())))

	_, ok, err := mem.AcquireLease(ctx, s.cfg.LeaseName, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApply_PartialWrite(t *testing.T) {
	s, mem, metrics := newStore(t)
	ctx := context.Background()
	down := errors.New("connection reset")
	mem.FailSetAfter = 1
	mem.FailErr = down

	err := s.ApplyBlock(ctx, relation.NewUserSet(uuid.New()), relation.NewUserSet(uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, relation.ErrStoreUnavailable)
	assert.ErrorIs(t, err, down)

	var partial *PartialApplyError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, OpBlock, partial.Op)
	assert.Len(t, partial.Written, 1)
	assert.Len(t, partial.Pending, 1)
	assert.Equal(t, 1, metrics.partials)

	// The lease is still released so a replay can proceed.
	_, ok, err := mem.AcquireLease(ctx, s.cfg.LeaseName, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApply_FirstWriteFailureIsNotPartial(t *testing.T) {
	s, mem, _ := newStore(t)
	mem.FailErr = errors.New("down")
	mem.FailSetAfter = 1
	require.NoError(t, mem.SetIDs(context.Background(), "warmup", nil))

	err := s.ApplyBlock(context.Background(), relation.NewUserSet(uuid.New()), relation.NewUserSet(uuid.New()))
	require.ErrorIs(t, err, relation.ErrStoreUnavailable)
	var partial *PartialApplyError
	assert.False(t, errors.As(err, &partial))
}

func TestSeedFamilyMember(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	root, other, newSub := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, s.ApplyBlock(ctx, relation.NewUserSet(root), relation.NewUserSet(other)))

	changed, err := s.SeedFamilyMember(ctx, newSub, relation.NewUserSet(root, newSub))
	require.NoError(t, err)
	assert.True(t, changed.Equal(relation.NewUserSet(newSub, other)))
	assert.True(t, resolved(t, s, newSub).Equal(relation.NewUserSet(other)))
	assert.True(t, resolved(t, s, other).Equal(relation.NewUserSet(root, newSub)))
}
