package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-twitarr/internal/infrastructure/cache/adapter"
	queueadapter "go-twitarr/internal/infrastructure/queue/adapter"
	"go-twitarr/internal/pkg/relation/application/blockstore"
	relation "go-twitarr/internal/pkg/relation/application/domain"
	"go-twitarr/internal/pkg/relation/application/task"
	"go-twitarr/internal/pkg/relation/application/usercache"
	repoadapter "go-twitarr/internal/repository/adapter"
)

type env struct {
	r     Relationships
	repo  *repoadapter.MemoryUserRepository
	kv    *cacheadapter.MemoryStore
	queue *queueadapter.InlineQueue
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repo := repoadapter.NewMemoryUserRepository()
	kv := cacheadapter.NewMemoryStore()
	cfg := blockstore.ConfigDefaults()
	cfg.Attempts = 1
	blocks := blockstore.New(kv, cfg, nil, nil)
	cache := usercache.New(repo, blocks, nil, nil)
	q := queueadapter.NewInlineQueue()
	task.RegisterReplayBlocksTask(q, blocks, cache, nil)
	return &env{
		r: Relationships{
			Users:  repo,
			Blocks: blocks,
			Cache:  cache,
			Replay: task.NewScheduler(q),
		},
		repo:  repo,
		kv:    kv,
		queue: q,
	}
}

func (e *env) create(t *testing.T, name string, parent *uuid.UUID) uuid.UUID {
	t.Helper()
	u, err := NewCreateUserUseCase(e.r).Execute(context.Background(), CreateUserInput{Username: name, ParentID: parent})
	require.NoError(t, err)
	return u.UserID
}

func (e *env) blocksOf(t *testing.T, id uuid.UUID) relation.UserSet {
	t.Helper()
	s, err := e.r.Cache.BlocksOf(id)
	require.NoError(t, err)
	return s
}

func TestCreateUser_CachesBeforeReturning(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, "alice", nil)

	u, err := e.r.Cache.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = NewCreateUserUseCase(e.r).Execute(context.Background(), CreateUserInput{Username: "bad name"})
	assert.ErrorIs(t, err, relation.ErrInvalidUsername)

	missing := uuid.New()
	_, err = NewCreateUserUseCase(e.r).Execute(context.Background(), CreateUserInput{Username: "orphan", ParentID: &missing})
	assert.ErrorIs(t, err, relation.ErrNotFound)

	_, err = NewCreateUserUseCase(e.r).Execute(context.Background(), CreateUserInput{Username: "alice"})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestBlock_PropagatesAcrossFamilies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	aAlt := e.create(t, "alice_alt", &a)
	b := e.create(t, "bob", nil)
	bAlt := e.create(t, "bob_alt", &b)

	require.NoError(t, NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: aAlt, TargetID: b}))

	famA := relation.NewUserSet(a, aAlt)
	famB := relation.NewUserSet(b, bAlt)
	for id := range famA {
		assert.True(t, e.blocksOf(t, id).Equal(famB))
	}
	for id := range famB {
		assert.True(t, e.blocksOf(t, id).Equal(famA))
	}

	// A sub-account created later inherits the family's blocks at once.
	aNew := e.create(t, "alice_new", &a)
	assert.True(t, e.blocksOf(t, aNew).Equal(famB))
	assert.True(t, e.blocksOf(t, b).Contains(aNew))
}

func TestBlockThenUnblock_RoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	b := e.create(t, "bob", nil)
	c := e.create(t, "carol", nil)
	require.NoError(t, NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: a, TargetID: c}))

	before := map[uuid.UUID]relation.UserSet{}
	for _, id := range []uuid.UUID{a, b, c} {
		before[id] = e.blocksOf(t, id)
	}

	require.NoError(t, NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: a, TargetID: b}))
	require.NoError(t, NewUnblockUserUseCase(e.r).Execute(ctx, UnblockUserInput{RequesterID: a, TargetID: b}))

	for id, want := range before {
		assert.True(t, e.blocksOf(t, id).Equal(want))
	}
}

func TestBlock_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	aAlt := e.create(t, "alice_alt", &a)
	b := e.create(t, "bob", nil)

	block := NewBlockUserUseCase(e.r)
	assert.ErrorIs(t, block.Execute(ctx, BlockUserInput{RequesterID: a, TargetID: a}), relation.ErrSelfRelation)
	assert.ErrorIs(t, block.Execute(ctx, BlockUserInput{RequesterID: a, TargetID: aAlt}), relation.ErrSelfRelation)
	assert.ErrorIs(t, block.Execute(ctx, BlockUserInput{RequesterID: a, TargetID: uuid.New()}), relation.ErrNotFound)
	assert.ErrorIs(t, NewUnblockUserUseCase(e.r).Execute(ctx, UnblockUserInput{RequesterID: a, TargetID: b}), relation.ErrNotInList)
}

func TestBlock_LeaseContention(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	b := e.create(t, "bob", nil)

	_, ok, err := e.kv.AcquireLease(ctx, blockstore.ConfigDefaults().LeaseName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	err = NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: a, TargetID: b})
	require.ErrorIs(t, err, relation.ErrTransientContention)
	assert.Zero(t, e.blocksOf(t, a).Len())
	assert.Empty(t, e.queue.Pending())

	containers, err := e.repo.FetchRelationshipContainers(ctx, a)
	require.NoError(t, err)
	assert.False(t, containers.BlockListOf(a).IDs.Contains(b), "block list is left as it was")
}

func TestUnblock_RetryAfterLeaseContention(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	b := e.create(t, "bob", nil)
	require.NoError(t, NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: a, TargetID: b}))

	lease, ok, err := e.kv.AcquireLease(ctx, blockstore.ConfigDefaults().LeaseName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	unblock := NewUnblockUserUseCase(e.r)
	err = unblock.Execute(ctx, UnblockUserInput{RequesterID: a, TargetID: b})
	require.ErrorIs(t, err, relation.ErrTransientContention)

	containers, err := e.repo.FetchRelationshipContainers(ctx, a)
	require.NoError(t, err)
	assert.True(t, containers.BlockListOf(a).IDs.Contains(b))

	require.NoError(t, e.kv.ReleaseLease(ctx, lease))
	require.NoError(t, unblock.Execute(ctx, UnblockUserInput{RequesterID: a, TargetID: b}))
	assert.False(t, e.blocksOf(t, a).Contains(b))
	assert.False(t, e.blocksOf(t, b).Contains(a))
}

func TestBlock_PartialWriteSchedulesReplay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	b := e.create(t, "bob", nil)

	e.kv.FailErr = errors.New("connection reset")
	e.kv.FailSetAfter = 1

	err := NewBlockUserUseCase(e.r).Execute(ctx, BlockUserInput{RequesterID: a, TargetID: b})
	require.ErrorIs(t, err, relation.ErrStoreUnavailable)
	var partial *blockstore.PartialApplyError
	require.ErrorAs(t, err, &partial)
	require.Len(t, e.queue.Pending(), 1)
	assert.Equal(t, task.ReplayBlocksTaskType, e.queue.Pending()[0].Type)

	e.kv.FailSetAfter = 0
	require.NoError(t, e.queue.Drain(ctx))
	assert.True(t, e.blocksOf(t, a).Equal(relation.NewUserSet(b)))
	assert.True(t, e.blocksOf(t, b).Equal(relation.NewUserSet(a)))
}

func TestMute_IsOneDirectional(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	aAlt := e.create(t, "alice_alt", &a)
	m := e.create(t, "mallory", nil)

	mute := NewMuteUserUseCase(e.r)
	require.NoError(t, mute.Execute(ctx, MuteUserInput{RequesterID: a, TargetID: m}))
	require.NoError(t, mute.Execute(ctx, MuteUserInput{RequesterID: a, TargetID: m}))

	mutes, err := e.r.Cache.MutesOf(a)
	require.NoError(t, err)
	assert.True(t, mutes.Equal(relation.NewUserSet(m)))
	for _, id := range []uuid.UUID{aAlt, m} {
		mutes, err := e.r.Cache.MutesOf(id)
		require.NoError(t, err)
		assert.Zero(t, mutes.Len())
	}

	unmute := NewUnmuteUserUseCase(e.r)
	require.NoError(t, unmute.Execute(ctx, UnmuteUserInput{RequesterID: a, TargetID: m}))
	assert.ErrorIs(t, unmute.Execute(ctx, UnmuteUserInput{RequesterID: a, TargetID: m}), relation.ErrNotInList)
	assert.ErrorIs(t, mute.Execute(ctx, MuteUserInput{RequesterID: a, TargetID: a}), relation.ErrSelfRelation)
}

func TestKeywords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)

	add := NewAddKeywordUseCase(e.r)
	words, err := add.Execute(ctx, KeywordInput{UserID: a, Kind: relation.KeywordMute, Word: " Spoiler "})
	require.NoError(t, err)
	assert.Equal(t, []string{"spoiler"}, words)
	words, err = add.Execute(ctx, KeywordInput{UserID: a, Kind: relation.KeywordMute, Word: "ending"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ending", "spoiler"}, words)

	u, err := e.r.Cache.Get(a)
	require.NoError(t, err)
	assert.True(t, u.MutesText("no SPOILERS please"))
	assert.Empty(t, u.AlertKeywords)

	remove := NewRemoveKeywordUseCase(e.r)
	_, err = remove.Execute(ctx, KeywordInput{UserID: a, Kind: relation.KeywordMute, Word: "spoiler"})
	require.NoError(t, err)
	_, err = remove.Execute(ctx, KeywordInput{UserID: a, Kind: relation.KeywordMute, Word: "spoiler"})
	assert.ErrorIs(t, err, relation.ErrNotInList)
	_, err = add.Execute(ctx, KeywordInput{UserID: a, Kind: relation.KeywordAlert, Word: "  "})
	assert.ErrorIs(t, err, relation.ErrInvalidKeyword)

	u, err = e.r.Cache.Get(a)
	require.NoError(t, err)
	assert.False(t, u.MutesText("no spoilers please"))
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", nil)
	name := " Alice A. "
	avatar := "avatars/alice.jpg"

	h, err := NewUpdateProfileUseCase(e.r).Execute(ctx, UpdateProfileInput{UserID: a, DisplayName: &name, AvatarRef: &avatar})
	require.NoError(t, err)
	require.NotNil(t, h.DisplayName)
	assert.Equal(t, "Alice A.", *h.DisplayName)
	assert.Equal(t, avatar, h.AvatarRef)

	_, err = NewUpdateProfileUseCase(e.r).Execute(ctx, UpdateProfileInput{UserID: uuid.New(), AvatarRef: &avatar})
	assert.ErrorIs(t, err, relation.ErrNotFound)
}
