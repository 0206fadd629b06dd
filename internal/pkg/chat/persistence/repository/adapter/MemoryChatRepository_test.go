package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

func TestMemoryChatRepository_OrdersByTimestampThenID(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	threadID := uuid.New()
	author := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	late, err := repo.SavePost(ctx, chat.Post{ThreadID: threadID, AuthorID: author, Text: "late", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	tieA, err := repo.SavePost(ctx, chat.Post{ThreadID: threadID, AuthorID: author, Text: "a", CreatedAt: base})
	require.NoError(t, err)
	tieB, err := repo.SavePost(ctx, chat.Post{ThreadID: threadID, AuthorID: author, Text: "b", CreatedAt: base})
	require.NoError(t, err)

	posts, err := repo.FetchPostsInRange(ctx, threadID, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []int64{tieA, tieB, late}, []int64{posts[0].ID, posts[1].ID, posts[2].ID})

	idx, err := repo.IndexOfPost(ctx, threadID, late)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	from, err := repo.FetchPostsFrom(ctx, threadID, tieB, 1)
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, tieB, from[0].ID)
}

func TestMemoryChatRepository_RangeBounds(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	threadID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := repo.SavePost(ctx, chat.Post{ThreadID: threadID, AuthorID: uuid.New(), Text: "x", CreatedAt: time.Unix(int64(i), 0)})
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		start, end int
		want       int
	}{
		{"inside", 0, 2, 2},
		{"clipped", 2, 10, 1},
		{"past end", 5, 10, 0},
		{"negative start", -3, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.FetchPostsInRange(ctx, threadID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Len(t, posts, tt.want)
		})
	}
}

func TestMemoryChatRepository_DeleteAndPivots(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	threadID := uuid.New()
	blocked := uuid.New()
	id, err := repo.SavePost(ctx, chat.Post{ThreadID: threadID, AuthorID: blocked, Text: "x", CreatedAt: time.Unix(1, 0)})
	require.NoError(t, err)

	n, err := repo.CountPostsByAuthors(ctx, threadID, []uuid.UUID{blocked})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeletePost(ctx, id))
	assert.ErrorIs(t, repo.DeletePost(ctx, id), chat.ErrPostNotFound)

	reader := uuid.New()
	p, err := repo.FetchPivot(ctx, reader, threadID)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, repo.SavePivot(ctx, chat.ReadPivot{UserID: reader, ThreadID: threadID, ReadCount: 3}))
	pivots, err := repo.ListPivots(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, pivots, 1)
	assert.Equal(t, 3, pivots[0].ReadCount)
}

func TestMemoryChatRepository_PivotShiftsKeepConcurrentUpdates(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	threadID, author, reader := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, repo.SavePivot(ctx, chat.JoinPivot(reader, threadID, 0)))

	const posts = 50
	var wg sync.WaitGroup
	for i := 1; i <= posts; i++ {
		wg.Add(2)
		go func(total int) {
			defer wg.Done()
			assert.NoError(t, repo.ShiftForNewPost(ctx, threadID, author, total, []uuid.UUID{reader}))
		}(i)
		go func(read int) {
			defer wg.Done()
			_, err := repo.AdvanceReadCount(ctx, reader, threadID, read, posts)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := repo.FetchPivot(ctx, reader, threadID)
	require.NoError(t, err)
	assert.Equal(t, posts, p.HiddenCount, "no hidden increment is lost to a read advance")
	assert.Equal(t, posts, p.ReadCount, "read position only moves forward")
}

func TestMemoryChatRepository_ShiftForDeletion(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	threadID, ahead, behind, hider := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, repo.SavePivot(ctx, chat.ReadPivot{UserID: ahead, ThreadID: threadID, ReadCount: 5}))
	require.NoError(t, repo.SavePivot(ctx, chat.ReadPivot{UserID: behind, ThreadID: threadID, ReadCount: 2}))
	require.NoError(t, repo.SavePivot(ctx, chat.ReadPivot{UserID: hider, ThreadID: threadID, ReadCount: 1, HiddenCount: 1}))
	require.NoError(t, repo.SavePivot(ctx, chat.ReadPivot{UserID: ahead, ThreadID: uuid.New(), ReadCount: 5}))

	changed, err := repo.ShiftForDeletion(ctx, threadID, 2, []uuid.UUID{hider})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	pivots, err := repo.ListPivots(ctx, threadID)
	require.NoError(t, err)
	got := map[uuid.UUID]chat.ReadPivot{}
	for _, p := range pivots {
		got[p.UserID] = p
	}
	assert.Equal(t, 4, got[ahead].ReadCount)
	assert.Equal(t, 2, got[behind].ReadCount)
	assert.Equal(t, 0, got[hider].HiddenCount)

	p, err := repo.AdvanceReadCount(ctx, behind, threadID, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, p.ReadCount)
}
