package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-twitarr/internal/infrastructure/cache/adapter"
	queueadapter "go-twitarr/internal/infrastructure/queue/adapter"
	qport "go-twitarr/internal/infrastructure/queue/port"
	chat "go-twitarr/internal/pkg/chat/application/domain"
	"go-twitarr/internal/pkg/chat/application/usecase"
	chatrepo "go-twitarr/internal/pkg/chat/persistence/repository/adapter"
	"go-twitarr/internal/pkg/relation/application/blockstore"
	relusecase "go-twitarr/internal/pkg/relation/application/usecase"
	"go-twitarr/internal/pkg/relation/application/usercache"
	repoadapter "go-twitarr/internal/repository/adapter"
)

func setup(t *testing.T) (*queueadapter.InlineQueue, *chatrepo.MemoryChatRepository, uuid.UUID, uuid.UUID) {
	t.Helper()
	users := repoadapter.NewMemoryUserRepository()
	blocks := blockstore.New(cacheadapter.NewMemoryStore(), blockstore.ConfigDefaults(), nil, nil)
	cache := usercache.New(users, blocks, nil, nil)
	rel := relusecase.Relationships{Users: users, Blocks: blocks, Cache: cache}
	owner, err := relusecase.NewCreateUserUseCase(rel).Execute(context.Background(), relusecase.CreateUserInput{Username: "owner"})
	require.NoError(t, err)

	repo := chatrepo.NewMemoryChatRepository()
	threads := usecase.Threads{Repo: repo, Viewers: cache}
	c, err := usecase.NewCreateChatUseCase(threads).Execute(context.Background(), usecase.CreateChatInput{
		OwnerID: owner.UserID, Kind: chat.ThreadKindForum, Title: "lobby",
	})
	require.NoError(t, err)

	q := queueadapter.NewInlineQueue()
	RegisterSendMessageTask(q, usecase.NewSendMessageUseCase(threads, nil), nil)
	return q, repo, c.Thread.ID, owner.UserID
}

func TestSendMessageTask_StoresPost(t *testing.T) {
	q, repo, threadID, owner := setup(t)
	sender := NewSender(q)

	_, err := sender.Enqueue(context.Background(), SendMessageTaskPayload{ThreadID: threadID, AuthorID: owner, Text: "hello"}, "k1")
	require.NoError(t, err)
	_, err = sender.Enqueue(context.Background(), SendMessageTaskPayload{ThreadID: threadID, AuthorID: owner, Text: "hello"}, "k1")
	assert.Error(t, err, "duplicate client key is rejected")

	require.NoError(t, q.Drain(context.Background()))
	n, err := repo.CountPosts(context.Background(), threadID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSendMessageTask_RejectionSkipsRetry(t *testing.T) {
	q, _, threadID, _ := setup(t)

	_, err := NewSender(q).Enqueue(context.Background(), SendMessageTaskPayload{ThreadID: threadID, AuthorID: uuid.New(), Text: "hi"}, "")
	require.NoError(t, err)
	assert.ErrorIs(t, q.Drain(context.Background()), qport.ErrSkipRetry)

	_, err = q.Enqueue(context.Background(), qport.Task{Type: SendMessageTaskType, Payload: []byte("{")})
	require.NoError(t, err)
	assert.ErrorIs(t, q.Drain(context.Background()), qport.ErrSkipRetry)
}

func TestSendMessageTask_PersistenceErrorRetries(t *testing.T) {
	q, repo, threadID, owner := setup(t)
	repo.FailWrites = assert.AnError

	_, err := NewSender(q).Enqueue(context.Background(), SendMessageTaskPayload{ThreadID: threadID, AuthorID: owner, Text: "hi"}, "")
	require.NoError(t, err)
	err = q.Drain(context.Background())
	assert.ErrorIs(t, err, usecase.ErrPersistence)
	assert.NotErrorIs(t, err, qport.ErrSkipRetry)
}
