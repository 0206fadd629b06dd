package repository

import (
	"context"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence for threads, posts, membership and read
// pivots. Post indices are zero-based positions in unfiltered thread order.
type ChatRepository interface {
	CreateThread(ctx context.Context, t chat.Thread) error
	GetThread(ctx context.Context, threadID uuid.UUID) (chat.Thread, error)

	CountPosts(ctx context.Context, threadID uuid.UUID) (int, error)
	// FetchPostsInRange returns posts with index in [start, end).
	FetchPostsInRange(ctx context.Context, threadID uuid.UUID, start, end int) ([]chat.Post, error)
	// FetchPostsFrom returns up to limit posts beginning at postID.
	FetchPostsFrom(ctx context.Context, threadID uuid.UUID, postID int64, limit int) ([]chat.Post, error)
	IndexOfPost(ctx context.Context, threadID uuid.UUID, postID int64) (int, error)
	SavePost(ctx context.Context, p chat.Post) (int64, error)
	GetPost(ctx context.Context, postID int64) (chat.Post, error)
	DeletePost(ctx context.Context, postID int64) error
	CountPostsByAuthors(ctx context.Context, threadID uuid.UUID, authorIDs []uuid.UUID) (int, error)

	// FetchPivot returns nil when the user has never viewed the thread.
	FetchPivot(ctx context.Context, userID, threadID uuid.UUID) (*chat.ReadPivot, error)
	SavePivot(ctx context.Context, p chat.ReadPivot) error
	// AdvanceReadCount applies ReadPivot.Advance to the stored pivot in place,
	// creating it when absent, and returns the result. Hidden counts are untouched.
	AdvanceReadCount(ctx context.Context, userID, threadID uuid.UUID, readCount, total int) (chat.ReadPivot, error)
	// ShiftForNewPost moves the author's read position to total and gives each
	// hider one more hidden post, in one atomic step.
	ShiftForNewPost(ctx context.Context, threadID, authorID uuid.UUID, total int, hiders []uuid.UUID) error
	// ShiftForDeletion applies ReadPivot.AfterDeletion to every pivot of the
	// thread in place and reports how many changed.
	ShiftForDeletion(ctx context.Context, threadID uuid.UUID, index int, hiders []uuid.UUID) (int, error)
	ListPivots(ctx context.Context, threadID uuid.UUID) ([]chat.ReadPivot, error)

	AddParticipant(ctx context.Context, p chat.Participant) error
	IsParticipant(ctx context.Context, threadID, userID uuid.UUID) (bool, error)
	ListParticipantIDs(ctx context.Context, threadID uuid.UUID) ([]uuid.UUID, error)
}
