package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-twitarr/internal/pkg/chat/application/domain"
	repository "go-twitarr/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

var errNilPool = errors.New("PgChatRepository: nil pool")

func (r *PgChatRepository) CreateThread(ctx context.Context, t chat.Thread) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO chat.thread (id, kind, owner_id, title, created_at) VALUES ($1, $2, $3, $4, $5)",
		t.ID, int16(t.Kind), t.OwnerID, t.Title, t.CreatedAt,
	)
	return err
}

func (r *PgChatRepository) GetThread(ctx context.Context, threadID uuid.UUID) (chat.Thread, error) {
	if r == nil || r.pool == nil {
		return chat.Thread{}, errNilPool
	}
	var (
		t    chat.Thread
		kind int16
	)
	err := r.pool.QueryRow(ctx,
		"SELECT id, kind, owner_id, title, created_at FROM chat.thread WHERE id = $1", threadID,
	).Scan(&t.ID, &kind, &t.OwnerID, &t.Title, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Thread{}, chat.ErrThreadNotFound
	}
	t.Kind = chat.ThreadKind(kind)
	return t, err
}

func (r *PgChatRepository) CountPosts(ctx context.Context, threadID uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	var n int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM chat.post WHERE thread_id = $1", threadID).Scan(&n)
	return n, err
}

func (r *PgChatRepository) FetchPostsInRange(ctx context.Context, threadID uuid.UUID, start, end int) ([]chat.Post, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if start < 0 {
		start = 0
	}
	if end <= start {
		return []chat.Post{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, thread_id, author_id, body, created_at
		FROM chat.post
		WHERE thread_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3
	`, threadID, start, end-start)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PgChatRepository) FetchPostsFrom(ctx context.Context, threadID uuid.UUID, postID int64, limit int) ([]chat.Post, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.thread_id, p.author_id, p.body, p.created_at
		FROM chat.post p, chat.post anchor
		WHERE anchor.id = $2 AND anchor.thread_id = $1 AND p.thread_id = $1
		  AND (p.created_at, p.id) >= (anchor.created_at, anchor.id)
		ORDER BY p.created_at, p.id
		LIMIT $3
	`, threadID, postID, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PgChatRepository) IndexOfPost(ctx context.Context, threadID uuid.UUID, postID int64) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	var idx int
	err := r.pool.QueryRow(ctx, `
		SELECT count(p.id)
		FROM chat.post anchor
		LEFT JOIN chat.post p
		  ON p.thread_id = anchor.thread_id AND (p.created_at, p.id) < (anchor.created_at, anchor.id)
		WHERE anchor.id = $2 AND anchor.thread_id = $1
		GROUP BY anchor.id
	`, threadID, postID).Scan(&idx)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, chat.ErrPostNotFound
	}
	return idx, err
}

func (r *PgChatRepository) SavePost(ctx context.Context, p chat.Post) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.post (thread_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.ThreadID, p.AuthorID, p.Text, p.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetPost(ctx context.Context, postID int64) (chat.Post, error) {
	if r == nil || r.pool == nil {
		return chat.Post{}, errNilPool
	}
	var p chat.Post
	err := r.pool.QueryRow(ctx,
		"SELECT id, thread_id, author_id, body, created_at FROM chat.post WHERE id = $1", postID,
	).Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Text, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Post{}, chat.ErrPostNotFound
	}
	return p, err
}

func (r *PgChatRepository) DeletePost(ctx context.Context, postID int64) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, "DELETE FROM chat.post WHERE id = $1", postID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrPostNotFound
	}
	return nil
}

func (r *PgChatRepository) CountPostsByAuthors(ctx context.Context, threadID uuid.UUID, authorIDs []uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM chat.post WHERE thread_id = $1 AND author_id = ANY($2)", threadID, authorIDs,
	).Scan(&n)
	return n, err
}

func (r *PgChatRepository) FetchPivot(ctx context.Context, userID, threadID uuid.UUID) (*chat.ReadPivot, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	p := chat.ReadPivot{UserID: userID, ThreadID: threadID}
	err := r.pool.QueryRow(ctx,
		"SELECT read_count, hidden_count FROM chat.read_pivot WHERE user_id = $1 AND thread_id = $2", userID, threadID,
	).Scan(&p.ReadCount, &p.HiddenCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgChatRepository) SavePivot(ctx context.Context, p chat.ReadPivot) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.read_pivot (user_id, thread_id, read_count, hidden_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, thread_id)
		DO UPDATE SET read_count = EXCLUDED.read_count,
		              hidden_count = EXCLUDED.hidden_count
	`, p.UserID, p.ThreadID, p.ReadCount, p.HiddenCount)
	return err
}

// advanceSQL upserts a read position with ReadPivot.Advance semantics:
// $3 is the new read count, $4 the thread's post total.
const advanceSQL = `
	INSERT INTO chat.read_pivot AS rp (user_id, thread_id, read_count, hidden_count)
	VALUES ($1, $2, $3, 0)
	ON CONFLICT (user_id, thread_id)
	DO UPDATE SET read_count = CASE
		WHEN EXCLUDED.read_count > rp.read_count OR rp.read_count > $4 THEN EXCLUDED.read_count
		ELSE rp.read_count
	END`

func (r *PgChatRepository) AdvanceReadCount(ctx context.Context, userID, threadID uuid.UUID, readCount, total int) (chat.ReadPivot, error) {
	if r == nil || r.pool == nil {
		return chat.ReadPivot{}, errNilPool
	}
	p := chat.ReadPivot{UserID: userID, ThreadID: threadID}
	err := r.pool.QueryRow(ctx, advanceSQL+" RETURNING read_count, hidden_count", userID, threadID, readCount, total).
		Scan(&p.ReadCount, &p.HiddenCount)
	return p, err
}

func (r *PgChatRepository) ShiftForNewPost(ctx context.Context, threadID, authorID uuid.UUID, total int, hiders []uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, advanceSQL, authorID, threadID, total, total); err != nil {
			return err
		}
		if len(hiders) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			UPDATE chat.read_pivot SET hidden_count = hidden_count + 1
			WHERE thread_id = $1 AND user_id = ANY($2) AND user_id <> $3
		`, threadID, hiders, authorID)
		return err
	})
}

func (r *PgChatRepository) ShiftForDeletion(ctx context.Context, threadID uuid.UUID, index int, hiders []uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	if hiders == nil {
		hiders = []uuid.UUID{}
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat.read_pivot
		SET read_count = CASE WHEN read_count > $2 THEN read_count - 1 ELSE read_count END,
		    hidden_count = CASE WHEN user_id = ANY($3) AND hidden_count > 0 THEN hidden_count - 1 ELSE hidden_count END
		WHERE thread_id = $1 AND (read_count > $2 OR (user_id = ANY($3) AND hidden_count > 0))
	`, threadID, index, hiders)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgChatRepository) ListPivots(ctx context.Context, threadID uuid.UUID) ([]chat.ReadPivot, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, thread_id, read_count, hidden_count
		FROM chat.read_pivot WHERE thread_id = $1 ORDER BY user_id
	`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pivots []chat.ReadPivot
	for rows.Next() {
		var p chat.ReadPivot
		if err := rows.Scan(&p.UserID, &p.ThreadID, &p.ReadCount, &p.HiddenCount); err != nil {
			return nil, err
		}
		pivots = append(pivots, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return pivots, nil
}

func (r *PgChatRepository) AddParticipant(ctx context.Context, p chat.Participant) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.participant (thread_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (thread_id, user_id) DO NOTHING
	`, p.ThreadID, p.UserID, p.JoinedAt)
	return err
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, threadID, userID uuid.UUID) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	var ok bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM chat.participant WHERE thread_id = $1 AND user_id = $2)", threadID, userID,
	).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, threadID uuid.UUID) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx,
		"SELECT user_id FROM chat.participant WHERE thread_id = $1 ORDER BY joined_at, user_id", threadID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("participants of %s: %w", threadID, err)
	}
	return ids, nil
}

func collectPosts(rows pgx.Rows) ([]chat.Post, error) {
	defer rows.Close()
	posts := []chat.Post{}
	for rows.Next() {
		var p chat.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Text, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return posts, nil
}
