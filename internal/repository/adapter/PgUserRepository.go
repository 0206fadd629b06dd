package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "go-twitarr/internal/repository/port"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

var errNilPool = errors.New("PgUserRepository: nil pool")

func (r *PgUserRepository) FetchUser(ctx context.Context, userID uuid.UUID) (relation.Profile, error) {
	if r == nil || r.pool == nil {
		return relation.Profile{}, errNilPool
	}
	var p relation.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, display_name, avatar_ref, parent_id, created_at
		FROM profile.user_account
		WHERE id = $1
	`, userID).Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarRef, &p.ParentID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return relation.Profile{}, fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	return p, err
}

func (r *PgUserRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM profile.user_account ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *PgUserRepository) FetchRelationshipContainers(ctx context.Context, userID uuid.UUID) (relation.Containers, error) {
	if r == nil || r.pool == nil {
		return relation.Containers{}, errNilPool
	}
	var (
		c       relation.Containers
		blocked []uuid.UUID
		muted   []uuid.UUID
	)

	err := r.pool.QueryRow(ctx, `SELECT blocked_ids FROM profile.block_list WHERE user_id = $1`, userID).Scan(&blocked)
	switch {
	case err == nil:
		c.Blocks = &relation.BlockList{UserID: userID, IDs: relation.NewUserSet(blocked...)}
	case !errors.Is(err, pgx.ErrNoRows):
		return relation.Containers{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT muted_ids FROM profile.mute_list WHERE user_id = $1`, userID).Scan(&muted)
	switch {
	case err == nil:
		c.Mutes = &relation.MuteList{UserID: userID, IDs: relation.NewUserSet(muted...)}
	case !errors.Is(err, pgx.ErrNoRows):
		return relation.Containers{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT kind, words FROM profile.keyword_list WHERE user_id = $1`, userID)
	if err != nil {
		return relation.Containers{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  int16
			words []string
		)
		if err := rows.Scan(&kind, &words); err != nil {
			return relation.Containers{}, err
		}
		l := &relation.KeywordList{UserID: userID, Kind: relation.KeywordKind(kind), Words: words}
		switch l.Kind {
		case relation.KeywordMute:
			c.MuteKeywords = l
		case relation.KeywordAlert:
			c.AlertKeywords = l
		}
	}
	if rows.Err() != nil {
		return relation.Containers{}, rows.Err()
	}
	return c, nil
}

func (r *PgUserRepository) FamilyOf(ctx context.Context, userID uuid.UUID) (relation.UserSet, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		WITH root AS (
			SELECT COALESCE(parent_id, id) AS id FROM profile.user_account WHERE id = $1
		)
		SELECT u.id FROM profile.user_account u, root
		WHERE u.id = root.id OR u.parent_id = root.id
	`, userID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	return relation.NewUserSet(ids...), nil
}

func (r *PgUserRepository) CreateUser(ctx context.Context, p relation.Profile) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO profile.user_account (id, username, display_name, avatar_ref, parent_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.Username, p.DisplayName, p.AvatarRef, p.ParentID, p.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO profile.block_list (user_id) VALUES ($1)`, p.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO profile.mute_list (user_id) VALUES ($1)`, p.ID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO profile.keyword_list (user_id, kind) VALUES ($1, $2), ($1, $3)
		`, p.ID, int16(relation.KeywordMute), int16(relation.KeywordAlert))
		return err
	})
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string, avatarRef *string) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE profile.user_account
		SET display_name = CASE WHEN $2 THEN $3 ELSE display_name END,
		    avatar_ref   = COALESCE($4, avatar_ref)
		WHERE id = $1
	`, userID, displayName != nil, displayName, avatarRef)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	return nil
}

func (r *PgUserRepository) SaveBlockList(ctx context.Context, l relation.BlockList) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile.block_list (user_id, blocked_ids) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET blocked_ids = EXCLUDED.blocked_ids
	`, l.UserID, l.IDs.Slice())
	return err
}

func (r *PgUserRepository) SaveMuteList(ctx context.Context, l relation.MuteList) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile.mute_list (user_id, muted_ids) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET muted_ids = EXCLUDED.muted_ids
	`, l.UserID, l.IDs.Slice())
	return err
}

func (r *PgUserRepository) SaveKeywordList(ctx context.Context, l relation.KeywordList) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	words := l.Words
	if words == nil {
		words = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile.keyword_list (user_id, kind, words) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, kind) DO UPDATE SET words = EXCLUDED.words
	`, l.UserID, int16(l.Kind), words)
	return err
}
