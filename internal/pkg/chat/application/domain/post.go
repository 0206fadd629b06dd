package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPostLength bounds post text in runes.
const MaxPostLength = 2000

// Post is an entry in a thread. Posts order by CreatedAt, then ID.
type Post struct {
	ID        int64     `db:"id"`
	ThreadID  uuid.UUID `db:"thread_id"`
	AuthorID  uuid.UUID `db:"author_id"`
	Text      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func NewPost(p Post) (*Post, error) {
	if p.ThreadID == uuid.Nil || p.AuthorID == uuid.Nil {
		return nil, ErrInvalidPost
	}
	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return nil, ErrEmptyPost
	}
	if utf8.RuneCountInString(p.Text) > MaxPostLength {
		return nil, ErrPostTooLong
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return &p, nil
}

// Before reports whether p sorts ahead of o in thread order.
func (p Post) Before(o Post) bool {
	if !p.CreatedAt.Equal(o.CreatedAt) {
		return p.CreatedAt.Before(o.CreatedAt)
	}
	return p.ID < o.ID
}
