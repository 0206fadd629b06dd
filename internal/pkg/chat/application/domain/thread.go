package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ThreadKind separates public forum threads from group chats.
type ThreadKind int16

const (
	ThreadKindForum ThreadKind = 0
	ThreadKindFez   ThreadKind = 1
)

func (k ThreadKind) String() string {
	if k == ThreadKindFez {
		return "fez"
	}
	return "forum"
}

// Thread is an ordered sequence of posts.
type Thread struct {
	ID        uuid.UUID  `db:"id"`
	Kind      ThreadKind `db:"kind"`
	OwnerID   uuid.UUID  `db:"owner_id"`
	Title     string     `db:"title"`
	CreatedAt time.Time  `db:"created_at"`
}

// NewThread validates the title and stamps a fresh ID.
func NewThread(kind ThreadKind, ownerID uuid.UUID, title string, now time.Time) (Thread, error) {
	if kind != ThreadKindForum && kind != ThreadKindFez {
		return Thread{}, ErrInvalidThread
	}
	t := strings.TrimSpace(title)
	if t == "" || len(t) > 200 {
		return Thread{}, ErrInvalidThread
	}
	return Thread{
		ID:        uuid.New(),
		Kind:      kind,
		OwnerID:   ownerID,
		Title:     t,
		CreatedAt: now.UTC(),
	}, nil
}

// FiltersKeywords reports whether mute keywords apply to this thread's posts.
// Keyword filtering is for public listings only.
func (t Thread) FiltersKeywords() bool {
	return t.Kind == ThreadKindForum
}
