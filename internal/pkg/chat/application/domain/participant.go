package chat

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a member of a fez.
// Primary key: (ThreadID, UserID)
type Participant struct {
	ThreadID uuid.UUID `db:"thread_id"`
	UserID   uuid.UUID `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// ReadPivot tracks a user's position in a thread. ReadCount counts posts in
// unfiltered order; HiddenCount counts posts the user cannot see.
// Primary key: (UserID, ThreadID)
type ReadPivot struct {
	UserID      uuid.UUID `db:"user_id"`
	ThreadID    uuid.UUID `db:"thread_id"`
	ReadCount   int       `db:"read_count"`
	HiddenCount int       `db:"hidden_count"`
}

// Unread is the number of visible posts past the read position.
func (p ReadPivot) Unread(total int) int {
	n := total - p.ReadCount - p.HiddenCount
	if n < 0 {
		return 0
	}
	return n
}
