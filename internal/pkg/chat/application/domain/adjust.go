package chat

import (
	"github.com/google/uuid"
)

// AfterDeletion returns p once the post at unfiltered index is removed.
// hidden reports whether p's user was hiding the post's author.
func (p ReadPivot) AfterDeletion(index int, hidden bool) ReadPivot {
	if p.ReadCount > index {
		p.ReadCount--
	}
	if hidden && p.HiddenCount > 0 {
		p.HiddenCount--
	}
	return p
}

// Advance moves the read position to readCount. The position never moves
// backwards unless it is past total, which happens after deletions.
func (p ReadPivot) Advance(readCount, total int) ReadPivot {
	if readCount > p.ReadCount || p.ReadCount > total {
		p.ReadCount = readCount
	}
	return p
}

// Hiders returns the owners of pivots, other than author, for whom hides
// reports true. They gain or lose one hidden post when author's posts change.
func Hiders(pivots []ReadPivot, author uuid.UUID, hides func(userID uuid.UUID) bool) []uuid.UUID {
	if hides == nil {
		return nil
	}
	var out []uuid.UUID
	for _, p := range pivots {
		if p.UserID != author && hides(p.UserID) {
			out = append(out, p.UserID)
		}
	}
	return out
}

// JoinPivot initializes a joining user's pivot.
func JoinPivot(userID, threadID uuid.UUID, hiddenCount int) ReadPivot {
	return ReadPivot{UserID: userID, ThreadID: threadID, ReadCount: 0, HiddenCount: hiddenCount}
}
