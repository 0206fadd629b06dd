package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// Domain-level errors for thread behaviors
var (
	ErrInvalidThread     = errors.New("chat: invalid thread")
	ErrThreadNotFound    = errors.New("chat: thread not found")
	ErrPostNotFound      = errors.New("chat: post not found")
	ErrNotParticipant    = errors.New("chat: user is not a participant in the thread")
	ErrThreadUnavailable = errors.New("chat: thread unavailable because the user blocks its owner")
	ErrUserBlocked       = errors.New("chat: participant is blocked by the thread owner")
	ErrNotFez            = errors.New("chat: only group chats can be joined")
	ErrNotPostOwner      = errors.New("chat: only the author or thread owner can delete a post")
	ErrBackdatedPost     = errors.New("chat: post timestamp is backdated")
	ErrInvalidPost       = errors.New("chat: thread_id and author_id are required")
	ErrEmptyPost         = errors.New("chat: empty post")
	ErrPostTooLong       = errors.New("chat: post too long")
)

// Chat is the domain aggregate for a thread and its membership rules.
// The application layer hydrates it with participants and the last post
// timestamp before invoking its behaviors.
type Chat struct {
	Thread       Thread
	Participants map[uuid.UUID]Participant
	LastPostAt   *time.Time
}

// HasParticipant tells whether userID is a member of this thread.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	if c == nil || c.Participants == nil {
		return false
	}
	_, ok := c.Participants[userID]
	return ok
}

// CanView checks whether viewer may read the thread. Forums are open to
// everyone; fezzes only to participants. Blocking the owner hides the thread.
func (c *Chat) CanView(viewer relation.CachedUser) error {
	if viewer.Blocks.Contains(c.Thread.OwnerID) {
		return ErrThreadUnavailable
	}
	if c.Thread.Kind == ThreadKindFez && !c.HasParticipant(viewer.UserID) {
		return ErrNotParticipant
	}
	return nil
}

// AddPost applies domain rules and returns a validated post ready to persist.
//
// Validations:
// - Author may view the thread
// - Post must not be backdated relative to LastPostAt (if known)
// - Text must be non-empty and within MaxPostLength
//
// On success, c.LastPostAt is advanced to the post's CreatedAt.
func (c *Chat) AddPost(author relation.CachedUser, text string, now time.Time) (Post, error) {
	if err := c.CanView(author); err != nil {
		return Post{}, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	ts := now.UTC()
	if c.LastPostAt != nil && ts.Before(c.LastPostAt.UTC()) {
		return Post{}, ErrBackdatedPost
	}
	p, err := NewPost(Post{ThreadID: c.Thread.ID, AuthorID: author.UserID, Text: text, CreatedAt: ts})
	if err != nil {
		return Post{}, err
	}
	c.LastPostAt = &ts
	return *p, nil
}

// Admit validates a fez membership for owner-picked participants.
func (c *Chat) Admit(owner relation.CachedUser, userID uuid.UUID, now time.Time) (Participant, error) {
	if owner.Blocks.Contains(userID) {
		return Participant{}, ErrUserBlocked
	}
	p := Participant{ThreadID: c.Thread.ID, UserID: userID, JoinedAt: now.UTC()}
	if c.Participants == nil {
		c.Participants = make(map[uuid.UUID]Participant)
	}
	c.Participants[userID] = p
	return p, nil
}

// Join validates a user joining a fez on their own.
func (c *Chat) Join(joiner relation.CachedUser, now time.Time) (Participant, error) {
	if c.Thread.Kind != ThreadKindFez {
		return Participant{}, ErrNotFez
	}
	if joiner.Blocks.Contains(c.Thread.OwnerID) {
		return Participant{}, ErrThreadUnavailable
	}
	p := Participant{ThreadID: c.Thread.ID, UserID: joiner.UserID, JoinedAt: now.UTC()}
	if c.Participants == nil {
		c.Participants = make(map[uuid.UUID]Participant)
	}
	c.Participants[joiner.UserID] = p
	return p, nil
}

// CanDelete reports whether userID may remove post.
func (c *Chat) CanDelete(userID uuid.UUID, post Post) error {
	if post.AuthorID == userID || c.Thread.OwnerID == userID {
		return nil
	}
	return ErrNotPostOwner
}
