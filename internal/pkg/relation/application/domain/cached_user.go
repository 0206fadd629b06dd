package relation

import (
	"strings"

	"github.com/google/uuid"
)

// CachedUser is the denormalized snapshot held by the relationship cache.
// It is replaced whole on rebuild and never mutated in place.
type CachedUser struct {
	UserID        uuid.UUID
	Username      string
	DisplayName   *string
	AvatarRef     string
	Blocks        UserSet
	Mutes         UserSet
	MuteKeywords  []string
	AlertKeywords []string
}

// Header is the public rendering of a user.
type Header struct {
	UserID      uuid.UUID `json:"userID"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"displayName,omitempty"`
	AvatarRef   string    `json:"avatarRef,omitempty"`
}

// NewCachedUser assembles a snapshot from the profile row, the user's
// containers and the family-closed block set.
func NewCachedUser(p Profile, c Containers, resolvedBlocks UserSet) CachedUser {
	u := CachedUser{
		UserID:      p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarRef:   p.AvatarRef,
		Blocks:      resolvedBlocks,
		Mutes:       UserSet{},
	}
	if u.Blocks == nil {
		u.Blocks = UserSet{}
	}
	if c.Mutes != nil && c.Mutes.IDs != nil {
		u.Mutes = c.Mutes.IDs
	}
	if c.MuteKeywords != nil {
		u.MuteKeywords = c.MuteKeywords.Words
	}
	if c.AlertKeywords != nil {
		u.AlertKeywords = c.AlertKeywords.Words
	}
	return u
}

func (u CachedUser) Header() Header {
	return Header{
		UserID:      u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarRef:   u.AvatarRef,
	}
}

// Hides reports whether content by author is filtered out for u.
func (u CachedUser) Hides(author uuid.UUID) bool {
	return u.Blocks.Contains(author) || u.Mutes.Contains(author)
}

// HiddenAuthors is the union of blocked and muted users.
func (u CachedUser) HiddenAuthors() UserSet {
	return u.Blocks.Union(u.Mutes)
}

// MutesText reports whether text contains any mute keyword, case-insensitively.
func (u CachedUser) MutesText(text string) bool {
	if len(u.MuteKeywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range u.MuteKeywords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Equal compares two snapshots field by field.
func (u CachedUser) Equal(o CachedUser) bool {
	if u.UserID != o.UserID || u.Username != o.Username || u.AvatarRef != o.AvatarRef {
		return false
	}
	if (u.DisplayName == nil) != (o.DisplayName == nil) {
		return false
	}
	if u.DisplayName != nil && *u.DisplayName != *o.DisplayName {
		return false
	}
	return u.Blocks.Equal(o.Blocks) && u.Mutes.Equal(o.Mutes) &&
		equalWords(u.MuteKeywords, o.MuteKeywords) && equalWords(u.AlertKeywords, o.AlertKeywords)
}

func equalWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
