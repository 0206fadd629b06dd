package relation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the identity row of a user account.
type Profile struct {
	ID          uuid.UUID  `db:"id"`
	Username    string     `db:"username"`
	DisplayName *string    `db:"display_name"`
	AvatarRef   string     `db:"avatar_ref"`
	ParentID    *uuid.UUID `db:"parent_id"`
	CreatedAt   time.Time  `db:"created_at"`
}

// FamilyRoot returns the primary account of the family this profile belongs to.
func (p Profile) FamilyRoot() uuid.UUID {
	if p.ParentID != nil {
		return *p.ParentID
	}
	return p.ID
}

// NewProfile validates the username and attaches the account to its family.
// parent is nil for a primary account. A sub-account of a sub-account joins
// the same root.
func NewProfile(username string, displayName *string, parent *Profile, now time.Time) (Profile, error) {
	name := strings.TrimSpace(username)
	if name == "" || len(name) > 50 || strings.ContainsAny(name, " \t\n@") {
		return Profile{}, ErrInvalidUsername
	}
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			displayName = nil
		} else {
			displayName = &trimmed
		}
	}
	p := Profile{
		ID:          uuid.New(),
		Username:    name,
		DisplayName: displayName,
		CreatedAt:   now.UTC(),
	}
	if parent != nil {
		root := parent.FamilyRoot()
		p.ParentID = &root
	}
	return p, nil
}
