package repository

import (
	"context"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// UserRepository is the durable store for profiles and their relationship
// containers. Missing users are reported as relation.ErrNotFound.
type UserRepository interface {
	FetchUser(ctx context.Context, userID uuid.UUID) (relation.Profile, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	FetchRelationshipContainers(ctx context.Context, userID uuid.UUID) (relation.Containers, error)
	// FamilyOf returns the primary account of userID's family and all its sub-accounts.
	FamilyOf(ctx context.Context, userID uuid.UUID) (relation.UserSet, error)

	// CreateUser inserts the profile together with empty relationship containers.
	CreateUser(ctx context.Context, p relation.Profile) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string, avatarRef *string) error
	SaveBlockList(ctx context.Context, l relation.BlockList) error
	SaveMuteList(ctx context.Context, l relation.MuteList) error
	SaveKeywordList(ctx context.Context, l relation.KeywordList) error
}
