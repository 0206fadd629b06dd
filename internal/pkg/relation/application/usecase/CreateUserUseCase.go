package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// CreateUserInput carries a new account. ParentID links a sub-account to its family.
type CreateUserInput struct {
	Username    string
	DisplayName *string
	ParentID    *uuid.UUID
}

// CreateUserUseCase persists an account and its empty containers, then caches it
// before returning.
type CreateUserUseCase struct {
	Relationships
}

func NewCreateUserUseCase(r Relationships) *CreateUserUseCase {
	return &CreateUserUseCase{Relationships: r}
}

func (uc *CreateUserUseCase) Execute(ctx context.Context, in CreateUserInput) (*relation.CachedUser, error) {
	var parent *relation.Profile
	if in.ParentID != nil {
		p, err := uc.Users.FetchUser(ctx, *in.ParentID)
		if err != nil {
			return nil, repoErr(err)
		}
		parent = &p
	}

	profile, err := relation.NewProfile(in.Username, in.DisplayName, parent, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.Users.CreateUser(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	rebuild := []uuid.UUID{profile.ID}
	if parent != nil {
		family, err := uc.Users.FamilyOf(ctx, profile.ID)
		if err != nil {
			return nil, repoErr(err)
		}
		changed, err := uc.Blocks.SeedFamilyMember(ctx, profile.ID, family)
		if err != nil {
			return nil, fmt.Errorf("seed family blocks: %w", err)
		}
		rebuild = changed.Union(relation.NewUserSet(profile.ID)).Slice()
	}

	if err := uc.Cache.RebuildMany(ctx, rebuild); err != nil {
		return nil, fmt.Errorf("cache new user: %w", err)
	}
	u, err := uc.Cache.Get(profile.ID)
	if err != nil {
		return nil, err
	}
	uc.logger().Info("user created", "user_id", profile.ID, "username", profile.Username, "sub_account", parent != nil)
	return &u, nil
}
