package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type UpdateProfileInput struct {
	UserID      uuid.UUID
	DisplayName *string
	AvatarRef   *string
}

type UpdateProfileUseCase struct {
	Relationships
}

func NewUpdateProfileUseCase(r Relationships) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{Relationships: r}
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, in UpdateProfileInput) (*relation.Header, error) {
	if in.DisplayName == nil && in.AvatarRef == nil {
		return nil, errors.New("nothing to update")
	}
	if in.DisplayName != nil {
		trimmed := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &trimmed
	}
	if err := uc.Users.UpdateProfile(ctx, in.UserID, in.DisplayName, in.AvatarRef); err != nil {
		return nil, repoErr(err)
	}
	uc.settle(ctx, func(ctx context.Context) error { return uc.Cache.OnProfileChanged(ctx, in.UserID) }, in.UserID)

	h, err := uc.Cache.Header(in.UserID)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
