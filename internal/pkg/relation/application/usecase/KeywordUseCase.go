package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
)

type KeywordInput struct {
	UserID uuid.UUID
	Kind   relation.KeywordKind
	Word   string
}

// AddKeywordUseCase adds a mute or alert word. Adding a present word is a no-op.
type AddKeywordUseCase struct {
	Relationships
}

func NewAddKeywordUseCase(r Relationships) *AddKeywordUseCase {
	return &AddKeywordUseCase{Relationships: r}
}

func (uc *AddKeywordUseCase) Execute(ctx context.Context, in KeywordInput) ([]string, error) {
	return editKeywords(ctx, uc.Relationships, in, true)
}

// RemoveKeywordUseCase removes a word; an absent word is ErrNotInList.
type RemoveKeywordUseCase struct {
	Relationships
}

func NewRemoveKeywordUseCase(r Relationships) *RemoveKeywordUseCase {
	return &RemoveKeywordUseCase{Relationships: r}
}

func (uc *RemoveKeywordUseCase) Execute(ctx context.Context, in KeywordInput) ([]string, error) {
	return editKeywords(ctx, uc.Relationships, in, false)
}

func editKeywords(ctx context.Context, r Relationships, in KeywordInput, add bool) ([]string, error) {
	word, err := relation.NormalizeKeyword(in.Word)
	if err != nil {
		return nil, err
	}
	containers, err := r.Users.FetchRelationshipContainers(ctx, in.UserID)
	if err != nil {
		return nil, repoErr(err)
	}
	list := containers.KeywordListOf(in.UserID, in.Kind)
	if add {
		var added bool
		if list, added = list.With(word); !added {
			return list.Words, nil
		}
	} else if list, err = list.Without(word); err != nil {
		return nil, err
	}
	if err := r.Users.SaveKeywordList(ctx, list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.settle(ctx, func(ctx context.Context) error { return r.Cache.OnMuteChanged(ctx, in.UserID) }, in.UserID)
	return list.Words, nil
}
