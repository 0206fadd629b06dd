package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	repository "go-twitarr/internal/repository/port"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// MemoryUserRepository is an in-process UserRepository.
type MemoryUserRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]relation.Profile
	blocks   map[uuid.UUID]relation.BlockList
	mutes    map[uuid.UUID]relation.MuteList
	keywords map[uuid.UUID]map[relation.KeywordKind]relation.KeywordList

	// FailReads, when set, is returned by every read method.
	FailReads error
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		profiles: make(map[uuid.UUID]relation.Profile),
		blocks:   make(map[uuid.UUID]relation.BlockList),
		mutes:    make(map[uuid.UUID]relation.MuteList),
		keywords: make(map[uuid.UUID]map[relation.KeywordKind]relation.KeywordList),
	}
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func (r *MemoryUserRepository) FetchUser(ctx context.Context, userID uuid.UUID) (relation.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailReads != nil {
		return relation.Profile{}, r.FailReads
	}
	p, ok := r.profiles[userID]
	if !ok {
		return relation.Profile{}, fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	return p, nil
}

func (r *MemoryUserRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	ps := make([]relation.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
	ids := make([]uuid.UUID, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids, nil
}

func (r *MemoryUserRepository) FetchRelationshipContainers(ctx context.Context, userID uuid.UUID) (relation.Containers, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailReads != nil {
		return relation.Containers{}, r.FailReads
	}
	var c relation.Containers
	if l, ok := r.blocks[userID]; ok {
		l.IDs = relation.NewUserSet().Union(l.IDs)
		c.Blocks = &l
	}
	if l, ok := r.mutes[userID]; ok {
		l.IDs = relation.NewUserSet().Union(l.IDs)
		c.Mutes = &l
	}
	if l, ok := r.keywords[userID][relation.KeywordMute]; ok {
		l.Words = append([]string(nil), l.Words...)
		c.MuteKeywords = &l
	}
	if l, ok := r.keywords[userID][relation.KeywordAlert]; ok {
		l.Words = append([]string(nil), l.Words...)
		c.AlertKeywords = &l
	}
	return c, nil
}

func (r *MemoryUserRepository) FamilyOf(ctx context.Context, userID uuid.UUID) (relation.UserSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	root := p.FamilyRoot()
	family := relation.NewUserSet(root)
	for id, other := range r.profiles {
		if other.ParentID != nil && *other.ParentID == root {
			family[id] = struct{}{}
		}
	}
	return family, nil
}

func (r *MemoryUserRepository) CreateUser(ctx context.Context, p relation.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; ok {
		return fmt.Errorf("user %s already exists", p.ID)
	}
	for _, other := range r.profiles {
		if other.Username == p.Username {
			return fmt.Errorf("username %q already taken", p.Username)
		}
	}
	r.profiles[p.ID] = p
	r.blocks[p.ID] = relation.BlockList{UserID: p.ID, IDs: relation.UserSet{}}
	r.mutes[p.ID] = relation.MuteList{UserID: p.ID, IDs: relation.UserSet{}}
	r.keywords[p.ID] = map[relation.KeywordKind]relation.KeywordList{
		relation.KeywordMute:  {UserID: p.ID, Kind: relation.KeywordMute},
		relation.KeywordAlert: {UserID: p.ID, Kind: relation.KeywordAlert},
	}
	return nil
}

func (r *MemoryUserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string, avatarRef *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, relation.ErrNotFound)
	}
	if displayName != nil {
		name := *displayName
		p.DisplayName = &name
	}
	if avatarRef != nil {
		p.AvatarRef = *avatarRef
	}
	r.profiles[userID] = p
	return nil
}

func (r *MemoryUserRepository) SaveBlockList(ctx context.Context, l relation.BlockList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.IDs = relation.NewUserSet().Union(l.IDs)
	r.blocks[l.UserID] = l
	return nil
}

func (r *MemoryUserRepository) SaveMuteList(ctx context.Context, l relation.MuteList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.IDs = relation.NewUserSet().Union(l.IDs)
	r.mutes[l.UserID] = l
	return nil
}

func (r *MemoryUserRepository) SaveKeywordList(ctx context.Context, l relation.KeywordList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Words = append([]string(nil), l.Words...)
	if r.keywords[l.UserID] == nil {
		r.keywords[l.UserID] = make(map[relation.KeywordKind]relation.KeywordList)
	}
	r.keywords[l.UserID][l.Kind] = l
	return nil
}
