package adapter

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
	repository "go-twitarr/internal/pkg/chat/persistence/repository/port"
)

type pivotKey struct {
	userID   uuid.UUID
	threadID uuid.UUID
}

// MemoryChatRepository keeps threads in process memory. Posts of a thread are
// held in display order so indices match the pgx adapter's ordering.
type MemoryChatRepository struct {
	mu           sync.RWMutex
	nextPostID   int64
	threads      map[uuid.UUID]chat.Thread
	posts        map[uuid.UUID][]chat.Post
	pivots       map[pivotKey]chat.ReadPivot
	participants map[uuid.UUID][]chat.Participant

	// FailWrites, when set, is returned by every mutating call.
	FailWrites error
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		threads:      make(map[uuid.UUID]chat.Thread),
		posts:        make(map[uuid.UUID][]chat.Post),
		pivots:       make(map[pivotKey]chat.ReadPivot),
		participants: make(map[uuid.UUID][]chat.Participant),
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

func (r *MemoryChatRepository) CreateThread(_ context.Context, t chat.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	r.threads[t.ID] = t
	return nil
}

func (r *MemoryChatRepository) GetThread(_ context.Context, threadID uuid.UUID) (chat.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[threadID]
	if !ok {
		return chat.Thread{}, chat.ErrThreadNotFound
	}
	return t, nil
}

func (r *MemoryChatRepository) CountPosts(_ context.Context, threadID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts[threadID]), nil
}

func (r *MemoryChatRepository) FetchPostsInRange(_ context.Context, threadID uuid.UUID, start, end int) ([]chat.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := r.posts[threadID]
	if start < 0 {
		start = 0
	}
	if end > len(posts) {
		end = len(posts)
	}
	if start >= end {
		return []chat.Post{}, nil
	}
	return append([]chat.Post(nil), posts[start:end]...), nil
}

func (r *MemoryChatRepository) FetchPostsFrom(_ context.Context, threadID uuid.UUID, postID int64, limit int) ([]chat.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := r.posts[threadID]
	idx := indexOf(posts, postID)
	if idx < 0 {
		return []chat.Post{}, nil
	}
	end := idx + limit
	if end > len(posts) {
		end = len(posts)
	}
	return append([]chat.Post(nil), posts[idx:end]...), nil
}

func (r *MemoryChatRepository) IndexOfPost(_ context.Context, threadID uuid.UUID, postID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := indexOf(r.posts[threadID], postID)
	if idx < 0 {
		return 0, chat.ErrPostNotFound
	}
	return idx, nil
}

func (r *MemoryChatRepository) SavePost(_ context.Context, p chat.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return 0, r.FailWrites
	}
	r.nextPostID++
	p.ID = r.nextPostID
	posts := append(r.posts[p.ThreadID], p)
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Before(posts[j]) })
	r.posts[p.ThreadID] = posts
	return p.ID, nil
}

func (r *MemoryChatRepository) GetPost(_ context.Context, postID int64) (chat.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, posts := range r.posts {
		if idx := indexOf(posts, postID); idx >= 0 {
			return posts[idx], nil
		}
	}
	return chat.Post{}, chat.ErrPostNotFound
}

func (r *MemoryChatRepository) DeletePost(_ context.Context, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	for threadID, posts := range r.posts {
		if idx := indexOf(posts, postID); idx >= 0 {
			r.posts[threadID] = append(posts[:idx:idx], posts[idx+1:]...)
			return nil
		}
	}
	return chat.ErrPostNotFound
}

func (r *MemoryChatRepository) CountPostsByAuthors(_ context.Context, threadID uuid.UUID, authorIDs []uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	authors := make(map[uuid.UUID]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}
	n := 0
	for _, p := range r.posts[threadID] {
		if _, ok := authors[p.AuthorID]; ok {
			n++
		}
	}
	return n, nil
}

func (r *MemoryChatRepository) FetchPivot(_ context.Context, userID, threadID uuid.UUID) (*chat.ReadPivot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pivots[pivotKey{userID, threadID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryChatRepository) SavePivot(_ context.Context, p chat.ReadPivot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	r.pivots[pivotKey{p.UserID, p.ThreadID}] = p
	return nil
}

func (r *MemoryChatRepository) AdvanceReadCount(_ context.Context, userID, threadID uuid.UUID, readCount, total int) (chat.ReadPivot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return chat.ReadPivot{}, r.FailWrites
	}
	key := pivotKey{userID, threadID}
	p, ok := r.pivots[key]
	if !ok {
		p = chat.ReadPivot{UserID: userID, ThreadID: threadID}
	}
	p = p.Advance(readCount, total)
	r.pivots[key] = p
	return p, nil
}

func (r *MemoryChatRepository) ShiftForNewPost(_ context.Context, threadID, authorID uuid.UUID, total int, hiders []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	key := pivotKey{authorID, threadID}
	author, ok := r.pivots[key]
	if !ok {
		author = chat.ReadPivot{UserID: authorID, ThreadID: threadID}
	}
	r.pivots[key] = author.Advance(total, total)
	for _, id := range hiders {
		if id == authorID {
			continue
		}
		if p, ok := r.pivots[pivotKey{id, threadID}]; ok {
			p.HiddenCount++
			r.pivots[pivotKey{id, threadID}] = p
		}
	}
	return nil
}

func (r *MemoryChatRepository) ShiftForDeletion(_ context.Context, threadID uuid.UUID, index int, hiders []uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return 0, r.FailWrites
	}
	hidden := make(map[uuid.UUID]bool, len(hiders))
	for _, id := range hiders {
		hidden[id] = true
	}
	changed := 0
	for k, p := range r.pivots {
		if k.threadID != threadID {
			continue
		}
		if next := p.AfterDeletion(index, hidden[k.userID]); next != p {
			r.pivots[k] = next
			changed++
		}
	}
	return changed, nil
}

func (r *MemoryChatRepository) ListPivots(_ context.Context, threadID uuid.UUID) ([]chat.ReadPivot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []chat.ReadPivot
	for k, p := range r.pivots {
		if k.threadID == threadID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (r *MemoryChatRepository) AddParticipant(_ context.Context, p chat.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	for _, existing := range r.participants[p.ThreadID] {
		if existing.UserID == p.UserID {
			return nil
		}
	}
	r.participants[p.ThreadID] = append(r.participants[p.ThreadID], p)
	return nil
}

func (r *MemoryChatRepository) IsParticipant(_ context.Context, threadID, userID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants[threadID] {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryChatRepository) ListParticipantIDs(_ context.Context, threadID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.participants[threadID]))
	for _, p := range r.participants[threadID] {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

func indexOf(posts []chat.Post, postID int64) int {
	for i, p := range posts {
		if p.ID == postID {
			return i
		}
	}
	return -1
}
