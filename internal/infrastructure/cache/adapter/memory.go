package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-twitarr/internal/infrastructure/cache/port"
)

// MemoryStore is an in-process port.Store for tests and single-node development.
// Lease expiry is evaluated lazily against the injected clock.
type MemoryStore struct {
	mu     sync.Mutex
	lists  map[string][]uuid.UUID
	leases map[string]memoryLease
	now    func() time.Time

	// FailSetAfter, when positive, makes every SetIDs call after the first
	// FailSetAfter successful ones return FailErr. Used to simulate partial writes.
	FailSetAfter int
	FailErr      error
	sets         int
}

type memoryLease struct {
	token   string
	expires time.Time
}

// NewMemoryStore builds an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock builds an empty store with a custom clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		lists:  make(map[string][]uuid.UUID),
		leases: make(map[string]memoryLease),
		now:    now,
	}
}

var _ port.Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetIDs(ctx context.Context, key string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.lists[key]
	if !ok {
		return nil, port.ErrMiss
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, nil
}

func (m *MemoryStore) SetIDs(ctx context.Context, key string, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSetAfter > 0 && m.sets >= m.FailSetAfter {
		return m.FailErr
	}
	m.sets++
	stored := make([]uuid.UUID, len(ids))
	copy(stored, ids)
	m.lists[key] = stored
	return nil
}

func (m *MemoryStore) AcquireLease(ctx context.Context, name string, ttl time.Duration) (port.Lease, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if held, ok := m.leases[name]; ok && now.Before(held.expires) {
		return port.Lease{}, false, nil
	}
	lease := port.Lease{Name: name, Token: uuid.NewString()}
	m.leases[name] = memoryLease{token: lease.Token, expires: now.Add(ttl)}
	return lease, true, nil
}

func (m *MemoryStore) ReleaseLease(ctx context.Context, lease port.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, ok := m.leases[lease.Name]
	if !ok || held.token != lease.Token || !m.now().Before(held.expires) {
		return port.ErrLeaseLost
	}
	delete(m.leases, lease.Name)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
