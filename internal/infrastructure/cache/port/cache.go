package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the key/value contract behind the distributed relation store.
// Values are lists of user IDs; the store also provides the short-lived
// leases used to serialize multi-key updates across processes.
// Implementations must be concurrency-safe.
type Store interface {
	// GetIDs returns the ID list stored at key, or ErrMiss when nothing is recorded.
	GetIDs(ctx context.Context, key string) ([]uuid.UUID, error)

	// SetIDs replaces the list stored at key. Entries never expire.
	SetIDs(ctx context.Context, key string, ids []uuid.UUID) error

	// AcquireLease tries once to take the named lease for ttl. ok is false when
	// another holder owns it; err is reserved for transport failures.
	AcquireLease(ctx context.Context, name string, ttl time.Duration) (lease Lease, ok bool, err error)

	// ReleaseLease drops the lease only if it is still held with the same token.
	// Releasing an expired or stolen lease returns ErrLeaseLost.
	ReleaseLease(ctx context.Context, lease Lease) error

	Ping(ctx context.Context) error
	Close() error
}

// Lease identifies one acquisition of a named lease.
type Lease struct {
	Name  string
	Token string
}

// ErrMiss signals that a key holds no value.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }

// ErrLeaseLost signals that a lease expired or changed hands before release.
var ErrLeaseLost = errLeaseLost{}

type errLeaseLost struct{}

func (e errLeaseLost) Error() string { return "cache: lease lost" }
