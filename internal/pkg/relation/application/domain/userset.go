package relation

import (
	"sort"

	"github.com/google/uuid"
)

// UserSet is a set of user IDs. A nil UserSet is a valid empty set.
// Sets held by a CachedUser are shared between readers and must not be mutated.
type UserSet map[uuid.UUID]struct{}

func NewUserSet(ids ...uuid.UUID) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UserSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s UserSet) Len() int { return len(s) }

// Union returns a new set holding members of s and o.
func (s UserSet) Union(o UserSet) UserSet {
	out := make(UserSet, len(s)+len(o))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Minus returns a new set holding members of s absent from o.
func (s UserSet) Minus(o UserSet) UserSet {
	out := make(UserSet, len(s))
	for id := range s {
		if _, drop := o[id]; !drop {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s UserSet) Equal(o UserSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if _, ok := o[id]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the members ordered by their string form.
func (s UserSet) Slice() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
