package relation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSet(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	s := NewUserSet(a, b)
	o := NewUserSet(b, c)

	assert.True(t, s.Union(o).Equal(NewUserSet(a, b, c)))
	assert.True(t, s.Minus(o).Equal(NewUserSet(a)))
	assert.True(t, s.Contains(a))
	assert.False(t, s.Contains(c))

	var empty UserSet
	assert.False(t, empty.Contains(a))
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.Union(s).Equal(s))
	assert.True(t, empty.Equal(UserSet{}))

	// Union and Minus never touch the receiver.
	assert.Equal(t, 2, s.Len())

	ids := NewUserSet(c, a, b).Slice()
	require.Len(t, ids, 3)
	assert.True(t, ids[0].String() < ids[1].String())
	assert.True(t, ids[1].String() < ids[2].String())
}

func TestNewProfile(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	blank := "  "

	root, err := NewProfile(" sam ", &blank, nil, now)
	require.NoError(t, err)
	assert.Equal(t, "sam", root.Username)
	assert.Nil(t, root.DisplayName)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, root.ID, root.FamilyRoot())

	sub, err := NewProfile("sam_alt", nil, &root, now)
	require.NoError(t, err)
	assert.Equal(t, root.ID, sub.FamilyRoot())

	subsub, err := NewProfile("sam_alt2", nil, &sub, now)
	require.NoError(t, err)
	assert.Equal(t, root.ID, subsub.FamilyRoot())

	for _, bad := range []string{"", "   ", "has space", "a@b"} {
		_, err := NewProfile(bad, nil, nil, now)
		assert.ErrorIs(t, err, ErrInvalidUsername, bad)
	}
}

func TestKeywordList(t *testing.T) {
	l := KeywordList{Kind: KeywordMute}
	l, added := l.With("pirate")
	assert.True(t, added)
	l, added = l.With("arr")
	assert.True(t, added)
	l, added = l.With("pirate")
	assert.False(t, added)
	assert.Equal(t, []string{"arr", "pirate"}, l.Words)

	l, err := l.Without("arr")
	require.NoError(t, err)
	assert.Equal(t, []string{"pirate"}, l.Words)

	_, err = l.Without("arr")
	assert.ErrorIs(t, err, ErrNotInList)

	w, err := NormalizeKeyword("  PiRaTe ")
	require.NoError(t, err)
	assert.Equal(t, "pirate", w)
	_, err = NormalizeKeyword(" ")
	assert.ErrorIs(t, err, ErrInvalidKeyword)

	kind, ok := ParseKeywordKind("ALERT")
	assert.True(t, ok)
	assert.Equal(t, KeywordAlert, kind)
	_, ok = ParseKeywordKind("bookmark")
	assert.False(t, ok)
}

func TestCachedUser(t *testing.T) {
	me, blocked, muted, other := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	p := Profile{ID: me, Username: "me"}
	c := Containers{
		Mutes:        &MuteList{UserID: me, IDs: NewUserSet(muted)},
		MuteKeywords: &KeywordList{UserID: me, Kind: KeywordMute, Words: []string{"spoiler"}},
	}
	u := NewCachedUser(p, c, NewUserSet(blocked))

	assert.True(t, u.Hides(blocked))
	assert.True(t, u.Hides(muted))
	assert.False(t, u.Hides(other))
	assert.True(t, u.HiddenAuthors().Equal(NewUserSet(blocked, muted)))
	assert.True(t, u.MutesText("Big SPOILER ahead"))
	assert.False(t, u.MutesText("nothing here"))
	assert.Equal(t, "me", u.Header().Username)

	bare := NewCachedUser(p, Containers{}, nil)
	assert.NotNil(t, bare.Blocks)
	assert.NotNil(t, bare.Mutes)
	assert.False(t, bare.Hides(blocked))

	assert.True(t, u.Equal(NewCachedUser(p, c, NewUserSet(blocked))))
	assert.False(t, u.Equal(bare))
}
