package relation

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// BlockList is the user's own record of accounts they blocked. The resolved,
// family-closed set lives in the distributed store.
type BlockList struct {
	UserID uuid.UUID
	IDs    UserSet
}

// MuteList is the user's one-directional mute record.
type MuteList struct {
	UserID uuid.UUID
	IDs    UserSet
}

// KeywordKind separates words that hide content from words that raise alerts.
type KeywordKind int16

const (
	KeywordMute  KeywordKind = 0
	KeywordAlert KeywordKind = 1
)

func (k KeywordKind) String() string {
	switch k {
	case KeywordMute:
		return "mute"
	case KeywordAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// ParseKeywordKind accepts "mute" and "alert".
func ParseKeywordKind(s string) (KeywordKind, bool) {
	switch strings.ToLower(s) {
	case "mute":
		return KeywordMute, true
	case "alert":
		return KeywordAlert, true
	default:
		return 0, false
	}
}

// KeywordList holds normalized words, kept sorted.
type KeywordList struct {
	UserID uuid.UUID
	Kind   KeywordKind
	Words  []string
}

// NormalizeKeyword trims and lower-cases w.
func NormalizeKeyword(w string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(w))
	if n == "" || len(n) > 100 {
		return "", ErrInvalidKeyword
	}
	return n, nil
}

// With returns a copy holding word. The bool reports whether it was added.
func (l KeywordList) With(word string) (KeywordList, bool) {
	i := sort.SearchStrings(l.Words, word)
	if i < len(l.Words) && l.Words[i] == word {
		return l, false
	}
	words := make([]string, 0, len(l.Words)+1)
	words = append(words, l.Words[:i]...)
	words = append(words, word)
	words = append(words, l.Words[i:]...)
	l.Words = words
	return l, true
}

// Without returns a copy lacking word, or ErrNotInList.
func (l KeywordList) Without(word string) (KeywordList, error) {
	i := sort.SearchStrings(l.Words, word)
	if i >= len(l.Words) || l.Words[i] != word {
		return l, ErrNotInList
	}
	words := make([]string, 0, len(l.Words)-1)
	words = append(words, l.Words[:i]...)
	words = append(words, l.Words[i+1:]...)
	l.Words = words
	return l, nil
}

// Containers groups a user's relationship records. Absent records are nil.
type Containers struct {
	Blocks        *BlockList
	Mutes         *MuteList
	MuteKeywords  *KeywordList
	AlertKeywords *KeywordList
}

// BlockListOf returns the stored block list or an empty one for userID.
func (c Containers) BlockListOf(userID uuid.UUID) BlockList {
	if c.Blocks != nil {
		return *c.Blocks
	}
	return BlockList{UserID: userID, IDs: UserSet{}}
}

func (c Containers) MuteListOf(userID uuid.UUID) MuteList {
	if c.Mutes != nil {
		return *c.Mutes
	}
	return MuteList{UserID: userID, IDs: UserSet{}}
}

func (c Containers) KeywordListOf(userID uuid.UUID, kind KeywordKind) KeywordList {
	l := c.MuteKeywords
	if kind == KeywordAlert {
		l = c.AlertKeywords
	}
	if l != nil {
		return *l
	}
	return KeywordList{UserID: userID, Kind: kind}
}
