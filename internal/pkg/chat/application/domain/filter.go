package chat

import (
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// VisiblePosts drops posts by authors the viewer blocks or mutes and, when
// keywords is set, posts containing one of the viewer's mute words.
func VisiblePosts(posts []Post, viewer relation.CachedUser, keywords bool) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if viewer.Hides(p.AuthorID) {
			continue
		}
		if keywords && viewer.MutesText(p.Text) {
			continue
		}
		out = append(out, p)
	}
	return out
}
