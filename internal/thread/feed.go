package thread

import "github.com/xaenox/nova-forum/internal/models"

// Order returns the display sequence of root posts: pinned entries first,
// each group keeping its incoming relative order. The input is not modified
// and replies are passed through untouched.
func Order(posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Pinned {
			out = append(out, p)
		}
	}
	for _, p := range posts {
		if !p.Pinned {
			out = append(out, p)
		}
	}
	return out
}
