package models

// Display labels for recency. They are presentation hints, never compared.
const (
	LabelTransmitting = "Transmitting..."
	LabelJustNow      = "Just now"
	LabelSecondsAgo   = "Seconds ago"
)

// Enrichment holds the generated summary and tags attached to a root post
type Enrichment struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Clone returns a copy that shares no memory with e
func (e *Enrichment) Clone() *Enrichment {
	if e == nil {
		return nil
	}
	return &Enrichment{
		Summary: e.Summary,
		Tags:    append([]string(nil), e.Tags...),
	}
}

// Reply is a second-level entry attached to exactly one root post
type Reply struct {
	ID           string `json:"id"`
	Author       string `json:"author"`
	AvatarRef    string `json:"avatar"`
	Content      string `json:"content"`
	CreatedLabel string `json:"timestamp"`
	LikeCount    int    `json:"likes"`
}

// Post is a root-level discussion entry
type Post struct {
	ID           string      `json:"id"`
	Author       string      `json:"author"`
	AvatarRef    string      `json:"avatar"`
	Content      string      `json:"content"`
	CreatedLabel string      `json:"timestamp"`
	LikeCount    int         `json:"likes"`
	Replies      []Reply     `json:"replies"`
	Pinned       bool        `json:"is_pinned"`
	Enrichment   *Enrichment `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the post, replies and enrichment included
func (p Post) Clone() Post {
	out := p
	out.Replies = append([]Reply(nil), p.Replies...)
	out.Enrichment = p.Enrichment.Clone()
	return out
}

// ReplyIndex returns the position of the reply with the given id, or -1
func (p *Post) ReplyIndex(id string) int {
	for i := range p.Replies {
		if p.Replies[i].ID == id {
			return i
		}
	}
	return -1
}
