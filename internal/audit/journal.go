package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionDelete Action = "delete"
	ActionPin    Action = "pin"
	ActionUnpin  Action = "unpin"
)

// Entry records one moderation decision that changed the thread
type Entry struct {
	ID       string    `json:"id"`
	Actor    string    `json:"actor"`
	Action   Action    `json:"action"`
	TargetID string    `json:"target_id"`
	ParentID string    `json:"parent_id,omitempty"`
	At       time.Time `json:"at"`
}

type Journal interface {
	Record(ctx context.Context, entry Entry) error
	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}
