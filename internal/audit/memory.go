package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(ctx context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	j.entries = append(j.entries, entry)
	return nil
}

func (j *MemoryJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}

func (j *MemoryJournal) Close() error {
	// Nothing to close for the in-memory journal
	return nil
}
