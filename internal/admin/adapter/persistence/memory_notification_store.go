package persistence

import (
	"context"
	"sync"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
)

// DefaultHistorySize is the number of notifications kept when none is configured.
const DefaultHistorySize = 100

// MemoryNotificationStore keeps the most recent notifications in a ring buffer.
type MemoryNotificationStore struct {
	mu    sync.RWMutex
	buf   []model.Notification
	next  int
	count int
}

var _ repository.NotificationStore = (*MemoryNotificationStore)(nil)

// NewMemoryNotificationStore creates a store holding at most size entries.
func NewMemoryNotificationStore(size int) *MemoryNotificationStore {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryNotificationStore{buf: make([]model.Notification, size)}
}

// Append stores n, evicting the oldest entry when full.
func (s *MemoryNotificationStore) Append(ctx context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.next] = n
	s.next = (s.next + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return nil
}

// Recent returns up to limit of the newest notifications, oldest first. A
// non-positive limit returns everything stored.
func (s *MemoryNotificationStore) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	out := make([]model.Notification, 0, limit)
	start := (s.next - limit + len(s.buf)) % len(s.buf)
	for i := 0; i < limit; i++ {
		out = append(out, s.buf[(start+i)%len(s.buf)])
	}
	return out, nil
}

func (s *MemoryNotificationStore) Close() error { return nil }
