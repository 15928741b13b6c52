package infrastructure

import (
	"context"
	"sync"

	"pricewise/internal/service/pricing/domain"
)

// MemoryCustomerDirectory 保存 userId 到分群的映射。
type MemoryCustomerDirectory struct {
	mu       sync.RWMutex
	segments map[string]domain.UserSegment
}

func NewMemoryCustomerDirectory(segments map[string]string) *MemoryCustomerDirectory {
	d := &MemoryCustomerDirectory{segments: make(map[string]domain.UserSegment, len(segments))}
	for user, seg := range segments {
		d.segments[user] = domain.UserSegment(seg)
	}
	return d
}

func (d *MemoryCustomerDirectory) Segment(_ context.Context, userID string) (domain.UserSegment, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seg, ok := d.segments[userID]
	return seg, ok, nil
}

func (d *MemoryCustomerDirectory) SetSegment(userID string, segment domain.UserSegment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.segments[userID] = segment
}
