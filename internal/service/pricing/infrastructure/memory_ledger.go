package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"pricewise/internal/service/pricing/domain"
)

// MemoryLedger 按商品保存按时间升序排列的决策。
// 写入的是副本，读取返回的也是副本，读者不会看到写了一半的记录。
type MemoryLedger struct {
	mu        sync.RWMutex
	decisions map[string][]domain.PricingDecision
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{decisions: make(map[string][]domain.PricingDecision)}
}

func (l *MemoryLedger) Append(_ context.Context, decision *domain.PricingDecision) error {
	if decision == nil || decision.ProductID == "" {
		return errors.Wrap(domain.ErrInvalidInput, "decision without product id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.decisions[decision.ProductID]
	ts := decision.Timestamp
	idx := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(ts) })
	if idx < len(list) && list[idx].Timestamp.Equal(ts) {
		return errors.Wrapf(domain.ErrDuplicateDecision, "product %s at %s", decision.ProductID, ts)
	}

	list = append(list, domain.PricingDecision{})
	copy(list[idx+1:], list[idx:])
	list[idx] = *decision
	l.decisions[decision.ProductID] = list
	return nil
}

// Query 返回最新的 limit 条记录，新的在前。
func (l *MemoryLedger) Query(_ context.Context, productID string, limit int) ([]*domain.PricingDecision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.decisions[productID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]*domain.PricingDecision, 0, limit)
	for i := len(list) - 1; i >= len(list)-limit; i-- {
		d := list[i]
		out = append(out, &d)
	}
	return out, nil
}
