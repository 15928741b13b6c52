package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"pricewise/internal/service/pricing/domain"
)

// GormLedger 是 HistoryStore 的 GORM 实现，重复键由联合主键保证。
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger 要求 db 以 TranslateError 打开，见 database.Open。
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (r *GormLedger) Append(ctx context.Context, decision *domain.PricingDecision) error {
	err := r.db.WithContext(ctx).Create(FromDomainDecision(decision)).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrapf(domain.ErrDuplicateDecision, "product %s at %s", decision.ProductID, decision.Timestamp)
	}
	return errors.Wrapf(err, "insert decision for %s", decision.ProductID)
}

func (r *GormLedger) Query(ctx context.Context, productID string, limit int) ([]*domain.PricingDecision, error) {
	var models []PriceDecisionModel
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("decided_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Wrapf(err, "query decisions for %s", productID)
	}
	out := make([]*domain.PricingDecision, 0, len(models))
	for i := range models {
		out = append(out, ToDomainDecision(&models[i]))
	}
	return out, nil
}
