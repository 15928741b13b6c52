// internal/service/pricing/domain/repository.go
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductCatalog 是商品目录的出站端口，由基础设施层实现。
type ProductCatalog interface {
	// Get 查找商品，不存在时返回 ErrProductNotFound。
	Get(ctx context.Context, productID string) (*Product, error)
	// UpdatePrice 提交一个新的当前价格。
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error
}

// HistoryStore 是只追加的价格决策账本。
type HistoryStore interface {
	// Append 追加一条记录，(productId, timestamp) 已存在时返回 ErrDuplicateDecision。
	Append(ctx context.Context, decision *PricingDecision) error
	// Query 返回最多 limit 条最新记录，按时间倒序；未知商品返回空切片。
	Query(ctx context.Context, productID string, limit int) ([]*PricingDecision, error)
}

// ConfidenceOracle 是可插拔的置信度估计器，失败时必须回退到规则公式。
type ConfidenceOracle interface {
	Estimate(ctx context.Context, pctx PricingContext, totalAdjustment float64) (float64, error)
}

// CustomerDirectory 根据 userId 解析用户分群。
type CustomerDirectory interface {
	// Segment 返回用户分群，未知用户返回 ok=false。
	Segment(ctx context.Context, userID string) (UserSegment, bool, error)
}

// DecisionPublisher 在决策写入账本后向下游广播价格变更事件。
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, decision *PricingDecision) error
}

// ProductLocker 串行化同一商品的“决策+追加”过程。
type ProductLocker interface {
	// Lock 获取锁并返回释放函数。
	Lock(ctx context.Context, productID string) (unlock func(), err error)
}
