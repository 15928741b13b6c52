// internal/service/pricing/domain/product.go
package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func init() {
	// 价格在 JSON 中以数字而不是字符串传输
	decimal.MarshalJSONWithoutQuotes = true
}

// DemandLevel 是商品的粗粒度需求信号，与需求弹性无关。
type DemandLevel string

const (
	DemandLow    DemandLevel = "low"
	DemandMedium DemandLevel = "medium"
	DemandHigh   DemandLevel = "high"
)

// Product 是可售商品的身份与定价边界。
// 定价引擎只读取它，提交新价格是调用方的显式动作。
type Product struct {
	ID           string          `json:"productId"`
	Name         string          `json:"name,omitempty"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	PriceFloor   decimal.Decimal `json:"priceFloor"`
	PriceCeiling decimal.Decimal `json:"priceCeiling"`
	Inventory    int64           `json:"inventory"`
	MaxInventory int64           `json:"maxInventory"`
	DemandLevel  DemandLevel     `json:"demandLevel"`
	Category     string          `json:"category"`
}

// Validate 检查结构性约束，不检查 currentPrice 是否位于边界内：
// 越界的当前价格会在下一次决策中被钳制回来。
func (p *Product) Validate() error {
	if p == nil {
		return errors.Wrap(ErrInvalidInput, "product is nil")
	}
	if p.ID == "" {
		return errors.Wrap(ErrInvalidInput, "product id is required")
	}
	if !p.CurrentPrice.IsPositive() {
		return errors.Wrapf(ErrInvalidInput, "product %s: currentPrice must be positive", p.ID)
	}
	if !p.PriceFloor.IsPositive() || !p.PriceCeiling.IsPositive() {
		return errors.Wrapf(ErrInvalidInput, "product %s: price bounds must be positive", p.ID)
	}
	if p.PriceFloor.GreaterThan(p.PriceCeiling) {
		return errors.Wrapf(ErrInvalidInput, "product %s: priceFloor %s exceeds priceCeiling %s", p.ID, p.PriceFloor, p.PriceCeiling)
	}
	if p.Inventory < 0 || p.MaxInventory < 0 {
		return errors.Wrapf(ErrInvalidInput, "product %s: inventory must be non-negative", p.ID)
	}
	if p.Inventory > p.MaxInventory {
		return errors.Wrapf(ErrInvalidInput, "product %s: inventory %d exceeds maxInventory %d", p.ID, p.Inventory, p.MaxInventory)
	}
	return nil
}

// InventoryRatio 返回 inventory/maxInventory，maxInventory 为 0 时视为缺货。
func (p *Product) InventoryRatio() float64 {
	if p.MaxInventory <= 0 {
		return 0
	}
	return float64(p.Inventory) / float64(p.MaxInventory)
}

// WithinBounds 判断价格是否位于 [floor, ceiling]。
func (p *Product) WithinBounds(price decimal.Decimal) bool {
	return !price.LessThan(p.PriceFloor) && !price.GreaterThan(p.PriceCeiling)
}
