package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pricewise/internal/pkg/bootstrap"
	"pricewise/internal/service/pricing/domain"
)

// ProductsFromSeed 把配置中的种子商品转换为领域对象并校验。
// current_price 缺省为 base_price。
func ProductsFromSeed(seeds []bootstrap.SeedProduct) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(seeds))
	for _, s := range seeds {
		base, err := parsePrice(s.ID, "base_price", s.BasePrice)
		if err != nil {
			return nil, err
		}
		current := base
		if s.CurrentPrice != "" {
			if current, err = parsePrice(s.ID, "current_price", s.CurrentPrice); err != nil {
				return nil, err
			}
		}
		floor, err := parsePrice(s.ID, "price_floor", s.PriceFloor)
		if err != nil {
			return nil, err
		}
		ceiling, err := parsePrice(s.ID, "price_ceiling", s.PriceCeiling)
		if err != nil {
			return nil, err
		}
		level := domain.DemandLevel(s.DemandLevel)
		if level == "" {
			level = domain.DemandMedium
		}
		p := &domain.Product{
			ID:           s.ID,
			Name:         s.Name,
			BasePrice:    base,
			CurrentPrice: current,
			PriceFloor:   floor,
			PriceCeiling: ceiling,
			Inventory:    s.Inventory,
			MaxInventory: s.MaxInventory,
			DemandLevel:  level,
			Category:     s.Category,
		}
		if err := p.Validate(); err != nil {
			return nil, errors.Wrap(err, "seed product")
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePrice(productID, field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, errors.Wrapf(domain.ErrInvalidInput, "seed product %s: %s is required", productID, field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrInvalidInput, "seed product %s: %s %q: %v", productID, field, value, err)
	}
	return d, nil
}

// ProductSeeder 由 MemoryCatalog 和 GormCatalog 实现。
type ProductSeeder interface {
	Seed(ctx context.Context, product *domain.Product) error
}

// SeedCatalog 把种子商品写入目录，已存在的商品不会被覆盖。
func SeedCatalog(ctx context.Context, catalog ProductSeeder, products []*domain.Product) error {
	for _, p := range products {
		if err := catalog.Seed(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
