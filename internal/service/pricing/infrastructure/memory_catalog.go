package infrastructure

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

// MemoryCatalog 是进程内的商品目录，用于本地运行和测试。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryCatalog(products ...*domain.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = *p
	}
	return c
}

// Get 返回商品副本，调用方修改不会影响目录。
func (c *MemoryCatalog) Get(_ context.Context, productID string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrProductNotFound, "product %s", productID)
	}
	return &p, nil
}

func (c *MemoryCatalog) UpdatePrice(_ context.Context, productID string, price decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return errors.Wrapf(domain.ErrProductNotFound, "product %s", productID)
	}
	p.CurrentPrice = price
	c.products[productID] = p
	return nil
}

// Seed 只在商品不存在时写入。
func (c *MemoryCatalog) Seed(_ context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[product.ID]; !ok {
		c.products[product.ID] = *product
	}
	return nil
}
