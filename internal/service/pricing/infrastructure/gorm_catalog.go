package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewise/internal/service/pricing/domain"
)

// GormCatalog 是 ProductCatalog 的 GORM 实现
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (r *GormCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(domain.ErrProductNotFound, "product %s", productID)
		}
		return nil, errors.Wrapf(err, "load product %s", productID)
	}
	return ToDomainProduct(&model), nil
}

// UpdatePrice 只更新 current_price 字段。
func (r *GormCatalog) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&ProductModel{}).
		Where("product_id = ?", productID).
		Update("current_price", price)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update price of %s", productID)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL 在值未变化时报告 0 行受影响
	var n int64
	if err := r.db.WithContext(ctx).Model(&ProductModel{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return errors.Wrapf(err, "check product %s", productID)
	}
	if n == 0 {
		return errors.Wrapf(domain.ErrProductNotFound, "product %s", productID)
	}
	return nil
}

// Seed 只插入不存在的商品，已有记录（包括提交过的价格）保持不变。
func (r *GormCatalog) Seed(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(FromDomainProduct(product)).Error
	return errors.Wrapf(err, "seed product %s", product.ID)
}
