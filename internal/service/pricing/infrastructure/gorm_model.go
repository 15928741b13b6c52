package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ProductID    string          `gorm:"primaryKey;size:64"`
	Name         string          `gorm:"size:255"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(12,2)"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(12,2)"`
	PriceFloor   decimal.Decimal `gorm:"type:decimal(12,2)"`
	PriceCeiling decimal.Decimal `gorm:"type:decimal(12,2)"`
	Inventory    int64
	MaxInventory int64
	DemandLevel  string `gorm:"size:16"`
	Category     string `gorm:"size:64;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

// PriceDecisionModel 对应 price_decisions 表，(product_id, decided_at) 为联合主键。
type PriceDecisionModel struct {
	ProductID             string          `gorm:"primaryKey;size:64"`
	DecidedAt             time.Time       `gorm:"primaryKey;precision:6"`
	DecisionID            string          `gorm:"size:36;uniqueIndex"`
	PreviousPrice         decimal.Decimal `gorm:"type:decimal(12,2)"`
	NewPrice              decimal.Decimal `gorm:"type:decimal(12,2)"`
	Confidence            float64
	ConfidenceSource      string `gorm:"size:16"`
	DemandAdjustment      float64
	InventoryAdjustment   float64
	TimeAdjustment        float64
	CompetitorAdjustment  float64
	UserSegmentAdjustment float64
	HistoricalAdjustment  float64
	ExternalAdjustment    float64
	TotalAdjustment       float64
	ConstraintApplied     string `gorm:"size:16"`
	Recommendation        string `gorm:"size:16"`
}

func (PriceDecisionModel) TableName() string {
	return "price_decisions"
}

// CustomerModel 对应 customers 表，只保存定价关心的分群。
type CustomerModel struct {
	UserID    string `gorm:"primaryKey;size:64"`
	Segment   string `gorm:"size:32"`
	UpdatedAt time.Time
}

func (CustomerModel) TableName() string {
	return "customers"
}

// AutoMigrate 创建或升级定价服务用到的表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductModel{}, &PriceDecisionModel{}, &CustomerModel{})
}
