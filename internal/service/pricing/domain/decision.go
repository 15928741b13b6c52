package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConstraintKind 标识最终价格是否被边界钳制。
type ConstraintKind string

const (
	ConstraintNone    ConstraintKind = "none"
	ConstraintFloor   ConstraintKind = "floor"
	ConstraintCeiling ConstraintKind = "ceiling"
)

// Recommendation 由 newPrice - previousPrice 的符号决定。
type Recommendation string

const (
	RecommendIncrease Recommendation = "increase"
	RecommendDecrease Recommendation = "decrease"
	RecommendMaintain Recommendation = "maintain"
)

// ConfidenceSource 记录置信度来自规则公式还是外部 oracle。
type ConfidenceSource string

const (
	ConfidenceFromRules  ConfidenceSource = "rules"
	ConfidenceFromOracle ConfidenceSource = "oracle"
)

// AdjustmentSet 是七个因子的分数调整，计算后不可变，原样写入决策记录。
type AdjustmentSet struct {
	Demand      float64 `json:"demandAdjustment"`
	Inventory   float64 `json:"inventoryAdjustment"`
	Time        float64 `json:"timeAdjustment"`
	Competitor  float64 `json:"competitorAdjustment"`
	UserSegment float64 `json:"userSegmentAdjustment"`
	Historical  float64 `json:"historicalAdjustment"`
	External    float64 `json:"externalAdjustment"`
}

// Values 按固定顺序返回七个调整值。
func (a AdjustmentSet) Values() [7]float64 {
	return [7]float64{a.Demand, a.Inventory, a.Time, a.Competitor, a.UserSegment, a.Historical, a.External}
}

// AbsSum 是所有调整绝对值之和，用于置信度计算。
func (a AdjustmentSet) AbsSum() float64 {
	var sum float64
	for _, v := range a.Values() {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum
}

// PricingDecision 既是引擎的返回值，也是账本追加的载荷。创建后不可变。
type PricingDecision struct {
	ID                string           `json:"decisionId"`
	ProductID         string           `json:"productId"`
	Timestamp         time.Time        `json:"timestamp"`
	PreviousPrice     decimal.Decimal  `json:"previousPrice"`
	NewPrice          decimal.Decimal  `json:"newPrice"`
	Confidence        float64          `json:"confidence"`
	ConfidenceSource  ConfidenceSource `json:"confidenceSource"`
	Adjustments       AdjustmentSet    `json:"adjustments"`
	TotalAdjustment   float64          `json:"totalAdjustment"`
	ConstraintApplied ConstraintKind   `json:"constraintApplied"`
	Recommendation    Recommendation   `json:"recommendation"`
}

// Key 是账本中的唯一键 (productId, timestamp)。
type Key struct {
	ProductID string
	Timestamp time.Time
}

func (d *PricingDecision) Key() Key {
	return Key{ProductID: d.ProductID, Timestamp: d.Timestamp}
}

// WithTimestamp 返回一份时间戳不同的副本，用于重复键重试。
func (d PricingDecision) WithTimestamp(ts time.Time) *PricingDecision {
	d.Timestamp = ts
	return &d
}
