package domain

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// UserSegment 是固定枚举的用户分群；未知分群不会报错，只是调整为 0。
type UserSegment string

const (
	SegmentNewCustomer       UserSegment = "new_customer"
	SegmentReturningCustomer UserSegment = "returning_customer"
	SegmentVIPCustomer       UserSegment = "vip_customer"
	SegmentPriceSensitive    UserSegment = "price_sensitive"
	SegmentPremium           UserSegment = "premium"
)

// ExternalFactors 是可选的外部环境信号，取值范围 [-1, 1]。
type ExternalFactors struct {
	Weather           *float64 `json:"weather,omitempty"`
	EconomicIndicator *float64 `json:"economicIndicator,omitempty"`
}

// PricingContext 是单次请求的信号集合，不做持久化。
type PricingContext struct {
	DemandElasticity      float64          `json:"demandElasticity"`
	InventoryRatio        float64          `json:"inventoryRatio"`
	TimeOfDay             int              `json:"timeOfDay"`
	DayOfWeek             int              `json:"dayOfWeek"`
	SeasonalityIndex      float64          `json:"seasonalityIndex"`
	UserSegment           UserSegment      `json:"userSegment"`
	HistoricalPerformance float64          `json:"historicalPerformance"`
	CompetitorPrice       *decimal.Decimal `json:"competitorPrice,omitempty"`
	ExternalFactors       ExternalFactors  `json:"externalFactors"`
}

// Validate 拒绝非有限值和超出声明域的数值。
func (c *PricingContext) Validate() error {
	if err := unitInterval("demandElasticity", c.DemandElasticity); err != nil {
		return err
	}
	if err := unitInterval("inventoryRatio", c.InventoryRatio); err != nil {
		return err
	}
	if c.TimeOfDay < 0 || c.TimeOfDay > 23 {
		return errors.Wrapf(ErrInvalidInput, "timeOfDay %d out of range [0,23]", c.TimeOfDay)
	}
	if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
		return errors.Wrapf(ErrInvalidInput, "dayOfWeek %d out of range [0,6]", c.DayOfWeek)
	}
	if !finite(c.SeasonalityIndex) || c.SeasonalityIndex <= 0 {
		return errors.Wrapf(ErrInvalidInput, "seasonalityIndex %v must be a positive finite number", c.SeasonalityIndex)
	}
	if err := unitInterval("historicalPerformance", c.HistoricalPerformance); err != nil {
		return err
	}
	if c.CompetitorPrice != nil && !c.CompetitorPrice.IsPositive() {
		return errors.Wrapf(ErrInvalidInput, "competitorPrice %s must be positive", c.CompetitorPrice)
	}
	if w := c.ExternalFactors.Weather; w != nil {
		if err := signedUnitInterval("weather", *w); err != nil {
			return err
		}
	}
	if e := c.ExternalFactors.EconomicIndicator; e != nil {
		if err := signedUnitInterval("economicIndicator", *e); err != nil {
			return err
		}
	}
	return nil
}

func unitInterval(name string, v float64) error {
	if !finite(v) || v < 0 || v > 1 {
		return errors.Wrapf(ErrInvalidInput, "%s %v out of range [0,1]", name, v)
	}
	return nil
}

func signedUnitInterval(name string, v float64) error {
	if !finite(v) || v < -1 || v > 1 {
		return errors.Wrapf(ErrInvalidInput, "%s %v out of range [-1,1]", name, v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
