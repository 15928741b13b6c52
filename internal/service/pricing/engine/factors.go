// internal/service/pricing/engine/factors.go
package engine

import (
	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

// 七个因子的权重，总和必须为 1.0
const (
	WeightDemand      = 0.25
	WeightInventory   = 0.20
	WeightTime        = 0.15
	WeightCompetitor  = 0.15
	WeightUserSegment = 0.10
	WeightHistorical  = 0.10
	WeightExternal    = 0.05
)

// Weights 与 domain.AdjustmentSet.Values 的顺序一致。
var Weights = [7]float64{
	WeightDemand,
	WeightInventory,
	WeightTime,
	WeightCompetitor,
	WeightUserSegment,
	WeightHistorical,
	WeightExternal,
}

// DefaultTimeScale 是时间因子的缩放系数。
const DefaultTimeScale = 1.0

var segmentAdjustments = map[domain.UserSegment]float64{
	domain.SegmentNewCustomer:       -0.03,
	domain.SegmentReturningCustomer: 0,
	domain.SegmentVIPCustomer:       -0.05,
	domain.SegmentPriceSensitive:    -0.02,
	domain.SegmentPremium:           0.02,
}

// DemandAdjustment 高弹性降价，低弹性提价。
func DemandAdjustment(elasticity float64) float64 {
	switch {
	case elasticity > 0.8:
		return -0.05
	case elasticity < 0.2:
		return 0.05
	default:
		return 0
	}
}

// InventoryAdjustment 库存紧张时提价，积压时降价。
func InventoryAdjustment(ratio float64) float64 {
	switch {
	case ratio < 0.1:
		return 0.10
	case ratio < 0.3:
		return 0.05
	case ratio > 0.8:
		return -0.05
	default:
		return 0
	}
}

// TimeFactor: 基数 1，高峰时段 [10,18] 加 0.2，周末 (0=周日, 6=周六) 加 0.3。
func TimeFactor(hour, dayOfWeek int) float64 {
	factor := 1.0
	if hour >= 10 && hour <= 18 {
		factor += 0.2
	}
	if dayOfWeek == 0 || dayOfWeek == 6 {
		factor += 0.3
	}
	return factor
}

func TimeAdjustment(hour, dayOfWeek int, scale float64) float64 {
	return (TimeFactor(hour, dayOfWeek) - 1) * 0.02 * scale
}

// CompetitorAdjustment 按相对价差跟随竞品，竞品价格缺失时为 0。
func CompetitorAdjustment(current decimal.Decimal, competitor *decimal.Decimal) float64 {
	if competitor == nil || !current.IsPositive() {
		return 0
	}
	diff, _ := competitor.Sub(current).Div(current).Float64()
	switch {
	case diff > 0.1:
		return 0.05
	case diff < -0.1:
		return -0.05
	default:
		return 0
	}
}

// UserSegmentAdjustment 查表，未知分群返回 0。
func UserSegmentAdjustment(segment domain.UserSegment) float64 {
	return segmentAdjustments[segment]
}

func HistoricalAdjustment(performance float64) float64 {
	switch {
	case performance > 0.8:
		return 0.03
	case performance < 0.3:
		return -0.03
	default:
		return 0
	}
}

// ExternalAdjustment 汇总天气、经济指标和季节性。
// weatherApplies 为 false 时忽略天气项。
func ExternalAdjustment(factors domain.ExternalFactors, seasonality float64, weatherApplies bool) float64 {
	var adj float64
	if factors.Weather != nil && weatherApplies {
		adj += 0.01 * *factors.Weather
	}
	if factors.EconomicIndicator != nil {
		adj += 0.005 * *factors.EconomicIndicator
	}
	adj += 0.02 * (seasonality - 1)
	return adj
}
