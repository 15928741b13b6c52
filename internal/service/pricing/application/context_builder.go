package application

import (
	"time"

	"pricewise/internal/service/pricing/domain"
)

// 按月份 (1-12) 的季节性系数
var monthlySeasonality = [12]float64{0.8, 0.9, 1.0, 1.1, 1.2, 1.3, 1.2, 1.1, 1.0, 0.9, 0.8, 0.7}

// ContextDefaults 是请求缺省信号的兜底取值。
type ContextDefaults struct {
	DemandElasticity      float64
	HistoricalPerformance float64
	UserSegment           domain.UserSegment
	HistoryWindow         int
}

func DefaultContextDefaults() ContextDefaults {
	return ContextDefaults{
		DemandElasticity:      0.5,
		HistoricalPerformance: 0.7,
		UserSegment:           domain.SegmentReturningCustomer,
		HistoryWindow:         10,
	}
}

// SeasonalityFor 返回某个时间所在月份的季节性系数。
func SeasonalityFor(t time.Time) float64 {
	return monthlySeasonality[t.Month()-1]
}

// HistoricalPerformance 由最近决策的调价方向推导：涨价记 1，维持记 0.5，降价记 0，取均值。
// 没有历史时返回 fallback。
func HistoricalPerformance(recent []*domain.PricingDecision, fallback float64) float64 {
	if len(recent) == 0 {
		return fallback
	}
	var sum float64
	for _, d := range recent {
		switch d.Recommendation {
		case domain.RecommendIncrease:
			sum += 1
		case domain.RecommendMaintain:
			sum += 0.5
		}
	}
	return sum / float64(len(recent))
}

// buildContext 合并请求信号与推导值，请求中显式给出的值优先。
// 结果可能越界，由引擎统一校验。
func buildContext(
	req *CalculatePriceRequest,
	product *domain.Product,
	segment domain.UserSegment,
	recent []*domain.PricingDecision,
	now time.Time,
	defaults ContextDefaults,
) domain.PricingContext {
	now = now.UTC()
	pctx := domain.PricingContext{
		DemandElasticity:      defaults.DemandElasticity,
		InventoryRatio:        product.InventoryRatio(),
		TimeOfDay:             now.Hour(),
		DayOfWeek:             int(now.Weekday()),
		SeasonalityIndex:      SeasonalityFor(now),
		UserSegment:           segment,
		HistoricalPerformance: HistoricalPerformance(recent, defaults.HistoricalPerformance),
		CompetitorPrice:       req.CompetitorPrice,
	}
	if req.DemandElasticity != nil {
		pctx.DemandElasticity = *req.DemandElasticity
	}
	if req.InventoryRatio != nil {
		pctx.InventoryRatio = *req.InventoryRatio
	}
	if req.TimeOfDay != nil {
		pctx.TimeOfDay = *req.TimeOfDay
	}
	if req.DayOfWeek != nil {
		pctx.DayOfWeek = *req.DayOfWeek
	}
	if req.SeasonalityIndex != nil {
		pctx.SeasonalityIndex = *req.SeasonalityIndex
	}
	if req.HistoricalPerformance != nil {
		pctx.HistoricalPerformance = *req.HistoricalPerformance
	}
	if req.ExternalFactors != nil {
		pctx.ExternalFactors = *req.ExternalFactors
	}
	return pctx
}
