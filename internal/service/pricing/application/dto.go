package application

import (
	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

// CalculatePriceRequest 是一次定价请求。除 ProductID 外所有信号都是可选的，
// 缺失时由 context builder 根据商品、账本和时钟补齐。
type CalculatePriceRequest struct {
	ProductID             string                  `json:"productId"`
	CurrentPrice          *decimal.Decimal        `json:"currentPrice,omitempty"`
	UserID                string                  `json:"userId,omitempty"`
	UserSegment           string                  `json:"userSegment,omitempty"`
	DemandElasticity      *float64                `json:"demandElasticity,omitempty"`
	InventoryRatio        *float64                `json:"inventoryRatio,omitempty"`
	TimeOfDay             *int                    `json:"timeOfDay,omitempty"`
	DayOfWeek             *int                    `json:"dayOfWeek,omitempty"`
	SeasonalityIndex      *float64                `json:"seasonalityIndex,omitempty"`
	HistoricalPerformance *float64                `json:"historicalPerformance,omitempty"`
	CompetitorPrice       *decimal.Decimal        `json:"competitorPrice,omitempty"`
	ExternalFactors       *domain.ExternalFactors `json:"externalFactors,omitempty"`
}

// CommitPriceRequest 把一次决策的结果（或人工价格）提交为商品的当前价格。
type CommitPriceRequest struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
}

type PriceHistoryResponse struct {
	ProductID string                    `json:"productId"`
	Count     int                       `json:"count"`
	History   []*domain.PricingDecision `json:"history"`
}
