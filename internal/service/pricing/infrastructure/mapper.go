package infrastructure

import (
	"pricewise/internal/service/pricing/domain"
)

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}
	return &domain.Product{
		ID:           m.ProductID,
		Name:         m.Name,
		BasePrice:    m.BasePrice,
		CurrentPrice: m.CurrentPrice,
		PriceFloor:   m.PriceFloor,
		PriceCeiling: m.PriceCeiling,
		Inventory:    m.Inventory,
		MaxInventory: m.MaxInventory,
		DemandLevel:  domain.DemandLevel(m.DemandLevel),
		Category:     m.Category,
	}
}

func FromDomainProduct(p *domain.Product) *ProductModel {
	if p == nil {
		return nil
	}
	return &ProductModel{
		ProductID:    p.ID,
		Name:         p.Name,
		BasePrice:    p.BasePrice,
		CurrentPrice: p.CurrentPrice,
		PriceFloor:   p.PriceFloor,
		PriceCeiling: p.PriceCeiling,
		Inventory:    p.Inventory,
		MaxInventory: p.MaxInventory,
		DemandLevel:  string(p.DemandLevel),
		Category:     p.Category,
	}
}

func ToDomainDecision(m *PriceDecisionModel) *domain.PricingDecision {
	if m == nil {
		return nil
	}
	return &domain.PricingDecision{
		ID:               m.DecisionID,
		ProductID:        m.ProductID,
		Timestamp:        m.DecidedAt.UTC(),
		PreviousPrice:    m.PreviousPrice,
		NewPrice:         m.NewPrice,
		Confidence:       m.Confidence,
		ConfidenceSource: domain.ConfidenceSource(m.ConfidenceSource),
		Adjustments: domain.AdjustmentSet{
			Demand:      m.DemandAdjustment,
			Inventory:   m.InventoryAdjustment,
			Time:        m.TimeAdjustment,
			Competitor:  m.CompetitorAdjustment,
			UserSegment: m.UserSegmentAdjustment,
			Historical:  m.HistoricalAdjustment,
			External:    m.ExternalAdjustment,
		},
		TotalAdjustment:   m.TotalAdjustment,
		ConstraintApplied: domain.ConstraintKind(m.ConstraintApplied),
		Recommendation:    domain.Recommendation(m.Recommendation),
	}
}

func FromDomainDecision(d *domain.PricingDecision) *PriceDecisionModel {
	if d == nil {
		return nil
	}
	return &PriceDecisionModel{
		ProductID:             d.ProductID,
		DecidedAt:             d.Timestamp.UTC(),
		DecisionID:            d.ID,
		PreviousPrice:         d.PreviousPrice,
		NewPrice:              d.NewPrice,
		Confidence:            d.Confidence,
		ConfidenceSource:      string(d.ConfidenceSource),
		DemandAdjustment:      d.Adjustments.Demand,
		InventoryAdjustment:   d.Adjustments.Inventory,
		TimeAdjustment:        d.Adjustments.Time,
		CompetitorAdjustment:  d.Adjustments.Competitor,
		UserSegmentAdjustment: d.Adjustments.UserSegment,
		HistoricalAdjustment:  d.Adjustments.Historical,
		ExternalAdjustment:    d.Adjustments.External,
		TotalAdjustment:       d.TotalAdjustment,
		ConstraintApplied:     string(d.ConstraintApplied),
		Recommendation:        string(d.Recommendation),
	}
}
