package application

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

func TestSeasonalityFor(t *testing.T) {
	cases := map[time.Month]float64{time.January: 0.8, time.June: 1.3, time.December: 0.7}
	for m, want := range cases {
		if got := SeasonalityFor(time.Date(2026, m, 15, 0, 0, 0, 0, time.UTC)); got != want {
			t.Fatalf("%s: want=%v got=%v", m, want, got)
		}
	}
}

func TestHistoricalPerformance(t *testing.T) {
	if got := HistoricalPerformance(nil, 0.7); got != 0.7 {
		t.Fatalf("fallback: want=0.7 got=%v", got)
	}
	cases := []struct {
		name   string
		recent []domain.Recommendation
		want   float64
	}{
		{"all increase", []domain.Recommendation{domain.RecommendIncrease, domain.RecommendIncrease}, 1},
		{"all decrease", []domain.Recommendation{domain.RecommendDecrease, domain.RecommendDecrease, domain.RecommendDecrease}, 0},
		{"mixed", []domain.Recommendation{domain.RecommendIncrease, domain.RecommendMaintain, domain.RecommendDecrease, domain.RecommendIncrease}, 0.625},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recent := make([]*domain.PricingDecision, 0, len(tc.recent))
			for _, r := range tc.recent {
				// 置信度不参与计算
				recent = append(recent, &domain.PricingDecision{Recommendation: r, Confidence: 0.95})
			}
			if got := HistoricalPerformance(recent, 0.7); got != tc.want {
				t.Fatalf("want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestBuildContext_DerivedSignals(t *testing.T) {
	now := time.Date(2026, 6, 10, 19, 30, 0, 0, time.FixedZone("UTC+8", 8*3600)) // 11:30 UTC, 周三
	p := testProduct()
	p.Inventory = 20

	pctx := buildContext(&CalculatePriceRequest{ProductID: p.ID}, p, domain.SegmentVIPCustomer,
		[]*domain.PricingDecision{{Recommendation: domain.RecommendDecrease}}, now, DefaultContextDefaults())

	if pctx.InventoryRatio != 0.2 {
		t.Fatalf("inventory ratio: want=0.2 got=%v", pctx.InventoryRatio)
	}
	if pctx.TimeOfDay != 11 || pctx.DayOfWeek != int(time.Wednesday) {
		t.Fatalf("clock: want=11/3 got=%d/%d", pctx.TimeOfDay, pctx.DayOfWeek)
	}
	if pctx.SeasonalityIndex != 1.3 || pctx.DemandElasticity != 0.5 {
		t.Fatalf("defaults: got=%+v", pctx)
	}
	if pctx.HistoricalPerformance != 0 || pctx.UserSegment != domain.SegmentVIPCustomer {
		t.Fatalf("derived: got=%+v", pctx)
	}
}

func TestBuildContext_RequestWins(t *testing.T) {
	competitor := decimal.RequireFromString("280")
	req := &CalculatePriceRequest{
		ProductID:             "prod-001",
		DemandElasticity:      ptr(0.9),
		InventoryRatio:        ptr(0.05),
		TimeOfDay:             ptr(20),
		DayOfWeek:             ptr(6),
		SeasonalityIndex:      ptr(1.2),
		HistoricalPerformance: ptr(0.4),
		CompetitorPrice:       &competitor,
		ExternalFactors:       &domain.ExternalFactors{Weather: ptr(0.2)},
	}
	pctx := buildContext(req, testProduct(), domain.SegmentPremium,
		[]*domain.PricingDecision{{Confidence: 0.9}}, fixedNow, DefaultContextDefaults())

	if pctx.DemandElasticity != 0.9 || pctx.InventoryRatio != 0.05 || pctx.TimeOfDay != 20 || pctx.DayOfWeek != 6 {
		t.Fatalf("overrides: got=%+v", pctx)
	}
	if pctx.SeasonalityIndex != 1.2 || pctx.HistoricalPerformance != 0.4 {
		t.Fatalf("overrides: got=%+v", pctx)
	}
	if !pctx.CompetitorPrice.Equal(competitor) || *pctx.ExternalFactors.Weather != 0.2 {
		t.Fatalf("optional signals: got=%+v", pctx)
	}
}
