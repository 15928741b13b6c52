package engine

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func f64(v float64) *float64 { return &v }

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range Weights {
		sum += w
	}
	if !approx(sum, 1.0) {
		t.Fatalf("weights: want=1.0 got=%v", sum)
	}
}

func TestDemandAdjustment(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0.05}, {0.19, 0.05}, {0.2, 0}, {0.5, 0}, {0.8, 0}, {0.81, -0.05}, {1, -0.05},
	}
	for _, c := range cases {
		if got := DemandAdjustment(c.in); got != c.want {
			t.Fatalf("demand(%v): want=%v got=%v", c.in, c.want, got)
		}
	}
}

func TestInventoryAdjustment(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0.10}, {0.05, 0.10}, {0.1, 0.05}, {0.29, 0.05}, {0.3, 0}, {0.8, 0}, {0.81, -0.05}, {1, -0.05},
	}
	for _, c := range cases {
		if got := InventoryAdjustment(c.in); got != c.want {
			t.Fatalf("inventory(%v): want=%v got=%v", c.in, c.want, got)
		}
	}
}

func TestTimeAdjustment(t *testing.T) {
	cases := []struct {
		hour, day int
		want      float64
	}{
		{3, 3, 0},
		{9, 2, 0},
		{10, 2, 0.004},
		{18, 4, 0.004},
		{19, 4, 0},
		{3, 0, 0.006},
		{12, 6, 0.01},
	}
	for _, c := range cases {
		if got := TimeAdjustment(c.hour, c.day, DefaultTimeScale); !approx(got, c.want) {
			t.Fatalf("time(%d,%d): want=%v got=%v", c.hour, c.day, c.want, got)
		}
	}
	if got := TimeAdjustment(12, 6, 2); !approx(got, 0.02) {
		t.Fatalf("time scaled: want=0.02 got=%v", got)
	}
}

func TestCompetitorAdjustment(t *testing.T) {
	current := decimal.NewFromInt(100)
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	cases := []struct {
		competitor *decimal.Decimal
		want       float64
	}{
		{nil, 0},
		{price("100"), 0},
		{price("110"), 0},
		{price("110.01"), 0.05},
		{price("90"), 0},
		{price("89.99"), -0.05},
	}
	for _, c := range cases {
		if got := CompetitorAdjustment(current, c.competitor); got != c.want {
			t.Fatalf("competitor(%v): want=%v got=%v", c.competitor, c.want, got)
		}
	}
}

func TestUserSegmentAdjustment(t *testing.T) {
	cases := map[domain.UserSegment]float64{
		domain.SegmentNewCustomer:       -0.03,
		domain.SegmentReturningCustomer: 0,
		domain.SegmentVIPCustomer:       -0.05,
		domain.SegmentPriceSensitive:    -0.02,
		domain.SegmentPremium:           0.02,
		"bargain_hunter":                0,
		"":                              0,
	}
	for seg, want := range cases {
		if got := UserSegmentAdjustment(seg); got != want {
			t.Fatalf("segment(%q): want=%v got=%v", seg, want, got)
		}
	}
}

func TestHistoricalAdjustment(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, -0.03}, {0.29, -0.03}, {0.3, 0}, {0.8, 0}, {0.81, 0.03},
	}
	for _, c := range cases {
		if got := HistoricalAdjustment(c.in); got != c.want {
			t.Fatalf("historical(%v): want=%v got=%v", c.in, c.want, got)
		}
	}
}

func TestExternalAdjustment(t *testing.T) {
	if got := ExternalAdjustment(domain.ExternalFactors{}, 1.0, true); !approx(got, 0) {
		t.Fatalf("neutral: want=0 got=%v", got)
	}
	full := domain.ExternalFactors{Weather: f64(1), EconomicIndicator: f64(-1)}
	if got := ExternalAdjustment(full, 1.2, true); !approx(got, 0.01-0.005+0.004) {
		t.Fatalf("full: want=%v got=%v", 0.009, got)
	}
	if got := ExternalAdjustment(full, 1.2, false); !approx(got, -0.005+0.004) {
		t.Fatalf("weather gated: want=%v got=%v", -0.001, got)
	}
}
