// internal/service/pricing/engine/engine.go
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

var (
	// 单次决策最多下调 30%
	downsideGuardRatio = decimal.RequireFromString("0.7")
)

// Engine 是无状态的多因子定价引擎，可被任意 goroutine 并发调用。
type Engine struct {
	timeScale   float64
	weatherRule *CategoryRule
	now         func() time.Time
	newID       func() string
}

type Option func(*Engine)

// WithTimeScale 设置时间因子的缩放系数。
func WithTimeScale(scale float64) Option {
	return func(e *Engine) { e.timeScale = scale }
}

// WithWeatherRule 限定天气因子生效的商品范围。
func WithWeatherRule(rule *CategoryRule) Option {
	return func(e *Engine) { e.weatherRule = rule }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		timeScale: DefaultTimeScale,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adjustments 计算七个因子的调整值。
func (e *Engine) Adjustments(product *domain.Product, pctx domain.PricingContext) (domain.AdjustmentSet, error) {
	weatherApplies, err := e.weatherRule.Matches(product)
	if err != nil {
		return domain.AdjustmentSet{}, err
	}
	return domain.AdjustmentSet{
		Demand:      DemandAdjustment(pctx.DemandElasticity),
		Inventory:   InventoryAdjustment(pctx.InventoryRatio),
		Time:        TimeAdjustment(pctx.TimeOfDay, pctx.DayOfWeek, e.timeScale),
		Competitor:  CompetitorAdjustment(product.CurrentPrice, pctx.CompetitorPrice),
		UserSegment: UserSegmentAdjustment(pctx.UserSegment),
		Historical:  HistoricalAdjustment(pctx.HistoricalPerformance),
		External:    ExternalAdjustment(pctx.ExternalFactors, pctx.SeasonalityIndex, weatherApplies),
	}, nil
}

// TotalAdjustment 是加权后的总调整比例。
func TotalAdjustment(adj domain.AdjustmentSet) float64 {
	var total float64
	for i, v := range adj.Values() {
		total += Weights[i] * v
	}
	return total
}

// Decide 对商品快照和上下文做出一次定价决策。
// 只有输入结构非法时才返回 domain.ErrInvalidInput。
func (e *Engine) Decide(product *domain.Product, pctx domain.PricingContext) (*domain.PricingDecision, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := pctx.Validate(); err != nil {
		return nil, err
	}

	adj, err := e.Adjustments(product, pctx)
	if err != nil {
		return nil, err
	}
	total := TotalAdjustment(adj)

	price, constraint, err := applyBounds(
		product.CurrentPrice,
		product.CurrentPrice.Mul(decimal.NewFromFloat(1+total)),
		product.PriceFloor,
		product.PriceCeiling,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "product %s", product.ID)
	}

	return &domain.PricingDecision{
		ID:                e.newID(),
		ProductID:         product.ID,
		Timestamp:         e.now().UTC().Truncate(time.Microsecond),
		PreviousPrice:     product.CurrentPrice,
		NewPrice:          price,
		Confidence:        RuleConfidence(adj, pctx.InventoryRatio),
		ConfidenceSource:  domain.ConfidenceFromRules,
		Adjustments:       adj,
		TotalAdjustment:   total,
		ConstraintApplied: constraint,
		Recommendation:    Recommend(product.CurrentPrice, price),
	}, nil
}

// applyBounds 依次执行下调保护、边界钳制和两位小数舍入。
// 边界按分对齐：下限向上取整，上限向下取整，保证舍入后仍落在 [floor, ceiling]。
func applyBounds(current, raw, floor, ceiling decimal.Decimal) (decimal.Decimal, domain.ConstraintKind, error) {
	lo := floor.RoundCeil(2)
	hi := ceiling.RoundFloor(2)
	if lo.GreaterThan(hi) {
		return decimal.Zero, domain.ConstraintNone, errors.Wrapf(domain.ErrInvalidInput,
			"no cent-aligned price between floor %s and ceiling %s", floor, ceiling)
	}

	guard := current.Mul(downsideGuardRatio).RoundCeil(2)
	if raw.LessThan(guard) {
		raw = guard
	}

	price := decimal.Min(decimal.Max(raw, lo), hi).Round(2)

	switch {
	case price.Equal(lo):
		return price, domain.ConstraintFloor, nil
	case price.Equal(hi):
		return price, domain.ConstraintCeiling, nil
	default:
		return price, domain.ConstraintNone, nil
	}
}

func Recommend(previous, next decimal.Decimal) domain.Recommendation {
	switch next.Cmp(previous) {
	case 1:
		return domain.RecommendIncrease
	case -1:
		return domain.RecommendDecrease
	default:
		return domain.RecommendMaintain
	}
}
