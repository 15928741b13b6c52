// internal/service/pricing/application/service.go
package application

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pricewise/internal/pkg/logger"
	"pricewise/internal/pkg/metrics"
	"pricewise/internal/service/pricing/domain"
	"pricewise/internal/service/pricing/engine"
)

// Dependencies 是定价服务的出站端口。Customers、Oracle、Publisher 可以为 nil。
type Dependencies struct {
	Catalog   domain.ProductCatalog
	History   domain.HistoryStore
	Customers domain.CustomerDirectory
	Oracle    domain.ConfidenceOracle
	Publisher domain.DecisionPublisher
	Locker    domain.ProductLocker
}

type Options struct {
	HistoryLimit    int
	HistoryLimitMax int
	OracleTimeout   time.Duration
	Defaults        ContextDefaults
	Now             func() time.Time
}

// PricingService 编排一次定价决策：取数、计算、记账、广播。
type PricingService struct {
	deps   Dependencies
	opts   Options
	engine *engine.Engine
	tracer trace.Tracer
}

func NewPricingService(deps Dependencies, eng *engine.Engine, tracer trace.Tracer, opts Options) *PricingService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	if opts.HistoryLimitMax < opts.HistoryLimit {
		opts.HistoryLimitMax = opts.HistoryLimit
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = 2 * time.Second
	}
	if opts.Defaults.HistoryWindow <= 0 {
		opts.Defaults = DefaultContextDefaults()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = noLock{}
	}
	return &PricingService{deps: deps, opts: opts, engine: eng, tracer: tracer}
}

// CalculatePrice 做出一次定价决策并写入账本。
// 重复键会以 +1µs 的时间戳重试一次，仍然冲突则返回 ErrDecisionConflict。
func (s *PricingService) CalculatePrice(ctx context.Context, req *CalculatePriceRequest) (decision *domain.PricingDecision, err error) {
	ctx, span := s.tracer.Start(ctx, "service.CalculatePrice")
	defer span.End()
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.DecisionErrors.WithLabelValues(errorKind(err)).Inc()
			return
		}
		metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	}()

	if req == nil || req.ProductID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "productId is required")
	}
	span.SetAttributes(attribute.String("product.id", req.ProductID), attribute.String("user.id", req.UserID))

	unlock, err := s.deps.Locker.Lock(ctx, req.ProductID)
	if err != nil {
		return nil, errors.Wrapf(err, "lock product %s", req.ProductID)
	}
	defer unlock()

	product, segment, recent, err := s.gather(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.CurrentPrice != nil {
		snapshot := *product
		snapshot.CurrentPrice = *req.CurrentPrice
		product = &snapshot
	}

	pctx := buildContext(req, product, segment, recent, s.opts.Now(), s.opts.Defaults)
	decision, err = s.engine.Decide(product, pctx)
	if err != nil {
		return nil, err
	}
	s.applyOracle(ctx, decision, pctx)

	decision, err = s.appendWithRetry(ctx, decision)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("price.previous", decision.PreviousPrice.String()),
		attribute.String("price.new", decision.NewPrice.String()),
		attribute.Float64("price.confidence", decision.Confidence),
		attribute.String("price.constraint", string(decision.ConstraintApplied)),
	)
	metrics.DecisionsTotal.WithLabelValues(string(decision.Recommendation), string(decision.ConstraintApplied)).Inc()
	logger.Ctx(ctx).Info().
		Str("product", decision.ProductID).
		Str("previous", decision.PreviousPrice.String()).
		Str("new", decision.NewPrice.String()).
		Float64("confidence", decision.Confidence).
		Str("constraint", string(decision.ConstraintApplied)).
		Msg("pricing decision recorded")

	s.publish(ctx, decision)
	return decision, nil
}

// gather 并发读取商品、用户分群和近期账本。
func (s *PricingService) gather(ctx context.Context, req *CalculatePriceRequest) (*domain.Product, domain.UserSegment, []*domain.PricingDecision, error) {
	var (
		product *domain.Product
		segment = domain.UserSegment(req.UserSegment)
		recent  []*domain.PricingDecision
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.deps.Catalog.Get(gctx, req.ProductID)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if req.HistoricalPerformance == nil {
		g.Go(func() error {
			r, err := s.deps.History.Query(gctx, req.ProductID, s.opts.Defaults.HistoryWindow)
			if err != nil {
				return errors.Wrap(err, "query recent decisions")
			}
			recent = r
			return nil
		})
	}
	if segment == "" {
		segment = s.opts.Defaults.UserSegment
		if req.UserID != "" && s.deps.Customers != nil {
			g.Go(func() error {
				seg, ok, err := s.deps.Customers.Segment(gctx, req.UserID)
				if err != nil {
					return errors.Wrapf(err, "resolve segment for user %s", req.UserID)
				}
				if ok {
					segment = seg
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, "", nil, err
	}
	return product, segment, recent, nil
}

// applyOracle 用外部 oracle 的估计覆盖规则置信度；失败一律回退，不向调用方暴露。
func (s *PricingService) applyOracle(ctx context.Context, decision *domain.PricingDecision, pctx domain.PricingContext) {
	if s.deps.Oracle == nil {
		return
	}
	octx, cancel := context.WithTimeout(ctx, s.opts.OracleTimeout)
	defer cancel()

	estimate, err := s.deps.Oracle.Estimate(octx, pctx, decision.TotalAdjustment)
	if err == nil && (math.IsNaN(estimate) || estimate < 0 || estimate > 1) {
		err = errors.Wrapf(domain.ErrOracleUnavailable, "estimate %v outside [0,1]", estimate)
	}
	if err != nil {
		metrics.ConfidenceFallbacks.Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("product", decision.ProductID).Msg("confidence oracle failed, using rule confidence")
		return
	}
	decision.Confidence = engine.ClampConfidence(estimate)
	decision.ConfidenceSource = domain.ConfidenceFromOracle
}

func (s *PricingService) appendWithRetry(ctx context.Context, decision *domain.PricingDecision) (*domain.PricingDecision, error) {
	err := s.deps.History.Append(ctx, decision)
	if err == nil {
		return decision, nil
	}
	if !errors.Is(err, domain.ErrDuplicateDecision) {
		return nil, errors.Wrap(err, "append decision")
	}

	metrics.LedgerRetries.Inc()
	retry := decision.WithTimestamp(decision.Timestamp.Add(time.Microsecond))
	logger.Ctx(ctx).Warn().Str("product", decision.ProductID).Time("timestamp", decision.Timestamp).
		Msg("duplicate ledger key, retrying with advanced timestamp")

	err = s.deps.History.Append(ctx, retry)
	switch {
	case err == nil:
		return retry, nil
	case errors.Is(err, domain.ErrDuplicateDecision):
		return nil, errors.Wrapf(domain.ErrDecisionConflict, "product %s at %s", retry.ProductID, retry.Timestamp.Format(time.RFC3339Nano))
	default:
		return nil, errors.Wrap(err, "append decision")
	}
}

// publish 失败只记录日志和指标，已写入账本的决策不回滚。
func (s *PricingService) publish(ctx context.Context, decision *domain.PricingDecision) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishDecision(ctx, decision); err != nil {
		metrics.PublishFailures.Inc()
		logger.Ctx(ctx).Error().Err(err).Str("product", decision.ProductID).Msg("failed to publish price change")
	}
}

// GetPriceHistory 返回最近的决策，limit 非正时取默认值，超过上限时截断。
func (s *PricingService) GetPriceHistory(ctx context.Context, productID string, limit int) (*PriceHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetPriceHistory")
	defer span.End()

	if productID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "productId is required")
	}
	if limit <= 0 {
		limit = s.opts.HistoryLimit
	}
	if limit > s.opts.HistoryLimitMax {
		limit = s.opts.HistoryLimitMax
	}
	span.SetAttributes(attribute.String("product.id", productID), attribute.Int("history.limit", limit))

	history, err := s.deps.History.Query(ctx, productID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "query history")
	}
	if history == nil {
		history = []*domain.PricingDecision{}
	}
	return &PriceHistoryResponse{ProductID: productID, Count: len(history), History: history}, nil
}

// CommitPrice 把价格写回商品目录，价格必须位于 [floor, ceiling]。
func (s *PricingService) CommitPrice(ctx context.Context, req *CommitPriceRequest) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "service.CommitPrice")
	defer span.End()

	if req == nil || req.ProductID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "productId is required")
	}
	if !req.Price.IsPositive() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "price %s must be positive", req.Price)
	}
	span.SetAttributes(attribute.String("product.id", req.ProductID), attribute.String("price.commit", req.Price.String()))

	unlock, err := s.deps.Locker.Lock(ctx, req.ProductID)
	if err != nil {
		return nil, errors.Wrapf(err, "lock product %s", req.ProductID)
	}
	defer unlock()

	product, err := s.deps.Catalog.Get(ctx, req.ProductID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !product.WithinBounds(req.Price) {
		return nil, errors.Wrapf(domain.ErrPriceOutOfBounds, "price %s outside [%s, %s]", req.Price, product.PriceFloor, product.PriceCeiling)
	}
	if err := s.deps.Catalog.UpdatePrice(ctx, req.ProductID, req.Price); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "update price")
	}

	updated := *product
	updated.CurrentPrice = req.Price
	logger.Ctx(ctx).Info().Str("product", req.ProductID).Str("price", req.Price.String()).Msg("price committed")
	return &updated, nil
}

// noLock 只依赖存储层的原子性，不做额外串行化。
type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDecisionConflict):
		return "conflict"
	default:
		return "internal"
	}
}
