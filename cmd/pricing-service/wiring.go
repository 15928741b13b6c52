package main

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"pricewise/internal/pkg/bootstrap"
	"pricewise/internal/pkg/database"
	"pricewise/internal/pkg/httpclient"
	"pricewise/internal/pkg/mq"
	"pricewise/internal/pkg/redis"
	"pricewise/internal/pkg/zookeeper"
	"pricewise/internal/service/pricing/application"
	"pricewise/internal/service/pricing/domain"
	"pricewise/internal/service/pricing/engine"
	"pricewise/internal/service/pricing/infrastructure"
)

// resources 持有按配置创建的后端，以及关停时需要释放的连接。
type resources struct {
	deps    application.Dependencies
	engine  *engine.Engine
	closers []func(ctx context.Context) error
}

func (r *resources) onClose(fn func(ctx context.Context) error) {
	r.closers = append(r.closers, fn)
}

// close 按创建的逆序释放连接。
func (r *resources) close(ctx context.Context) error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func wireBackends(ctx context.Context, cfg *bootstrap.Config) (*resources, error) {
	res := &resources{}
	pc := cfg.Pricing

	var rule *engine.CategoryRule
	if pc.WeatherRule != "" {
		r, err := engine.NewCategoryRule(pc.WeatherRule)
		if err != nil {
			return nil, err
		}
		rule = r
	}
	res.engine = engine.New(engine.WithTimeScale(pc.TimeScale), engine.WithWeatherRule(rule))

	var (
		db  *gorm.DB
		rdb *redis.Client
	)
	if pc.CatalogBackend == "gorm" || pc.HistoryBackend == "gorm" || pc.CustomerBackend == "gorm" {
		d, err := database.Open(databaseConfig(cfg.Infra.Database))
		if err != nil {
			return nil, err
		}
		if err := infrastructure.AutoMigrate(d); err != nil {
			return nil, errors.Wrap(err, "migrate pricing tables")
		}
		db = d
		res.onClose(func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}
	if pc.HistoryBackend == "redis" || (pc.CatalogBackend == "gorm" && pc.CacheTTL > 0) {
		c, err := redis.NewClient(ctx, redis.Options{
			Addrs:    cfg.Infra.Redis.Addrs,
			Password: cfg.Infra.Redis.Password,
			DB:       cfg.Infra.Redis.DB,
		})
		switch {
		case err == nil:
			rdb = c
			res.onClose(func(context.Context) error { return rdb.Close() })
		case pc.HistoryBackend == "redis":
			return nil, err
		default:
			log.Warn().Err(err).Msg("redis unavailable, catalog cache disabled")
		}
	}

	// 商品目录
	products, err := infrastructure.ProductsFromSeed(pc.SeedProducts)
	if err != nil {
		return nil, err
	}
	switch pc.CatalogBackend {
	case "gorm":
		catalog := infrastructure.NewGormCatalog(db)
		if err := infrastructure.SeedCatalog(ctx, catalog, products); err != nil {
			return nil, errors.Wrap(err, "seed catalog")
		}
		res.deps.Catalog = catalog
		if rdb != nil && pc.CacheTTL > 0 {
			res.deps.Catalog = infrastructure.NewCachedCatalog(catalog, rdb, pc.CacheTTL)
		}
	default:
		res.deps.Catalog = infrastructure.NewMemoryCatalog(products...)
	}
	log.Info().Str("backend", pc.CatalogBackend).Int("seeded", len(products)).Msg("product catalog ready")

	// 决策账本
	switch pc.HistoryBackend {
	case "gorm":
		res.deps.History = infrastructure.NewGormLedger(db)
	case "redis":
		ledger, err := infrastructure.NewRedisLedger(ctx, rdb)
		if err != nil {
			return nil, err
		}
		res.deps.History = ledger
	default:
		res.deps.History = infrastructure.NewMemoryLedger()
	}

	// 用户分群
	switch pc.CustomerBackend {
	case "gorm":
		dir := infrastructure.NewGormCustomerDirectory(db)
		for userID, seg := range pc.SeedCustomers {
			if err := dir.SeedSegment(ctx, userID, domain.UserSegment(seg)); err != nil {
				return nil, errors.Wrap(err, "seed customers")
			}
		}
		res.deps.Customers = dir
	default:
		res.deps.Customers = infrastructure.NewMemoryCustomerDirectory(pc.SeedCustomers)
	}

	// 决策事件
	if len(cfg.Infra.Kafka.Brokers) > 0 {
		writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.PriceTopic)
		res.deps.Publisher = infrastructure.NewKafkaDecisionPublisher(writer)
		res.onClose(func(context.Context) error { return writer.Close() })
		log.Info().Strs("brokers", cfg.Infra.Kafka.Brokers).Str("topic", cfg.Infra.Kafka.PriceTopic).Msg("publishing price changes to kafka")
	}

	// 商品级互斥
	switch pc.Locker {
	case "zookeeper":
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			return nil, err
		}
		res.deps.Locker = infrastructure.NewZookeeperLocker(conn, cfg.Infra.Zookeeper.LockTimeout)
		res.onClose(func(context.Context) error { conn.Close(); return nil })
	default:
		res.deps.Locker = infrastructure.NewKeyedMutex()
	}

	return res, nil
}

// buildOracle 根据 pricing.oracle.url 选择置信度来源：
// 空值表示只用规则置信度，nacos://<service>/<path> 通过服务发现解析，其余视为固定地址。
func buildOracle(appCtx bootstrap.AppCtx) domain.ConfidenceOracle {
	raw := appCtx.Config.Pricing.Oracle.URL
	if raw == "" {
		return nil
	}
	client := httpclient.NewClient(otel.Tracer("confidence-oracle-client"))

	if strings.HasPrefix(raw, "nacos://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			log.Warn().Str("url", raw).Msg("invalid oracle url, falling back to rule confidence")
			return nil
		}
		if appCtx.Nacos == nil {
			log.Warn().Str("url", raw).Msg("nacos disabled, falling back to rule confidence")
			return nil
		}
		return infrastructure.NewConfidenceHTTPAdapter(client, infrastructure.DiscoveredURL(appCtx.Nacos, u.Host, u.Path))
	}
	return infrastructure.NewConfidenceHTTPAdapter(client, infrastructure.StaticURL(raw))
}

func databaseConfig(c bootstrap.DatabaseConfig) database.Config {
	return database.Config{
		Driver:   c.Driver,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		DBName:   c.DBName,
	}
}

func contextDefaults(d bootstrap.ContextDefaults) application.ContextDefaults {
	return application.ContextDefaults{
		DemandElasticity:      d.DemandElasticity,
		HistoricalPerformance: d.HistoricalPerformance,
		UserSegment:           domain.UserSegment(d.UserSegment),
		HistoryWindow:         d.HistoryWindow,
	}
}
