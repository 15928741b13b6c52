// cmd/pricing-service/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"pricewise/internal/pkg/bootstrap"
	"pricewise/internal/pkg/logger"
	"pricewise/internal/service/pricing/application"
	"pricewise/internal/service/pricing/interfaces"
)

const serviceName = "pricing-service"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	logger.Init(serviceName, cfg.App.Env)

	ctx := context.Background()
	res, err := wireBackends(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire pricing backends")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			res.deps.Oracle = buildOracle(appCtx)

			tracer := otel.Tracer(serviceName)
			svc := application.NewPricingService(res.deps, res.engine, tracer, application.Options{
				HistoryLimit:    cfg.Pricing.HistoryLimit,
				HistoryLimitMax: cfg.Pricing.HistoryLimitMax,
				OracleTimeout:   cfg.Pricing.Oracle.Timeout,
				Defaults:        contextDefaults(cfg.Pricing.Defaults),
			})

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			interfaces.NewPricingHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: []func(ctx context.Context) error{res.close},
	})
}
