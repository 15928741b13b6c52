// pricectl 是定价服务的运维命令行工具。
//
// Usage:
//
//	pricectl decide --product prod-001 --inventory-ratio 0.05
//	pricectl history --product prod-001 --limit 20
//	pricectl commit --product prod-001 --price 310.00
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/trace/noop"

	"pricewise/internal/pkg/bootstrap"
	"pricewise/internal/pkg/httpclient"
	"pricewise/internal/service/pricing/application"
	"pricewise/internal/service/pricing/domain"
	"pricewise/internal/service/pricing/engine"
	"pricewise/internal/service/pricing/infrastructure"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pricectl",
		Usage:   "Inspect and operate the dynamic pricing service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config/pricing.yaml",
				Usage:   "Path to the service config (used by offline commands)",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8084",
				Usage:   "Base URL of a running pricing-service",
				EnvVars: []string{"PRICEWISE_URL"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 5 * time.Second,
				Usage: "Request timeout for remote commands",
			},
		},
		Commands: []*cli.Command{
			decideCommand(),
			historyCommand(),
			commitCommand(),
		},
	}
}

// =============================================================================
// DECIDE
// =============================================================================

func decideCommand() *cli.Command {
	return &cli.Command{
		Name:  "decide",
		Usage: "Compute a pricing decision offline against the seed catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product", Aliases: []string{"p"}, Required: true, Usage: "Product ID"},
			&cli.StringFlag{Name: "current-price", Usage: "Override the catalog current price"},
			&cli.StringFlag{Name: "segment", Usage: "User segment (new_customer, returning_customer, vip_customer, price_sensitive, premium)"},
			&cli.Float64Flag{Name: "demand-elasticity", Value: -1, Usage: "Demand elasticity in [0,1]"},
			&cli.Float64Flag{Name: "inventory-ratio", Value: -1, Usage: "Inventory ratio in [0,1], defaults to the catalog value"},
			&cli.IntFlag{Name: "time-of-day", Value: -1, Usage: "Hour of day 0-23"},
			&cli.IntFlag{Name: "day-of-week", Value: -1, Usage: "Day of week 0-6, Sunday is 0"},
			&cli.Float64Flag{Name: "seasonality", Value: -1, Usage: "Seasonality index, positive"},
			&cli.Float64Flag{Name: "historical", Value: -1, Usage: "Historical performance in [0,1]"},
			&cli.StringFlag{Name: "competitor-price", Usage: "Competitor price"},
			&cli.Float64Flag{Name: "weather", Usage: "Weather factor in [-1,1]"},
			&cli.Float64Flag{Name: "economic", Usage: "Economic indicator in [-1,1]"},
		},
		Action: runDecide,
	}
}

func runDecide(c *cli.Context) error {
	cfg, err := bootstrap.Load(c.String("config"))
	if err != nil {
		return err
	}
	req, err := decideRequest(c)
	if err != nil {
		return err
	}
	products, err := infrastructure.ProductsFromSeed(cfg.Pricing.SeedProducts)
	if err != nil {
		return err
	}

	var opts []engine.Option
	opts = append(opts, engine.WithTimeScale(cfg.Pricing.TimeScale))
	if cfg.Pricing.WeatherRule != "" {
		rule, err := engine.NewCategoryRule(cfg.Pricing.WeatherRule)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithWeatherRule(rule))
	}

	svc := application.NewPricingService(application.Dependencies{
		Catalog:   infrastructure.NewMemoryCatalog(products...),
		History:   infrastructure.NewMemoryLedger(),
		Customers: infrastructure.NewMemoryCustomerDirectory(cfg.Pricing.SeedCustomers),
	}, engine.New(opts...), noop.NewTracerProvider().Tracer("pricectl"), application.Options{
		Defaults: application.ContextDefaults{
			DemandElasticity:      cfg.Pricing.Defaults.DemandElasticity,
			HistoricalPerformance: cfg.Pricing.Defaults.HistoricalPerformance,
			UserSegment:           domain.UserSegment(cfg.Pricing.Defaults.UserSegment),
			HistoryWindow:         cfg.Pricing.Defaults.HistoryWindow,
		},
	})

	decision, err := svc.CalculatePrice(c.Context, req)
	if err != nil {
		return err
	}
	return printDecisions(c.App.Writer, c.String("format"), decision)
}

// decideRequest 把命令行参数转换为请求；负数哨兵值表示未设置。
func decideRequest(c *cli.Context) (*application.CalculatePriceRequest, error) {
	req := &application.CalculatePriceRequest{
		ProductID:   c.String("product"),
		UserSegment: c.String("segment"),
	}
	if v := c.String("current-price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "current-price %q", v)
		}
		req.CurrentPrice = &d
	}
	if v := c.String("competitor-price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "competitor-price %q", v)
		}
		req.CompetitorPrice = &d
	}
	floatFlag := func(name string) *float64 {
		if v := c.Float64(name); v >= 0 {
			return &v
		}
		return nil
	}
	intFlag := func(name string) *int {
		if v := c.Int(name); v >= 0 {
			return &v
		}
		return nil
	}
	req.DemandElasticity = floatFlag("demand-elasticity")
	req.InventoryRatio = floatFlag("inventory-ratio")
	req.SeasonalityIndex = floatFlag("seasonality")
	req.HistoricalPerformance = floatFlag("historical")
	req.TimeOfDay = intFlag("time-of-day")
	req.DayOfWeek = intFlag("day-of-week")

	if c.IsSet("weather") || c.IsSet("economic") {
		ext := &domain.ExternalFactors{}
		if c.IsSet("weather") {
			w := c.Float64("weather")
			ext.Weather = &w
		}
		if c.IsSet("economic") {
			e := c.Float64("economic")
			ext.EconomicIndicator = &e
		}
		req.ExternalFactors = ext
	}
	return req, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent decisions of a product from a running service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product", Aliases: []string{"p"}, Required: true, Usage: "Product ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of decisions, 0 uses the server default"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			target := fmt.Sprintf("%s/price_history/%s", strings.TrimRight(c.String("server"), "/"), url.PathEscape(c.String("product")))
			if n := c.Int("limit"); n > 0 {
				target += fmt.Sprintf("?limit=%d", n)
			}
			var resp application.PriceHistoryResponse
			if err := newClient().GetJSON(ctx, target, &resp); err != nil {
				return err
			}
			return printDecisions(c.App.Writer, c.String("format"), resp.History...)
		},
	}
}

// =============================================================================
// COMMIT
// =============================================================================

func commitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Commit a price as the product's current price",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product", Aliases: []string{"p"}, Required: true, Usage: "Product ID"},
			&cli.StringFlag{Name: "price", Required: true, Usage: "Price to commit, must lie within the product's bounds"},
		},
		Action: func(c *cli.Context) error {
			price, err := decimal.NewFromString(c.String("price"))
			if err != nil {
				return errors.Wrapf(err, "price %q", c.String("price"))
			}
			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			var product domain.Product
			req := application.CommitPriceRequest{ProductID: c.String("product"), Price: price}
			if err := newClient().PostJSON(ctx, strings.TrimRight(c.String("server"), "/")+"/commit_price", req, &product); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s now priced at %s (bounds %s..%s)\n",
				product.ID, product.CurrentPrice.StringFixed(2), product.PriceFloor.StringFixed(2), product.PriceCeiling.StringFixed(2))
			return nil
		},
	}
}

func newClient() *httpclient.Client {
	return httpclient.NewClient(noop.NewTracerProvider().Tracer("pricectl"))
}

func printDecisions(w io.Writer, format string, decisions ...*domain.PricingDecision) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(decisions) == 1 {
			return enc.Encode(decisions[0])
		}
		return enc.Encode(decisions)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tPRODUCT\tPREVIOUS\tNEW\tADJ\tCONF\tSOURCE\tCONSTRAINT\tACTION")
	for _, d := range decisions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+.4f\t%.2f\t%s\t%s\t%s\n",
			d.Timestamp.Format(time.RFC3339Nano), d.ProductID,
			d.PreviousPrice.StringFixed(2), d.NewPrice.StringFixed(2),
			d.TotalAdjustment, d.Confidence, d.ConfidenceSource, d.ConstraintApplied, d.Recommendation)
	}
	return tw.Flush()
}
