package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pricing.HistoryLimit != 100 {
		t.Fatalf("history_limit: want=100 got=%d", cfg.Pricing.HistoryLimit)
	}
	if cfg.Pricing.TimeScale != 1.0 {
		t.Fatalf("time_scale: want=1.0 got=%v", cfg.Pricing.TimeScale)
	}
	if cfg.Infra.Kafka.PriceTopic != "price-changes" {
		t.Fatalf("price_topic: want=price-changes got=%s", cfg.Infra.Kafka.PriceTopic)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 9090
pricing:
  history_backend: gorm
  cache_ttl: 5s
  weather_rule: 'category == "travel"'
  seed_products:
    - id: prod-001
      current_price: "299.99"
      price_floor: "199.99"
      price_ceiling: "499.99"
      inventory: 50
      max_inventory: 100
`)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PRICING_CATALOG_BACKEND", "gorm")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != 9090 {
		t.Fatalf("port: want=9090 got=%d", cfg.App.Port)
	}
	if cfg.Pricing.CacheTTL != 5*time.Second {
		t.Fatalf("cache_ttl: want=5s got=%v", cfg.Pricing.CacheTTL)
	}
	if cfg.Pricing.CatalogBackend != "gorm" || cfg.Pricing.HistoryBackend != "gorm" {
		t.Fatalf("backends: want=gorm/gorm got=%s/%s", cfg.Pricing.CatalogBackend, cfg.Pricing.HistoryBackend)
	}
	if len(cfg.Infra.Kafka.Brokers) != 2 || cfg.Infra.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers: want=[k1:9092 k2:9092] got=%v", cfg.Infra.Kafka.Brokers)
	}
	if len(cfg.Pricing.SeedProducts) != 1 || cfg.Pricing.SeedProducts[0].CurrentPrice != "299.99" {
		t.Fatalf("seed products: got=%+v", cfg.Pricing.SeedProducts)
	}
	// 未在文件中出现的字段保留默认值
	if cfg.Pricing.Defaults.HistoryWindow != 10 {
		t.Fatalf("history_window: want=10 got=%d", cfg.Pricing.Defaults.HistoryWindow)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown backend":    "pricing:\n  history_backend: cassandra\n",
		"zk without servers": "pricing:\n  locker: zookeeper\n",
		"limit above max":    "pricing:\n  history_limit: 50\n  history_limit_max: 10\n",
		"bad elasticity":     "pricing:\n  defaults:\n    demand_elasticity: 3\n",
		"bad yaml":           "pricing: [\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: want error got nil", name)
		}
	}
}
