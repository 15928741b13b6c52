package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pricewise/internal/service/pricing/domain"
)

const testConfig = `
pricing:
  seed_products:
    - id: prod-100
      name: Test Widget
      base_price: "100.00"
      price_floor: "50.00"
      price_ceiling: "200.00"
      inventory: 5
      max_inventory: 100
      category: gadgets
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"pricectl"}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDecide_Offline(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "--format", "json", "decide",
		"--product", "prod-100",
		"--segment", "returning_customer",
		"--demand-elasticity", "0.5",
		"--time-of-day", "3", "--day-of-week", "3",
		"--seasonality", "1", "--historical", "0.5")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	var d domain.PricingDecision
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	// 库存比例 0.05 来自种子商品
	if !d.NewPrice.Equal(decimal.RequireFromString("102")) || d.Recommendation != domain.RecommendIncrease {
		t.Fatalf("decision: got=%+v", d)
	}
}

func TestDecide_UnknownProduct(t *testing.T) {
	if _, err := run(t, "--config", writeConfig(t), "decide", "--product", "nope"); err == nil {
		t.Fatalf("want error for unknown product")
	}
}

func TestHistoryAndCommit_Remote(t *testing.T) {
	var commitBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/price_history/prod-001":
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("limit: got=%q", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(`{"productId":"prod-001","count":1,"history":[{"decisionId":"d-1","productId":"prod-001",
				"timestamp":"2026-03-04T05:06:07.891234Z","previousPrice":100,"newPrice":102,"confidence":0.75,
				"confidenceSource":"rules","totalAdjustment":0.02,"constraintApplied":"none","recommendation":"increase"}]}`))
		case r.URL.Path == "/commit_price":
			json.NewDecoder(r.Body).Decode(&commitBody)
			w.Write([]byte(`{"productId":"prod-001","currentPrice":310,"priceFloor":199.99,"priceCeiling":499.99}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "history", "--product", "prod-001", "--limit", "2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "2026-03-04T05:06:07.891234Z") || !strings.Contains(out, "102.00") || !strings.Contains(out, "increase") {
		t.Fatalf("history output:\n%s", out)
	}

	out, err = run(t, "--server", srv.URL, "commit", "--product", "prod-001", "--price", "310")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if commitBody["productId"] != "prod-001" {
		t.Fatalf("commit body: got=%v", commitBody)
	}
	if !strings.Contains(out, "prod-001 now priced at 310.00") {
		t.Fatalf("commit output: %s", out)
	}

	if _, err := run(t, "--server", srv.URL, "history", "--product", "missing"); err == nil {
		t.Fatalf("history of missing product: want error")
	}
}
