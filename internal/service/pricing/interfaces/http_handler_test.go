package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"

	"pricewise/internal/service/pricing/application"
	"pricewise/internal/service/pricing/domain"
	"pricewise/internal/service/pricing/engine"
	"pricewise/internal/service/pricing/infrastructure"
)

type stubService struct {
	err       error
	gotCalc   *application.CalculatePriceRequest
	gotID     string
	gotLimit  int
	gotCommit *application.CommitPriceRequest
}

func (s *stubService) CalculatePrice(_ context.Context, req *application.CalculatePriceRequest) (*domain.PricingDecision, error) {
	s.gotCalc = req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PricingDecision{ID: "d-1", ProductID: req.ProductID}, nil
}

func (s *stubService) GetPriceHistory(_ context.Context, productID string, limit int) (*application.PriceHistoryResponse, error) {
	s.gotID, s.gotLimit = productID, limit
	if s.err != nil {
		return nil, s.err
	}
	return &application.PriceHistoryResponse{ProductID: productID, History: []*domain.PricingDecision{}}, nil
}

func (s *stubService) CommitPrice(_ context.Context, req *application.CommitPriceRequest) (*domain.Product, error) {
	s.gotCommit = req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: req.ProductID, CurrentPrice: req.Price}, nil
}

func serve(h *PricingHandler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Wrap(domain.ErrInvalidInput, "x"), http.StatusBadRequest},
		{errors.Wrap(domain.ErrPriceOutOfBounds, "x"), http.StatusBadRequest},
		{errors.Wrap(domain.ErrProductNotFound, "x"), http.StatusNotFound},
		{errors.Wrap(domain.ErrDecisionConflict, "x"), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := serve(NewPricingHandler(&stubService{err: c.err}), http.MethodPost, "/calculate_price", `{"productId":"p"}`)
		if rec.Code != c.want {
			t.Fatalf("%v: want=%d got=%d", c.err, c.want, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Fatalf("%v: error body: %s", c.err, rec.Body.String())
		}
	}
}

func TestCalculatePrice_RequestParsing(t *testing.T) {
	svc := &stubService{}
	h := NewPricingHandler(svc)

	rec := serve(h, http.MethodPost, "/calculate_price",
		`{"productId":"prod-001","currentPrice":120.5,"inventoryRatio":0.2,"competitorPrice":"110","externalFactors":{"weather":0.3}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	req := svc.gotCalc
	if req.ProductID != "prod-001" || !req.CurrentPrice.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("request: got=%+v", req)
	}
	if req.InventoryRatio == nil || *req.InventoryRatio != 0.2 || req.DemandElasticity != nil {
		t.Fatalf("optional signals: got=%+v", req)
	}
	if req.ExternalFactors == nil || *req.ExternalFactors.Weather != 0.3 || req.ExternalFactors.EconomicIndicator != nil {
		t.Fatalf("external factors: got=%+v", req.ExternalFactors)
	}

	if rec := serve(h, http.MethodPost, "/calculate_price", `{bad`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: want=400 got=%d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/calculate_price", ``); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: want=405 got=%d", rec.Code)
	}
}

func TestCalculatePrice_UserFromBaggage(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	defer otel.SetTextMapPropagator(prev)

	svc := &stubService{}
	mux := http.NewServeMux()
	NewPricingHandler(svc).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/calculate_price", strings.NewReader(`{"productId":"p"}`))
	req.Header.Set("baggage", "user_id=user-001")
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if svc.gotCalc == nil || svc.gotCalc.UserID != "user-001" {
		t.Fatalf("userId from baggage: got=%+v", svc.gotCalc)
	}

	req = httptest.NewRequest(http.MethodPost, "/calculate_price", strings.NewReader(`{"productId":"p","userId":"user-002"}`))
	req.Header.Set("baggage", "user_id=user-001")
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if svc.gotCalc.UserID != "user-002" {
		t.Fatalf("body userId wins: got=%s", svc.gotCalc.UserID)
	}
}

func TestPriceHistory_PathAndLimit(t *testing.T) {
	svc := &stubService{}
	h := NewPricingHandler(svc)

	rec := serve(h, http.MethodGet, "/price_history/prod-002?limit=5", "")
	if rec.Code != http.StatusOK || svc.gotID != "prod-002" || svc.gotLimit != 5 {
		t.Fatalf("history: code=%d id=%s limit=%d", rec.Code, svc.gotID, svc.gotLimit)
	}
	var resp application.PriceHistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.History == nil {
		t.Fatalf("body: %s", rec.Body.String())
	}

	serve(h, http.MethodGet, "/price_history/prod-002", "")
	if svc.gotLimit != 0 {
		t.Fatalf("default limit: want=0 got=%d", svc.gotLimit)
	}

	for _, target := range []string{"/price_history/", "/price_history/a/b", "/price_history/p?limit=x", "/price_history/p?limit=-1"} {
		if rec := serve(h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want=400 got=%d", target, rec.Code)
		}
	}
}

func TestCommitPrice(t *testing.T) {
	svc := &stubService{}
	rec := serve(NewPricingHandler(svc), http.MethodPost, "/commit_price", `{"productId":"prod-001","price":"250.00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	if !svc.gotCommit.Price.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("price: got=%s", svc.gotCommit.Price)
	}

	svc.err = errors.Wrap(domain.ErrPriceOutOfBounds, "too high")
	if rec := serve(NewPricingHandler(svc), http.MethodPost, "/commit_price", `{"productId":"prod-001","price":9999}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("out of bounds: want=400 got=%d", rec.Code)
	}
}

// 通过真实的应用服务和内存实现走完整链路。
func TestEndToEnd_DecideThenHistory(t *testing.T) {
	product := &domain.Product{
		ID:           "prod-001",
		Name:         "Premium Flight Ticket",
		BasePrice:    decimal.RequireFromString("300"),
		CurrentPrice: decimal.RequireFromString("300"),
		PriceFloor:   decimal.RequireFromString("200"),
		PriceCeiling: decimal.RequireFromString("500"),
		Inventory:    50,
		MaxInventory: 100,
		DemandLevel:  domain.DemandMedium,
		Category:     "travel",
	}
	now := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := application.NewPricingService(application.Dependencies{
		Catalog: infrastructure.NewMemoryCatalog(product),
		History: infrastructure.NewMemoryLedger(),
	}, engine.New(engine.WithClock(clock)), noop.NewTracerProvider().Tracer("test"), application.Options{Now: clock})
	h := NewPricingHandler(svc)

	body := `{"productId":"prod-001","demandElasticity":0.5,"timeOfDay":3,"dayOfWeek":3,"seasonalityIndex":1.0,"userSegment":"returning_customer","historicalPerformance":0.5}`
	rec := serve(h, http.MethodPost, "/calculate_price", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var d domain.PricingDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if !d.NewPrice.Equal(decimal.RequireFromString("300")) || d.Recommendation != domain.RecommendMaintain {
		t.Fatalf("decision: got=%+v", d)
	}

	rec = serve(h, http.MethodGet, "/price_history/prod-001", "")
	var hist application.PriceHistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.Count != 1 || hist.History[0].ID != d.ID {
		t.Fatalf("history: got=%+v", hist)
	}

	if rec := serve(h, http.MethodPost, "/calculate_price", `{"productId":"nope"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: want=404 got=%d", rec.Code)
	}
}
