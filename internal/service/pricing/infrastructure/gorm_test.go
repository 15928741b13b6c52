package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pricewise/internal/pkg/database"
	"pricewise/internal/service/pricing/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:           "prod-001",
		Name:         "Premium Flight Ticket",
		BasePrice:    decimal.RequireFromString("299.99"),
		CurrentPrice: decimal.RequireFromString("299.99"),
		PriceFloor:   decimal.RequireFromString("199.99"),
		PriceCeiling: decimal.RequireFromString("499.99"),
		Inventory:    50,
		MaxInventory: 100,
		DemandLevel:  domain.DemandHigh,
		Category:     "travel",
	}
}

func TestGormLedger_Contract(t *testing.T) {
	ledgerContract(t, NewGormLedger(openTestDB(t)))
}

func TestGormLedger_MicrosecondKeys(t *testing.T) {
	ctx := context.Background()
	ledger := NewGormLedger(openTestDB(t))

	first := decisionAt("p", 0)
	if err := ledger.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	next := first.WithTimestamp(first.Timestamp.Add(1000))
	next.ID = "next"
	if err := ledger.Append(ctx, next); err != nil {
		t.Fatalf("append +1µs: %v", err)
	}
	got, err := ledger.Query(ctx, "p", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "next" {
		t.Fatalf("order: want next first got=%+v", got)
	}
}

func TestGormCatalog(t *testing.T) {
	ctx := context.Background()
	catalog := NewGormCatalog(openTestDB(t))

	if err := catalog.Seed(ctx, sampleProduct()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p, err := catalog.Get(ctx, "prod-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !p.PriceFloor.Equal(decimal.RequireFromString("199.99")) || p.Category != "travel" || p.DemandLevel != domain.DemandHigh {
		t.Fatalf("get: got=%+v", p)
	}

	if err := catalog.UpdatePrice(ctx, "prod-001", decimal.RequireFromString("310.50")); err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ = catalog.Get(ctx, "prod-001")
	if !p.CurrentPrice.Equal(decimal.RequireFromString("310.50")) {
		t.Fatalf("current price: want=310.50 got=%s", p.CurrentPrice)
	}

	if _, err := catalog.Get(ctx, "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("get missing: want ErrProductNotFound got=%v", err)
	}
	if err := catalog.UpdatePrice(ctx, "missing", decimal.NewFromInt(1)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("update missing: want ErrProductNotFound got=%v", err)
	}

	bad := sampleProduct()
	bad.PriceFloor = decimal.NewFromInt(900)
	if err := catalog.Seed(ctx, bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("seed invalid: want ErrInvalidInput got=%v", err)
	}
}

func TestGormCatalog_ReseedKeepsCommittedPrice(t *testing.T) {
	ctx := context.Background()
	catalog := NewGormCatalog(openTestDB(t))
	seed := []*domain.Product{sampleProduct()}

	if err := SeedCatalog(ctx, catalog, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := catalog.UpdatePrice(ctx, "prod-001", decimal.RequireFromString("350.00")); err != nil {
		t.Fatalf("update: %v", err)
	}
	// 重启时再次执行种子
	if err := SeedCatalog(ctx, catalog, seed); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	p, err := catalog.Get(ctx, "prod-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !p.CurrentPrice.Equal(decimal.RequireFromString("350.00")) {
		t.Fatalf("committed price after reseed: want=350.00 got=%s", p.CurrentPrice)
	}
}

func TestGormCustomerDirectory_SeedKeepsExisting(t *testing.T) {
	ctx := context.Background()
	dir := NewGormCustomerDirectory(openTestDB(t))

	if err := dir.SeedSegment(ctx, "user-001", domain.SegmentNewCustomer); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := dir.SetSegment(ctx, "user-001", domain.SegmentVIPCustomer); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := dir.SeedSegment(ctx, "user-001", domain.SegmentNewCustomer); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	seg, _, _ := dir.Segment(ctx, "user-001")
	if seg != domain.SegmentVIPCustomer {
		t.Fatalf("segment after reseed: want=vip_customer got=%s", seg)
	}
}

func TestGormCustomerDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewGormCustomerDirectory(openTestDB(t))

	if _, ok, err := dir.Segment(ctx, "user-001"); ok || err != nil {
		t.Fatalf("unknown user: want ok=false,nil got=%v,%v", ok, err)
	}
	if err := dir.SetSegment(ctx, "user-001", domain.SegmentVIPCustomer); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := dir.SetSegment(ctx, "user-001", domain.SegmentPremium); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	seg, ok, err := dir.Segment(ctx, "user-001")
	if err != nil || !ok || seg != domain.SegmentPremium {
		t.Fatalf("segment: want=premium got=%s ok=%v err=%v", seg, ok, err)
	}
}
