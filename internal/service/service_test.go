package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/store"
	"tindahan/backend/internal/store/local"
)

func newTestService(t *testing.T) (*Service, *local.Store) {
	t.Helper()
	repo, err := local.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo, nil, 0), repo
}

func adminCtx() context.Context {
	return WithSession(context.Background(), domain.Session{
		Username:  "admin",
		Role:      domain.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func staffCtx() context.Context {
	return WithSession(context.Background(), domain.Session{
		Username:  "staff",
		Role:      domain.RoleStaff,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func seedProduct(t *testing.T, svc *Service, code string, pricePhp int64, stock map[domain.Size]int) {
	t.Helper()
	ctx := adminCtx()
	_, err := svc.UpsertProduct(ctx, domain.ProductUpsertRequest{
		Code:     code,
		PricePhp: pricePhp,
		CostKrw:  20000,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := svc.UpdateInventory(ctx, code, stock); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func TestUpsertProductRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	req := domain.ProductUpsertRequest{Code: "GM-TP-AC-BK-01", PricePhp: 1000}

	if _, err := svc.UpsertProduct(context.Background(), req); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("no session: %v", err)
	}
	if _, err := svc.UpsertProduct(staffCtx(), req); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("staff session: %v", err)
	}

	expired := WithSession(context.Background(), domain.Session{
		Username:  "admin",
		Role:      domain.RoleAdmin,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if _, err := svc.UpsertProduct(expired, req); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("expired admin session: %v", err)
	}

	if _, err := svc.UpsertProduct(adminCtx(), req); err != nil {
		t.Fatalf("valid admin session: %v", err)
	}
}

func TestUpsertProductRejectsMalformedCode(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpsertProduct(adminCtx(), domain.ProductUpsertRequest{Code: "NOT-A-CODE", PricePhp: 10})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertProductFillsCodeMetadata(t *testing.T) {
	svc, _ := newTestService(t)
	product, err := svc.UpsertProduct(adminCtx(), domain.ProductUpsertRequest{
		Code:     "gm-tp-ac-bk-01",
		PricePhp: 1500,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if product.Code != "GM-TP-AC-BK-01" {
		t.Fatalf("code not normalized: %q", product.Code)
	}
	if product.Brand != "AC" || product.Color != "BK" || product.Serial != "01" {
		t.Fatalf("metadata not derived: %+v", product)
	}
	if product.Name == "" {
		t.Fatalf("name not derived from the seeded lexicon")
	}
}

func TestCheckoutTotalsAndStock(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1500, map[domain.Size]int{domain.SizeM: 5})

	resp, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if resp.TotalAmountPhp != 3000 {
		t.Fatalf("total = %d, want 3000", resp.TotalAmountPhp)
	}
	if resp.ItemCount != 2 || len(resp.Sales) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	product, err := svc.ProductWithInventory(staffCtx(), "GM-TP-AC-BK-01")
	if err != nil {
		t.Fatalf("product with inventory: %v", err)
	}
	if product.TotalStock != 3 {
		t.Fatalf("stock after checkout = %d, want 3", product.TotalStock)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1500, map[domain.Size]int{domain.SizeM: 1})

	_, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 2}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	result, err := svc.SalesHistory(staffCtx(), domain.SalesHistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if result.HasAnySales || len(result.Rows) != 0 {
		t.Fatalf("failed checkout left sales behind: %+v", result)
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1500, map[domain.Size]int{domain.SizeM: 5})

	cases := []struct {
		name string
		req  domain.CheckoutRequest
	}{
		{"empty cart", domain.CheckoutRequest{}},
		{"zero qty", domain.CheckoutRequest{
			Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 0}},
		}},
		{"unknown size", domain.CheckoutRequest{
			Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: "XS", Qty: 1}},
		}},
		{"unknown product", domain.CheckoutRequest{
			Items: []domain.CartItem{{Code: "GM-TP-AC-WH-09", Size: domain.SizeM, Qty: 1}},
		}},
		{"rate without guide", domain.CheckoutRequest{
			CommissionRate: 0.1,
			Items:          []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Checkout(staffCtx(), tc.req); !errors.Is(err, store.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCheckoutFreeGiftPricing(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1500, map[domain.Size]int{domain.SizeM: 5})

	zero := int64(0)
	pinned := int64(1200)
	resp, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		Items: []domain.CartItem{
			{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1},                     // list price
			{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1, UnitPricePhp: &zero}, // free gift
			{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1, UnitPricePhp: &pinned},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if resp.TotalAmountPhp != 1500+0+1200 {
		t.Fatalf("total = %d, want 2700", resp.TotalAmountPhp)
	}
	if resp.Sales[0].FreeGift || !resp.Sales[1].FreeGift || resp.Sales[2].FreeGift {
		t.Fatalf("free gift flags wrong: %+v", resp.Sales)
	}
	if resp.Sales[1].OriginalPricePhp != 1500 {
		t.Fatalf("original price lost on free gift: %+v", resp.Sales[1])
	}
}

func TestCheckoutWithGuideFinalizesGroup(t *testing.T) {
	svc, repo := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1000, map[domain.Size]int{domain.SizeM: 5})

	resp, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		GuideID:        "guide-7",
		CommissionRate: 0.10,
		Items:          []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.GroupID == "" {
		t.Fatal("expected a sale group id")
	}

	groups, err := repo.ListSaleGroups(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups", len(groups))
	}
	if groups[0].SubtotalPhp != 3000 || groups[0].CommissionPhp != 300 {
		t.Fatalf("group not finalized: %+v", groups[0])
	}
	if groups[0].FinalizedAt == nil {
		t.Fatal("finalized_at not set")
	}
}

func TestRefundReasonValidation(t *testing.T) {
	svc, _ := newTestService(t)

	long := make([]rune, 51)
	for i := range long {
		long[i] = 'x'
	}

	if _, err := svc.ProcessRefund(staffCtx(), domain.RefundRequest{
		SaleID: "sale-1", Qty: 1, Reason: "damaged",
	}); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("staff refund should fail the admin check, got %v", err)
	}

	cases := []string{"", "   ", string(long)}
	for _, reason := range cases {
		_, err := svc.ProcessRefund(adminCtx(), domain.RefundRequest{
			SaleID: "sale-1", Qty: 1, Reason: reason,
		})
		if !errors.Is(err, store.ErrValidation) {
			t.Fatalf("reason %q: expected validation error, got %v", reason, err)
		}
	}
}

func TestSalesHistoryInclusiveDates(t *testing.T) {
	svc, repo := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1000, map[domain.Size]int{domain.SizeM: 10})

	ctx := context.Background()
	for _, at := range []time.Time{
		time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 0, 1, 0, 0, time.UTC),
	} {
		_, err := repo.InsertSales(ctx, []domain.Sale{{
			Code: "GM-TP-AC-BK-01", Name: "acme black t-shirt", Size: domain.SizeM,
			SizeDisplay: "M", Qty: 1, UnitPricePhp: 1000, CreatedAt: at,
		}})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	// Both bounds are inclusive calendar dates: a sale at 23:59 on the to
	// date is in range, the next day is not.
	result, err := svc.SalesHistory(staffCtx(), domain.SalesHistoryFilter{
		FromDate: "2026-08-01",
		ToDate:   "2026-08-02",
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	if !result.HasAnySales {
		t.Fatal("has-any-sales should be true")
	}
}

func TestSalesHistoryQueryMatching(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1000, map[domain.Size]int{domain.SizeM: 5})
	seedProduct(t, svc, "GM-TP-AC-WH-01", 1000, map[domain.Size]int{domain.SizeL: 5})

	for _, item := range []domain.CartItem{
		{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1},
		{Code: "GM-TP-AC-WH-01", Size: domain.SizeL, Qty: 1},
	} {
		if _, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{Items: []domain.CartItem{item}}); err != nil {
			t.Fatalf("checkout: %v", err)
		}
	}

	result, err := svc.SalesHistory(staffCtx(), domain.SalesHistoryFilter{Query: "bk-01"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Code != "GM-TP-AC-BK-01" {
		t.Fatalf("code match failed: %+v", result.Rows)
	}

	// The seeded lexicon labels WH as white; matching runs against the
	// rendered name, not just the raw code.
	result, err = svc.SalesHistory(staffCtx(), domain.SalesHistoryFilter{Query: "WHITE"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Code != "GM-TP-AC-WH-01" {
		t.Fatalf("name match failed: %+v", result.Rows)
	}

	result, err = svc.SalesHistory(staffCtx(), domain.SalesHistoryFilter{Query: "no-such-thing"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(result.Rows) != 0 || !result.HasAnySales {
		t.Fatalf("expected empty match with has-any-sales true: %+v", result)
	}
}

func TestNextSerialForPrefix(t *testing.T) {
	svc, _ := newTestService(t)

	serial, err := svc.NextSerialForPrefix(staffCtx(), "GM-TP-AC-BK")
	if err != nil {
		t.Fatalf("next serial: %v", err)
	}
	if serial != "01" {
		t.Fatalf("empty catalog serial = %q, want 01", serial)
	}

	seedProduct(t, svc, "GM-TP-AC-BK-01", 1000, map[domain.Size]int{domain.SizeM: 1})
	seedProduct(t, svc, "GM-TP-AC-BK-02", 1000, map[domain.Size]int{domain.SizeM: 1})

	serial, err = svc.NextSerialForPrefix(staffCtx(), "GM-TP-AC-BK")
	if err != nil {
		t.Fatalf("next serial: %v", err)
	}
	if serial != "03" {
		t.Fatalf("serial = %q, want 03", serial)
	}

	if _, err := svc.NextSerialForPrefix(staffCtx(), "GM-TP"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("short prefix should fail validation, got %v", err)
	}
}

func TestCorrectSalePriceRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1000, map[domain.Size]int{domain.SizeM: 5})

	resp, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	saleID := resp.Sales[0].ID

	if _, err := svc.CorrectSalePrice(staffCtx(), saleID, 800); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("staff correction should fail, got %v", err)
	}

	sale, err := svc.CorrectSalePrice(adminCtx(), saleID, 800)
	if err != nil {
		t.Fatalf("admin correction: %v", err)
	}
	if sale.UnitPricePhp != 800 {
		t.Fatalf("price = %d, want 800", sale.UnitPricePhp)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	svc, _ := newTestService(t)
	svc.rentPhp = 500
	// 20000 KRW at the fixed divisor is 1000 PHP unit cost.
	seedProduct(t, svc, "GM-TP-AC-BK-01", 1500, map[domain.Size]int{domain.SizeM: 10})

	resp, err := svc.Checkout(staffCtx(), domain.CheckoutRequest{
		Items: []domain.CartItem{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := svc.ProcessRefund(adminCtx(), domain.RefundRequest{
		SaleID: resp.Sales[0].ID, Qty: 1, Reason: "damaged",
	}); err != nil {
		t.Fatalf("refund: %v", err)
	}

	report, err := svc.Analytics(staffCtx(), domain.AnalyticsRequest{})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	summary := report.Summary
	if summary.GrossRevenuePhp != 3000 {
		t.Fatalf("gross = %d, want 3000", summary.GrossRevenuePhp)
	}
	if summary.RefundedPhp != 1500 || summary.RefundCount != 1 {
		t.Fatalf("refund figures wrong: %+v", summary)
	}
	if summary.NetRevenuePhp != 1500 {
		t.Fatalf("net = %d, want 1500", summary.NetRevenuePhp)
	}
	if summary.ItemsSold != 1 {
		t.Fatalf("items sold = %d, want 1", summary.ItemsSold)
	}
	if summary.CostPhp != 1000 {
		t.Fatalf("cost = %d, want 1000", summary.CostPhp)
	}
	if summary.GrossProfitPhp != 500 {
		t.Fatalf("gross profit = %d, want 500", summary.GrossProfitPhp)
	}
	if summary.RentPhp != 500 || summary.OwnerProfitPhp != 0 {
		t.Fatalf("owner profit wrong: %+v", summary)
	}
	if summary.TransactionCount != 1 {
		t.Fatalf("tx count = %d, want 1", summary.TransactionCount)
	}

	if len(report.PerSku) != 1 || report.PerSku[0].Qty != 1 {
		t.Fatalf("per-sku wrong: %+v", report.PerSku)
	}
	if len(report.BySize) != 1 || report.BySize[0].Key != "M" {
		t.Fatalf("size bucket wrong: %+v", report.BySize)
	}
	if len(report.ByColor) != 1 || report.ByColor[0].Key != "black" {
		t.Fatalf("color bucket wrong: %+v", report.ByColor)
	}
	if len(report.HourQty) != 13 {
		t.Fatalf("hour bins = %d, want 13", len(report.HourQty))
	}
	if len(report.WeekdayQty) != 7 {
		t.Fatalf("weekday bins = %d, want 7", len(report.WeekdayQty))
	}
}

func TestListAuditLogsRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ListAuditLogs(staffCtx(), 10); !errors.Is(err, store.ErrAdminRequired) {
		t.Fatalf("expected admin-required, got %v", err)
	}
	if _, err := svc.ListAuditLogs(adminCtx(), 10); err != nil {
		t.Fatalf("admin listing failed: %v", err)
	}
}
