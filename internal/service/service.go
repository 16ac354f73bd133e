// Package service holds the business rules: catalog management, checkout,
// refunds, sales history and reporting. It is the only layer that checks the
// caller's session; stores below it trust their input.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tindahan/backend/internal/cache"
	"tindahan/backend/internal/codes"
	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/store"
	"tindahan/backend/internal/xid"
)

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

const catalogTTL = 30 * time.Second

type Service struct {
	repo    store.Repository
	catalog cache.CatalogCache
	rentPhp int64
}

func New(repo store.Repository, catalog cache.CatalogCache, rentPhp int64) *Service {
	if catalog == nil {
		catalog = cache.NewNoopCatalogCache()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		rentPhp: rentPhp,
	}
}

// requireAdmin checks the session capability at the call boundary. Expiry is
// evaluated here, not at login time.
func (s *Service) requireAdmin(ctx context.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok || !session.IsAdmin(time.Now()) {
		return store.ErrAdminRequired
	}
	return nil
}

func actorName(ctx context.Context) string {
	if session, ok := SessionFromContext(ctx); ok {
		return session.Username
	}
	return "system"
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	err := s.repo.AppendLog(ctx, domain.LogEntry{
		ID:         xid.New("log"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actorName(ctx),
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[audit] WARN: failed to write log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		log.Printf("[cache] WARN: invalidate failed: %v", err)
	}
}

// lexicon loads the code-part labels, preferring the cache.
func (s *Service) lexicon(ctx context.Context) (*codes.Lexicon, error) {
	parts, err := s.ListCodeParts(ctx)
	if err != nil {
		return nil, err
	}
	return codes.NewLexicon(parts), nil
}

func (s *Service) ListCodeParts(ctx context.Context) ([]domain.CodePart, error) {
	if parts, ok, err := s.catalog.GetCodeParts(ctx); err != nil {
		log.Printf("[cache] WARN: code parts read failed: %v", err)
	} else if ok {
		return parts, nil
	}

	parts, err := s.repo.ListCodeParts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetCodeParts(ctx, parts, catalogTTL); err != nil {
		log.Printf("[cache] WARN: code parts write failed: %v", err)
	}
	return parts, nil
}

// ProductWithInventory joins the product with its per-size rows, always
// returning all seven sizes zero-filled. The total prefers summing the rows;
// the stored denormalized total is only a fallback when no rows exist.
func (s *Service) ProductWithInventory(ctx context.Context, code string) (*domain.ProductWithInventory, error) {
	product, err := s.repo.GetProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.GetInventoryByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	total := product.TotalStock
	if len(rows) > 0 {
		total = domain.SumStock(rows)
	}

	return &domain.ProductWithInventory{
		Product:    *product,
		Inventory:  domain.ZeroFillSizes(code, rows),
		TotalStock: total,
	}, nil
}

// ProductInventoryList is the register screen's catalog: every product with
// its zero-filled size rows, built from two batch reads instead of a query
// per product.
func (s *Service) ProductInventoryList(ctx context.Context) (*domain.ProductInventoryList, error) {
	if list, ok, err := s.catalog.GetCatalog(ctx); err != nil {
		log.Printf("[cache] WARN: catalog read failed: %v", err)
	} else if ok {
		return list, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string][]domain.InventoryRow, len(products))
	for _, row := range inventory {
		byCode[row.Code] = append(byCode[row.Code], row)
	}

	list := &domain.ProductInventoryList{
		Items: make([]domain.ProductWithInventory, 0, len(products)),
	}
	for _, product := range products {
		rows := byCode[product.Code]
		total := product.TotalStock
		if len(rows) > 0 {
			total = domain.SumStock(rows)
		}
		list.Items = append(list.Items, domain.ProductWithInventory{
			Product:    product,
			Inventory:  domain.ZeroFillSizes(product.Code, rows),
			TotalStock: total,
		})
	}

	if err := s.catalog.SetCatalog(ctx, list, catalogTTL); err != nil {
		log.Printf("[cache] WARN: catalog write failed: %v", err)
	}
	return list, nil
}

func (s *Service) UpsertProduct(ctx context.Context, req domain.ProductUpsertRequest) (*domain.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !codes.IsValid(code) {
		return nil, fmt.Errorf("%w: malformed product code %q", store.ErrValidation, req.Code)
	}
	if req.PricePhp < 0 || req.CostKrw < 0 {
		return nil, fmt.Errorf("%w: price and cost must not be negative", store.ErrValidation)
	}

	product := domain.Product{
		Code:     code,
		Name:     strings.TrimSpace(req.Name),
		CostKrw:  req.CostKrw,
		PricePhp: req.PricePhp,
		Category: req.Category,
		Gender:   req.Gender,
		Type:     req.Type,
		Brand:    req.Brand,
		Color:    req.Color,
		Serial:   req.Serial,
		FreeGift: req.FreeGift,
	}

	lex, err := s.lexicon(ctx)
	if err != nil {
		return nil, err
	}
	codes.FillProduct(&product, lex)

	saved, err := s.repo.UpsertProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "product_upsert", "product", saved.Code,
		fmt.Sprintf("name=%s,price=%d,cost=%d", saved.Name, saved.PricePhp, saved.CostKrw))
	s.invalidateCatalog(ctx)
	return saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, code string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("%w: product code required", store.ErrValidation)
	}

	if err := s.repo.DeleteProduct(ctx, code); err != nil {
		return err
	}

	s.logAudit(ctx, "product_delete", "product", code, "")
	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) UpdateInventory(ctx context.Context, code string, quantities map[domain.Size]int) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("%w: product code required", store.ErrValidation)
	}
	if len(quantities) == 0 {
		return fmt.Errorf("%w: no sizes given", store.ErrValidation)
	}
	for size, qty := range quantities {
		if _, ok := domain.ParseSize(string(size)); !ok {
			return fmt.Errorf("%w: unknown size %q", store.ErrValidation, size)
		}
		if qty < 0 {
			return fmt.Errorf("%w: negative stock for size %s", store.ErrValidation, size)
		}
	}

	if _, err := s.repo.GetProductByCode(ctx, code); err != nil {
		return err
	}
	if err := s.repo.UpdateInventory(ctx, code, quantities); err != nil {
		return err
	}

	s.logAudit(ctx, "inventory_update", "product", code, fmt.Sprintf("sizes=%d", len(quantities)))
	s.invalidateCatalog(ctx)
	return nil
}

// NextSerialForPrefix suggests the next two-digit serial for a category,
// gender, type, brand and color combination.
func (s *Service) NextSerialForPrefix(ctx context.Context, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if strings.Count(prefix, "-") != 3 {
		return "", fmt.Errorf("%w: prefix must have four segments", store.ErrValidation)
	}

	allCodes, err := s.repo.ListProductCodes(ctx)
	if err != nil {
		return "", err
	}
	return codes.NextSerial(prefix, allCodes), nil
}

func (s *Service) IsProductCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.GetProductByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Checkout sells the whole cart atomically. When a guide is attached, the
// lines join a sale group whose finalization and commission assignment run
// best effort after the stock-adjusting insert committed.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", store.ErrValidation)
	}
	if req.CommissionRate < 0 || req.CommissionRate > 1 {
		return nil, fmt.Errorf("%w: commission rate out of range", store.ErrValidation)
	}
	if req.CommissionRate > 0 && req.GuideID == "" {
		return nil, fmt.Errorf("%w: commission rate without guide", store.ErrValidation)
	}

	lex, err := s.lexicon(ctx)
	if err != nil {
		return nil, err
	}

	// Validate every line first, then resolve the cart's products in one
	// batched read instead of a query per line.
	codes := make([]string, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		if code == "" {
			return nil, fmt.Errorf("%w: item code required", store.ErrValidation)
		}
		if _, ok := domain.ParseSize(string(item.Size)); !ok {
			return nil, fmt.Errorf("%w: unknown size %q for %s", store.ErrValidation, item.Size, code)
		}
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: qty must be positive for %s", store.ErrValidation, code)
		}
		if _, dup := seen[code]; !dup {
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}

	products, err := s.repo.GetProductsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	productByCode := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productByCode[p.Code] = p
	}

	sales := make([]domain.Sale, 0, len(req.Items))
	for _, item := range req.Items {
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		size, _ := domain.ParseSize(string(item.Size))

		product, ok := productByCode[code]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", store.ErrValidation, code)
		}

		// nil means charge the list price; an explicit zero is a free gift.
		unitPrice := product.PricePhp
		if item.UnitPricePhp != nil {
			if *item.UnitPricePhp < 0 {
				return nil, fmt.Errorf("%w: negative price for %s", store.ErrValidation, code)
			}
			unitPrice = *item.UnitPricePhp
		} else if product.FreeGift {
			unitPrice = 0
		}

		name := product.Name
		if name == "" {
			name = lex.DisplayName(code)
		}

		sales = append(sales, domain.Sale{
			Code:             code,
			Name:             name,
			Size:             size,
			SizeDisplay:      string(size),
			Color:            lex.Label(domain.GroupColor, product.Color),
			Qty:              item.Qty,
			UnitPricePhp:     unitPrice,
			OriginalPricePhp: product.PricePhp,
			FreeGift:         unitPrice == 0,
		})
	}

	var groupID string
	if req.GuideID != "" {
		group, err := s.repo.CreateSaleGroup(ctx, domain.SaleGroup{
			GuideID:        req.GuideID,
			CommissionRate: req.CommissionRate,
		})
		if err != nil {
			return nil, err
		}
		groupID = group.ID
		for i := range sales {
			sales[i].GroupID = groupID
		}
	}

	inserted, err := s.repo.InsertSales(ctx, sales)
	if err != nil {
		return nil, err
	}

	// The sale committed with the stock decrement. Group finalization and
	// commission assignment must not undo it, so failures are logged and
	// swallowed.
	if groupID != "" {
		if _, err := s.repo.FinalizeSaleGroup(ctx, groupID); err != nil {
			log.Printf("[service] WARN: finalize sale group %s failed: %v", groupID, err)
		} else if err := s.repo.AssignGuideCommission(ctx, groupID); err != nil {
			log.Printf("[service] WARN: assign commission for group %s failed: %v", groupID, err)
		}
	}

	var total int64
	itemCount := 0
	for _, sale := range inserted {
		total += sale.LineTotal()
		itemCount += sale.Qty
	}

	s.logAudit(ctx, "checkout", "sale_group", groupID,
		fmt.Sprintf("lines=%d,qty=%d,total=%d", len(inserted), itemCount, total))
	s.invalidateCatalog(ctx)

	return &domain.CheckoutResponse{
		GroupID:        groupID,
		Sales:          inserted,
		TotalAmountPhp: total,
		ItemCount:      itemCount,
	}, nil
}

const (
	refundReasonMin = 1
	refundReasonMax = 50
)

func (s *Service) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	req.Reason = strings.TrimSpace(req.Reason)
	if req.SaleID == "" {
		return nil, fmt.Errorf("%w: sale id required", store.ErrValidation)
	}
	if req.Qty < 1 {
		return nil, fmt.Errorf("%w: refund qty must be positive", store.ErrValidation)
	}
	if n := len([]rune(req.Reason)); n < refundReasonMin || n > refundReasonMax {
		return nil, fmt.Errorf("%w: reason must be 1 to 50 characters", store.ErrValidation)
	}

	refund, err := s.repo.ProcessRefund(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "refund", "sale", req.SaleID,
		fmt.Sprintf("qty=%d,amount=%d,reason=%s", refund.Qty, refund.AmountPhp, refund.Reason))
	s.invalidateCatalog(ctx)
	return refund, nil
}

// CorrectSalePrice changes the charged price of an active line. A zero price
// reclassifies the line as a free gift.
func (s *Service) CorrectSalePrice(ctx context.Context, saleID string, newPricePhp int64) (*domain.Sale, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if saleID == "" {
		return nil, fmt.Errorf("%w: sale id required", store.ErrValidation)
	}
	if newPricePhp < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
	}

	sale, err := s.repo.UpdateSalePrice(ctx, saleID, newPricePhp)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "sale_price_correct", "sale", saleID, fmt.Sprintf("price=%d", newPricePhp))
	return sale, nil
}

// dateRange converts inclusive calendar-date strings into the half-open
// instant range the stores expect. Empty strings leave that side unbounded.
func dateRange(fromDate string, toDate string) (time.Time, time.Time, error) {
	var from, to time.Time
	if fromDate != "" {
		parsed, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return from, to, fmt.Errorf("%w: bad from date %q", store.ErrValidation, fromDate)
		}
		from = parsed
	}
	if toDate != "" {
		parsed, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return from, to, fmt.Errorf("%w: bad to date %q", store.ErrValidation, toDate)
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("%w: date range reversed", store.ErrValidation)
	}
	return from, to, nil
}

// SalesHistory lists sales in an inclusive calendar-date window, optionally
// narrowed by a case-insensitive text match. HasAnySales separates "nothing
// sold yet" from "nothing matched".
func (s *Service) SalesHistory(ctx context.Context, filter domain.SalesHistoryFilter) (*domain.SalesHistoryResult, error) {
	from, to, err := dateRange(filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, err
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	hasAny, err := s.repo.HasAnySales(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	rows := sales
	if query != "" {
		rows = rows[:0:0]
		for _, sale := range sales {
			if saleMatches(sale, query) {
				rows = append(rows, sale)
			}
		}
	}
	if rows == nil {
		rows = []domain.Sale{}
	}

	return &domain.SalesHistoryResult{
		HasAnySales: hasAny,
		Rows:        rows,
	}, nil
}

func saleMatches(sale domain.Sale, query string) bool {
	for _, field := range []string{sale.Code, sale.Name, sale.SizeDisplay, string(sale.Size), sale.Color} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (s *Service) ListRefunds(ctx context.Context, fromDate string, toDate string) ([]domain.Refund, error) {
	from, to, err := dateRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	refunds, err := s.repo.ListRefunds(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if refunds == nil {
		refunds = []domain.Refund{}
	}
	return refunds, nil
}

func (s *Service) ListGuides(ctx context.Context) ([]domain.Guide, error) {
	return s.repo.ListGuides(ctx)
}

func (s *Service) MonthlyProfitReport(ctx context.Context, year int) ([]domain.ProfitReportRow, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", store.ErrValidation)
	}
	return s.repo.MonthlyProfitReport(ctx, year)
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, limit)
}
