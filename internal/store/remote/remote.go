// Package remote implements store.Repository against the hosted REST/RPC
// backend. Stock arithmetic for checkout and refunds runs server side (a
// trigger behind the sales insert, a stored procedure for refunds), so this
// layer translates rows and maps backend rejections onto the store
// sentinels.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/postgrest"
	"tindahan/backend/internal/store"
	"tindahan/backend/internal/xid"
)

const (
	tableProducts   = "products"
	tableInventory  = "inventories"
	tableSales      = "sales"
	tableSaleGroups = "sale_groups"
	tableRefunds    = "refunds"
	tableCodeParts  = "code_parts"
	tableGuides     = "guides"
	tableLogs       = "logs"
)

type Store struct {
	client *postgrest.Client
}

func New(client *postgrest.Client) *Store {
	return &Store{client: client}
}

// mapError converts well-known backend rejections to store sentinels so
// callers never branch on backend message strings. Anything else, including
// transport failures, passes through for the fallback layer to classify.
func mapError(err error) error {
	var apiErr *postgrest.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Status == 404, apiErr.Code == "PGRST116":
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	case strings.Contains(msg, "insufficient stock"):
		return fmt.Errorf("%w: %v", store.ErrInsufficientStock, err)
	case strings.Contains(msg, "already refunded"):
		return fmt.Errorf("%w: %v", store.ErrAlreadyRefunded, err)
	}
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.client.SelectAll(ctx, tableProducts, postgrest.Query{Order: "code.asc"})
	if err != nil {
		return nil, mapError(err)
	}
	products := make([]domain.Product, 0, len(raw))
	for _, r := range raw {
		var p domain.Product
		if err := json.Unmarshal(r, &p); err != nil {
			return nil, fmt.Errorf("decode product row: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	var rows []domain.Product
	err := s.client.Select(ctx, tableProducts, postgrest.Query{
		Filters: []postgrest.Filter{postgrest.Eq("code", code)},
		Limit:   1,
	}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) GetProductsByCodes(ctx context.Context, codes []string) ([]domain.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var rows []domain.Product
	err := s.client.Select(ctx, tableProducts, postgrest.Query{
		Filters: []postgrest.Filter{postgrest.In("code", codes)},
		Order:   "code.asc",
	}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

// productPayload is the upsert body for the products table. total_stock is
// deliberately absent: the backend owns that counter and a metadata edit must
// not overwrite it.
type productPayload struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	CostKrw  int64  `json:"cost_krw"`
	PricePhp int64  `json:"price_php"`
	Category string `json:"category"`
	Gender   string `json:"gender"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Color    string `json:"color"`
	Serial   string `json:"serial"`
	FreeGift bool   `json:"free_gift"`
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Code == "" {
		return nil, fmt.Errorf("%w: product code required", store.ErrValidation)
	}
	payload := productPayload{
		Code:     product.Code,
		Name:     product.Name,
		CostKrw:  product.CostKrw,
		PricePhp: product.PricePhp,
		Category: product.Category,
		Gender:   product.Gender,
		Type:     product.Type,
		Brand:    product.Brand,
		Color:    product.Color,
		Serial:   product.Serial,
		FreeGift: product.FreeGift,
	}
	var rows []domain.Product
	err := s.client.Upsert(ctx, tableProducts, []productPayload{payload}, postgrest.WriteOptions{
		Returning:       true,
		ConflictColumns: []string{"code"},
	}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		saved := product
		return &saved, nil
	}
	return &rows[0], nil
}

func (s *Store) DeleteProduct(ctx context.Context, code string) error {
	if err := s.client.Delete(ctx, tableInventory, []postgrest.Filter{postgrest.Eq("code", code)}); err != nil {
		return mapError(err)
	}
	if err := s.client.Delete(ctx, tableProducts, []postgrest.Filter{postgrest.Eq("code", code)}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) GetInventoryByCode(ctx context.Context, code string) ([]domain.InventoryRow, error) {
	var rows []domain.WideInventoryRow
	err := s.client.Select(ctx, tableInventory, postgrest.Query{
		Filters: []postgrest.Filter{postgrest.Eq("code", code)},
		Limit:   1,
	}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return domain.WideRowToSizeRows(rows[0]), nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryRow, error) {
	raw, err := s.client.SelectAll(ctx, tableInventory, postgrest.Query{Order: "code.asc"})
	if err != nil {
		return nil, mapError(err)
	}
	var result []domain.InventoryRow
	for _, r := range raw {
		var wide domain.WideInventoryRow
		if err := json.Unmarshal(r, &wide); err != nil {
			return nil, fmt.Errorf("decode inventory row: %w", err)
		}
		result = append(result, domain.WideRowToSizeRows(wide)...)
	}
	return result, nil
}

// UpdateInventory merges only the given sizes into the wide row, leaving the
// other size columns untouched, then refreshes the product's stored total
// from the merged row.
func (s *Store) UpdateInventory(ctx context.Context, code string, quantities map[domain.Size]int) error {
	if len(quantities) == 0 {
		return nil
	}

	rows := make([]domain.InventoryRow, 0, len(quantities))
	for size, qty := range quantities {
		rows = append(rows, domain.InventoryRow{Code: code, Size: size, StockQty: qty})
	}
	patch := domain.SizeRowsToWidePatch(rows)
	patch["code"] = code

	var merged []domain.WideInventoryRow
	err := s.client.Upsert(ctx, tableInventory, []map[string]any{patch}, postgrest.WriteOptions{
		Returning:       true,
		ConflictColumns: []string{"code"},
	}, &merged)
	if err != nil {
		return mapError(err)
	}
	if len(merged) == 0 {
		return nil
	}

	total := domain.SumStock(domain.WideRowToSizeRows(merged[0]))
	err = s.client.Update(ctx, tableProducts,
		map[string]any{"total_stock": total},
		[]postgrest.Filter{postgrest.Eq("code", code)},
		postgrest.WriteOptions{}, nil)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) ListProductCodes(ctx context.Context) ([]string, error) {
	raw, err := s.client.SelectAll(ctx, tableProducts, postgrest.Query{
		Columns: []string{"code"},
		Order:   "code.asc",
	})
	if err != nil {
		return nil, mapError(err)
	}
	codes := make([]string, 0, len(raw))
	for _, r := range raw {
		var row struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("decode code row: %w", err)
		}
		codes = append(codes, row.Code)
	}
	return codes, nil
}

func (s *Store) ListCodeParts(ctx context.Context) ([]domain.CodePart, error) {
	raw, err := s.client.SelectAll(ctx, tableCodeParts, postgrest.Query{Order: "group.asc"})
	if err != nil {
		return nil, mapError(err)
	}
	parts := make([]domain.CodePart, 0, len(raw))
	for _, r := range raw {
		var p domain.CodePart
		if err := json.Unmarshal(r, &p); err != nil {
			return nil, fmt.Errorf("decode code part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (s *Store) CreateSaleGroup(ctx context.Context, group domain.SaleGroup) (*domain.SaleGroup, error) {
	if group.ID == "" {
		group.ID = xid.New("grp")
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	var rows []domain.SaleGroup
	err := s.client.Insert(ctx, tableSaleGroups, []domain.SaleGroup{group},
		postgrest.WriteOptions{Returning: true}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		created := group
		return &created, nil
	}
	return &rows[0], nil
}

func (s *Store) FinalizeSaleGroup(ctx context.Context, groupID string) (*domain.SaleGroup, error) {
	var group domain.SaleGroup
	err := s.client.RPC(ctx, "finalize_sale_group", map[string]any{"p_group_id": groupID}, &group)
	if err != nil {
		return nil, mapError(err)
	}
	return &group, nil
}

func (s *Store) ListSaleGroups(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleGroup, error) {
	var filters []postgrest.Filter
	if !from.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "gte", Value: from.UTC().Format(time.RFC3339),
		})
	}
	if !to.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "lt", Value: to.UTC().Format(time.RFC3339),
		})
	}
	raw, err := s.client.SelectAll(ctx, tableSaleGroups, postgrest.Query{
		Filters: filters,
		Order:   "created_at.desc",
	})
	if err != nil {
		return nil, mapError(err)
	}
	groups := make([]domain.SaleGroup, 0, len(raw))
	for _, r := range raw {
		var group domain.SaleGroup
		if err := json.Unmarshal(r, &group); err != nil {
			return nil, fmt.Errorf("decode sale group row: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// InsertSales writes the full cart in one request. The stock decrement runs
// in a trigger behind the insert, so either every line lands with stock
// adjusted or the backend rejects the whole batch.
func (s *Store) InsertSales(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error) {
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: no sale lines", store.ErrValidation)
	}
	now := time.Now().UTC()
	for i := range sales {
		if sales[i].ID == "" {
			sales[i].ID = xid.New("sale")
		}
		if sales[i].CreatedAt.IsZero() {
			sales[i].CreatedAt = now
		}
	}
	var rows []domain.Sale
	err := s.client.Insert(ctx, tableSales, sales,
		postgrest.WriteOptions{Returning: true}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return sales, nil
	}
	return rows, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var rows []domain.Sale
	err := s.client.Select(ctx, tableSales, postgrest.Query{
		Filters: []postgrest.Filter{postgrest.Eq("id", id)},
		Limit:   1,
	}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// ListSales returns rows in the half-open range [from, to).
func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	var filters []postgrest.Filter
	if !from.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "gte", Value: from.UTC().Format(time.RFC3339),
		})
	}
	if !to.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "lt", Value: to.UTC().Format(time.RFC3339),
		})
	}
	raw, err := s.client.SelectAll(ctx, tableSales, postgrest.Query{
		Filters: filters,
		Order:   "created_at.desc",
	})
	if err != nil {
		return nil, mapError(err)
	}
	sales := make([]domain.Sale, 0, len(raw))
	for _, r := range raw {
		var sale domain.Sale
		if err := json.Unmarshal(r, &sale); err != nil {
			return nil, fmt.Errorf("decode sale row: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *Store) HasAnySales(ctx context.Context) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.Select(ctx, tableSales, postgrest.Query{
		Columns: []string{"id"},
		Limit:   1,
	}, &rows)
	if err != nil {
		return false, mapError(err)
	}
	return len(rows) > 0, nil
}

func (s *Store) UpdateSalePrice(ctx context.Context, saleID string, newPricePhp int64) (*domain.Sale, error) {
	patch := map[string]any{
		"unit_price_php": newPricePhp,
		"free_gift":      newPricePhp == 0,
	}
	var rows []domain.Sale
	err := s.client.Update(ctx, tableSales, patch, []postgrest.Filter{
		postgrest.Eq("id", saleID),
		postgrest.Eq("refunded", "false"),
	}, postgrest.WriteOptions{Returning: true}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// ProcessRefund delegates to the process_refund procedure, which checks the
// remaining active quantity, restores stock and marks the line in one
// server-side transaction.
func (s *Store) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error) {
	args := map[string]any{
		"p_sale_id": req.SaleID,
		"p_qty":     req.Qty,
		"p_reason":  req.Reason,
	}
	var refund domain.Refund
	if err := s.client.RPC(ctx, "process_refund", args, &refund); err != nil {
		return nil, mapError(err)
	}
	return &refund, nil
}

func (s *Store) ListRefunds(ctx context.Context, from time.Time, to time.Time) ([]domain.Refund, error) {
	var filters []postgrest.Filter
	if !from.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "gte", Value: from.UTC().Format(time.RFC3339),
		})
	}
	if !to.IsZero() {
		filters = append(filters, postgrest.Filter{
			Column: "created_at", Operator: "lt", Value: to.UTC().Format(time.RFC3339),
		})
	}
	raw, err := s.client.SelectAll(ctx, tableRefunds, postgrest.Query{
		Filters: filters,
		Order:   "created_at.desc",
	})
	if err != nil {
		return nil, mapError(err)
	}
	refunds := make([]domain.Refund, 0, len(raw))
	for _, r := range raw {
		var refund domain.Refund
		if err := json.Unmarshal(r, &refund); err != nil {
			return nil, fmt.Errorf("decode refund row: %w", err)
		}
		refunds = append(refunds, refund)
	}
	return refunds, nil
}

func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = xid.New("log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := s.client.Insert(ctx, tableLogs, []domain.LogEntry{entry}, postgrest.WriteOptions{}, nil)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 1 {
		limit = 100
	}
	var entries []domain.LogEntry
	err := s.client.Select(ctx, tableLogs, postgrest.Query{
		Order: "created_at.desc",
		Limit: limit,
	}, &entries)
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

func (s *Store) ListGuides(ctx context.Context) ([]domain.Guide, error) {
	var guides []domain.Guide
	err := s.client.Select(ctx, tableGuides, postgrest.Query{Order: "name.asc"}, &guides)
	if err != nil {
		return nil, mapError(err)
	}
	return guides, nil
}

// AssignGuideCommission marks the group's commission as owed to its guide.
// Best effort from the caller's point of view: checkout already committed.
func (s *Store) AssignGuideCommission(ctx context.Context, groupID string) error {
	err := s.client.RPC(ctx, "assign_guide_commission", map[string]any{"p_group_id": groupID}, nil)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) MonthlyProfitReport(ctx context.Context, year int) ([]domain.ProfitReportRow, error) {
	var rows []domain.ProfitReportRow
	err := s.client.RPC(ctx, "monthly_profit_report", map[string]any{"p_year": year}, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}
