package domain

import "time"

// Product is identified by its structured code
// (<category><gender>-<type>-<brand>-<color>-<serial>, e.g. GM-TP-AC-BK-01).
// The code is immutable once created.
type Product struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	CostKrw    int64  `json:"cost_krw"`
	PricePhp   int64  `json:"price_php"`
	Category   string `json:"category"`
	Gender     string `json:"gender"`
	Type       string `json:"type"`
	Brand      string `json:"brand"`
	Color      string `json:"color"`
	Serial     string `json:"serial"`
	TotalStock int    `json:"total_stock"`
	FreeGift   bool   `json:"free_gift"`
}

// InventoryRow is the normalized per-size stock row, keyed by (code, size).
type InventoryRow struct {
	Code        string `json:"code"`
	Size        Size   `json:"size"`
	StockQty    int    `json:"stock_qty"`
	SizeDisplay string `json:"size_display"`
}

type ProductWithInventory struct {
	Product    Product        `json:"product"`
	Inventory  []InventoryRow `json:"inventory"`
	TotalStock int            `json:"total_stock"`
}

type ProductInventoryList struct {
	Items []ProductWithInventory `json:"items"`
}

type ProductUpsertRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	CostKrw  int64  `json:"cost_krw"`
	PricePhp int64  `json:"price_php"`
	Category string `json:"category,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Type     string `json:"type,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Color    string `json:"color,omitempty"`
	Serial   string `json:"serial,omitempty"`
	FreeGift bool   `json:"free_gift"`
}

// CartItem is a to-be-sold line. UnitPricePhp nil means "charge the list
// price"; an explicit 0 marks the line as a free gift.
type CartItem struct {
	Code         string `json:"code"`
	Size         Size   `json:"size"`
	Qty          int    `json:"qty"`
	UnitPricePhp *int64 `json:"unit_price_php,omitempty"`
}

type CheckoutRequest struct {
	Items          []CartItem `json:"items"`
	GuideID        string     `json:"guide_id,omitempty"`
	CommissionRate float64    `json:"commission_rate,omitempty"`
}

type CheckoutResponse struct {
	GroupID        string `json:"group_id,omitempty"`
	Sales          []Sale `json:"sales"`
	TotalAmountPhp int64  `json:"total_amount_php"`
	ItemCount      int    `json:"item_count"`
}

// Sale is one checkout line item. A line is immutable after checkout except
// for price correction (while active) and refund marking.
type Sale struct {
	ID               string    `json:"id"`
	GroupID          string    `json:"group_id,omitempty"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Size             Size      `json:"size"`
	SizeDisplay      string    `json:"size_display,omitempty"`
	Color            string    `json:"color,omitempty"`
	Qty              int       `json:"qty"`
	UnitPricePhp     int64     `json:"unit_price_php"`
	OriginalPricePhp int64     `json:"original_price_php"`
	FreeGift         bool      `json:"free_gift"`
	RefundedQty      int       `json:"refunded_qty"`
	RefundedPhp      int64     `json:"refunded_php"`
	Refunded         bool      `json:"refunded"`
	CreatedAt        time.Time `json:"created_at"`
}

// LineTotal is the charged amount for the full original quantity of the line.
func (s Sale) LineTotal() int64 {
	return s.UnitPricePhp * int64(s.Qty)
}

// ActiveQty is the quantity not yet refunded.
func (s Sale) ActiveQty() int {
	return s.Qty - s.RefundedQty
}

// SaleGroup ties the line items of one multi-item checkout to an optional
// guide and commission rate. Totals are persisted at finalization time, not
// recomputed ad hoc; re-finalization recomputes from current member rows.
type SaleGroup struct {
	ID             string     `json:"id"`
	GuideID        string     `json:"guide_id,omitempty"`
	CommissionRate float64    `json:"commission_rate"`
	SubtotalPhp    int64      `json:"subtotal_php"`
	CommissionPhp  int64      `json:"commission_php"`
	TotalPhp       int64      `json:"total_php"`
	CreatedAt      time.Time  `json:"created_at"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`
}

type RefundRequest struct {
	SaleID string `json:"sale_id"`
	Code   string `json:"code"`
	Size   Size   `json:"size"`
	Qty    int    `json:"qty"`
	Reason string `json:"reason"`
}

type Refund struct {
	ID        string    `json:"id"`
	SaleID    string    `json:"sale_id"`
	Code      string    `json:"code"`
	Size      Size      `json:"size"`
	Qty       int       `json:"qty"`
	AmountPhp int64     `json:"amount_php"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// CodePart maps one segment value of a product code to its display label.
// Group is one of category, gender, type, brand, color.
type CodePart struct {
	Group string `json:"group"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

type SalesHistoryFilter struct {
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
	Query    string `json:"query,omitempty"`
}

// SalesHistoryResult distinguishes "no sales ever" from "no sales match".
type SalesHistoryResult struct {
	HasAnySales bool   `json:"has_any_sales"`
	Rows        []Sale `json:"rows"`
}

type Guide struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CommissionRate float64 `json:"commission_rate"`
}

type ProfitReportRow struct {
	Month         string `json:"month"`
	RevenuePhp    int64  `json:"revenue_php"`
	CostPhp       int64  `json:"cost_php"`
	CommissionPhp int64  `json:"commission_php"`
	ProfitPhp     int64  `json:"profit_php"`
}

type LogEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Session is the capability every mutating call checks at its boundary.
// Expiry lives on the object; there is no ambient "is admin" flag.
type Session struct {
	Token     string
	Username  string
	Role      string
	ExpiresAt time.Time
}

func (s Session) IsAdmin(now time.Time) bool {
	return s.Role == RoleAdmin && now.Before(s.ExpiresAt)
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const (
	GroupCategory = "category"
	GroupGender   = "gender"
	GroupType     = "type"
	GroupBrand    = "brand"
	GroupColor    = "color"
)
