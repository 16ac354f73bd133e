// Package local is the embedded-store implementation of store.Repository,
// used when the remote backend is unreachable. All multi-table writes run in
// a single transaction: either the full set of inventory and sale writes for
// an operation commits, or none do.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/money"
	"tindahan/backend/internal/store"
	"tindahan/backend/internal/xid"
)

type Store struct {
	db *sqlx.DB
}

// New opens (or creates) the embedded database at dsn and applies pending
// migrations. SQLite is single-writer, so the pool is capped at one
// connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seedDefaultCodeParts(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// seedDefaultCodeParts installs the starter lexicon on an empty database so
// code parsing works before the first remote sync.
func (s *Store) seedDefaultCodeParts(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM code_parts`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.SeedCodeParts(ctx, defaultCodeParts)
}

var defaultCodeParts = []domain.CodePart{
	{Group: domain.GroupCategory, Code: "G", Label: "garment"},
	{Group: domain.GroupCategory, Code: "A", Label: "accessory"},
	{Group: domain.GroupGender, Code: "M", Label: "men"},
	{Group: domain.GroupGender, Code: "W", Label: "women"},
	{Group: domain.GroupGender, Code: "U", Label: "unisex"},
	{Group: domain.GroupType, Code: "TP", Label: "t-shirt"},
	{Group: domain.GroupType, Code: "HD", Label: "hoodie"},
	{Group: domain.GroupType, Code: "PT", Label: "pants"},
	{Group: domain.GroupType, Code: "CP", Label: "cap"},
	{Group: domain.GroupType, Code: "SK", Label: "socks"},
	{Group: domain.GroupBrand, Code: "AC", Label: "acme"},
	{Group: domain.GroupBrand, Code: "NB", Label: "norte bay"},
	{Group: domain.GroupBrand, Code: "SM", Label: "samgyup"},
	{Group: domain.GroupColor, Code: "BK", Label: "black"},
	{Group: domain.GroupColor, Code: "WH", Label: "white"},
	{Group: domain.GroupColor, Code: "NV", Label: "navy"},
	{Group: domain.GroupColor, Code: "RD", Label: "red"},
	{Group: domain.GroupColor, Code: "GY", Label: "gray"},
}

func (s *Store) Close() error {
	return s.db.Close()
}

type productRow struct {
	Code       string `db:"code"`
	Name       string `db:"name"`
	CostKrw    int64  `db:"cost_krw"`
	PricePhp   int64  `db:"price_php"`
	Category   string `db:"category"`
	Gender     string `db:"gender"`
	Type       string `db:"type"`
	Brand      string `db:"brand"`
	Color      string `db:"color"`
	Serial     string `db:"serial"`
	TotalStock int    `db:"total_stock"`
	FreeGift   bool   `db:"free_gift"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		Code:       r.Code,
		Name:       r.Name,
		CostKrw:    r.CostKrw,
		PricePhp:   r.PricePhp,
		Category:   r.Category,
		Gender:     r.Gender,
		Type:       r.Type,
		Brand:      r.Brand,
		Color:      r.Color,
		Serial:     r.Serial,
		TotalStock: r.TotalStock,
		FreeGift:   r.FreeGift,
	}
}

const productColumns = `code, name, cost_krw, price_php, category, gender, type, brand, color, serial, total_stock, free_gift`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+productColumns+` FROM products ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toDomain())
	}
	return products, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+productColumns+` FROM products WHERE code = ?`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	product := row.toDomain()
	return &product, nil
}

func (s *Store) GetProductsByCodes(ctx context.Context, codes []string) ([]domain.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+productColumns+` FROM products WHERE code IN (?) ORDER BY code ASC`, codes)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toDomain())
	}
	return products, nil
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Code == "" {
		return nil, fmt.Errorf("%w: product code required", store.ErrValidation)
	}

	// total_stock is owned by the inventory rows: on an edit it is recomputed
	// from them, never taken from the payload, so a price/name change cannot
	// clobber the stored counter.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (code, name, cost_krw, price_php, category, gender, type, brand, color, serial, total_stock, free_gift, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,0,?,CURRENT_TIMESTAMP)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			cost_krw = excluded.cost_krw,
			price_php = excluded.price_php,
			category = excluded.category,
			gender = excluded.gender,
			type = excluded.type,
			brand = excluded.brand,
			color = excluded.color,
			serial = excluded.serial,
			total_stock = (SELECT COALESCE(SUM(stock_qty), 0) FROM inventory WHERE inventory.code = excluded.code),
			free_gift = excluded.free_gift,
			updated_at = CURRENT_TIMESTAMP
	`, product.Code, product.Name, product.CostKrw, product.PricePhp,
		product.Category, product.Gender, product.Type, product.Brand,
		product.Color, product.Serial, product.FreeGift)
	if err != nil {
		return nil, err
	}

	return s.GetProductByCode(ctx, product.Code)
}

// DeleteProduct removes the product and its inventory rows. Sales history
// referencing the code is preserved.
func (s *Store) DeleteProduct(ctx context.Context, code string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE code = ?`, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE code = ?`, code); err != nil {
		return err
	}

	return tx.Commit()
}

type inventoryRow struct {
	Code        string `db:"code"`
	Size        string `db:"size"`
	StockQty    int    `db:"stock_qty"`
	SizeDisplay string `db:"size_display"`
}

func (r inventoryRow) toDomain() domain.InventoryRow {
	return domain.InventoryRow{
		Code:        r.Code,
		Size:        domain.Size(r.Size),
		StockQty:    r.StockQty,
		SizeDisplay: r.SizeDisplay,
	}
}

func (s *Store) GetInventoryByCode(ctx context.Context, code string) ([]domain.InventoryRow, error) {
	var rows []inventoryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT code, size, stock_qty, size_display FROM inventory WHERE code = ?`, code)
	if err != nil {
		return nil, err
	}
	result := make([]domain.InventoryRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryRow, error) {
	var rows []inventoryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT code, size, stock_qty, size_display FROM inventory ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	result := make([]domain.InventoryRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// UpdateInventory writes only the sizes present in quantities, creating
// missing (code, size) rows rather than failing, then refreshes the
// product's denormalized total.
func (s *Store) UpdateInventory(ctx context.Context, code string, quantities map[domain.Size]int) error {
	if len(quantities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, size := range domain.Sizes {
		qty, ok := quantities[size]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (code, size, stock_qty, size_display)
			VALUES (?,?,?,?)
			ON CONFLICT(code, size) DO UPDATE SET stock_qty = excluded.stock_qty
		`, code, string(size), qty, string(size)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET total_stock = (SELECT COALESCE(SUM(stock_qty), 0) FROM inventory WHERE code = ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE code = ?
	`, code, code); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListProductCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.SelectContext(ctx, &codes, `SELECT code FROM products ORDER BY code ASC`); err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *Store) ListCodeParts(ctx context.Context) ([]domain.CodePart, error) {
	type codePartRow struct {
		Group string `db:"grp"`
		Code  string `db:"code"`
		Label string `db:"label"`
	}
	var rows []codePartRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT grp, code, label FROM code_parts ORDER BY grp, code`); err != nil {
		return nil, err
	}
	parts := make([]domain.CodePart, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, domain.CodePart{Group: r.Group, Code: r.Code, Label: r.Label})
	}
	return parts, nil
}

// SeedCodeParts loads the lexicon into the local store, merging on
// (group, code). Used by the bootstrap loader and tests.
func (s *Store) SeedCodeParts(ctx context.Context, parts []domain.CodePart) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, part := range parts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO code_parts (grp, code, label) VALUES (?,?,?)
			ON CONFLICT(grp, code) DO UPDATE SET label = excluded.label
		`, part.Group, part.Code, part.Label); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) CreateSaleGroup(ctx context.Context, group domain.SaleGroup) (*domain.SaleGroup, error) {
	if group.ID == "" {
		group.ID = xid.New("grp")
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sale_groups (id, guide_id, commission_rate, subtotal_php, commission_php, total_php, created_at)
		VALUES (?,?,?,?,?,?,?)
	`, group.ID, group.GuideID, group.CommissionRate, group.SubtotalPhp, group.CommissionPhp, group.TotalPhp, group.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := group
	return &created, nil
}

// FinalizeSaleGroup recomputes subtotal and commission from the current
// member rows, so calling it again never double-counts.
func (s *Store) FinalizeSaleGroup(ctx context.Context, groupID string) (*domain.SaleGroup, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var rate float64
	var guideID string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT guide_id, commission_rate, created_at FROM sale_groups WHERE id = ?`, groupID,
	).Scan(&guideID, &rate, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var subtotal int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(unit_price_php * qty), 0)
		FROM sales
		WHERE group_id = ? AND refunded = 0
	`, groupID).Scan(&subtotal)
	if err != nil {
		return nil, err
	}

	commission := money.Commission(subtotal, rate)
	finalizedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE sale_groups
		SET subtotal_php = ?, commission_php = ?, total_php = ?, finalized_at = ?
		WHERE id = ?
	`, subtotal, commission, subtotal, finalizedAt, groupID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.SaleGroup{
		ID:             groupID,
		GuideID:        guideID,
		CommissionRate: rate,
		SubtotalPhp:    subtotal,
		CommissionPhp:  commission,
		TotalPhp:       subtotal,
		CreatedAt:      createdAt.UTC(),
		FinalizedAt:    &finalizedAt,
	}, nil
}

func (s *Store) ListSaleGroups(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleGroup, error) {
	type groupRow struct {
		ID             string       `db:"id"`
		GuideID        string       `db:"guide_id"`
		CommissionRate float64      `db:"commission_rate"`
		SubtotalPhp    int64        `db:"subtotal_php"`
		CommissionPhp  int64        `db:"commission_php"`
		TotalPhp       int64        `db:"total_php"`
		CreatedAt      time.Time    `db:"created_at"`
		FinalizedAt    sql.NullTime `db:"finalized_at"`
	}

	query := `SELECT id, guide_id, commission_rate, subtotal_php, commission_php, total_php, created_at, finalized_at
		FROM sale_groups WHERE 1=1`
	args := make([]any, 0, 2)
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY created_at DESC`

	var rows []groupRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	groups := make([]domain.SaleGroup, 0, len(rows))
	for _, r := range rows {
		group := domain.SaleGroup{
			ID:             r.ID,
			GuideID:        r.GuideID,
			CommissionRate: r.CommissionRate,
			SubtotalPhp:    r.SubtotalPhp,
			CommissionPhp:  r.CommissionPhp,
			TotalPhp:       r.TotalPhp,
			CreatedAt:      r.CreatedAt.UTC(),
		}
		if r.FinalizedAt.Valid {
			finalized := r.FinalizedAt.Time.UTC()
			group.FinalizedAt = &finalized
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// InsertSales runs the checkout write set in one transaction: for every
// line, read current stock, reject insufficient stock, decrement, then
// insert the sale row. No partial visibility.
func (s *Store) InsertSales(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error) {
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: no sale lines", store.ErrValidation)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.Qty < 1 {
			return nil, fmt.Errorf("%w: qty must be positive for %s", store.ErrValidation, sale.Code)
		}

		var stockQty int
		err := tx.QueryRowContext(ctx,
			`SELECT stock_qty FROM inventory WHERE code = ? AND size = ?`,
			sale.Code, string(sale.Size),
		).Scan(&stockQty)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s size %s", store.ErrInsufficientStock, sale.Code, sale.Size)
		}
		if err != nil {
			return nil, err
		}
		if stockQty < sale.Qty {
			return nil, fmt.Errorf("%w: %s size %s has %d, need %d",
				store.ErrInsufficientStock, sale.Code, sale.Size, stockQty, sale.Qty)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE inventory SET stock_qty = stock_qty - ? WHERE code = ? AND size = ?
		`, sale.Qty, sale.Code, string(sale.Size)); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET total_stock = total_stock - ?, updated_at = CURRENT_TIMESTAMP WHERE code = ?
		`, sale.Qty, sale.Code); err != nil {
			return nil, err
		}

		if sale.ID == "" {
			sale.ID = xid.New("sale")
		}
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, group_id, code, name, size, size_display, color, qty,
				unit_price_php, original_price_php, free_gift, refunded_qty, refunded_php, refunded, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,0,0,0,?)
		`, sale.ID, sale.GroupID, sale.Code, sale.Name, string(sale.Size), sale.SizeDisplay,
			sale.Color, sale.Qty, sale.UnitPricePhp, sale.OriginalPricePhp, sale.FreeGift, sale.CreatedAt); err != nil {
			return nil, err
		}

		inserted = append(inserted, sale)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}

type saleRow struct {
	ID               string    `db:"id"`
	GroupID          string    `db:"group_id"`
	Code             string    `db:"code"`
	Name             string    `db:"name"`
	Size             string    `db:"size"`
	SizeDisplay      string    `db:"size_display"`
	Color            string    `db:"color"`
	Qty              int       `db:"qty"`
	UnitPricePhp     int64     `db:"unit_price_php"`
	OriginalPricePhp int64     `db:"original_price_php"`
	FreeGift         bool      `db:"free_gift"`
	RefundedQty      int       `db:"refunded_qty"`
	RefundedPhp      int64     `db:"refunded_php"`
	Refunded         bool      `db:"refunded"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale{
		ID:               r.ID,
		GroupID:          r.GroupID,
		Code:             r.Code,
		Name:             r.Name,
		Size:             domain.Size(r.Size),
		SizeDisplay:      r.SizeDisplay,
		Color:            r.Color,
		Qty:              r.Qty,
		UnitPricePhp:     r.UnitPricePhp,
		OriginalPricePhp: r.OriginalPricePhp,
		FreeGift:         r.FreeGift,
		RefundedQty:      r.RefundedQty,
		RefundedPhp:      r.RefundedPhp,
		Refunded:         r.Refunded,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

const saleColumns = `id, group_id, code, name, size, size_display, color, qty, unit_price_php, original_price_php, free_gift, refunded_qty, refunded_php, refunded, created_at`

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var row saleRow
	err := s.db.GetContext(ctx, &row, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale := row.toDomain()
	return &sale, nil
}

// ListSales returns rows in the half-open range [from, to). Zero bounds are
// unbounded on that side.
func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE 1=1`
	args := make([]any, 0, 2)
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, r := range rows {
		sales = append(sales, r.toDomain())
	}
	return sales, nil
}

func (s *Store) HasAnySales(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM sales)`)
	return exists, err
}

// UpdateSalePrice corrects the charged price of an active line.
func (s *Store) UpdateSalePrice(ctx context.Context, saleID string, newPricePhp int64) (*domain.Sale, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales SET unit_price_php = ?, free_gift = CASE WHEN ? = 0 THEN 1 ELSE 0 END
		WHERE id = ? AND refunded = 0
	`, newPricePhp, newPricePhp, saleID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSaleByID(ctx, saleID)
}

// ProcessRefund restores the refunded quantity to inventory, records the
// refund and marks the line, all in one transaction. A fully refunded line
// rejects further refunds without touching stock again.
func (s *Store) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var row saleRow
	err = tx.GetContext(ctx, &row, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, req.SaleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale := row.toDomain()
	if sale.Refunded {
		return nil, store.ErrAlreadyRefunded
	}
	if req.Qty < 1 || req.Qty > sale.ActiveQty() {
		return nil, fmt.Errorf("%w: refund qty %d exceeds active qty %d",
			store.ErrValidation, req.Qty, sale.ActiveQty())
	}

	amount := sale.UnitPricePhp * int64(req.Qty)
	refund := domain.Refund{
		ID:        xid.New("ref"),
		SaleID:    sale.ID,
		Code:      sale.Code,
		Size:      sale.Size,
		Qty:       req.Qty,
		AmountPhp: amount,
		Reason:    req.Reason,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO refunds (id, sale_id, code, size, qty, amount_php, reason, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, refund.ID, refund.SaleID, refund.Code, string(refund.Size), refund.Qty,
		refund.AmountPhp, refund.Reason, refund.CreatedAt); err != nil {
		return nil, err
	}

	fullyRefunded := sale.RefundedQty+req.Qty >= sale.Qty
	if _, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET refunded_qty = refunded_qty + ?, refunded_php = refunded_php + ?, refunded = ?
		WHERE id = ?
	`, req.Qty, amount, fullyRefunded, sale.ID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (code, size, stock_qty, size_display)
		VALUES (?,?,?,?)
		ON CONFLICT(code, size) DO UPDATE SET stock_qty = inventory.stock_qty + excluded.stock_qty
	`, sale.Code, string(sale.Size), req.Qty, string(sale.Size)); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET total_stock = total_stock + ?, updated_at = CURRENT_TIMESTAMP WHERE code = ?
	`, req.Qty, sale.Code); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (s *Store) ListRefunds(ctx context.Context, from time.Time, to time.Time) ([]domain.Refund, error) {
	type refundRow struct {
		ID        string    `db:"id"`
		SaleID    string    `db:"sale_id"`
		Code      string    `db:"code"`
		Size      string    `db:"size"`
		Qty       int       `db:"qty"`
		AmountPhp int64     `db:"amount_php"`
		Reason    string    `db:"reason"`
		CreatedAt time.Time `db:"created_at"`
	}

	query := `SELECT id, sale_id, code, size, qty, amount_php, reason, created_at FROM refunds WHERE 1=1`
	args := make([]any, 0, 2)
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY created_at DESC`

	var rows []refundRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	refunds := make([]domain.Refund, 0, len(rows))
	for _, r := range rows {
		refunds = append(refunds, domain.Refund{
			ID:        r.ID,
			SaleID:    r.SaleID,
			Code:      r.Code,
			Size:      domain.Size(r.Size),
			Qty:       r.Qty,
			AmountPhp: r.AmountPhp,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt.UTC(),
		})
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (id, action, entity_type, entity_id, actor, detail, created_at)
		VALUES (?,?,?,?,?,?,?)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Actor, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 1 {
		limit = 100
	}
	type logRow struct {
		ID         string    `db:"id"`
		Action     string    `db:"action"`
		EntityType string    `db:"entity_type"`
		EntityID   string    `db:"entity_id"`
		Actor      string    `db:"actor"`
		Detail     string    `db:"detail"`
		CreatedAt  time.Time `db:"created_at"`
	}
	var rows []logRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, action, entity_type, entity_id, actor, detail, created_at
		FROM logs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.LogEntry{
			ID:         r.ID,
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Actor:      r.Actor,
			Detail:     r.Detail,
			CreatedAt:  r.CreatedAt.UTC(),
		})
	}
	return entries, nil
}

// Guide and commission bookkeeping is not part of the local schema.

func (s *Store) ListGuides(_ context.Context) ([]domain.Guide, error) {
	return nil, store.ErrOfflineUnavailable
}

func (s *Store) AssignGuideCommission(_ context.Context, _ string) error {
	return store.ErrOfflineUnavailable
}

func (s *Store) MonthlyProfitReport(_ context.Context, _ int) ([]domain.ProfitReportRow, error) {
	return nil, store.ErrOfflineUnavailable
}
