package store

import (
	"context"
	"errors"
	"time"

	"tindahan/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrAdminRequired      = errors.New("admin session required")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrAlreadyRefunded    = errors.New("sale already fully refunded")
	ErrOfflineUnavailable = errors.New("operation unavailable offline")
)

// Repository is the single contract both backends implement. The remote
// implementation talks to the hosted backend through its REST/RPC surface;
// the local implementation runs against the embedded store. The fallback
// decorator selects between them per call.
type Repository interface {
	// Products and inventory.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	GetProductsByCodes(ctx context.Context, codes []string) ([]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, code string) error
	GetInventoryByCode(ctx context.Context, code string) ([]domain.InventoryRow, error)
	ListInventory(ctx context.Context) ([]domain.InventoryRow, error)
	UpdateInventory(ctx context.Context, code string, quantities map[domain.Size]int) error
	ListProductCodes(ctx context.Context) ([]string, error)
	ListCodeParts(ctx context.Context) ([]domain.CodePart, error)

	// Sales lifecycle. InsertSales must make the inventory decrement and the
	// sale insert atomic on whichever backend executes.
	CreateSaleGroup(ctx context.Context, group domain.SaleGroup) (*domain.SaleGroup, error)
	FinalizeSaleGroup(ctx context.Context, groupID string) (*domain.SaleGroup, error)
	ListSaleGroups(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleGroup, error)
	InsertSales(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
	HasAnySales(ctx context.Context) (bool, error)
	UpdateSalePrice(ctx context.Context, saleID string, newPricePhp int64) (*domain.Sale, error)
	ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error)
	ListRefunds(ctx context.Context, from time.Time, to time.Time) ([]domain.Refund, error)

	// Audit log.
	AppendLog(ctx context.Context, entry domain.LogEntry) error
	ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)

	// Remote-only: guide/commission bookkeeping and server-side reporting are
	// not part of the local schema. The local implementation fails these with
	// ErrOfflineUnavailable.
	ListGuides(ctx context.Context) ([]domain.Guide, error)
	AssignGuideCommission(ctx context.Context, groupID string) error
	MonthlyProfitReport(ctx context.Context, year int) ([]domain.ProfitReportRow, error)
}
