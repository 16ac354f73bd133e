// Package fallback decorates a remote store.Repository with an embedded
// local one. Every call tries the remote first; only transport-level
// unreachability routes to the local store. Application errors from the
// remote surface unchanged, so a rejected checkout is never silently
// retried against local stock.
package fallback

import (
	"context"
	"log"
	"time"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/postgrest"
	"tindahan/backend/internal/store"
)

type Store struct {
	remote store.Repository
	local  store.Repository
	logger *log.Logger
}

func New(remote store.Repository, local store.Repository, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{remote: remote, local: local, logger: logger}
}

// fellBack reports whether err should route the call to the local store,
// logging the switch. The check is per call; there is no sticky offline
// state.
func (s *Store) fellBack(op string, err error) bool {
	if err == nil || !postgrest.IsUnreachable(err) {
		return false
	}
	s.logger.Printf("[fallback] WARN: %s: remote unreachable, using local store: %v", op, err)
	return true
}

// offlineErr converts unreachability on a remote-only operation into the
// dedicated offline sentinel.
func offlineErr(err error) error {
	if postgrest.IsUnreachable(err) {
		return store.ErrOfflineUnavailable
	}
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.remote.ListProducts(ctx)
	if s.fellBack("ListProducts", err) {
		return s.local.ListProducts(ctx)
	}
	return products, err
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	product, err := s.remote.GetProductByCode(ctx, code)
	if s.fellBack("GetProductByCode", err) {
		return s.local.GetProductByCode(ctx, code)
	}
	return product, err
}

func (s *Store) GetProductsByCodes(ctx context.Context, codes []string) ([]domain.Product, error) {
	products, err := s.remote.GetProductsByCodes(ctx, codes)
	if s.fellBack("GetProductsByCodes", err) {
		return s.local.GetProductsByCodes(ctx, codes)
	}
	return products, err
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	saved, err := s.remote.UpsertProduct(ctx, product)
	if s.fellBack("UpsertProduct", err) {
		return s.local.UpsertProduct(ctx, product)
	}
	return saved, err
}

func (s *Store) DeleteProduct(ctx context.Context, code string) error {
	err := s.remote.DeleteProduct(ctx, code)
	if s.fellBack("DeleteProduct", err) {
		return s.local.DeleteProduct(ctx, code)
	}
	return err
}

func (s *Store) GetInventoryByCode(ctx context.Context, code string) ([]domain.InventoryRow, error) {
	rows, err := s.remote.GetInventoryByCode(ctx, code)
	if s.fellBack("GetInventoryByCode", err) {
		return s.local.GetInventoryByCode(ctx, code)
	}
	return rows, err
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryRow, error) {
	rows, err := s.remote.ListInventory(ctx)
	if s.fellBack("ListInventory", err) {
		return s.local.ListInventory(ctx)
	}
	return rows, err
}

func (s *Store) UpdateInventory(ctx context.Context, code string, quantities map[domain.Size]int) error {
	err := s.remote.UpdateInventory(ctx, code, quantities)
	if s.fellBack("UpdateInventory", err) {
		return s.local.UpdateInventory(ctx, code, quantities)
	}
	return err
}

func (s *Store) ListProductCodes(ctx context.Context) ([]string, error) {
	codes, err := s.remote.ListProductCodes(ctx)
	if s.fellBack("ListProductCodes", err) {
		return s.local.ListProductCodes(ctx)
	}
	return codes, err
}

func (s *Store) ListCodeParts(ctx context.Context) ([]domain.CodePart, error) {
	parts, err := s.remote.ListCodeParts(ctx)
	if s.fellBack("ListCodeParts", err) {
		return s.local.ListCodeParts(ctx)
	}
	return parts, err
}

func (s *Store) CreateSaleGroup(ctx context.Context, group domain.SaleGroup) (*domain.SaleGroup, error) {
	created, err := s.remote.CreateSaleGroup(ctx, group)
	if s.fellBack("CreateSaleGroup", err) {
		return s.local.CreateSaleGroup(ctx, group)
	}
	return created, err
}

func (s *Store) FinalizeSaleGroup(ctx context.Context, groupID string) (*domain.SaleGroup, error) {
	group, err := s.remote.FinalizeSaleGroup(ctx, groupID)
	if s.fellBack("FinalizeSaleGroup", err) {
		return s.local.FinalizeSaleGroup(ctx, groupID)
	}
	return group, err
}

func (s *Store) ListSaleGroups(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleGroup, error) {
	groups, err := s.remote.ListSaleGroups(ctx, from, to)
	if s.fellBack("ListSaleGroups", err) {
		return s.local.ListSaleGroups(ctx, from, to)
	}
	return groups, err
}

func (s *Store) InsertSales(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error) {
	inserted, err := s.remote.InsertSales(ctx, sales)
	if s.fellBack("InsertSales", err) {
		return s.local.InsertSales(ctx, sales)
	}
	return inserted, err
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.remote.GetSaleByID(ctx, id)
	if s.fellBack("GetSaleByID", err) {
		return s.local.GetSaleByID(ctx, id)
	}
	return sale, err
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	sales, err := s.remote.ListSales(ctx, from, to)
	if s.fellBack("ListSales", err) {
		return s.local.ListSales(ctx, from, to)
	}
	return sales, err
}

func (s *Store) HasAnySales(ctx context.Context) (bool, error) {
	has, err := s.remote.HasAnySales(ctx)
	if s.fellBack("HasAnySales", err) {
		return s.local.HasAnySales(ctx)
	}
	return has, err
}

func (s *Store) UpdateSalePrice(ctx context.Context, saleID string, newPricePhp int64) (*domain.Sale, error) {
	sale, err := s.remote.UpdateSalePrice(ctx, saleID, newPricePhp)
	if s.fellBack("UpdateSalePrice", err) {
		return s.local.UpdateSalePrice(ctx, saleID, newPricePhp)
	}
	return sale, err
}

func (s *Store) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error) {
	refund, err := s.remote.ProcessRefund(ctx, req)
	if s.fellBack("ProcessRefund", err) {
		return s.local.ProcessRefund(ctx, req)
	}
	return refund, err
}

func (s *Store) ListRefunds(ctx context.Context, from time.Time, to time.Time) ([]domain.Refund, error) {
	refunds, err := s.remote.ListRefunds(ctx, from, to)
	if s.fellBack("ListRefunds", err) {
		return s.local.ListRefunds(ctx, from, to)
	}
	return refunds, err
}

func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	err := s.remote.AppendLog(ctx, entry)
	if s.fellBack("AppendLog", err) {
		return s.local.AppendLog(ctx, entry)
	}
	return err
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	entries, err := s.remote.ListLogs(ctx, limit)
	if s.fellBack("ListLogs", err) {
		return s.local.ListLogs(ctx, limit)
	}
	return entries, err
}

// Guide and reporting operations have no local equivalent, so unreachability
// surfaces as ErrOfflineUnavailable instead of falling back.

func (s *Store) ListGuides(ctx context.Context) ([]domain.Guide, error) {
	guides, err := s.remote.ListGuides(ctx)
	if err != nil {
		return nil, offlineErr(err)
	}
	return guides, nil
}

func (s *Store) AssignGuideCommission(ctx context.Context, groupID string) error {
	return offlineErr(s.remote.AssignGuideCommission(ctx, groupID))
}

func (s *Store) MonthlyProfitReport(ctx context.Context, year int) ([]domain.ProfitReportRow, error) {
	rows, err := s.remote.MonthlyProfitReport(ctx, year)
	if err != nil {
		return nil, offlineErr(err)
	}
	return rows, nil
}
