package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/postgrest"
	"tindahan/backend/internal/store"
)

// stubRepo overrides individual repository methods; anything unstubbed
// panics through the nil embedded interface, catching unexpected calls.
type stubRepo struct {
	store.Repository
	listProducts func(ctx context.Context) ([]domain.Product, error)
	insertSales  func(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error)
	listGuides   func(ctx context.Context) ([]domain.Guide, error)
}

func (s *stubRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.listProducts(ctx)
}

func (s *stubRepo) InsertSales(ctx context.Context, sales []domain.Sale) ([]domain.Sale, error) {
	return s.insertSales(ctx, sales)
}

func (s *stubRepo) ListGuides(ctx context.Context) ([]domain.Guide, error) {
	return s.listGuides(ctx)
}

func unreachable() error {
	return fmt.Errorf("%w: dial tcp 10.0.0.1:443: connect: connection refused", postgrest.ErrUnreachable)
}

func TestFallsBackOnUnreachableRemote(t *testing.T) {
	remote := &stubRepo{
		listProducts: func(context.Context) ([]domain.Product, error) {
			return nil, unreachable()
		},
	}
	local := &stubRepo{
		listProducts: func(context.Context) ([]domain.Product, error) {
			return []domain.Product{{Code: "GM-TP-AC-BK-01"}}, nil
		},
	}

	products, err := New(remote, local, nil).ListProducts(context.Background())
	if err != nil {
		t.Fatalf("expected transparent fallback, got %v", err)
	}
	if len(products) != 1 || products[0].Code != "GM-TP-AC-BK-01" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestApplicationErrorDoesNotFallBack(t *testing.T) {
	apiErr := &postgrest.APIError{Status: 409, Message: "insufficient stock"}
	remote := &stubRepo{
		insertSales: func(context.Context, []domain.Sale) ([]domain.Sale, error) {
			return nil, apiErr
		},
	}
	local := &stubRepo{
		insertSales: func(context.Context, []domain.Sale) ([]domain.Sale, error) {
			t.Fatal("local store must not see an application-rejected checkout")
			return nil, nil
		},
	}

	_, err := New(remote, local, nil).InsertSales(context.Background(), []domain.Sale{{Code: "x"}})
	var got *postgrest.APIError
	if !errors.As(err, &got) || got.Status != 409 {
		t.Fatalf("remote rejection must surface unchanged, got %v", err)
	}
}

func TestRemoteSuccessSkipsLocal(t *testing.T) {
	remote := &stubRepo{
		listProducts: func(context.Context) ([]domain.Product, error) {
			return []domain.Product{{Code: "remote"}}, nil
		},
	}
	local := &stubRepo{
		listProducts: func(context.Context) ([]domain.Product, error) {
			t.Fatal("local store must not be consulted when remote succeeds")
			return nil, nil
		},
	}

	products, err := New(remote, local, nil).ListProducts(context.Background())
	if err != nil || len(products) != 1 || products[0].Code != "remote" {
		t.Fatalf("unexpected result: %v %v", products, err)
	}
}

func TestRemoteOnlyOperationOffline(t *testing.T) {
	remote := &stubRepo{
		listGuides: func(context.Context) ([]domain.Guide, error) {
			return nil, unreachable()
		},
	}
	local := &stubRepo{}

	_, err := New(remote, local, nil).ListGuides(context.Background())
	if !errors.Is(err, store.ErrOfflineUnavailable) {
		t.Fatalf("expected offline-unavailable, got %v", err)
	}
}

func TestCheckoutFallsBackTransparently(t *testing.T) {
	remote := &stubRepo{
		insertSales: func(context.Context, []domain.Sale) ([]domain.Sale, error) {
			return nil, unreachable()
		},
	}
	local := &stubRepo{
		insertSales: func(_ context.Context, sales []domain.Sale) ([]domain.Sale, error) {
			out := make([]domain.Sale, len(sales))
			copy(out, sales)
			for i := range out {
				out[i].ID = "sale-local"
			}
			return out, nil
		},
	}

	cart := []domain.Sale{{Code: "GM-TP-AC-BK-01", Size: domain.SizeM, Qty: 2, UnitPricePhp: 1500}}
	inserted, err := New(remote, local, nil).InsertSales(context.Background(), cart)
	if err != nil {
		t.Fatalf("expected transparent fallback, got %v", err)
	}
	if len(inserted) != 1 || inserted[0].ID == "" || inserted[0].LineTotal() != 3000 {
		t.Fatalf("fallback result shape differs from the remote path: %+v", inserted)
	}
}
