// Package cache holds short-lived read caches for the catalog surfaces that
// the register screen polls constantly. A miss or cache error is never
// fatal; callers always fall through to the repository.
package cache

import (
	"context"
	"time"

	"tindahan/backend/internal/domain"
)

type CatalogCache interface {
	GetCatalog(ctx context.Context) (*domain.ProductInventoryList, bool, error)
	SetCatalog(ctx context.Context, list *domain.ProductInventoryList, ttl time.Duration) error
	GetCodeParts(ctx context.Context) ([]domain.CodePart, bool, error)
	SetCodeParts(ctx context.Context, parts []domain.CodePart, ttl time.Duration) error
	// Invalidate drops all cached entries. Called after any product,
	// inventory or code-part mutation.
	Invalidate(ctx context.Context) error
}

// NoopCatalogCache is used when no cache backend is configured.
type NoopCatalogCache struct{}

func NewNoopCatalogCache() *NoopCatalogCache { return &NoopCatalogCache{} }

func (NoopCatalogCache) GetCatalog(context.Context) (*domain.ProductInventoryList, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetCatalog(context.Context, *domain.ProductInventoryList, time.Duration) error {
	return nil
}

func (NoopCatalogCache) GetCodeParts(context.Context) ([]domain.CodePart, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetCodeParts(context.Context, []domain.CodePart, time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(context.Context) error { return nil }
