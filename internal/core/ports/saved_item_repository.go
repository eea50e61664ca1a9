package ports

import (
	"context"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// SavedItemRepository persists dashboard items.
type SavedItemRepository interface {
	// Create assigns ID and CreatedAt on item.
	Create(ctx context.Context, item *domain.SavedItem) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.SavedItem, error)
	ListAll(ctx context.Context) ([]domain.SavedItem, error)
	// Update returns domain.ErrRecordNotFound when no item has this id.
	Update(ctx context.Context, id int64, patch domain.SavedItemPatch) (*domain.SavedItem, error)
}
