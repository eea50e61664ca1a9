package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

// DashboardService gives administrators access to every user's saved items.
// Each method checks the caller's role itself, so it stays safe when called
// from outside the admin-guarded routes.
type DashboardService struct {
	items  ports.SavedItemRepository
	logger zerolog.Logger
}

func NewDashboardService(items ports.SavedItemRepository, logger zerolog.Logger) *DashboardService {
	return &DashboardService{items: items, logger: logger}
}

func (s *DashboardService) ListUserItems(ctx context.Context, caller domain.Identity, userID int64) ([]domain.SavedItem, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", domain.ErrInvalidInput)
	}
	return s.items.ListByOwner(ctx, userID)
}

func (s *DashboardService) ListAllItems(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.items.ListAll(ctx)
}

// UpdateItem applies patch to the item. An empty patch returns the item
// unchanged.
func (s *DashboardService) UpdateItem(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if itemID <= 0 {
		return nil, domain.ErrRecordNotFound
	}

	item, err := s.items.Update(ctx, itemID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("admin", caller.Subject).
		Int64("item_id", itemID).
		Msg("saved item updated")
	return item, nil
}
