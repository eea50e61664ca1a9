package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// SearchResult is returned by ContentService.Search.
type SearchResult struct {
	Query       string
	Results     json.RawMessage
	Timestamp   time.Time
	UserID      int64
	SavedItemID int64
}

// ImageResult is returned by ContentService.GenerateImage.
type ImageResult struct {
	Prompt    string
	ImageURL  string
	Results   json.RawMessage
	Timestamp time.Time
	UserID    int64
	SavedItem domain.SavedItem
}

// ContentService runs searches and image generations on behalf of a caller
// and manages the caller's own history.
type ContentService interface {
	Search(ctx context.Context, caller domain.Identity, query string) (*SearchResult, error)
	GenerateImage(ctx context.Context, caller domain.Identity, prompt string) (*ImageResult, error)

	SearchHistory(ctx context.Context, caller domain.Identity) ([]domain.SearchRecord, error)
	DeleteSearch(ctx context.Context, caller domain.Identity, id int64) error
	ImageHistory(ctx context.Context, caller domain.Identity) ([]domain.ImageRecord, error)
	DeleteImage(ctx context.Context, caller domain.Identity, id int64) error
}

// DashboardService exposes saved items to administrators.
type DashboardService interface {
	ListUserItems(ctx context.Context, caller domain.Identity, userID int64) ([]domain.SavedItem, error)
	ListAllItems(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error)
	UpdateItem(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error)
}
