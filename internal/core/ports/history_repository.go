package ports

import (
	"context"
	"encoding/json"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// HistoryRepository persists search and image history.
type HistoryRepository interface {
	InsertSearch(ctx context.Context, rec *domain.SearchRecord) error
	// ListSearches returns the user's entries, newest first.
	ListSearches(ctx context.Context, userID int64) ([]domain.SearchRecord, error)
	// DeleteSearch returns domain.ErrRecordNotFound unless the entry exists and
	// belongs to userID.
	DeleteSearch(ctx context.Context, userID, id int64) error

	InsertImage(ctx context.Context, rec *domain.ImageRecord) error
	ListImages(ctx context.Context, userID int64) ([]domain.ImageRecord, error)
	DeleteImage(ctx context.Context, userID, id int64) error
}

// HistoryRecorder accepts history entries for asynchronous persistence.
type HistoryRecorder interface {
	RecordSearch(rec domain.SearchRecord)
	RecordImage(rec domain.ImageRecord)
}

// ContentCache stores provider payloads keyed by tool and input.
type ContentCache interface {
	Get(ctx context.Context, tool, input string) (json.RawMessage, bool, error)
	Set(ctx context.Context, tool, input string, payload json.RawMessage) error
}
