package domain

import (
	"encoding/json"
	"time"
)

const (
	ItemTypeSearch = "search"
	ItemTypeImage  = "image"
)

// SearchRecord is one entry of a user's search history. Results is the raw
// provider payload and is never interpreted by the service.
type SearchRecord struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Query     string          `json:"query"`
	Results   json.RawMessage `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
}

// ImageRecord is one entry of a user's image generation history.
type ImageRecord struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Prompt    string          `json:"prompt"`
	ImageURL  string          `json:"image_url"`
	Meta      json.RawMessage `json:"meta"`
	Results   json.RawMessage `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
}

// SavedItem is a dashboard entry created as a side effect of a search or an
// image generation.
type SavedItem struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	ItemType  string    `json:"item_type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedItemPatch carries an admin edit. Nil fields are left unchanged.
type SavedItemPatch struct {
	Title    *string
	Content  *string
	ItemType *string
}

func (p SavedItemPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.ItemType == nil
}
