package handler

import (
	"encoding/json"
	"time"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginRequest accepts both the JSON body and the OAuth2 password form, where
// the email travels as "username".
type loginRequest struct {
	Email    string `json:"email"    form:"email"`
	Username string `json:"-"        form:"username"`
	Password string `json:"password" form:"password"`
}

func (r loginRequest) credentials() domain.Credentials {
	email := r.Email
	if email == "" {
		email = r.Username
	}
	return domain.Credentials{Email: email, Password: r.Password}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenResponse(p *domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
	}
}

// --- Search ---

type searchResponse struct {
	Query       string          `json:"query"`
	Results     json.RawMessage `json:"results" swaggertype:"array,object"`
	Timestamp   time.Time       `json:"timestamp"`
	UserID      int64           `json:"user_id"`
	SavedItemID int64           `json:"saved_item_id"`
}

type searchEntry struct {
	ID        int64           `json:"id"`
	Query     string          `json:"query"`
	Results   json.RawMessage `json:"results" swaggertype:"array,object"`
	Timestamp time.Time       `json:"timestamp"`
}

type searchHistoryResponse struct {
	UserID        int64         `json:"user_id"`
	Role          string        `json:"role"`
	SearchHistory []searchEntry `json:"search_history"`
}

type searchDeletedResponse struct {
	Status   string `json:"status"`
	SearchID int64  `json:"search_id"`
}

// --- Image ---

type imageResponse struct {
	Prompt    string           `json:"prompt"`
	ImageURL  string           `json:"image_url"`
	Results   json.RawMessage  `json:"results" swaggertype:"array,object"`
	Timestamp time.Time        `json:"timestamp"`
	UserID    int64            `json:"user_id"`
	SavedItem domain.SavedItem `json:"saved_item"`
}

type imageEntry struct {
	ID        int64           `json:"id"`
	Prompt    string          `json:"prompt"`
	ImageURL  string          `json:"image_url"`
	Meta      json.RawMessage `json:"meta" swaggertype:"object"`
	Results   json.RawMessage `json:"results" swaggertype:"array,object"`
	Timestamp time.Time       `json:"timestamp"`
}

type imageHistoryResponse struct {
	UserID       int64        `json:"user_id"`
	Role         string       `json:"role"`
	ImageHistory []imageEntry `json:"image_history"`
}

type imageDeletedResponse struct {
	Status  string `json:"status"`
	ImageID int64  `json:"image_id"`
}

// --- Dashboard ---

// updateItemRequest is a partial update; absent fields are left unchanged.
type updateItemRequest struct {
	Title    *string `json:"title"     validate:"omitempty,min=1"`
	Content  *string `json:"content"`
	ItemType *string `json:"item_type" validate:"omitempty,oneof=search image"`
}

func (r updateItemRequest) patch() domain.SavedItemPatch {
	return domain.SavedItemPatch{
		Title:    r.Title,
		Content:  r.Content,
		ItemType: r.ItemType,
	}
}
