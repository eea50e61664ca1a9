package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/pkg/metrics"
)

const (
	searchTool       = "search"
	searchMaxResults = 5
	imageModel       = "flux"
	titleRunes       = 30
)

// imageTools lists the image tools in order of preference.
var imageTools = []string{"generateImageUrl", "generateImage"}

// ContentService runs provider calls for a caller and records the outcome in
// the caller's history and saved items.
type ContentService struct {
	search   ports.ContentProvider
	image    ports.ContentProvider
	history  ports.HistoryRepository
	recorder ports.HistoryRecorder
	items    ports.SavedItemRepository
	cache    ports.ContentCache
	logger   zerolog.Logger
	now      func() time.Time
}

// NewContentService builds the service. cache may be nil.
func NewContentService(
	search, image ports.ContentProvider,
	history ports.HistoryRepository,
	recorder ports.HistoryRecorder,
	items ports.SavedItemRepository,
	cache ports.ContentCache,
	logger zerolog.Logger,
) *ContentService {
	return &ContentService{
		search:   search,
		image:    image,
		history:  history,
		recorder: recorder,
		items:    items,
		cache:    cache,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ContentService) Search(ctx context.Context, caller domain.Identity, query string) (*ports.SearchResult, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	results, err := s.searchResults(ctx, query)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.recorder.RecordSearch(domain.SearchRecord{
		UserID:    userID,
		Query:     query,
		Results:   results,
		Timestamp: now,
	})

	item := &domain.SavedItem{
		OwnerID:   userID,
		ItemType:  domain.ItemTypeSearch,
		Title:     "Search: " + truncateRunes(query, titleRunes),
		Content:   firstResult(results),
		Name:      roleName(caller),
		CreatedAt: now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("save search item: %w", err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("saved_item_id", item.ID).Msg("search completed")

	return &ports.SearchResult{
		Query:       query,
		Results:     results,
		Timestamp:   now,
		UserID:      userID,
		SavedItemID: item.ID,
	}, nil
}

// searchResults serves from the cache when possible. Cache failures are logged
// and otherwise ignored.
func (s *ContentService) searchResults(ctx context.Context, query string) (json.RawMessage, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, searchTool, query)
		switch {
		case err != nil:
			metrics.ContentCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Msg("content cache read failed")
		case ok:
			metrics.ContentCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ContentCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	_, results, err := s.search.CallTool(ctx, []string{searchTool}, map[string]any{
		"query":       query,
		"max_results": searchMaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, searchTool, query, results); err != nil {
			s.logger.Warn().Err(err).Msg("content cache write failed")
		}
	}
	return results, nil
}

func (s *ContentService) GenerateImage(ctx context.Context, caller domain.Identity, prompt string) (*ports.ImageResult, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	tool, results, err := s.image.CallTool(ctx, imageTools, map[string]any{
		"prompt": prompt,
		"model":  imageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	imageURL := extractImageURL(results)
	now := s.now()

	meta, _ := json.Marshal(map[string]string{"model": imageModel})
	s.recorder.RecordImage(domain.ImageRecord{
		UserID:    userID,
		Prompt:    prompt,
		ImageURL:  imageURL,
		Meta:      meta,
		Results:   results,
		Timestamp: now,
	})

	item := &domain.SavedItem{
		OwnerID:   userID,
		ItemType:  domain.ItemTypeImage,
		Title:     "Image: " + truncateRunes(prompt, titleRunes),
		Content:   imageURL,
		Name:      roleName(caller),
		CreatedAt: now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("save image item: %w", err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Str("tool", tool).
		Bool("has_url", imageURL != "").
		Msg("image generated")

	return &ports.ImageResult{
		Prompt:    prompt,
		ImageURL:  imageURL,
		Results:   results,
		Timestamp: now,
		UserID:    userID,
		SavedItem: *item,
	}, nil
}

func (s *ContentService) SearchHistory(ctx context.Context, caller domain.Identity) ([]domain.SearchRecord, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}
	return s.history.ListSearches(ctx, userID)
}

func (s *ContentService) DeleteSearch(ctx context.Context, caller domain.Identity, id int64) error {
	userID, err := callerID(caller)
	if err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrRecordNotFound
	}
	return s.history.DeleteSearch(ctx, userID, id)
}

func (s *ContentService) ImageHistory(ctx context.Context, caller domain.Identity) ([]domain.ImageRecord, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}
	return s.history.ListImages(ctx, userID)
}

func (s *ContentService) DeleteImage(ctx context.Context, caller domain.Identity, id int64) error {
	userID, err := callerID(caller)
	if err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrRecordNotFound
	}
	return s.history.DeleteImage(ctx, userID, id)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func callerID(caller domain.Identity) (int64, error) {
	id, err := caller.UserID()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

func roleName(caller domain.Identity) string {
	if caller.Role == "" {
		return domain.RoleUser
	}
	return caller.Role
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// firstResult returns a JSON array holding only the first content entry, or
// "" when the payload has none.
func firstResult(results json.RawMessage) string {
	var entries []json.RawMessage
	if err := json.Unmarshal(results, &entries); err != nil || len(entries) == 0 {
		return ""
	}
	b, err := json.Marshal(entries[:1])
	if err != nil {
		return ""
	}
	return string(b)
}

// extractImageURL reads imageUrl from the JSON document carried in the text of
// the first content entry. Anything unexpected yields "".
func extractImageURL(results json.RawMessage) string {
	var entries []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(results, &entries); err != nil || len(entries) == 0 {
		return ""
	}
	var doc struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal([]byte(entries[0].Text), &doc); err != nil {
		return ""
	}
	return doc.ImageURL
}
