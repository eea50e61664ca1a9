package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

type stubDashboardService struct {
	listUserFn func(ctx context.Context, caller domain.Identity, userID int64) ([]domain.SavedItem, error)
	listAllFn  func(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error)
	updateFn   func(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error)
}

func (s *stubDashboardService) ListUserItems(ctx context.Context, caller domain.Identity, userID int64) ([]domain.SavedItem, error) {
	return s.listUserFn(ctx, caller, userID)
}

func (s *stubDashboardService) ListAllItems(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error) {
	return s.listAllFn(ctx, caller)
}

func (s *stubDashboardService) UpdateItem(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error) {
	return s.updateFn(ctx, caller, itemID, patch)
}

var root = domain.Identity{Subject: "1", Role: domain.RoleAdmin}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestDashboardHandler_ListUserItems(t *testing.T) {
	e := newEcho()
	stub := &stubDashboardService{
		listUserFn: func(ctx context.Context, caller domain.Identity, userID int64) ([]domain.SavedItem, error) {
			if userID != 7 {
				t.Fatalf("unexpected user id %d", userID)
			}
			return []domain.SavedItem{{ID: 1, OwnerID: 7, ItemType: domain.ItemTypeSearch, Title: "Search: go"}}, nil
		},
	}
	handler := NewDashboardHandler(stub)

	rec := httptest.NewRecorder()
	c := withID(authedContext(e, httptest.NewRequest(http.MethodGet, "/", nil), rec, root), "7")

	if err := handler.ListUserItems(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var items []domain.SavedItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(items) != 1 || items[0].OwnerID != 7 {
		t.Fatalf("unexpected items: %+v", items)
	}

	c = withID(authedContext(e, httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder(), root), "x")
	if got := statusOf(handler.ListUserItems(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestDashboardHandler_ListAllItems_Empty(t *testing.T) {
	e := newEcho()
	stub := &stubDashboardService{
		listAllFn: func(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error) {
			return nil, nil
		},
	}
	handler := NewDashboardHandler(stub)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users/all", nil), rec, root)

	if err := handler.ListAllItems(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestDashboardHandler_ForbiddenPassesThrough(t *testing.T) {
	e := newEcho()
	stub := &stubDashboardService{
		listAllFn: func(ctx context.Context, caller domain.Identity) ([]domain.SavedItem, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewDashboardHandler(stub)

	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder(), alice)
	if err := handler.ListAllItems(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDashboardHandler_UpdateItem(t *testing.T) {
	e := newEcho()
	var gotPatch domain.SavedItemPatch
	stub := &stubDashboardService{
		updateFn: func(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error) {
			if itemID != 3 {
				t.Fatalf("unexpected item id %d", itemID)
			}
			gotPatch = patch
			return &domain.SavedItem{ID: 3, Title: *patch.Title, ItemType: domain.ItemTypeImage}, nil
		},
	}
	handler := NewDashboardHandler(stub)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/", `{"title":"Renamed"}`)
	c := withID(authedContext(e, req, rec, root), "3")

	if err := handler.UpdateItem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotPatch.Title == nil || *gotPatch.Title != "Renamed" {
		t.Fatalf("title not forwarded: %+v", gotPatch)
	}
	if gotPatch.Content != nil || gotPatch.ItemType != nil {
		t.Fatalf("absent fields must stay nil: %+v", gotPatch)
	}

	var item domain.SavedItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if item.Title != "Renamed" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestDashboardHandler_UpdateItem_Invalid(t *testing.T) {
	e := newEcho()
	stub := &stubDashboardService{
		updateFn: func(ctx context.Context, caller domain.Identity, itemID int64, patch domain.SavedItemPatch) (*domain.SavedItem, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewDashboardHandler(stub)

	cases := map[string]string{
		"bad json":      "{",
		"bad item type": `{"item_type":"video"}`,
		"empty title":   `{"title":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := withID(authedContext(e, jsonRequest(http.MethodPut, "/", body), httptest.NewRecorder(), root), "3")
			if got := statusOf(handler.UpdateItem(c)); got != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", got)
			}
		})
	}
}
