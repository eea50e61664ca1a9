package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

// DashboardHandler serves the admin dashboard. Routes are mounted behind
// Authenticate and RequireAdmin; the service checks the role again.
type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// ListUserItems returns every saved item owned by a user.
//
// @Summary      Saved items of a user
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {array}   domain.SavedItem
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /dashboard/admin/{id} [get]
func (h *DashboardHandler) ListUserItems(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.service.ListUserItems(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// ListAllItems returns every saved item.
//
// @Summary      All saved items
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.SavedItem
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /dashboard/admin/users/all [get]
func (h *DashboardHandler) ListAllItems(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListAllItems(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// UpdateItem edits the title, content or type of a saved item.
//
// @Summary      Update a saved item
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Item id"
// @Param        body  body      updateItemRequest  true  "Fields to change"
// @Success      200   {object}  domain.SavedItem
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /dashboard/admin/{id} [put]
func (h *DashboardHandler) UpdateItem(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, err := h.service.UpdateItem(c.Request().Context(), caller, itemID, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func nonNil(items []domain.SavedItem) []domain.SavedItem {
	if items == nil {
		return []domain.SavedItem{}
	}
	return items
}
