package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

// ContentHandler serves search, image generation and the caller's own
// history. Every route expects the Authenticate middleware in front of it.
type ContentHandler struct {
	service ports.ContentService
}

func NewContentHandler(service ports.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Search runs a web search for the caller.
//
// @Summary      Search the web
// @Tags         search
// @Produce      json
// @Security     BearerAuth
// @Param        query  query     string  true  "Search query"
// @Success      200    {object}  searchResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /search [get]
func (h *ContentHandler) Search(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	res, err := h.service.Search(c.Request().Context(), caller, c.QueryParam("query"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, searchResponse{
		Query:       res.Query,
		Results:     res.Results,
		Timestamp:   res.Timestamp,
		UserID:      res.UserID,
		SavedItemID: res.SavedItemID,
	})
}

// SearchHistory lists the caller's searches, newest first.
//
// @Summary      Search history
// @Tags         search
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  searchHistoryResponse
// @Failure      401  {object}  map[string]string
// @Router       /search/history [get]
func (h *ContentHandler) SearchHistory(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	records, err := h.service.SearchHistory(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	userID, _ := caller.UserID()

	entries := make([]searchEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, searchEntry{
			ID:        r.ID,
			Query:     r.Query,
			Results:   r.Results,
			Timestamp: r.Timestamp,
		})
	}

	return c.JSON(http.StatusOK, searchHistoryResponse{
		UserID:        userID,
		Role:          roleOf(caller.Role),
		SearchHistory: entries,
	})
}

// DeleteSearch removes one of the caller's search history entries.
//
// @Summary      Delete a search history entry
// @Tags         search
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Search entry id"
// @Success      200  {object}  searchDeletedResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /search/history/{id} [delete]
func (h *ContentHandler) DeleteSearch(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteSearch(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchDeletedResponse{Status: "deleted", SearchID: id})
}

// GenerateImage asks the image provider for a picture matching prompt.
//
// @Summary      Generate an image
// @Tags         image
// @Produce      json
// @Security     BearerAuth
// @Param        prompt  query     string  true  "Image prompt"
// @Success      200     {object}  imageResponse
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      502     {object}  map[string]string
// @Router       /image [post]
func (h *ContentHandler) GenerateImage(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	prompt := c.QueryParam("prompt")
	if prompt == "" {
		prompt = c.FormValue("prompt")
	}

	res, err := h.service.GenerateImage(c.Request().Context(), caller, prompt)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, imageResponse{
		Prompt:    res.Prompt,
		ImageURL:  res.ImageURL,
		Results:   res.Results,
		Timestamp: res.Timestamp,
		UserID:    res.UserID,
		SavedItem: res.SavedItem,
	})
}

// ImageHistory lists the caller's generated images, newest first.
//
// @Summary      Image history
// @Tags         image
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  imageHistoryResponse
// @Failure      401  {object}  map[string]string
// @Router       /image/history [get]
func (h *ContentHandler) ImageHistory(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	records, err := h.service.ImageHistory(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	userID, _ := caller.UserID()

	entries := make([]imageEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, imageEntry{
			ID:        r.ID,
			Prompt:    r.Prompt,
			ImageURL:  r.ImageURL,
			Meta:      r.Meta,
			Results:   r.Results,
			Timestamp: r.Timestamp,
		})
	}

	return c.JSON(http.StatusOK, imageHistoryResponse{
		UserID:       userID,
		Role:         roleOf(caller.Role),
		ImageHistory: entries,
	})
}

// DeleteImage removes one of the caller's image history entries.
//
// @Summary      Delete an image history entry
// @Tags         image
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Image entry id"
// @Success      200  {object}  imageDeletedResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /image/history/{id} [delete]
func (h *ContentHandler) DeleteImage(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteImage(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, imageDeletedResponse{Status: "deleted", ImageID: id})
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func roleOf(role string) string {
	if role == "" {
		return domain.RoleUser
	}
	return role
}
