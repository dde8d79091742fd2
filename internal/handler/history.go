package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/repository"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/service"
)

// HistoryHandler handles comparison-history HTTP requests.
type HistoryHandler struct {
	svc          *service.ComparisonService
	defaultLimit int
	maxLimit     int
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(svc *service.ComparisonService, defaultLimit, maxLimit int) *HistoryHandler {
	return &HistoryHandler{
		svc:          svc,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultLimit)))
	if err != nil || limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	response, err := h.svc.ListHistory(c.Request.Context(), UserID(c), limit, offset)
	if err != nil {
		historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/history/:id.
func (h *HistoryHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetHistory(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		historyError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/history/:id.
func (h *HistoryHandler) Delete(c *gin.Context) {
	err := h.svc.DeleteHistory(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		historyError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/history. With ?expired=true only expired
// records are removed; otherwise the whole history is cleared.
func (h *HistoryHandler) Clear(c *gin.Context) {
	expiredOnly := c.Query("expired") == "true"

	deleted, err := h.svc.ClearHistory(c.Request.Context(), UserID(c), expiredOnly)
	if err != nil {
		historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ClearHistoryResponse{Deleted: deleted})
}

func historyError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrHistoryDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Comparison history is disabled"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "History operation failed: " + err.Error()})
}
