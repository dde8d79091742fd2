package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/catalog"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/service"
)

// ComparisonHandler handles comparison-session HTTP requests.
type ComparisonHandler struct {
	svc             *service.ComparisonService
	defaultPageSize int
	maxPageSize     int
}

// NewComparisonHandler creates a comparison handler.
func NewComparisonHandler(svc *service.ComparisonService, defaultPageSize, maxPageSize int) *ComparisonHandler {
	return &ComparisonHandler{
		svc:             svc,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Compare handles POST /api/v1/comparisons.
func (h *ComparisonHandler) Compare(c *gin.Context) {
	var req model.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !req.Category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown insurance category: " + string(req.Category)})
		return
	}

	response, err := h.svc.Compare(c.Request.Context(), UserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownCategory):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidPolicy):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison session not found"})
		case errors.Is(err, service.ErrStaleGeneration):
			c.JSON(http.StatusConflict, gin.H{"error": "A newer comparison superseded this request"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Comparison failed: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// Results handles POST /api/v1/comparisons/:id/results.
func (h *ComparisonHandler) Results(c *gin.Context) {
	var req model.ResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Any filter change restarts from page 1 on the client; the server just
	// clamps what it is given.
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = h.defaultPageSize
	}
	if req.PageSize > h.maxPageSize {
		req.PageSize = h.maxPageSize
	}

	response, err := h.svc.Results(c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// AskQuestion handles POST /api/v1/comparisons/:id/questions.
func (h *ComparisonHandler) AskQuestion(c *gin.Context) {
	var req model.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.svc.AskQuestion(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Question analysis failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Chat handles POST /api/v1/comparisons/:id/chat.
func (h *ComparisonHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.svc.Chat(c.Param("id"), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
