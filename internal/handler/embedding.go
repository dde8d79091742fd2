package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/service"
)

// EmbeddingHandler handles question-embedding HTTP requests. Embeddings are
// computed by an external worker and pushed here in batches.
type EmbeddingHandler struct {
	svc  *service.ComparisonService
	dims int
}

// NewEmbeddingHandler creates an embedding handler expecting vectors of the
// given dimensionality.
func NewEmbeddingHandler(svc *service.ComparisonService, dims int) *EmbeddingHandler {
	return &EmbeddingHandler{svc: svc, dims: dims}
}

// BatchUpdate handles POST /api/v1/questions/embeddings/batch.
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	for i, item := range req.Embeddings {
		if len(item.Embedding) != h.dims {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid embedding dimension at index " + strconv.Itoa(i) +
					", expected " + strconv.Itoa(h.dims),
			})
			return
		}
	}

	success, errs, err := h.svc.UpdateQuestionEmbeddings(c.Request.Context(), req.Embeddings)
	if err != nil {
		if errors.Is(err, service.ErrHistoryDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Comparison history is disabled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Embedding update failed: " + err.Error()})
		return
	}

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
