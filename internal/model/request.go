package model

// CompareRequest starts (or re-runs) a comparison session.
type CompareRequest struct {
	Category      InsuranceCategory  `json:"category" binding:"required"`
	Criteria      ComparisonCriteria `json:"criteria"`
	CurrentPolicy *ExistingPolicy    `json:"current_policy,omitempty"`
	// ComparisonID re-runs an existing session with new criteria; the stale
	// result set is discarded atomically via the session generation counter.
	ComparisonID string `json:"comparison_id,omitempty"`
}

// ResultStats carries aggregate figures for a displayed result set. Both
// averages are 0 for an empty set.
type ResultStats struct {
	AveragePrice  float64 `json:"average_price"`
	AverageRating float64 `json:"average_rating"`
}

// CompareResponse returns the full ranked offer list for a new session.
type CompareResponse struct {
	ComparisonID string            `json:"comparison_id"`
	Category     InsuranceCategory `json:"category"`
	Offers       []Offer           `json:"offers"`
	Total        int               `json:"total"`
	Stats        ResultStats       `json:"stats"`
	Took         int64             `json:"took_ms"`
}

// ResultsRequest asks for a filtered, paginated page of a session's offers.
type ResultsRequest struct {
	Filters  *FilterState `json:"filters,omitempty"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// ResultsResponse is one rendered page. The current contract, when present
// and passing the filters, leads the page regardless of page number.
type ResultsResponse struct {
	Results    []Offer     `json:"results"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
	Stats      ResultStats `json:"stats"`
}

// QuestionRequest submits a free-text coverage question for a session.
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// QuestionResult returns the newly appended ledger entry plus the updated
// per-offer compatibility aggregates.
type QuestionResult struct {
	Question       AskedQuestion        `json:"question"`
	TotalQuestions int                  `json:"total_questions"`
	Compatibility  []CompatibilityScore `json:"compatibility"`
}

// ChatRequest submits a free-text message to the canned assistant.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the assistant's templated reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// HistoryResponse is a paginated list of past comparisons.
type HistoryResponse struct {
	Comparisons []PastComparison `json:"comparisons"`
	Total       int              `json:"total"`
}

// ClearHistoryResponse reports how many records a bulk delete removed.
type ClearHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}

// QuestionEmbedding carries one externally computed embedding for a logged
// question.
type QuestionEmbedding struct {
	QuestionLogID string    `json:"question_log_id" binding:"required"`
	Embedding     []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchRequest is a batch embedding update for logged questions.
type EmbeddingBatchRequest struct {
	Embeddings []QuestionEmbedding `json:"embeddings" binding:"required"`
}

// EmbeddingBatchResponse reports per-item batch update outcomes.
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
