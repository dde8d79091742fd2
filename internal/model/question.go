package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// QuestionResponse is one offer's verdict for an asked question.
type QuestionResponse struct {
	HasAnswer bool   `json:"has_answer"`
	Details   string `json:"details"`
}

// ResponseMap maps offer IDs to their verdict for a single question. It is
// stored as JSONB in the question log.
type ResponseMap map[string]QuestionResponse

// Value implements driver.Valuer.
func (m ResponseMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *ResponseMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), m)
	}
	return json.Unmarshal(bytes, m)
}

// AskedQuestion is one entry of a session's append-only question ledger.
// Records are never mutated after creation.
type AskedQuestion struct {
	Question  string      `json:"question"`
	Timestamp time.Time   `json:"timestamp"`
	Responses ResponseMap `json:"responses"`
}

// CompatibilityScore aggregates how many asked questions an offer has passed.
// Percentage is 0 when no questions have been asked yet.
type CompatibilityScore struct {
	OfferID    string  `json:"offer_id"`
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
}
