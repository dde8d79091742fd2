package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TopOfferSummary is the condensed best-offer snapshot kept with a past
// comparison.
type TopOfferSummary struct {
	Insurer string  `json:"insurer"`
	Monthly float64 `json:"monthly"`
	Rating  float64 `json:"rating"`
	Score   float64 `json:"score"`
}

// Value implements driver.Valuer.
func (s TopOfferSummary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *TopOfferSummary) Scan(value interface{}) error {
	if value == nil {
		*s = TopOfferSummary{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), s)
	}
	return json.Unmarshal(bytes, s)
}

// CriteriaSnapshot wraps ComparisonCriteria for JSONB storage.
type CriteriaSnapshot struct {
	ComparisonCriteria
}

// Value implements driver.Valuer.
func (c CriteriaSnapshot) Value() (driver.Value, error) {
	return json.Marshal(c.ComparisonCriteria)
}

// Scan implements sql.Scanner.
func (c *CriteriaSnapshot) Scan(value interface{}) error {
	if value == nil {
		c.ComparisonCriteria = ComparisonCriteria{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), &c.ComparisonCriteria)
	}
	return json.Unmarshal(bytes, &c.ComparisonCriteria)
}

// PastComparison is a persisted comparison run. Expired records are filtered
// out of listings but only removed by an explicit clear.
type PastComparison struct {
	ID            string            `json:"id" db:"id"`
	UserID        string            `json:"user_id" db:"user_id"`
	InsuranceType InsuranceCategory `json:"insurance_type" db:"insurance_type"`
	Criteria      CriteriaSnapshot  `json:"criteria" db:"criteria"`
	ResultsCount  int               `json:"results_count" db:"results_count"`
	TopOffer      TopOfferSummary   `json:"top_offer" db:"top_offer"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at" db:"expires_at"`
}
