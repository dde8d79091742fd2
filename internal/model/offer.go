package model

// InsuranceCategory identifies one of the supported insurance product lines.
type InsuranceCategory string

const (
	CategoryAuto   InsuranceCategory = "auto"
	CategoryHome   InsuranceCategory = "home"
	CategoryHealth InsuranceCategory = "health"
	CategoryMoto   InsuranceCategory = "moto"
)

// Valid reports whether c is one of the supported categories.
func (c InsuranceCategory) Valid() bool {
	switch c {
	case CategoryAuto, CategoryHome, CategoryHealth, CategoryMoto:
		return true
	}
	return false
}

// Price holds the monthly and yearly premium of an offer. Yearly is kept at
// monthly*12 after pricing adjustment.
type Price struct {
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// Coverage describes a single named guarantee of an offer. Value carries a
// reimbursement rate or cap when relevant (health) and is empty otherwise.
type Coverage struct {
	Included bool   `json:"included"`
	Value    string `json:"value,omitempty"`
}

// Offer is a priced, rated insurance product candidate. Score and Recommended
// are recomputed every time the pricing engine runs; at most one offer per
// result set is the current contract and at most one is recommended.
type Offer struct {
	ID                string              `json:"id"`
	Insurer           string              `json:"insurer"`
	Price             Price               `json:"price"`
	Rating            float64             `json:"rating"`
	Coverages         map[string]Coverage `json:"coverages"`
	Pros              []string            `json:"pros"`
	Cons              []string            `json:"cons"`
	Score             float64             `json:"score"`
	Recommended       bool                `json:"recommended"`
	IsCurrentContract bool                `json:"is_current_contract"`
}

// Clone returns a deep copy of the offer so callers can adjust prices and
// scores without mutating shared seed data.
func (o Offer) Clone() Offer {
	out := o
	if o.Coverages != nil {
		out.Coverages = make(map[string]Coverage, len(o.Coverages))
		for k, v := range o.Coverages {
			out.Coverages[k] = v
		}
	}
	if o.Pros != nil {
		out.Pros = append([]string(nil), o.Pros...)
	}
	if o.Cons != nil {
		out.Cons = append([]string(nil), o.Cons...)
	}
	return out
}

// ExistingPolicy is the user's already-held contract, as supplied by the
// contract-management side of the product. Premium is the annual amount in
// display currency units.
type ExistingPolicy struct {
	ID      string  `json:"id" binding:"required"`
	Insurer string  `json:"insurer" binding:"required"`
	Premium float64 `json:"premium" binding:"required"`
}
