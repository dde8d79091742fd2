package model

// ComparisonCriteria is the user's comparison form input. Numeric fields
// arrive as free-form strings; values that fail to parse fall back to
// defaults instead of blocking the comparison (age defaults to 25, a missing
// or unparseable budget disables the budget penalty).
type ComparisonCriteria struct {
	Age           string `json:"age"`
	Profession    string `json:"profession"`
	Location      string `json:"location"`
	MonthlyBudget string `json:"monthly_budget"`

	// Auto
	VehicleType     string `json:"vehicle_type,omitempty"`
	EnergyType      string `json:"energy_type,omitempty"`
	ParkingLocation string `json:"parking_location,omitempty"`
	ClaimsHistory   string `json:"claims_history,omitempty"`

	// Home
	PropertyType  string `json:"property_type,omitempty"`
	FloorLevel    string `json:"floor_level,omitempty"`
	SecurityLevel string `json:"security_level,omitempty"`

	// Moto
	MotoType   string `json:"moto_type,omitempty"`
	EngineSize string `json:"engine_size,omitempty"`
	AntiTheft  string `json:"anti_theft,omitempty"`

	// Health
	FamilyStatus     string `json:"family_status,omitempty"`
	ChronicCondition string `json:"chronic_condition,omitempty"`
	SportPractice    string `json:"sport_practice,omitempty"`
}

// FilterState holds the user's active result constraints. A zero Rating
// disables the rating threshold, an empty insurer list allows every insurer,
// and a PriceRange with a non-positive upper bound is treated as unbounded.
// Coverages is accepted for forward compatibility but not yet applied.
type FilterState struct {
	PriceRange [2]float64 `json:"price_range"`
	Insurers   []string   `json:"insurers"`
	Rating     float64    `json:"rating"`
	Coverages  []string   `json:"coverages,omitempty"`
}
