package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/catalog"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

const (
	defaultAge = 25
	scoreFloor = 50
)

// PricingEngine derives a session's ranked offer list from the seed catalog,
// the user's criteria and an optional existing policy. It is a pure function
// over its inputs; the seed catalog is never mutated.
type PricingEngine struct {
	catalog *catalog.Catalog
	// quoteDelay emulates the quote-provider latency of the hosted product;
	// zero disables it.
	quoteDelay time.Duration
}

// NewPricingEngine creates a pricing engine over the given catalog.
func NewPricingEngine(cat *catalog.Catalog, quoteDelay time.Duration) *PricingEngine {
	return &PricingEngine{
		catalog:    cat,
		quoteDelay: quoteDelay,
	}
}

// ComputeOffers prices and ranks the category's offers against the user's
// criteria. When an existing policy is supplied it is converted to a
// synthetic offer and prepended BEFORE the adjustment loop, so the current
// contract is scored under the same rules as market offers.
//
// The result is sorted by score descending (stable, catalog order breaks
// ties); the first offer of a non-empty result carries Recommended=true.
func (e *PricingEngine) ComputeOffers(
	ctx context.Context,
	category model.InsuranceCategory,
	criteria model.ComparisonCriteria,
	current *model.ExistingPolicy,
) ([]model.Offer, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}

	if e.quoteDelay > 0 {
		select {
		case <-time.After(e.quoteDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	offers, err := e.catalog.Offers(category)
	if err != nil {
		return nil, err
	}

	if current != nil {
		synthetic, err := e.PolicyToOffer(current, category)
		if err != nil {
			return nil, err
		}
		offers = append([]model.Offer{synthetic}, offers...)
	}

	multiplier, bonus := adjustments(category, criteria)
	budget := parseBudget(criteria.MonthlyBudget)

	for i := range offers {
		monthly := math.Round(offers[i].Price.Monthly * multiplier)
		offers[i].Price.Monthly = monthly
		offers[i].Price.Yearly = monthly * 12

		// A budget of 0 or an unparseable budget means "no budget
		// constraint": the distance penalty is skipped entirely. This
		// asymmetry is intentional.
		if budget > 0 {
			offers[i].Score = math.Max(scoreFloor, offers[i].Score-2*math.Abs(monthly-budget)+bonus)
		} else {
			offers[i].Score = offers[i].Score + bonus
		}
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Score > offers[j].Score
	})

	for i := range offers {
		offers[i].Recommended = i == 0
	}

	return offers, nil
}

// adjustments computes the price multiplier and score bonus for one
// criteria/category pair. Adjustments apply in a fixed order — profile first
// (age, location, profession), then category-specific fields — because
// multipliers compound multiplicatively.
func adjustments(category model.InsuranceCategory, criteria model.ComparisonCriteria) (float64, float64) {
	multiplier := 1.0
	bonus := 0.0

	age := parseIntDefault(criteria.Age, defaultAge)
	if category == model.CategoryAuto || category == model.CategoryMoto {
		if age < 25 {
			multiplier *= 1.3
		} else if age > 50 {
			multiplier *= 0.9
		}
	}

	if strings.Contains(strings.ToLower(criteria.Location), "paris") {
		multiplier *= 1.2
	}

	switch criteria.Profession {
	case "Étudiant":
		multiplier *= 0.9
	case "Cadre":
		multiplier *= 1.1
	}

	switch category {
	case model.CategoryAuto:
		m, b := autoAdjustments(criteria)
		multiplier *= m
		bonus += b
	case model.CategoryHome:
		m, b := homeAdjustments(criteria)
		multiplier *= m
		bonus += b
	case model.CategoryMoto:
		m, b := motoAdjustments(criteria)
		multiplier *= m
		bonus += b
	case model.CategoryHealth:
		m, b := healthAdjustments(criteria)
		multiplier *= m
		bonus += b
	}

	return multiplier, bonus
}

// Auto adjustments, in order: vehicle type, energy, parking, claims history.
func autoAdjustments(criteria model.ComparisonCriteria) (float64, float64) {
	multiplier := 1.0
	bonus := 0.0

	switch strings.ToLower(criteria.VehicleType) {
	case "citadine":
		multiplier *= 0.95
	case "berline":
		multiplier *= 1.05
	case "suv":
		multiplier *= 1.15
	case "sportive":
		multiplier *= 1.4
	}

	switch normalizeAccents(strings.ToLower(criteria.EnergyType)) {
	case "electrique":
		multiplier *= 0.9
		bonus += 3
	case "hybride":
		multiplier *= 0.95
		bonus += 2
	case "diesel":
		multiplier *= 1.05
	}

	switch strings.ToLower(criteria.ParkingLocation) {
	case "garage":
		multiplier *= 0.9
		bonus += 2
	case "rue":
		multiplier *= 1.1
	}

	claims := parseIntDefault(criteria.ClaimsHistory, -1)
	switch {
	case claims == 0:
		multiplier *= 0.95
		bonus += 5
	case claims == 1:
		multiplier *= 1.1
	case claims >= 2:
		multiplier *= 1.3
		bonus -= 5
	}

	return multiplier, bonus
}

// Home adjustments, in order: property type, floor level, security.
func homeAdjustments(criteria model.ComparisonCriteria) (float64, float64) {
	multiplier := 1.0
	bonus := 0.0

	switch strings.ToLower(criteria.PropertyType) {
	case "maison":
		multiplier *= 1.2
	case "studio":
		multiplier *= 0.85
	}

	floorLower := strings.ToLower(criteria.FloorLevel)
	floor := parseIntDefault(criteria.FloorLevel, -1)
	if floor == 0 || strings.Contains(floorLower, "rez") {
		multiplier *= 1.1
	} else if floor >= 3 {
		multiplier *= 0.95
	}

	securityLower := strings.ToLower(criteria.SecurityLevel)
	if strings.Contains(securityLower, "alarme") {
		multiplier *= 0.9
		bonus += 4
	} else if strings.Contains(securityLower, "aucune") {
		multiplier *= 1.05
	}

	return multiplier, bonus
}

// Moto adjustments, in order: motorcycle type, engine size, anti-theft.
func motoAdjustments(criteria model.ComparisonCriteria) (float64, float64) {
	multiplier := 1.0
	bonus := 0.0

	switch strings.ToLower(criteria.MotoType) {
	case "sportive":
		multiplier *= 1.5
	case "roadster":
		multiplier *= 1.2
	case "custom":
		multiplier *= 1.1
	case "125":
		multiplier *= 0.85
	}

	engine := parseIntDefault(criteria.EngineSize, 0)
	switch {
	case engine >= 1000:
		multiplier *= 1.3
	case engine >= 600:
		multiplier *= 1.15
	}

	antiTheftLower := strings.ToLower(criteria.AntiTheft)
	if antiTheftLower == "oui" || strings.Contains(antiTheftLower, "antivol") || strings.Contains(antiTheftLower, "gravage") {
		multiplier *= 0.9
		bonus += 3
	}

	return multiplier, bonus
}

// Health adjustments, in order: family status, chronic condition, sport.
func healthAdjustments(criteria model.ComparisonCriteria) (float64, float64) {
	multiplier := 1.0
	bonus := 0.0

	switch strings.ToLower(criteria.FamilyStatus) {
	case "famille":
		multiplier *= 1.4
		bonus += 2
	case "couple":
		multiplier *= 1.2
	}

	if strings.ToLower(criteria.ChronicCondition) == "oui" {
		multiplier *= 1.25
	}

	sportLower := strings.ToLower(criteria.SportPractice)
	if strings.Contains(sportLower, "intensif") {
		multiplier *= 1.1
		bonus += 1
	} else if strings.Contains(sportLower, "régulier") || strings.Contains(sportLower, "regulier") {
		bonus += 2
	}

	return multiplier, bonus
}

// parseIntDefault parses a free-form numeric field, tolerating decorations
// like "600cc" by reading the leading digits. Returns fallback when no
// digits are present.
func parseIntDefault(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	return v
}

// parseBudget returns the parsed monthly budget, or 0 when absent or
// unparseable (0 disables the budget penalty).
func parseBudget(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// normalizeAccents folds the accented characters seen in form values so
// "électrique" and "electrique" compare equal.
func normalizeAccents(s string) string {
	replacer := strings.NewReplacer(
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"à", "a", "â", "a",
		"î", "i", "ï", "i",
		"ô", "o", "û", "u", "ù", "u",
	)
	return replacer.Replace(s)
}
