package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

//go:embed seed.json
var seedData []byte

// ErrUnknownCategory is returned for a category with no seed offers.
var ErrUnknownCategory = errors.New("catalog: unknown insurance category")

// Catalog holds the static seed offers per insurance category. Seed data is
// read-only; every lookup returns deep copies.
type Catalog struct {
	offers map[model.InsuranceCategory][]model.Offer
}

// Load decodes the embedded seed data and validates its invariants.
func Load() (*Catalog, error) {
	var raw map[model.InsuranceCategory][]model.Offer
	if err := json.Unmarshal(seedData, &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode seed data: %w", err)
	}

	for category, offers := range raw {
		if !category.Valid() {
			return nil, fmt.Errorf("catalog: unexpected seed category %q", category)
		}
		for _, o := range offers {
			if o.ID == "" || o.Insurer == "" {
				return nil, fmt.Errorf("catalog: %s offer missing id or insurer", category)
			}
			if o.Price.Monthly < 0 {
				return nil, fmt.Errorf("catalog: offer %s has negative monthly price", o.ID)
			}
			if o.Rating < 0 || o.Rating > 5 {
				return nil, fmt.Errorf("catalog: offer %s rating %.1f out of range", o.ID, o.Rating)
			}
		}
	}

	return &Catalog{offers: raw}, nil
}

// Offers returns a deep copy of the seed offers for a category, in catalog
// order.
func (c *Catalog) Offers(category model.InsuranceCategory) ([]model.Offer, error) {
	seeds, ok := c.offers[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	out := make([]model.Offer, 0, len(seeds))
	for _, o := range seeds {
		out = append(out, o.Clone())
	}
	return out, nil
}

// Insurers returns the distinct insurer names of a category, in catalog
// order. Used to seed the insurer filter UI.
func (c *Catalog) Insurers(category model.InsuranceCategory) ([]string, error) {
	seeds, ok := c.offers[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	names := make([]string, 0, len(seeds))
	for _, o := range seeds {
		names = append(names, o.Insurer)
	}
	return names, nil
}

// DefaultCoverages returns the coverage set used for the synthetic
// current-contract offer: every coverage name seen in the category's seed
// offers, all marked included.
func (c *Catalog) DefaultCoverages(category model.InsuranceCategory) (map[string]model.Coverage, error) {
	seeds, ok := c.offers[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	covs := make(map[string]model.Coverage)
	for _, o := range seeds {
		for name := range o.Coverages {
			covs[name] = model.Coverage{Included: true}
		}
	}
	return covs, nil
}
