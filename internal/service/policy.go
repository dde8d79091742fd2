package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// ErrInvalidPolicy is returned when the existing policy is missing required
// fields; the injector fails fast rather than producing a half-populated
// offer.
var ErrInvalidPolicy = errors.New("pricing: invalid existing policy")

const currentContractBaseScore = 70

// PolicyToOffer converts the user's existing policy into a synthetic offer
// so it can be ranked alongside market offers. Premium is the annual amount;
// the synthetic offer enters the pricing pipeline before adjustment and is
// therefore adjusted like any other offer.
func (e *PricingEngine) PolicyToOffer(policy *model.ExistingPolicy, category model.InsuranceCategory) (model.Offer, error) {
	if policy == nil || policy.ID == "" || policy.Insurer == "" {
		return model.Offer{}, fmt.Errorf("%w: id and insurer are required", ErrInvalidPolicy)
	}
	if policy.Premium <= 0 {
		return model.Offer{}, fmt.Errorf("%w: premium must be positive", ErrInvalidPolicy)
	}

	coverages, err := e.catalog.DefaultCoverages(category)
	if err != nil {
		return model.Offer{}, err
	}

	return model.Offer{
		ID:      "current-" + policy.ID,
		Insurer: policy.Insurer,
		Price: model.Price{
			Monthly: math.Round(policy.Premium / 12),
			Yearly:  policy.Premium,
		},
		Rating:            4.0,
		Coverages:         coverages,
		Pros:              []string{"Votre contrat actuel", "Familier avec les conditions"},
		Cons:              []string{},
		Score:             currentContractBaseScore,
		IsCurrentContract: true,
	}, nil
}
