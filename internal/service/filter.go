package service

import (
	"math"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// FilterOffers applies the user's constraints to a ranked offer list and
// returns a new slice, preserving order. All conditions are AND-ed:
//   - rating >= f.Rating (skipped when f.Rating is 0)
//   - insurer in f.Insurers (empty list allows all)
//   - priceRange[0] <= monthly <= priceRange[1], inclusive at both bounds
//     (a non-positive upper bound means unbounded)
//
// Pure function: applying the same FilterState twice yields the same result.
func FilterOffers(offers []model.Offer, f model.FilterState) []model.Offer {
	allowed := make(map[string]bool, len(f.Insurers))
	for _, insurer := range f.Insurers {
		allowed[insurer] = true
	}

	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if f.Rating > 0 && o.Rating < f.Rating {
			continue
		}
		if len(allowed) > 0 && !allowed[o.Insurer] {
			continue
		}
		if o.Price.Monthly < f.PriceRange[0] {
			continue
		}
		if f.PriceRange[1] > 0 && o.Price.Monthly > f.PriceRange[1] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Page is one rendered page of filtered results. Current-contract entries
// are pinned to the front of every page and never paginated away.
type Page struct {
	Offers     []model.Offer
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	HasMore    bool
}

// Paginate splits a filtered offer list into one rendered page. The current
// contract, if present, leads every page; only the remaining offers are
// paginated, with a 1-based page index clamped into range.
func Paginate(filtered []model.Offer, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	currents := make([]model.Offer, 0, 1)
	others := make([]model.Offer, 0, len(filtered))
	for _, o := range filtered {
		if o.IsCurrentContract {
			currents = append(currents, o)
		} else {
			others = append(others, o)
		}
	}

	totalPages := int(math.Ceil(float64(len(others)) / float64(pageSize)))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(others) {
		start = len(others)
	}
	if end > len(others) {
		end = len(others)
	}

	result := make([]model.Offer, 0, len(currents)+(end-start))
	result = append(result, currents...)
	result = append(result, others[start:end]...)

	return Page{
		Offers:     result,
		Page:       page,
		PageSize:   pageSize,
		Total:      len(filtered),
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// ComputeStats returns the average monthly price and rating of a result
// set. An empty set yields zeroes, never NaN.
func ComputeStats(offers []model.Offer) model.ResultStats {
	if len(offers) == 0 {
		return model.ResultStats{}
	}
	var priceSum, ratingSum float64
	for _, o := range offers {
		priceSum += o.Price.Monthly
		ratingSum += o.Rating
	}
	n := float64(len(offers))
	return model.ResultStats{
		AveragePrice:  math.Round(priceSum/n*100) / 100,
		AverageRating: math.Round(ratingSum/n*10) / 10,
	}
}
