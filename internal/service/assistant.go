package service

import (
	"fmt"
	"strings"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/utils"
)

// Assistant generates canned chat replies about the current ranked offer
// list. It is pure string templating over the offers it is handed: no state,
// no scoring, and it never fails on an empty list.
type Assistant struct{}

// NewAssistant creates a canned-answer assistant.
func NewAssistant() *Assistant {
	return &Assistant{}
}

// Reply picks a templated answer for the message. Keyword checks run in
// order; the first match wins.
func (a *Assistant) Reply(message string, offers []model.Offer) string {
	m := strings.ToLower(message)

	switch {
	case strings.Contains(m, "moins cher") || strings.Contains(m, "moins chère") || strings.Contains(m, "prix le plus bas"):
		cheapest, ok := cheapestOffer(offers)
		if !ok {
			return "Je n'ai aucune offre à comparer pour le moment."
		}
		return fmt.Sprintf("L'offre la moins chère est %s à %.0f€/mois (%.0f€/an).",
			cheapest.Insurer, cheapest.Price.Monthly, cheapest.Price.Yearly)

	case strings.Contains(m, "service") || strings.Contains(m, "avis") || strings.Contains(m, "note"):
		best, ok := bestRatedOffer(offers)
		if !ok {
			return "Je n'ai aucune offre à comparer pour le moment."
		}
		return fmt.Sprintf("%s obtient la meilleure note du panel avec %.1f/5.", best.Insurer, best.Rating)

	case strings.Contains(m, "vol"):
		count := 0
		for _, o := range offers {
			if utils.CoverageIncluded(o.Coverages, "Vol") {
				count++
			}
		}
		if len(offers) == 0 {
			return "Je n'ai aucune offre à comparer pour le moment."
		}
		return fmt.Sprintf("%d offre(s) sur %d couvrent le vol.", count, len(offers))

	case strings.Contains(m, "franchise"):
		return "Les franchises varient selon les formules ; consultez le détail de chaque offre pour le montant exact."

	case strings.Contains(m, "recommand"):
		for _, o := range offers {
			if o.Recommended {
				return fmt.Sprintf("Nous recommandons %s : meilleur score du panel (%.0f) à %.0f€/mois.",
					o.Insurer, o.Score, o.Price.Monthly)
			}
		}
		return "Je n'ai aucune offre à comparer pour le moment."

	default:
		return "Je peux vous renseigner sur le prix, les notes, la couverture vol ou les franchises des offres comparées."
	}
}

func cheapestOffer(offers []model.Offer) (model.Offer, bool) {
	if len(offers) == 0 {
		return model.Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price.Monthly < best.Price.Monthly {
			best = o
		}
	}
	return best, true
}

func bestRatedOffer(offers []model.Offer) (model.Offer, bool) {
	if len(offers) == 0 {
		return model.Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Rating > best.Rating {
			best = o
		}
	}
	return best, true
}
