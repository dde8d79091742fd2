package utils

import (
	"strings"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// Coverage names are free-form strings on offers, so lookups tolerate case
// differences and common aliases (catalog French labels vs. question
// vocabulary).
var coverageAliases = map[string][]string{
	"vol":          {"vol", "theft"},
	"assistance":   {"assistance", "dépannage", "depannage"},
	"juridique":    {"protection juridique", "juridique", "legal"},
	"remplacement": {"véhicule de remplacement", "vehicule de remplacement", "remplacement"},
	"glace":        {"bris de glace", "glace", "pare-brise"},
	"incendie":     {"incendie", "feu"},
	"eau":          {"dégât des eaux", "degat des eaux", "eaux"},
	"optique":      {"optique", "lunettes"},
	"dentaire":     {"dentaire", "dents"},
	"hospi":        {"hospitalisation", "hospi"},
	"équipement":   {"équipement du motard", "equipement", "équipement"},
}

// LookupCoverage finds a coverage on an offer by name, tolerating case and
// alias variants. The second return value reports whether a coverage was
// found at all.
func LookupCoverage(coverages map[string]model.Coverage, name string) (model.Coverage, bool) {
	if len(coverages) == 0 {
		return model.Coverage{}, false
	}

	// Exact match
	if cov, ok := coverages[name]; ok {
		return cov, true
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))

	// Case-insensitive match
	for key, cov := range coverages {
		if strings.ToLower(key) == nameLower {
			return cov, true
		}
	}

	// Substring match
	for key, cov := range coverages {
		if strings.Contains(strings.ToLower(key), nameLower) {
			return cov, true
		}
	}

	// Alias match
	for key, aliases := range coverageAliases {
		if !strings.Contains(nameLower, key) {
			continue
		}
		for covName, cov := range coverages {
			covLower := strings.ToLower(covName)
			for _, alias := range aliases {
				if strings.Contains(covLower, alias) {
					return cov, true
				}
			}
		}
	}

	return model.Coverage{}, false
}

// CoverageIncluded reports whether an offer includes the named coverage.
// Unknown coverages count as not included.
func CoverageIncluded(coverages map[string]model.Coverage, name string) bool {
	cov, ok := LookupCoverage(coverages, name)
	return ok && cov.Included
}
