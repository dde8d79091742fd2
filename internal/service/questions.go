package service

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/utils"
)

// QuestionAnalyzer decides, per offer, whether a free-text coverage question
// is satisfied. Implementations must be safe for concurrent use.
type QuestionAnalyzer interface {
	Analyze(ctx context.Context, question string, offers []model.Offer) model.ResponseMap
}

// RuleAnalyzer matches questions against an ordered list of substring
// rules; the first matching rule wins. Two branches stand in for
// not-yet-implemented quote-provider intelligence and answer at random; the
// randomness source is injected so those branches are deterministic under a
// fixed seed.
type RuleAnalyzer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRuleAnalyzer creates a rule-based analyzer with the given seed.
func NewRuleAnalyzer(seed int64) *RuleAnalyzer {
	return &RuleAnalyzer{rng: rand.New(rand.NewSource(seed))}
}

// Analyze evaluates the question against every offer. The rule order is
// fixed; there is no fallthrough once a rule matches.
func (a *RuleAnalyzer) Analyze(_ context.Context, question string, offers []model.Offer) model.ResponseMap {
	q := strings.ToLower(question)

	responses := make(model.ResponseMap, len(offers))
	for _, offer := range offers {
		responses[offer.ID] = a.analyzeOffer(q, offer)
	}
	return responses
}

func (a *RuleAnalyzer) analyzeOffer(q string, offer model.Offer) model.QuestionResponse {
	switch {
	case strings.Contains(q, "vol") && strings.Contains(q, "étranger"):
		if utils.CoverageIncluded(offer.Coverages, "Vol") {
			return model.QuestionResponse{HasAnswer: true, Details: "Vol couvert, y compris à l'étranger"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Vol non couvert hors de France"}

	case strings.Contains(q, "assistance") && strings.Contains(q, "24"):
		if utils.CoverageIncluded(offer.Coverages, "Assistance") {
			return model.QuestionResponse{HasAnswer: true, Details: "Assistance 24h/24 disponible"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Assistance aux heures ouvrées uniquement"}

	case strings.Contains(q, "juridique"):
		if utils.CoverageIncluded(offer.Coverages, "Protection juridique") {
			return model.QuestionResponse{HasAnswer: true, Details: "Protection juridique incluse"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Protection juridique non incluse"}

	case strings.Contains(q, "franchise") && strings.Contains(q, "glace"):
		// Mock branch: deductible data is not modelled yet, so the verdict
		// is random pending real quote-provider integration.
		if a.random() > 0.4 {
			return model.QuestionResponse{HasAnswer: true, Details: "Franchise réduite sur le bris de glace"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Franchise standard applicable"}

	case strings.Contains(q, "remplacement"):
		if utils.CoverageIncluded(offer.Coverages, "Véhicule de remplacement") {
			return model.QuestionResponse{HasAnswer: true, Details: "Véhicule de remplacement fourni"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Pas de véhicule de remplacement"}

	default:
		// Mock branch: unmatched questions answer at random pending real
		// quote-provider integration.
		if a.random() > 0.3 {
			return model.QuestionResponse{HasAnswer: true, Details: "Couvert selon les conditions générales"}
		}
		return model.QuestionResponse{HasAnswer: false, Details: "Non précisé dans les garanties"}
	}
}

func (a *RuleAnalyzer) random() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64()
}

// CompatibilityScores aggregates the question ledger per offer: Score counts
// the questions the offer passed, Percentage is Score over the total asked.
// With zero questions asked every percentage is 0 (never NaN).
func CompatibilityScores(offers []model.Offer, questions []model.AskedQuestion) []model.CompatibilityScore {
	total := len(questions)
	scores := make([]model.CompatibilityScore, 0, len(offers))
	for _, offer := range offers {
		count := 0
		for _, q := range questions {
			if resp, ok := q.Responses[offer.ID]; ok && resp.HasAnswer {
				count++
			}
		}
		percentage := 0.0
		if total > 0 {
			percentage = math.Round(float64(count)/float64(total)*1000) / 10
		}
		scores = append(scores, model.CompatibilityScore{
			OfferID:    offer.ID,
			Score:      count,
			Percentage: percentage,
		})
	}
	return scores
}
