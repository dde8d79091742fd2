package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// ErrHistoryDisabled is returned by history operations when no repository is
// configured.
var ErrHistoryDisabled = errors.New("comparison: history persistence is disabled")

// HistoryRepository persists past comparisons and the question log.
type HistoryRepository interface {
	SaveComparison(ctx context.Context, rec model.PastComparison) error
	ListComparisons(ctx context.Context, userID string, limit, offset int) ([]model.PastComparison, int, error)
	GetComparison(ctx context.Context, userID, id string) (*model.PastComparison, error)
	DeleteComparison(ctx context.Context, userID, id string) error
	DeleteExpired(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	LogQuestion(ctx context.Context, comparisonID, question string, responses model.ResponseMap) error
	BatchUpdateQuestionEmbeddings(ctx context.Context, items []model.QuestionEmbedding) (int, []string)
}

// ComparisonService orchestrates the comparison flow: pricing, session
// state, question analysis, the canned assistant and best-effort history
// persistence. All collaborators are injected; there are no package-level
// singletons.
type ComparisonService struct {
	pricing   *PricingEngine
	sessions  *SessionStore
	analyzer  QuestionAnalyzer
	assistant *Assistant
	repo      HistoryRepository // nil disables history
	retention time.Duration
}

// NewComparisonService wires the comparison service. repo may be nil, in
// which case history endpoints report ErrHistoryDisabled and comparison runs
// are simply not recorded.
func NewComparisonService(
	pricing *PricingEngine,
	sessions *SessionStore,
	analyzer QuestionAnalyzer,
	assistant *Assistant,
	repo HistoryRepository,
	retention time.Duration,
) *ComparisonService {
	return &ComparisonService{
		pricing:   pricing,
		sessions:  sessions,
		analyzer:  analyzer,
		assistant: assistant,
		repo:      repo,
		retention: retention,
	}
}

// Compare runs the pricing pipeline and opens (or re-runs) a comparison
// session. Re-running an existing session goes through the generation
// counter, so a slow stale run cannot overwrite a newer result set.
func (s *ComparisonService) Compare(ctx context.Context, userID string, req *model.CompareRequest) (*model.CompareResponse, error) {
	startTime := time.Now()

	var sess Session
	if req.ComparisonID != "" {
		generation, err := s.sessions.BeginRerun(req.ComparisonID)
		if err != nil {
			return nil, err
		}
		offers, err := s.pricing.ComputeOffers(ctx, req.Category, req.Criteria, req.CurrentPolicy)
		if err != nil {
			return nil, err
		}
		sess, err = s.sessions.ReplaceOffers(req.ComparisonID, generation, req.Category, req.Criteria, offers)
		if err != nil {
			return nil, err
		}
	} else {
		offers, err := s.pricing.ComputeOffers(ctx, req.Category, req.Criteria, req.CurrentPolicy)
		if err != nil {
			return nil, err
		}
		sess = *s.sessions.Create(userID, req.Category, req.Criteria, offers)
	}

	took := time.Since(startTime).Milliseconds()

	// Record the run in history (best-effort, non-blocking).
	if s.repo != nil && len(sess.Offers) > 0 {
		rec := model.PastComparison{
			ID:            sess.ID,
			UserID:        userID,
			InsuranceType: req.Category,
			Criteria:      model.CriteriaSnapshot{ComparisonCriteria: req.Criteria},
			ResultsCount:  len(sess.Offers),
			TopOffer: model.TopOfferSummary{
				Insurer: sess.Offers[0].Insurer,
				Monthly: sess.Offers[0].Price.Monthly,
				Rating:  sess.Offers[0].Rating,
				Score:   sess.Offers[0].Score,
			},
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(s.retention),
		}
		go func() {
			if err := s.repo.SaveComparison(context.Background(), rec); err != nil {
				log.Printf("Warning: failed to save comparison history: %v", err)
			}
		}()
	}

	return &model.CompareResponse{
		ComparisonID: sess.ID,
		Category:     sess.Category,
		Offers:       sess.Offers,
		Total:        len(sess.Offers),
		Stats:        ComputeStats(sess.Offers),
		Took:         took,
	}, nil
}

// Results returns one filtered, paginated page of a session's offers.
func (s *ComparisonService) Results(sessionID string, req *model.ResultsRequest) (*model.ResultsResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	filters := model.FilterState{}
	if req.Filters != nil {
		filters = *req.Filters
	}

	filtered := FilterOffers(sess.Offers, filters)
	page := Paginate(filtered, req.Page, req.PageSize)

	return &model.ResultsResponse{
		Results:    page.Offers,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasMore:    page.HasMore,
		Stats:      ComputeStats(filtered),
	}, nil
}

// AskQuestion analyzes a free-text question against the session's offers,
// appends the ledger entry and returns the updated compatibility aggregates.
func (s *ComparisonService) AskQuestion(ctx context.Context, sessionID, question string) (*model.QuestionResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	asked := model.AskedQuestion{
		Question:  question,
		Timestamp: time.Now(),
		Responses: s.analyzer.Analyze(ctx, question, sess.Offers),
	}

	sess, err = s.sessions.AppendQuestion(sessionID, asked)
	if err != nil {
		return nil, err
	}

	// Log the question (best-effort, non-blocking).
	if s.repo != nil {
		go func() {
			if err := s.repo.LogQuestion(context.Background(), sessionID, asked.Question, asked.Responses); err != nil {
				log.Printf("Warning: failed to log question: %v", err)
			}
		}()
	}

	return &model.QuestionResult{
		Question:       asked,
		TotalQuestions: len(sess.Questions),
		Compatibility:  CompatibilityScores(sess.Offers, sess.Questions),
	}, nil
}

// Chat returns a canned assistant reply about the session's offers.
func (s *ComparisonService) Chat(sessionID, message string) (*model.ChatResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return &model.ChatResponse{Reply: s.assistant.Reply(message, sess.Offers)}, nil
}

// ListHistory returns the user's non-expired past comparisons, newest first.
func (s *ComparisonService) ListHistory(ctx context.Context, userID string, limit, offset int) (*model.HistoryResponse, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	comparisons, total, err := s.repo.ListComparisons(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &model.HistoryResponse{Comparisons: comparisons, Total: total}, nil
}

// GetHistory returns one past comparison, or nil when not found.
func (s *ComparisonService) GetHistory(ctx context.Context, userID, id string) (*model.PastComparison, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetComparison(ctx, userID, id)
}

// DeleteHistory removes one past comparison.
func (s *ComparisonService) DeleteHistory(ctx context.Context, userID, id string) error {
	if s.repo == nil {
		return ErrHistoryDisabled
	}
	return s.repo.DeleteComparison(ctx, userID, id)
}

// ClearHistory removes either the expired records only or the user's whole
// history.
func (s *ComparisonService) ClearHistory(ctx context.Context, userID string, expiredOnly bool) (int64, error) {
	if s.repo == nil {
		return 0, ErrHistoryDisabled
	}
	if expiredOnly {
		return s.repo.DeleteExpired(ctx, userID)
	}
	return s.repo.DeleteAll(ctx, userID)
}

// UpdateQuestionEmbeddings stores externally computed embeddings for logged
// questions.
func (s *ComparisonService) UpdateQuestionEmbeddings(ctx context.Context, items []model.QuestionEmbedding) (int, []string, error) {
	if s.repo == nil {
		return 0, nil, ErrHistoryDisabled
	}
	success, errs := s.repo.BatchUpdateQuestionEmbeddings(ctx, items)
	return success, errs, nil
}
