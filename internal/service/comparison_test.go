package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// fakeHistoryRepo is an in-memory HistoryRepository for unit tests.
type fakeHistoryRepo struct {
	mu          sync.Mutex
	comparisons map[string]model.PastComparison
	questions   []string
	saveErr     error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{comparisons: make(map[string]model.PastComparison)}
}

func (f *fakeHistoryRepo) SaveComparison(_ context.Context, rec model.PastComparison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.comparisons[rec.ID] = rec
	return nil
}

func (f *fakeHistoryRepo) ListComparisons(_ context.Context, userID string, limit, offset int) ([]model.PastComparison, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PastComparison
	for _, rec := range f.comparisons {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeHistoryRepo) GetComparison(_ context.Context, userID, id string) (*model.PastComparison, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.comparisons[id]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeHistoryRepo) DeleteComparison(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.comparisons[id]
	if !ok || rec.UserID != userID {
		return errors.New("fake: not found")
	}
	delete(f.comparisons, id)
	return nil
}

func (f *fakeHistoryRepo) DeleteExpired(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for id, rec := range f.comparisons {
		if rec.UserID == userID && rec.ExpiresAt.Before(now) {
			delete(f.comparisons, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeHistoryRepo) DeleteAll(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, rec := range f.comparisons {
		if rec.UserID == userID {
			delete(f.comparisons, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeHistoryRepo) LogQuestion(_ context.Context, _, question string, _ model.ResponseMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	return nil
}

func (f *fakeHistoryRepo) BatchUpdateQuestionEmbeddings(_ context.Context, items []model.QuestionEmbedding) (int, []string) {
	return len(items), nil
}

func (f *fakeHistoryRepo) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comparisons)
}

func (f *fakeHistoryRepo) loggedQuestions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

// waitFor polls cond until it holds or the deadline passes. History writes
// are fired on background goroutines, so tests have to wait for them.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestService(t *testing.T, repo HistoryRepository) *ComparisonService {
	t.Helper()
	engine := newTestEngine(t)
	store := NewSessionStore(time.Hour)
	t.Cleanup(store.Close)
	return NewComparisonService(engine, store, NewRuleAnalyzer(1), NewAssistant(), repo, 30*24*time.Hour)
}

func TestCompareOpensSession(t *testing.T) {
	repo := newFakeHistoryRepo()
	svc := newTestService(t, repo)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category: model.CategoryAuto,
		Criteria: model.ComparisonCriteria{Age: "22", Profession: "Étudiant", Location: "Paris", MonthlyBudget: "40"},
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if resp.ComparisonID == "" {
		t.Error("Compare() returned an empty comparison ID")
	}
	if resp.Total != 4 || len(resp.Offers) != 4 {
		t.Errorf("Compare() total = %d offers = %d, want 4", resp.Total, len(resp.Offers))
	}
	if !resp.Offers[0].Recommended {
		t.Error("first offer should be the recommendation")
	}

	waitFor(t, func() bool { return repo.savedCount() == 1 })
}

func TestCompareRerunReplacesOffers(t *testing.T) {
	svc := newTestService(t, nil)

	first, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category: model.CategoryAuto,
		Criteria: model.ComparisonCriteria{MonthlyBudget: "40"},
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	second, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category:     model.CategoryHome,
		Criteria:     model.ComparisonCriteria{PropertyType: "maison"},
		ComparisonID: first.ComparisonID,
	})
	if err != nil {
		t.Fatalf("Compare() rerun error = %v", err)
	}

	if second.ComparisonID != first.ComparisonID {
		t.Error("rerun should keep the session ID")
	}
	if second.Category != model.CategoryHome {
		t.Errorf("rerun category = %q, want home", second.Category)
	}
}

func TestCompareRerunUnknownSession(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category:     model.CategoryAuto,
		ComparisonID: "no-such-session",
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Compare() error = %v, want ErrSessionNotFound", err)
	}
}

func TestResultsFiltersAndPaginates(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category: model.CategoryAuto,
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	results, err := svc.Results(resp.ComparisonID, &model.ResultsRequest{
		Filters:  &model.FilterState{PriceRange: [2]float64{0, 40}, Rating: 4.3},
		Page:     1,
		PageSize: 5,
	})
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}

	if results.Total != 1 || len(results.Results) != 1 {
		t.Fatalf("Results() total = %d len = %d, want 1", results.Total, len(results.Results))
	}
	if results.Results[0].Insurer != "MAIF" {
		t.Errorf("surviving offer = %q, want MAIF", results.Results[0].Insurer)
	}
	if results.Stats.AveragePrice != 38 {
		t.Errorf("AveragePrice = %v, want 38", results.Stats.AveragePrice)
	}
}

func TestResultsKeepsCurrentContractOnEveryPage(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{
		Category:      model.CategoryAuto,
		CurrentPolicy: &model.ExistingPolicy{ID: "pol-1", Insurer: "Groupama", Premium: 456},
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	for page := 1; page <= 2; page++ {
		results, err := svc.Results(resp.ComparisonID, &model.ResultsRequest{Page: page, PageSize: 2})
		if err != nil {
			t.Fatalf("Results(page %d) error = %v", page, err)
		}
		if len(results.Results) == 0 || !results.Results[0].IsCurrentContract {
			t.Errorf("page %d does not lead with the current contract", page)
		}
	}
}

func TestAskQuestionAppendsLedgerAndLogs(t *testing.T) {
	repo := newFakeHistoryRepo()
	svc := newTestService(t, repo)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{Category: model.CategoryAuto})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	first, err := svc.AskQuestion(context.Background(), resp.ComparisonID, "Y a-t-il une assistance 24h/24 ?")
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if first.TotalQuestions != 1 {
		t.Errorf("TotalQuestions = %d, want 1", first.TotalQuestions)
	}
	if len(first.Compatibility) != 4 {
		t.Errorf("len(Compatibility) = %d, want 4", len(first.Compatibility))
	}

	second, err := svc.AskQuestion(context.Background(), resp.ComparisonID, "La protection juridique est-elle incluse ?")
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if second.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", second.TotalQuestions)
	}

	waitFor(t, func() bool { return repo.loggedQuestions() == 2 })
}

func TestChatUsesSessionOffers(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{Category: model.CategoryAuto})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	chat, err := svc.Chat(resp.ComparisonID, "Quelle est l'offre la moins chère ?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if chat.Reply == "" {
		t.Error("Chat() returned an empty reply")
	}
}

func TestHistoryDisabledWithoutRepository(t *testing.T) {
	svc := newTestService(t, nil)

	if _, err := svc.ListHistory(context.Background(), "user-1", 10, 0); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("ListHistory() error = %v, want ErrHistoryDisabled", err)
	}
	if _, err := svc.GetHistory(context.Background(), "user-1", "id"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("GetHistory() error = %v, want ErrHistoryDisabled", err)
	}
	if err := svc.DeleteHistory(context.Background(), "user-1", "id"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("DeleteHistory() error = %v, want ErrHistoryDisabled", err)
	}
	if _, err := svc.ClearHistory(context.Background(), "user-1", false); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("ClearHistory() error = %v, want ErrHistoryDisabled", err)
	}
	if _, _, err := svc.UpdateQuestionEmbeddings(context.Background(), nil); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("UpdateQuestionEmbeddings() error = %v, want ErrHistoryDisabled", err)
	}
}

func TestHistoryFlowWithRepository(t *testing.T) {
	repo := newFakeHistoryRepo()
	svc := newTestService(t, repo)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{Category: model.CategoryAuto})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	waitFor(t, func() bool { return repo.savedCount() == 1 })

	list, err := svc.ListHistory(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if list.Total != 1 {
		t.Errorf("ListHistory() total = %d, want 1", list.Total)
	}

	rec, err := svc.GetHistory(context.Background(), "user-1", resp.ComparisonID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if rec == nil || rec.InsuranceType != model.CategoryAuto {
		t.Errorf("GetHistory() = %+v", rec)
	}

	deleted, err := svc.ClearHistory(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("ClearHistory() deleted = %d, want 1", deleted)
	}
}

func TestCompareSurvivesHistoryFailure(t *testing.T) {
	repo := newFakeHistoryRepo()
	repo.saveErr = errors.New("fake: database down")
	svc := newTestService(t, repo)

	resp, err := svc.Compare(context.Background(), "user-1", &model.CompareRequest{Category: model.CategoryAuto})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if resp.Total != 4 {
		t.Errorf("Compare() total = %d, want 4", resp.Total)
	}
}
