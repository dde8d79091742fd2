package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

const testEmbeddingDims = 4

// setupTestRepo spins up a throwaway pgvector-enabled PostgreSQL container.
func setupTestRepo(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("assubot_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to build connection string: %v", err)
	}

	repo, err := NewPostgresRepository(dsn, 5, 2, testEmbeddingDims)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return repo
}

func testComparison(userID string, expiresIn time.Duration) model.PastComparison {
	return model.PastComparison{
		ID:            uuid.NewString(),
		UserID:        userID,
		InsuranceType: model.CategoryAuto,
		Criteria: model.CriteriaSnapshot{ComparisonCriteria: model.ComparisonCriteria{
			Age:           "22",
			Location:      "Paris",
			MonthlyBudget: "40",
		}},
		ResultsCount: 4,
		TopOffer: model.TopOfferSummary{
			Insurer: "Direct Assurance",
			Monthly: 45,
			Rating:  4.2,
			Score:   68,
		},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiresIn),
	}
}

func TestComparisonRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := testComparison("user-1", time.Hour)
	if err := repo.SaveComparison(ctx, rec); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}

	got, err := repo.GetComparison(ctx, "user-1", rec.ID)
	if err != nil {
		t.Fatalf("GetComparison() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetComparison() = nil, want record")
	}
	if got.InsuranceType != model.CategoryAuto {
		t.Errorf("InsuranceType = %q, want auto", got.InsuranceType)
	}
	if got.Criteria.Location != "Paris" {
		t.Errorf("Criteria.Location = %q, want Paris", got.Criteria.Location)
	}
	if got.TopOffer.Insurer != "Direct Assurance" {
		t.Errorf("TopOffer.Insurer = %q, want Direct Assurance", got.TopOffer.Insurer)
	}
}

func TestGetComparisonScopedToUser(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := testComparison("user-1", time.Hour)
	if err := repo.SaveComparison(ctx, rec); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}

	got, err := repo.GetComparison(ctx, "user-2", rec.ID)
	if err != nil {
		t.Fatalf("GetComparison() error = %v", err)
	}
	if got != nil {
		t.Error("GetComparison() leaked another user's record")
	}
}

func TestListComparisonsFiltersExpired(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	live := testComparison("user-1", time.Hour)
	expired := testComparison("user-1", -time.Hour)
	other := testComparison("user-2", time.Hour)
	for _, rec := range []model.PastComparison{live, expired, other} {
		if err := repo.SaveComparison(ctx, rec); err != nil {
			t.Fatalf("SaveComparison() error = %v", err)
		}
	}

	list, total, err := repo.ListComparisons(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListComparisons() error = %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("ListComparisons() total = %d len = %d, want 1", total, len(list))
	}
	if list[0].ID != live.ID {
		t.Errorf("listed record = %s, want the non-expired one", list[0].ID)
	}

	// Expired records linger until an explicit clear.
	deleted, err := repo.DeleteExpired(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", deleted)
	}
}

func TestDeleteComparison(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := testComparison("user-1", time.Hour)
	if err := repo.SaveComparison(ctx, rec); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}
	if err := repo.LogQuestion(ctx, rec.ID, "vol ?", model.ResponseMap{"auto-direct": {HasAnswer: true}}); err != nil {
		t.Fatalf("LogQuestion() error = %v", err)
	}

	if err := repo.DeleteComparison(ctx, "user-1", rec.ID); err != nil {
		t.Fatalf("DeleteComparison() error = %v", err)
	}

	got, err := repo.GetComparison(ctx, "user-1", rec.ID)
	if err != nil {
		t.Fatalf("GetComparison() error = %v", err)
	}
	if got != nil {
		t.Error("record survived deletion")
	}

	err = repo.DeleteComparison(ctx, "user-1", rec.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.SaveComparison(ctx, testComparison("user-1", time.Hour)); err != nil {
			t.Fatalf("SaveComparison() error = %v", err)
		}
	}
	if err := repo.SaveComparison(ctx, testComparison("user-2", time.Hour)); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}

	deleted, err := repo.DeleteAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteAll() = %d, want 3", deleted)
	}

	_, total, err := repo.ListComparisons(ctx, "user-2", 10, 0)
	if err != nil {
		t.Fatalf("ListComparisons() error = %v", err)
	}
	if total != 1 {
		t.Errorf("other user's history = %d records, want 1", total)
	}
}

func TestBatchUpdateQuestionEmbeddings(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := testComparison("user-1", time.Hour)
	if err := repo.SaveComparison(ctx, rec); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}
	if err := repo.LogQuestion(ctx, rec.ID, "assistance 24h/24 ?", model.ResponseMap{"auto-direct": {HasAnswer: true}}); err != nil {
		t.Fatalf("LogQuestion() error = %v", err)
	}

	var logID string
	if err := repo.db.Get(&logID, `SELECT id FROM question_logs WHERE comparison_id = $1`, rec.ID); err != nil {
		t.Fatalf("failed to read question log id: %v", err)
	}

	items := []model.QuestionEmbedding{
		{QuestionLogID: logID, Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
		{QuestionLogID: uuid.NewString(), Embedding: []float32{0.5, 0.6, 0.7, 0.8}},
	}

	success, errs := repo.BatchUpdateQuestionEmbeddings(ctx, items)
	if success != 1 {
		t.Errorf("success = %d, want 1", success)
	}
	if len(errs) != 1 {
		t.Errorf("len(errs) = %d, want 1 (unknown log id)", len(errs))
	}
}
