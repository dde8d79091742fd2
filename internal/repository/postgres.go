package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

// ErrNotFound is returned when a targeted record does not exist or belongs
// to another user.
var ErrNotFound = errors.New("repository: record not found")

// PostgresRepository persists comparison history and the question log.
type PostgresRepository struct {
	db *sqlx.DB
	// embeddingDims is the dimensionality of the question embedding column.
	embeddingDims int
}

// NewPostgresRepository connects to PostgreSQL and configures the pool.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, embeddingDims int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db, embeddingDims: embeddingDims}, nil
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the history tables when missing. The vector extension
// backs the question embedding column.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			insurance_type TEXT NOT NULL,
			criteria JSONB NOT NULL,
			results_count INT NOT NULL,
			top_offer JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_user_created
			ON comparisons (user_id, created_at DESC)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS question_logs (
			id UUID PRIMARY KEY,
			comparison_id UUID NOT NULL,
			question TEXT NOT NULL,
			responses JSONB NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, r.embeddingDims),
		`CREATE INDEX IF NOT EXISTS idx_question_logs_comparison
			ON question_logs (comparison_id)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveComparison inserts one past comparison.
func (r *PostgresRepository) SaveComparison(ctx context.Context, rec model.PastComparison) error {
	query := `
		INSERT INTO comparisons (id, user_id, insurance_type, criteria, results_count, top_offer, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.InsuranceType, rec.Criteria, rec.ResultsCount, rec.TopOffer, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	return nil
}

// ListComparisons returns the user's non-expired comparisons, newest first.
// Expired records are filtered out of listings, not deleted: removal only
// happens via DeleteExpired/DeleteAll. The page and the total count are
// fetched concurrently.
func (r *PostgresRepository) ListComparisons(ctx context.Context, userID string, limit, offset int) ([]model.PastComparison, int, error) {
	var (
		comparisons []model.PastComparison
		total       int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := `
			SELECT id, user_id, insurance_type, criteria, results_count, top_offer, created_at, expires_at
			FROM comparisons
			WHERE user_id = $1 AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		if err := r.db.SelectContext(gctx, &comparisons, query, userID, limit, offset); err != nil {
			return fmt.Errorf("failed to list comparisons: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		query := `SELECT COUNT(*) FROM comparisons WHERE user_id = $1 AND expires_at > NOW()`
		if err := r.db.GetContext(gctx, &total, query, userID); err != nil {
			return fmt.Errorf("failed to count comparisons: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return comparisons, total, nil
}

// GetComparison returns one comparison, or nil when it does not exist.
func (r *PostgresRepository) GetComparison(ctx context.Context, userID, id string) (*model.PastComparison, error) {
	var rec model.PastComparison
	query := `
		SELECT id, user_id, insurance_type, criteria, results_count, top_offer, created_at, expires_at
		FROM comparisons
		WHERE id = $1 AND user_id = $2
	`
	err := r.db.GetContext(ctx, &rec, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}
	return &rec, nil
}

// DeleteComparison removes one comparison and its question log.
func (r *PostgresRepository) DeleteComparison(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM question_logs WHERE comparison_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question logs: %w", err)
	}
	return nil
}

// DeleteExpired removes the user's expired comparisons.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comparisons WHERE user_id = $1 AND expires_at <= NOW()`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired comparisons: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected, nil
}

// DeleteAll removes the user's whole comparison history.
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comparisons WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comparisons: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected, nil
}

// LogQuestion records one analyzed question for a comparison session. The
// embedding column stays NULL until an external worker supplies it.
func (r *PostgresRepository) LogQuestion(ctx context.Context, comparisonID, question string, responses model.ResponseMap) error {
	query := `
		INSERT INTO question_logs (id, comparison_id, question, responses)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), comparisonID, question, responses)
	if err != nil {
		return fmt.Errorf("failed to log question: %w", err)
	}
	return nil
}

// BatchUpdateQuestionEmbeddings stores externally computed embeddings for
// logged questions, one transaction for the whole batch.
func (r *PostgresRepository) BatchUpdateQuestionEmbeddings(ctx context.Context, items []model.QuestionEmbedding) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE question_logs SET embedding = $1 WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		vec := pgvector.NewVector(item.Embedding)
		res, err := stmt.ExecContext(ctx, vec, item.QuestionLogID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("question_log %s: %v", item.QuestionLogID, err))
			continue
		}
		affected, err := res.RowsAffected()
		if err != nil {
			errs = append(errs, fmt.Sprintf("question_log %s: %v", item.QuestionLogID, err))
			continue
		}
		if affected == 0 {
			errs = append(errs, fmt.Sprintf("question_log %s: not found", item.QuestionLogID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}
