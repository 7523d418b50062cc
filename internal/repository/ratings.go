package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PromptVault/ratings-api/internal/domain"
)

// RatingsRepository provides persistence helpers for template ratings and
// their derived aggregates.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingSubmitParams captures the payload required to submit a rating.
type RatingSubmitParams struct {
	TemplateID string
	UserHash   string
	Value      int
	Comment    *string
}

// Submit upserts the user's rating row and recomputes the template's
// aggregate in a single transaction. Submissions for the same template are
// serialized with a transaction-scoped advisory lock: under READ COMMITTED,
// two concurrent recomputes could otherwise each miss the other's uncommitted
// row and the later aggregate write would stick with a stale average.
func (r *RatingsRepository) Submit(ctx context.Context, params RatingSubmitParams) (domain.RatingAggregate, error) {
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

	const upsertQuery = `
        INSERT INTO ratings (template_id, user_hash, rating, comment)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (template_id, user_hash)
        DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = now()
    `

	const aggregateQuery = `
        INSERT INTO rating_aggregates (template_id, average_rating, rating_count, updated_at)
        SELECT template_id, AVG(rating)::double precision, COUNT(*), now()
        FROM ratings
        WHERE template_id = $1
        GROUP BY template_id
        ON CONFLICT (template_id)
        DO UPDATE SET average_rating = EXCLUDED.average_rating,
                      rating_count = EXCLUDED.rating_count,
                      updated_at = EXCLUDED.updated_at
        RETURNING template_id, average_rating, rating_count, updated_at
    `

	var agg domain.RatingAggregate
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockQuery, params.TemplateID); err != nil {
			return fmt.Errorf("acquire template lock: %w", err)
		}
		if _, err := tx.Exec(ctx, upsertQuery, params.TemplateID, params.UserHash, params.Value, params.Comment); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}
		err := tx.QueryRow(ctx, aggregateQuery, params.TemplateID).Scan(
			&agg.TemplateID,
			&agg.Average,
			&agg.Count,
			&agg.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("recompute aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RatingAggregate{}, err
	}
	return agg, nil
}

// Aggregate returns the stored aggregate for a template. Templates without
// any ratings yield a zero aggregate, never ErrNotFound.
func (r *RatingsRepository) Aggregate(ctx context.Context, templateID string) (domain.RatingAggregate, error) {
	const query = `
        SELECT template_id, average_rating, rating_count, updated_at
        FROM rating_aggregates
        WHERE template_id = $1
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, templateID).Scan(
		&agg.TemplateID,
		&agg.Average,
		&agg.Count,
		&agg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatingAggregate{TemplateID: templateID}, nil
		}
		return domain.RatingAggregate{}, fmt.Errorf("fetch aggregate: %w", err)
	}
	return agg, nil
}

// Get retrieves a rating for a specific user/template combination.
func (r *RatingsRepository) Get(ctx context.Context, templateID, userHash string) (domain.Rating, error) {
	const query = `
        SELECT template_id, user_hash, rating, comment, created_at, updated_at
        FROM ratings
        WHERE template_id = $1 AND user_hash = $2
    `

	var rating domain.Rating
	err := r.pool.QueryRow(ctx, query, templateID, userHash).Scan(
		&rating.TemplateID,
		&rating.UserHash,
		&rating.Value,
		&rating.Comment,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// RecentComments returns the newest ratings carrying a non-empty comment for
// a template, most recent first.
func (r *RatingsRepository) RecentComments(ctx context.Context, templateID string, limit int) ([]domain.Rating, error) {
	const query = `
        SELECT template_id, user_hash, rating, comment, created_at, updated_at
        FROM ratings
        WHERE template_id = $1 AND comment IS NOT NULL AND btrim(comment) <> ''
        ORDER BY updated_at DESC
        LIMIT $2
    `

	rows, err := r.pool.Query(ctx, query, templateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent comments: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Rating, 0, limit)
	for rows.Next() {
		var rating domain.Rating
		err := rows.Scan(
			&rating.TemplateID,
			&rating.UserHash,
			&rating.Value,
			&rating.Comment,
			&rating.CreatedAt,
			&rating.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListStats returns every template's aggregate joined with its download
// counter, zero when the template has never been downloaded.
func (r *RatingsRepository) ListStats(ctx context.Context) ([]domain.TemplateStats, error) {
	const query = `
        SELECT a.template_id, a.average_rating, a.rating_count, COALESCE(d.download_count, 0)
        FROM rating_aggregates a
        LEFT JOIN downloads d ON d.template_id = a.template_id
        ORDER BY a.template_id
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list template stats: %w", err)
	}
	defer rows.Close()

	results := make([]domain.TemplateStats, 0)
	for rows.Next() {
		var stats domain.TemplateStats
		if err := rows.Scan(&stats.TemplateID, &stats.Average, &stats.Count, &stats.Downloads); err != nil {
			return nil, err
		}
		results = append(results, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
