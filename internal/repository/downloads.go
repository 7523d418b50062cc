package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PromptVault/ratings-api/internal/domain"
)

// DownloadsRepository provides persistence helpers for download counters.
type DownloadsRepository struct {
	pool *pgxpool.Pool
}

// Increment records one download for a template and returns the resulting
// count. The add happens inside the statement, so concurrent increments for
// the same template cannot be lost.
func (r *DownloadsRepository) Increment(ctx context.Context, templateID string) (int64, error) {
	const query = `
        INSERT INTO downloads (template_id, download_count)
        VALUES ($1, 1)
        ON CONFLICT (template_id)
        DO UPDATE SET download_count = downloads.download_count + 1
        RETURNING download_count
    `

	var count int64
	if err := r.pool.QueryRow(ctx, query, templateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment download: %w", err)
	}
	return count, nil
}

// List returns every template's download counter.
func (r *DownloadsRepository) List(ctx context.Context) ([]domain.DownloadCounter, error) {
	const query = `
        SELECT template_id, download_count
        FROM downloads
        ORDER BY template_id
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	results := make([]domain.DownloadCounter, 0)
	for rows.Next() {
		var counter domain.DownloadCounter
		if err := rows.Scan(&counter.TemplateID, &counter.Count); err != nil {
			return nil, err
		}
		results = append(results, counter)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
