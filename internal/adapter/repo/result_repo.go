package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
)

// ResultRepositoryPG implements domain.ResultRepository using PostgreSQL.
type ResultRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewResultRepository constructs a new result repository instance.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepositoryPG {
	return &ResultRepositoryPG{pool: pool}
}

// Create inserts the canonical generation row.
func (r *ResultRepositoryPG) Create(ctx context.Context, rec *domain.ResultRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO generations (id, owner_id, content_type, title, prompt, spec, storage_paths, display_urls, status, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`, rec.ID, rec.OwnerID, rec.ContentType, rec.Title, rec.Prompt, rec.SpecJSON,
		rec.StoragePaths, rec.DisplayURLs, rec.Status, metadata, rec.CreatedAt)
	return err
}

// GetByID fetches one generation scoped to its owner.
func (r *ResultRepositoryPG) GetByID(ctx context.Context, ownerID, id string) (*domain.ResultRecord, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, owner_id, content_type, title, prompt, spec, storage_paths, display_urls, status, metadata, created_at
FROM generations
WHERE id = $1 AND owner_id = $2;
`, id, ownerID)
	rec, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByOwner returns an owner's generations for one content type, newest
// first.
func (r *ResultRepositoryPG) ListByOwner(ctx context.Context, ownerID, contentType string, limit, offset int) ([]domain.ResultRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, content_type, title, prompt, spec, storage_paths, display_urls, status, metadata, created_at
FROM generations
WHERE owner_id = $1 AND content_type = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4;
`, ownerID, contentType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanResult(row pgx.Row) (*domain.ResultRecord, error) {
	var rec domain.ResultRecord
	var metadata []byte
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.ContentType, &rec.Title, &rec.Prompt,
		&rec.SpecJSON, &rec.StoragePaths, &rec.DisplayURLs, &rec.Status, &metadata, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
