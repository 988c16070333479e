package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
)

// LibraryRepositoryPG implements domain.LibraryRepository using PostgreSQL.
type LibraryRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLibraryRepository constructs a new library repository instance.
func NewLibraryRepository(pool *pgxpool.Pool) *LibraryRepositoryPG {
	return &LibraryRepositoryPG{pool: pool}
}

// Add inserts a library index row pointing at an existing generation.
func (r *LibraryRepositoryPG) Add(ctx context.Context, entry *domain.LibraryEntry) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO library_items (id, owner_id, content_type, content_id, date_added)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (owner_id, content_type, content_id) DO NOTHING;
`, entry.ID, entry.OwnerID, entry.ContentType, entry.ContentID, entry.DateAdded)
	return err
}

// ListByOwner returns the owner's library, newest first. An empty contentType
// returns all types.
func (r *LibraryRepositoryPG) ListByOwner(ctx context.Context, ownerID, contentType string) ([]domain.LibraryEntry, error) {
	query := `
SELECT id, owner_id, content_type, content_id, date_added
FROM library_items
WHERE owner_id = $1
ORDER BY date_added DESC;
`
	args := []any{ownerID}
	if contentType != "" {
		query = `
SELECT id, owner_id, content_type, content_id, date_added
FROM library_items
WHERE owner_id = $1 AND content_type = $2
ORDER BY date_added DESC;
`
		args = append(args, contentType)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LibraryEntry
	for rows.Next() {
		var entry domain.LibraryEntry
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.ContentType, &entry.ContentID, &entry.DateAdded); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
