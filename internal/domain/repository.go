package domain

import "context"

// ResultRepository persists canonical generation records. The subsystem is
// append-only: there is no update or delete path here. Reads are always
// scoped to the owning user.
type ResultRepository interface {
	Create(ctx context.Context, record *ResultRecord) error
	GetByID(ctx context.Context, ownerID, id string) (*ResultRecord, error)
	ListByOwner(ctx context.Context, ownerID, contentType string, limit, offset int) ([]ResultRecord, error)
}

// LibraryRepository maintains the cross-content-type library index. An empty
// contentType lists every type.
type LibraryRepository interface {
	Add(ctx context.Context, entry *LibraryEntry) error
	ListByOwner(ctx context.Context, ownerID, contentType string) ([]LibraryEntry, error)
}
